// Package upload turns a validated principal into scoped, time-limited write
// access on the object store: single presigned PUTs and the full multipart
// lifecycle. The service keeps no session state of its own; credentials come
// from the broker per call and the store's view of parts is authoritative.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
)

const (
	// S3's valid part-number range for multipart uploads.
	minPartNumber = 1
	maxPartNumber = 10000
)

// Service drives upload flows against the object store on behalf of a
// validated principal. Safe for concurrent use.
type Service struct {
	broker  Broker
	stores  StoreProvider
	bucket  string
	allowed ContentTypeAllowList
	urlTTL  time.Duration
	maxSize int64
	log     *slog.Logger
}

// Broker mirrors creds.Broker; declared here so the service depends on the
// capability, not the STS implementation.
type Broker interface {
	AssumeUploadRole(ctx context.Context, principal, bucket, keyPrefix string, ttl time.Duration) (aws.Credentials, error)
}

func NewService(broker Broker, stores StoreProvider, bucket string, allowed ContentTypeAllowList, urlTTL time.Duration, maxSize int64, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		broker:  broker,
		stores:  stores,
		bucket:  bucket,
		allowed: allowed,
		urlTTL:  urlTTL,
		maxSize: maxSize,
		log:     log,
	}
}

// keyPrefix is the namespace all of a principal's uploads live under. The
// brokered credentials are scoped to exactly this prefix.
func keyPrefix(principal string) string {
	return "uploads/" + principal + "/"
}

// sanitizeFilename strips anything that could escape the principal's prefix.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	if name == "" || name == "." {
		return uuid.New().String()
	}
	return name
}

func (s *Service) objectKey(principal, filename string, now time.Time) string {
	if filename == "" {
		return keyPrefix(principal) + uuid.New().String()
	}
	return fmt.Sprintf("%s%d-%s", keyPrefix(principal), now.Unix(), sanitizeFilename(filename))
}

// checkRequest gates every operation that names a content type: principal
// first, then the allow-list, all before any upstream call.
func (s *Service) checkRequest(principal, contentType string) error {
	if principal == "" {
		return ErrUnauthorized
	}
	if !s.allowed.Allows(contentType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	return nil
}

// checkOwnership gates operations on an existing key: the key must sit under
// the principal's own prefix.
func checkOwnership(principal, key string) error {
	if principal == "" {
		return ErrUnauthorized
	}
	if !strings.HasPrefix(key, keyPrefix(principal)) {
		return fmt.Errorf("%w: key outside principal prefix", ErrUnauthorized)
	}
	return nil
}

// scopedStore assumes the upload role for the principal and binds a store to
// the resulting credentials.
func (s *Service) scopedStore(ctx context.Context, principal string) (ObjectStore, error) {
	c, err := s.broker.AssumeUploadRole(ctx, principal, s.bucket, keyPrefix(principal), s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}
	return s.stores.StoreFor(c), nil
}

// GetPresignedURL returns a single presigned PUT URL for a new object under
// the principal's prefix.
func (s *Service) GetPresignedURL(ctx context.Context, principal, contentType, filename string) (*PresignedUpload, error) {
	if err := s.checkRequest(principal, contentType); err != nil {
		return nil, err
	}
	key := s.objectKey(principal, filename, time.Now().UTC())

	store, err := s.scopedStore(ctx, principal)
	if err != nil {
		return nil, err
	}
	url, err := store.PresignPut(ctx, key, contentType, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}

	s.log.Info("presigned upload", "principal", principal, "key", key)
	return &PresignedUpload{
		URL:              url,
		Key:              key,
		Method:           http.MethodPut,
		ExpiresInSeconds: int64(s.urlTTL.Seconds()),
		MaxSizeBytes:     s.maxSize,
	}, nil
}

// CreateMultipartUpload opens a multipart session on the store and returns
// the store-assigned identifiers.
func (s *Service) CreateMultipartUpload(ctx context.Context, principal, contentType, filename string) (*MultipartUpload, error) {
	if err := s.checkRequest(principal, contentType); err != nil {
		return nil, err
	}
	key := s.objectKey(principal, filename, time.Now().UTC())

	store, err := s.scopedStore(ctx, principal)
	if err != nil {
		return nil, err
	}
	uploadID, err := store.CreateMultipart(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}

	s.log.Info("multipart upload created", "principal", principal, "key", key, "upload_id", uploadID)
	return &MultipartUpload{UploadID: uploadID, Key: key}, nil
}

// GetSignedURLForPart returns a presigned URL for exactly one part of an open
// multipart upload.
func (s *Service) GetSignedURLForPart(ctx context.Context, principal, key, uploadID string, partNumber int32) (string, error) {
	if err := checkOwnership(principal, key); err != nil {
		return "", err
	}
	if partNumber < minPartNumber || partNumber > maxPartNumber {
		return "", fmt.Errorf("%w: %d", ErrInvalidPartNumber, partNumber)
	}

	store, err := s.scopedStore(ctx, principal)
	if err != nil {
		return "", err
	}
	url, err := store.PresignPart(ctx, key, uploadID, partNumber, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}
	return url, nil
}

// ListParts queries the store for the parts uploaded so far. Pure
// passthrough: no local bookkeeping.
func (s *Service) ListParts(ctx context.Context, principal, key, uploadID string) ([]Part, error) {
	if err := checkOwnership(principal, key); err != nil {
		return nil, err
	}

	store, err := s.scopedStore(ctx, principal)
	if err != nil {
		return nil, err
	}
	parts, err := store.ListParts(ctx, key, uploadID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}
	return parts, nil
}

// CompleteMultipartUpload forwards the caller-declared part manifest to the
// store, which performs its own integrity check.
func (s *Service) CompleteMultipartUpload(ctx context.Context, principal, key, uploadID string, parts []Part) (*Completion, error) {
	if err := checkOwnership(principal, key); err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty part manifest", ErrCompletionRejected)
	}
	for _, p := range parts {
		if p.PartNumber < minPartNumber || p.PartNumber > maxPartNumber {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPartNumber, p.PartNumber)
		}
	}

	store, err := s.scopedStore(ctx, principal)
	if err != nil {
		return nil, err
	}
	done, err := store.CompleteMultipart(ctx, key, uploadID, parts)
	if err != nil {
		if errors.Is(err, ErrCompletionRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}

	s.log.Info("multipart upload completed", "principal", principal, "key", key, "upload_id", uploadID, "parts", len(parts))
	return done, nil
}

// AbortMultipartUpload releases the session. Idempotent: aborting an upload
// the store no longer knows is not an error.
func (s *Service) AbortMultipartUpload(ctx context.Context, principal, key, uploadID string) error {
	if err := checkOwnership(principal, key); err != nil {
		return err
	}

	store, err := s.scopedStore(ctx, principal)
	if err != nil {
		return err
	}
	if err := store.AbortMultipart(ctx, key, uploadID); err != nil {
		return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}

	s.log.Info("multipart upload aborted", "principal", principal, "key", key, "upload_id", uploadID)
	return nil
}
