package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Provider builds S3-backed object stores bound to brokered credentials, so
// presigned URLs and multipart calls run under the scoped session instead of
// the service's own role.
type S3Provider struct {
	cfg    aws.Config
	bucket string
}

func NewS3Provider(cfg aws.Config, bucket string) *S3Provider {
	return &S3Provider{cfg: cfg, bucket: bucket}
}

func (p *S3Provider) StoreFor(c aws.Credentials) ObjectStore {
	client := s3.NewFromConfig(p.cfg, func(o *s3.Options) {
		o.Credentials = aws.NewCredentialsCache(
			aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return c, nil
			}),
		)
	})
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  p.bucket,
	}
}

// S3Store implements ObjectStore against one bucket.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func (s *S3Store) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign put for %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	out, err := s.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart upload for %s: %w", key, err)
	}
	return aws.ToString(out.UploadId), nil
}

func (s *S3Store) PresignPart(ctx context.Context, key, uploadID string, partNumber int32, expires time.Duration) (string, error) {
	req, err := s.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign part %d of %s: %w", partNumber, uploadID, err)
	}
	return req.URL, nil
}

func (s *S3Store) ListParts(ctx context.Context, key, uploadID string) ([]Part, error) {
	var parts []Part
	input := &s3.ListPartsInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	}
	for {
		out, err := s.client.ListParts(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list parts of %s: %w", uploadID, err)
		}
		for _, p := range out.Parts {
			parts = append(parts, Part{
				PartNumber: aws.ToInt32(p.PartNumber),
				ETag:       aws.ToString(p.ETag),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.PartNumberMarker = out.NextPartNumberMarker
	}
	return parts, nil
}

func (s *S3Store) CompleteMultipart(ctx context.Context, key, uploadID string, parts []Part) (*Completion, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		if isManifestRejection(err) {
			return nil, fmt.Errorf("%w: %s", ErrCompletionRejected, err)
		}
		return nil, fmt.Errorf("failed to complete multipart upload %s: %w", uploadID, err)
	}

	return &Completion{
		Key:      key,
		Location: aws.ToString(out.Location),
		ETag:     aws.ToString(out.ETag),
	}, nil
}

func (s *S3Store) AbortMultipart(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		// A second abort, or an abort after completion, sees NoSuchUpload.
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchUpload" {
			return nil
		}
		return fmt.Errorf("failed to abort multipart upload %s: %w", uploadID, err)
	}
	return nil
}

// isManifestRejection picks out the S3 errors that mean the caller's part
// manifest was refused, as opposed to the service being unreachable.
func isManifestRejection(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "InvalidPart", "InvalidPartOrder", "EntityTooSmall", "NoSuchUpload":
		return true
	}
	return false
}
