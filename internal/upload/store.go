package upload

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ObjectStore is the subset of object-store operations the upload flow needs.
// The store, not this package, is authoritative for multipart part state.
//
// Implementations must wrap manifest rejections in ErrCompletionRejected and
// treat aborting an already-gone upload as success.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	CreateMultipart(ctx context.Context, key, contentType string) (string, error)
	PresignPart(ctx context.Context, key, uploadID string, partNumber int32, expires time.Duration) (string, error)
	ListParts(ctx context.Context, key, uploadID string) ([]Part, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []Part) (*Completion, error)
	AbortMultipart(ctx context.Context, key, uploadID string) error
}

// StoreProvider builds an ObjectStore bound to a set of brokered credentials,
// so every store call runs under the prefix-scoped session rather than the
// service's own role.
type StoreProvider interface {
	StoreFor(creds aws.Credentials) ObjectStore
}
