package upload

import "errors"

var (
	// ErrUnauthorized means the caller presented no principal, or a key
	// outside the principal's prefix. Terminal, never retried.
	ErrUnauthorized = errors.New("missing or invalid principal")

	// ErrUnsupportedContentType means the requested content type is not on
	// the configured allow-list.
	ErrUnsupportedContentType = errors.New("content type not allowed")

	// ErrInvalidPartNumber means the part number is outside the store's
	// valid range.
	ErrInvalidPartNumber = errors.New("part number out of range")

	// ErrCompletionRejected means the store refused the caller's part
	// manifest (missing or mismatched ETag, bad ordering, undersized part).
	ErrCompletionRejected = errors.New("store rejected the completion manifest")

	// ErrUpstreamUnavailable wraps credential broker and object store
	// failures. The only category a caller should consider retrying.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
