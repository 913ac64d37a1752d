package token

import "errors"

var (
	// ErrCounterUnavailable wraps counter store failures during issuance.
	ErrCounterUnavailable = errors.New("counter store unavailable")

	// ErrOracleUnavailable wraps MAC oracle failures. Callers may retry with
	// their own backoff; the protocol never retries internally.
	ErrOracleUnavailable = errors.New("mac oracle unavailable")
)

// DenyReason classifies why Validate refused a code. Expired and forged codes
// share one reason so responses do not leak which it was.
type DenyReason string

const (
	ReasonMalformed        DenyReason = "malformed"
	ReasonInvalidOrExpired DenyReason = "invalid_or_expired"
)

// Denial is returned by Validate when a code is rejected. It is an expected
// outcome, not an infrastructure failure.
type Denial struct {
	Reason DenyReason
	cause  error
}

func (d *Denial) Error() string {
	return "code denied: " + string(d.Reason)
}

func (d *Denial) Unwrap() error {
	return d.cause
}
