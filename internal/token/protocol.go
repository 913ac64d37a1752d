// Package token implements the word-code protocol: issuing short-lived,
// human-transcribable access codes and validating them without server-side
// session state. A code is 100 bits — a 10-bit per-day counter followed by a
// 90-bit MAC tag — rendered as ten dictionary words. Validation rebuilds
// candidate messages for every hour inside the TTL window (plus clock-skew
// tolerance) and asks the MAC oracle to re-sign each one until a tag matches.
package token

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stefando/wordauth/internal/wordcodec"
)

// Principal is the counter value recovered from a valid code. It is opaque to
// callers: authorization is "code validated", not a per-counter ACL.
type Principal int64

func (p Principal) String() string {
	return strconv.FormatInt(int64(p), 10)
}

// Config carries the settings that issuer and validator must agree on. The
// TTL is not embedded in the code; both sides re-apply it from their own
// configuration.
type Config struct {
	// KeyID names the oracle key used to sign and verify codes.
	KeyID string

	// TTLHours is how many whole hours after issuance a code stays valid.
	TTLHours int

	// SkewToleranceHours widens the validation search range to absorb clock
	// disagreement between issuer and validator.
	SkewToleranceHours int
}

// Protocol issues and validates word codes. It holds no state across calls;
// every operation is a pure function of its inputs, the adapters and the
// clock, so a single Protocol is safe for concurrent use.
type Protocol struct {
	counters CounterStore
	oracle   MACOracle
	cfg      Config
	log      *slog.Logger

	now func() time.Time
}

// New builds a Protocol. counters may be nil for validate-only deployments
// such as the authorizer; Issue then fails with ErrCounterUnavailable.
func New(counters CounterStore, oracle MACOracle, cfg Config, log *slog.Logger) *Protocol {
	if log == nil {
		log = slog.Default()
	}
	return &Protocol{
		counters: counters,
		oracle:   oracle,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// IssuedCode is the result of Issue. Words is the externally visible code;
// ExpiresInHours is display-only and not part of the signed material.
type IssuedCode struct {
	Words          string
	Counter        int64
	ExpiresInHours int
}

// Issue draws the next per-day counter, signs the canonical message for the
// current UTC hour and renders the result as ten words. Adapter failures are
// wrapped and propagated, never retried here.
func (p *Protocol) Issue(ctx context.Context) (*IssuedCode, error) {
	if p.counters == nil {
		return nil, fmt.Errorf("%w: no counter store configured", ErrCounterUnavailable)
	}

	now := p.now().UTC()
	day := dayKeyFor(now)

	raw, err := p.counters.NextCounter(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCounterUnavailable, err)
	}
	counter := raw % counterModulus

	message := canonicalMessage(counter, day, hoursSinceEpoch(now))
	tag, err := p.oracle.GenerateMAC(ctx, p.cfg.KeyID, message)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOracleUnavailable, err)
	}
	tagBits, err := tagToBits(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOracleUnavailable, err)
	}

	words, err := wordcodec.Encode(fmt.Sprintf("%010b", counter) + tagBits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode code: %w", err)
	}

	p.log.Info("code issued", "counter", counter, "day", day)
	return &IssuedCode{
		Words:          strings.Join(words, " "),
		Counter:        counter,
		ExpiresInHours: p.cfg.TTLHours,
	}, nil
}

// Validate decodes a ten-word code and searches the TTL window for an hour
// whose regenerated tag matches. On success it returns the embedded counter
// as the principal. Malformed input and failed matches come back as *Denial;
// only oracle trouble surfaces as an infrastructure error.
func (p *Protocol) Validate(ctx context.Context, words string) (Principal, error) {
	bits, err := wordcodec.DecodeToken(strings.Fields(words))
	if err != nil {
		return 0, &Denial{Reason: ReasonMalformed, cause: err}
	}

	counter, err := strconv.ParseInt(bits[:counterBitLen], 2, 64)
	if err != nil {
		return 0, &Denial{Reason: ReasonMalformed, cause: err}
	}
	claimedTag := bits[counterBitLen:]

	now := p.now().UTC()
	nowHours := hoursSinceEpoch(now)
	ttl := int64(p.cfg.TTLHours)
	skew := int64(p.cfg.SkewToleranceHours)

	// A code issued just before local midnight must still validate after
	// midnight, so both day keys are candidates for every hour.
	days := [2]string{dayKeyFor(now), dayKeyFor(now.AddDate(0, 0, -1))}

	// Most-recent hours first: the common case is a fresh code, which then
	// matches on the first oracle call.
	for hours := nowHours + skew; hours >= nowHours-ttl-skew; hours-- {
		for _, day := range days {
			candidate, err := p.oracle.GenerateMAC(ctx, p.cfg.KeyID, canonicalMessage(counter, day, hours))
			if err != nil {
				return 0, fmt.Errorf("%w: %s", ErrOracleUnavailable, err)
			}
			candidateBits, err := tagToBits(candidate)
			if err != nil {
				return 0, fmt.Errorf("%w: %s", ErrOracleUnavailable, err)
			}
			if subtle.ConstantTimeCompare([]byte(candidateBits), []byte(claimedTag)) != 1 {
				continue
			}
			if hours < nowHours-ttl {
				// Genuine signature outside the TTL window. Logged, but the
				// caller only ever sees the combined reason.
				p.log.Info("code expired", "counter", counter, "hours_old", nowHours-hours)
				return 0, &Denial{Reason: ReasonInvalidOrExpired}
			}
			return Principal(counter), nil
		}
	}

	return 0, &Denial{Reason: ReasonInvalidOrExpired}
}
