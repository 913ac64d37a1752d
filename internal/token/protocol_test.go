package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefando/wordauth/internal/counter"
	"github.com/stefando/wordauth/internal/mac"
	"github.com/stefando/wordauth/internal/wordcodec"
)

const testKeyID = "test-key"

// -------- test fakes --------

type stubCounter struct {
	value int64
	err   error
}

func (s *stubCounter) NextCounter(context.Context, string) (int64, error) {
	return s.value, s.err
}

type failingOracle struct{}

func (failingOracle) GenerateMAC(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("kms timeout")
}

// -------- helpers --------

func testOracle() *mac.HMACOracle {
	return mac.NewHMACOracle(map[string][]byte{testKeyID: []byte("0123456789abcdef")})
}

func newProtocol(t *testing.T, counters CounterStore, now time.Time) *Protocol {
	t.Helper()
	p := New(counters, testOracle(), Config{
		KeyID:              testKeyID,
		TTLHours:           24,
		SkewToleranceHours: 1,
	}, nil)
	p.now = func() time.Time { return now }
	return p
}

// -------- tests --------

func TestIssueThenValidate(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 42}, now)

	code, err := p.Issue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), code.Counter)
	assert.Equal(t, 24, code.ExpiresInHours)
	assert.Len(t, strings.Fields(code.Words), wordcodec.TokenWordCount)

	principal, err := p.Validate(context.Background(), code.Words)
	require.NoError(t, err)
	assert.Equal(t, Principal(42), principal)
}

func TestIssue_CanonicalMessageAndLayout(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 10}, now)

	code, err := p.Issue(context.Background())
	require.NoError(t, err)

	bits, err := wordcodec.DecodeToken(strings.Fields(code.Words))
	require.NoError(t, err)
	assert.Equal(t, "0000001010", bits[:counterBitLen])

	message := fmt.Sprintf("0000001010|2024-01-15|%d", hoursSinceEpoch(now))
	tag, err := testOracle().GenerateMAC(context.Background(), testKeyID, message)
	require.NoError(t, err)
	wantTag, err := tagToBits(tag)
	require.NoError(t, err)
	assert.Equal(t, wantTag, bits[counterBitLen:])
}

func TestIssue_CounterWrapsModulus(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 1024 + 7}, now)

	code, err := p.Issue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), code.Counter)
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 3}, issuedAt)

	code, err := p.Issue(context.Background())
	require.NoError(t, err)

	// Exactly TTL hours later the code still validates.
	p.now = func() time.Time { return issuedAt.Add(24 * time.Hour) }
	principal, err := p.Validate(context.Background(), code.Words)
	require.NoError(t, err)
	assert.Equal(t, Principal(3), principal)

	// One hour further it does not.
	p.now = func() time.Time { return issuedAt.Add(25 * time.Hour) }
	_, err = p.Validate(context.Background(), code.Words)
	var denial *Denial
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, ReasonInvalidOrExpired, denial.Reason)
}

func TestValidate_AcrossMidnight(t *testing.T) {
	issuedAt := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 5}, issuedAt)

	code, err := p.Issue(context.Background())
	require.NoError(t, err)

	p.now = func() time.Time { return time.Date(2024, 1, 16, 0, 30, 0, 0, time.UTC) }
	principal, err := p.Validate(context.Background(), code.Words)
	require.NoError(t, err)
	assert.Equal(t, Principal(5), principal)
}

func TestValidate_IssuerClockAhead(t *testing.T) {
	// The issuer's clock runs one hour ahead of the validator's; skew
	// tolerance of one hour absorbs it.
	validatorNow := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 9}, validatorNow.Add(time.Hour))

	code, err := p.Issue(context.Background())
	require.NoError(t, err)

	p.now = func() time.Time { return validatorNow }
	principal, err := p.Validate(context.Background(), code.Words)
	require.NoError(t, err)
	assert.Equal(t, Principal(9), principal)
}

func TestValidate_TamperedTagRejected(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 17}, now)

	code, err := p.Issue(context.Background())
	require.NoError(t, err)

	bits, err := wordcodec.DecodeToken(strings.Fields(code.Words))
	require.NoError(t, err)

	for _, pos := range []int{counterBitLen, 47, totalBitLen - 1} {
		flipped := []byte(bits)
		if flipped[pos] == '0' {
			flipped[pos] = '1'
		} else {
			flipped[pos] = '0'
		}
		words, err := wordcodec.Encode(string(flipped))
		require.NoError(t, err)

		_, err = p.Validate(context.Background(), strings.Join(words, " "))
		var denial *Denial
		require.ErrorAs(t, err, &denial, "bit %d", pos)
		assert.Equal(t, ReasonInvalidOrExpired, denial.Reason)
	}
}

func TestValidate_MalformedInput(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	p := newProtocol(t, &stubCounter{value: 1}, now)

	tests := []struct {
		name  string
		words string
	}{
		{"empty", ""},
		{"nine words", strings.TrimSpace(strings.Repeat("word0001 ", 9))},
		{"eleven words", strings.TrimSpace(strings.Repeat("word0001 ", 11))},
		{"unknown word", "word0001 word0002 word0003 word0004 zebra word0006 word0007 word0008 word0009 word0010"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Validate(context.Background(), tt.words)
			var denial *Denial
			require.ErrorAs(t, err, &denial)
			assert.Equal(t, ReasonMalformed, denial.Reason)
		})
	}
}

func TestIssue_AdapterFailures(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	p := newProtocol(t, &stubCounter{err: errors.New("throttled")}, now)
	_, err := p.Issue(context.Background())
	assert.ErrorIs(t, err, ErrCounterUnavailable)

	p = New(&stubCounter{value: 1}, failingOracle{}, Config{KeyID: testKeyID, TTLHours: 24, SkewToleranceHours: 1}, nil)
	p.now = func() time.Time { return now }
	_, err = p.Issue(context.Background())
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestIssue_NoCounterStore(t *testing.T) {
	p := New(nil, testOracle(), Config{KeyID: testKeyID, TTLHours: 24, SkewToleranceHours: 1}, nil)
	_, err := p.Issue(context.Background())
	assert.ErrorIs(t, err, ErrCounterUnavailable)
}

func TestValidate_OracleFailureSurfaces(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	good := newProtocol(t, &stubCounter{value: 2}, now)
	code, err := good.Issue(context.Background())
	require.NoError(t, err)

	bad := New(nil, failingOracle{}, Config{KeyID: testKeyID, TTLHours: 24, SkewToleranceHours: 1}, nil)
	bad.now = func() time.Time { return now }
	_, err = bad.Validate(context.Background(), code.Words)
	assert.ErrorIs(t, err, ErrOracleUnavailable)

	var denial *Denial
	assert.False(t, errors.As(err, &denial))
}

func TestConcurrentIssuance(t *testing.T) {
	const n = 50
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	p := New(counter.NewMemoryStore(), testOracle(), Config{
		KeyID:              testKeyID,
		TTLHours:           24,
		SkewToleranceHours: 1,
	}, nil)
	p.now = func() time.Time { return now }

	var wg sync.WaitGroup
	codes := make([]*IssuedCode, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := p.Issue(context.Background())
			if err != nil {
				t.Errorf("issue %d: %v", i, err)
				return
			}
			codes[i] = code
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, code := range codes {
		require.NotNil(t, code)
		assert.False(t, seen[code.Counter], "duplicate counter %d", code.Counter)
		seen[code.Counter] = true

		principal, err := p.Validate(context.Background(), code.Words)
		require.NoError(t, err)
		assert.Equal(t, Principal(code.Counter), principal)
	}
}
