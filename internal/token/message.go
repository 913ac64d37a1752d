package token

import (
	"fmt"
	"strings"
	"time"
)

const (
	counterBitLen = 10
	tagBitLen     = 90
	totalBitLen   = counterBitLen + tagBitLen

	// counterModulus wraps the store's raw counter into the 10-bit field.
	counterModulus = 1 << counterBitLen
)

const dayKeyFormat = "2006-01-02"

// canonicalMessage is the exact byte sequence handed to the MAC oracle: ten
// counter bits, the UTC day key and the hours-since-epoch, pipe-separated.
// Issuance and every validation candidate must build it identically.
func canonicalMessage(counter int64, dayKey string, hours int64) string {
	return fmt.Sprintf("%010b|%s|%d", counter, dayKey, hours)
}

func hoursSinceEpoch(t time.Time) int64 {
	return t.Unix() / 3600
}

func dayKeyFor(t time.Time) string {
	return t.UTC().Format(dayKeyFormat)
}

// tagToBits expands the oracle's output into a bit string and truncates it to
// the 90 bits that fit the code.
func tagToBits(tag []byte) (string, error) {
	const need = (tagBitLen + 7) / 8
	if len(tag) < need {
		return "", fmt.Errorf("mac tag too short: %d bytes", len(tag))
	}
	var b strings.Builder
	b.Grow(need * 8)
	for _, v := range tag[:need] {
		fmt.Fprintf(&b, "%08b", v)
	}
	return b.String()[:tagBitLen], nil
}
