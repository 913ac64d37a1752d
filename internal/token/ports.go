package token

import "context"

// CounterStore hands out per-day issuance counters. Implementations must
// guarantee that concurrent calls for the same day key never return the same
// value; the protocol reduces the raw value modulo 1024 itself.
type CounterStore interface {
	NextCounter(ctx context.Context, dayKey string) (int64, error)
}

// MACOracle computes a deterministic keyed MAC over a message. Key material
// stays inside the oracle; validation regenerates the tag and compares
// locally rather than asking the oracle to verify.
type MACOracle interface {
	GenerateMAC(ctx context.Context, keyID, message string) ([]byte, error)
}
