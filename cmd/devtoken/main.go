// devtoken issues and validates word codes against in-memory adapters so the
// protocol can be exercised without AWS. The secret lives only in this
// process; production always signs through KMS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/stefando/wordauth/internal/counter"
	"github.com/stefando/wordauth/internal/mac"
	"github.com/stefando/wordauth/internal/token"
)

func main() {
	var (
		secret   = flag.String("secret", "dev-secret", "HMAC secret for the local oracle")
		keyID    = flag.String("key", "dev", "key ID for the local oracle")
		ttl      = flag.Int("ttl", 24, "code TTL in hours")
		skew     = flag.Int("skew", 1, "clock skew tolerance in hours")
		count    = flag.Int("n", 1, "number of codes to issue")
		validate = flag.String("validate", "", "ten-word code to validate instead of issuing")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	protocol := token.New(
		counter.NewMemoryStore(),
		mac.NewHMACOracle(map[string][]byte{*keyID: []byte(*secret)}),
		token.Config{
			KeyID:              *keyID,
			TTLHours:           *ttl,
			SkewToleranceHours: *skew,
		},
		logger,
	)

	ctx := context.Background()

	if *validate != "" {
		principal, err := protocol.Validate(ctx, *validate)
		if err != nil {
			var denial *token.Denial
			if errors.As(err, &denial) {
				fmt.Printf("denied: %s\n", denial.Reason)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "validation error: %v\n", err)
			os.Exit(2)
		}
		fmt.Printf("valid, principal %s\n", principal)
		return
	}

	for i := 0; i < *count; i++ {
		code, err := protocol.Issue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issuance error: %v\n", err)
			os.Exit(2)
		}
		fmt.Printf("%s  (counter %d, expires in %dh)\n", code.Words, code.Counter, code.ExpiresInHours)
	}
}
