// Package config loads runtime settings from the environment, the way the
// lambda binaries are configured through deployment templates.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// maxValidationCandidates caps the TTL-window search. Every candidate costs
// one MAC-oracle round trip, so the bound has to stay in the tens.
const maxValidationCandidates = 128

// Config holds runtime settings shared by the lambda binaries. Each binary
// checks the fields it actually needs at startup; issuer and authorizer must
// agree on KeyID, CodeTTLHours and SkewToleranceHours or validation breaks.
type Config struct {
	// KeyID is the KMS key that signs and verifies word codes.
	KeyID string

	// CodeTTLHours is how many whole hours an issued code stays valid.
	CodeTTLHours int

	// SkewToleranceHours absorbs clock disagreement between issuer and
	// validator.
	SkewToleranceHours int

	// CounterTable is the DynamoDB table backing the per-day counter.
	CounterTable string

	// Bucket receives all uploads.
	Bucket string

	// UploadRoleArn is the role the credential broker assumes, scoped down
	// per principal.
	UploadRoleArn string

	// AllowedContentTypes is the comma-separated upload allow-list.
	AllowedContentTypes string

	// PresignTTL bounds how long presigned URLs stay usable.
	PresignTTL time.Duration

	// MaxUploadBytes is advertised to clients alongside presigned URLs;
	// enforcement belongs to the store.
	MaxUploadBytes int64
}

// Load reads the environment, applies defaults and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		KeyID:               os.Getenv("TOKEN_KMS_KEY_ID"),
		CounterTable:        os.Getenv("COUNTER_TABLE_NAME"),
		Bucket:              os.Getenv("UPLOAD_BUCKET"),
		UploadRoleArn:       os.Getenv("UPLOAD_ROLE_ARN"),
		AllowedContentTypes: envDefault("ALLOWED_CONTENT_TYPES", "*"),
	}

	var err error
	if cfg.CodeTTLHours, err = envInt("CODE_TTL_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.SkewToleranceHours, err = envInt("CLOCK_SKEW_HOURS", 1); err != nil {
		return nil, err
	}
	presignSeconds, err := envInt("PRESIGN_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.PresignTTL = time.Duration(presignSeconds) * time.Second
	maxMB, err := envInt("MAX_UPLOAD_SIZE_MB", 100)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxMB) * 1024 * 1024

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the validation search unbounded
// or the presign window useless.
func (c *Config) Validate() error {
	if c.CodeTTLHours < 1 {
		return fmt.Errorf("CODE_TTL_HOURS must be at least 1, got %d", c.CodeTTLHours)
	}
	if c.SkewToleranceHours < 0 {
		return fmt.Errorf("CLOCK_SKEW_HOURS cannot be negative, got %d", c.SkewToleranceHours)
	}
	// Two day keys per hour candidate.
	candidates := 2 * (c.CodeTTLHours + 2*c.SkewToleranceHours + 1)
	if candidates > maxValidationCandidates {
		return fmt.Errorf("validation window of %d candidates exceeds the %d cap; lower CODE_TTL_HOURS or CLOCK_SKEW_HOURS",
			candidates, maxValidationCandidates)
	}
	if c.PresignTTL < time.Minute {
		return fmt.Errorf("PRESIGN_TTL_SECONDS must be at least 60, got %s", c.PresignTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	return nil
}

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
