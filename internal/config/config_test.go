package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TOKEN_KMS_KEY_ID", "COUNTER_TABLE_NAME", "UPLOAD_BUCKET",
		"UPLOAD_ROLE_ARN", "ALLOWED_CONTENT_TYPES", "CODE_TTL_HOURS",
		"CLOCK_SKEW_HOURS", "PRESIGN_TTL_SECONDS", "MAX_UPLOAD_SIZE_MB",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.CodeTTLHours)
	assert.Equal(t, 1, cfg.SkewToleranceHours)
	assert.Equal(t, "*", cfg.AllowedContentTypes)
	assert.Equal(t, time.Hour, cfg.PresignTTL)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_KMS_KEY_ID", "alias/word-codes")
	t.Setenv("CODE_TTL_HOURS", "12")
	t.Setenv("CLOCK_SKEW_HOURS", "2")
	t.Setenv("PRESIGN_TTL_SECONDS", "900")
	t.Setenv("ALLOWED_CONTENT_TYPES", "image/*,application/pdf")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "alias/word-codes", cfg.KeyID)
	assert.Equal(t, 12, cfg.CodeTTLHours)
	assert.Equal(t, 2, cfg.SkewToleranceHours)
	assert.Equal(t, 15*time.Minute, cfg.PresignTTL)
	assert.Equal(t, "image/*,application/pdf", cfg.AllowedContentTypes)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero ttl", "CODE_TTL_HOURS", "0"},
		{"negative skew", "CLOCK_SKEW_HOURS", "-1"},
		{"non-numeric ttl", "CODE_TTL_HOURS", "day"},
		{"tiny presign ttl", "PRESIGN_TTL_SECONDS", "10"},
		{"zero upload size", "MAX_UPLOAD_SIZE_MB", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_CapsSearchWindow(t *testing.T) {
	clearEnv(t)
	// 2*(100 + 2*1 + 1) = 206 oracle calls per validation — too many.
	t.Setenv("CODE_TTL_HOURS", "100")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cap")
}
