package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAllowList(t *testing.T) {
	list := ParseAllowList(" image/png , application/pdf,,video/* ")
	assert.Equal(t, ContentTypeAllowList{"image/png", "application/pdf", "video/*"}, list)
}

func TestAllows(t *testing.T) {
	tests := []struct {
		name        string
		list        string
		contentType string
		want        bool
	}{
		{"exact match", "application/pdf", "application/pdf", true},
		{"exact mismatch", "application/pdf", "application/zip", false},
		{"wildcard star", "*", "anything/odd", true},
		{"wildcard star-slash-star", "*/*", "anything/odd", true},
		{"type wildcard match", "image/*", "image/png", true},
		{"type wildcard mismatch", "image/*", "video/mp4", false},
		{"empty content type denied", "image/*", "", false},
		{"empty content type with allow-all", "*", "", true},
		{"multiple entries", "image/*,application/pdf", "application/pdf", true},
		{"empty list denies", "", "image/png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAllowList(tt.list).Allows(tt.contentType))
		})
	}
}
