package marketplace

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAdapterErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
		auth      bool
	}{
		{"server error", 500, true, false},
		{"bad gateway", 502, true, false},
		{"timeout", 408, true, false},
		{"rate limited", 429, true, false},
		{"bad request", 400, false, false},
		{"unauthorized", 401, false, true},
		{"forbidden", 403, false, true},
		{"unprocessable", 422, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAdapterError(MarketplaceAmazon, tt.status, "remote message")
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.auth, err.Auth)
			// remote message preserved verbatim
			assert.Contains(t, err.Error(), "remote message")
		})
	}
}

func TestTransportErrorIsRetryable(t *testing.T) {
	err := NewTransportError(MarketplaceEbay, errors.New("connection refused"))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsAuthError(err))
}

func TestIsRetryableUnwraps(t *testing.T) {
	inner := NewAdapterError(MarketplaceAmazon, 503, "throttled")
	wrapped := fmt.Errorf("sync listing: %w", inner)
	assert.True(t, IsRetryable(wrapped))

	assert.False(t, IsRetryable(errors.New("plain error")))
}
