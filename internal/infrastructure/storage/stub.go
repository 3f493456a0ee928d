package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/order"
)

// InMemoryPayloadArchiver is a placeholder implementation of PayloadArchiver.
// It keeps payloads in a map. Use this for development and tests until a real
// object storage backend is configured.
type InMemoryPayloadArchiver struct {
	mu       sync.RWMutex
	payloads map[string][]byte
}

// NewInMemoryPayloadArchiver creates a new InMemoryPayloadArchiver
func NewInMemoryPayloadArchiver() *InMemoryPayloadArchiver {
	return &InMemoryPayloadArchiver{
		payloads: make(map[string][]byte),
	}
}

// Ensure InMemoryPayloadArchiver implements PayloadArchiver
var _ order.PayloadArchiver = (*InMemoryPayloadArchiver)(nil)

// Archive stores the payload in memory and returns its storage key
func (a *InMemoryPayloadArchiver) Archive(ctx context.Context, shopID uuid.UUID, marketplaceOrderID string, payload []byte) (string, error) {
	if marketplaceOrderID == "" {
		return "", errors.New("marketplace order ID is required")
	}

	key := ArchiveKey(shopID, marketplaceOrderID)

	a.mu.Lock()
	defer a.mu.Unlock()
	stored := make([]byte, len(payload))
	copy(stored, payload)
	a.payloads[key] = stored

	return key, nil
}

// Get returns a stored payload by key (for tests and inspection)
func (a *InMemoryPayloadArchiver) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	payload, ok := a.payloads[key]
	return payload, ok
}

// Len returns the number of archived payloads
func (a *InMemoryPayloadArchiver) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.payloads)
}
