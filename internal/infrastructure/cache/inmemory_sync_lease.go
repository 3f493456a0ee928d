package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/marketplace"
)

// lease represents a held key with its holder token and expiration
type lease struct {
	token     string
	expiresAt time.Time
}

// InMemorySyncLease implements SyncLease using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemorySyncLease struct {
	mu        sync.Mutex
	leases    map[string]lease
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySyncLease creates a new in-memory sync lease.
// It starts a background goroutine to clean up expired leases.
func NewInMemorySyncLease() *InMemorySyncLease {
	l := &InMemorySyncLease{
		leases:   make(map[string]lease),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Acquire attempts to take the lease for key.
// Returns an empty token if another holder currently has it and the hold
// has not expired.
func (l *InMemorySyncLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, exists := l.leases[key]; exists {
		if time.Now().Before(held.expiresAt) {
			return "", nil
		}
		// Expired hold, will be overwritten
	}

	token := uuid.NewString()
	l.leases[key] = lease{
		token:     token,
		expiresAt: time.Now().Add(ttl),
	}

	return token, nil
}

// Release gives the lease back. A stale token is a no-op; only the current
// holder's token deletes the entry.
func (l *InMemorySyncLease) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, exists := l.leases[key]; exists && held.token == token {
		delete(l.leases, key)
	}
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (l *InMemorySyncLease) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired leases
func (l *InMemorySyncLease) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup removes expired leases from the map
func (l *InMemorySyncLease) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, held := range l.leases {
		if now.After(held.expiresAt) {
			delete(l.leases, key)
		}
	}
}

// Ensure InMemorySyncLease implements SyncLease
var _ marketplace.SyncLease = (*InMemorySyncLease)(nil)
