package marketplace

import (
	"context"
	"time"
)

// SyncLease is a per-key mutual-exclusion lease held for the duration of a
// remote adapter call. At most one holder per key at a time; the TTL bounds
// the hold in case a holder dies without releasing.
type SyncLease interface {
	// Acquire attempts to take the lease for key. On success it returns an
	// opaque holder token; an empty token means another holder has the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Release gives the lease back. Only the holder named by token releases
	// anything; a stale token is a no-op, so a holder that outlived its TTL
	// cannot free a lease someone else has since acquired.
	Release(ctx context.Context, key, token string) error
}
