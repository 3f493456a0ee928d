package order

import (
	"context"

	"github.com/google/uuid"
)

// PayloadArchiver stores raw marketplace order payloads for audit and
// replay. Archive failures are reported but must not fail the order sync.
type PayloadArchiver interface {
	// Archive stores the raw payload for an order and returns its storage key
	Archive(ctx context.Context, shopID uuid.UUID, marketplaceOrderID string, payload []byte) (string, error)
}
