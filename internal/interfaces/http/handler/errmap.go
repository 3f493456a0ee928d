package handler

import (
	"errors"

	catalogapp "github.com/channelsync/backend/internal/application/catalog"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
	"github.com/channelsync/backend/internal/domain/shared"
	"github.com/channelsync/backend/internal/interfaces/http/dto"
)

// sentinelCodes maps domain sentinel errors to API error codes. Sentinels
// missing from this table fall through to a 500.
var sentinelCodes = []struct {
	err  error
	code string
}{
	// Not found
	{marketplace.ErrConnectionNotFound, dto.ErrCodeNotFound},
	{marketplace.ErrListingNotFound, dto.ErrCodeNotFound},
	{marketplace.ErrOrderNotFound, dto.ErrCodeNotFound},
	{order.ErrOrderNotFound, dto.ErrCodeNotFound},
	{catalog.ErrCatalogNotFound, dto.ErrCodeNotFound},
	{catalog.ErrProductNotFound, dto.ErrCodeNotFound},
	{channel.ErrChannelNotFound, dto.ErrCodeNotFound},
	{channel.ErrLinkNotFound, dto.ErrCodeNotFound},

	// Conflicts
	{marketplace.ErrConnectionAlreadyExists, dto.ErrCodeAlreadyExists},
	{marketplace.ErrListingExists, dto.ErrCodeAlreadyExists},
	{channel.ErrLinkAlreadyExists, dto.ErrCodeAlreadyExists},
	{marketplace.ErrSyncAlreadyPending, dto.ErrCodeSyncPending},
	{order.ErrStaleOrderEvent, dto.ErrCodeConflict},

	// Connection state
	{marketplace.ErrConnectionSuspended, dto.ErrCodeConnectionSuspended},
	{marketplace.ErrConnectionNotActive, dto.ErrCodeConnectionSuspended},
	{marketplace.ErrMarketplaceNotSupported, dto.ErrCodeNotSupported},
	{marketplace.ErrAdapterNotConfigured, dto.ErrCodeNotSupported},
	{catalogapp.ErrSourceNotConfigured, dto.ErrCodeNotSupported},
	{marketplace.ErrOrderSyncDisabled, dto.ErrCodeConnectionSuspended},
	{marketplace.ErrOrderNotPushable, dto.ErrCodeConflict},

	// Input validation
	{marketplace.ErrInvalidMarketplace, dto.ErrCodeInvalidInput},
	{marketplace.ErrInvalidShopID, dto.ErrCodeInvalidInput},
	{marketplace.ErrInvalidProductID, dto.ErrCodeInvalidInput},
	{marketplace.ErrNegativePrice, dto.ErrCodeInvalidInput},
	{marketplace.ErrNegativeQuantity, dto.ErrCodeInvalidInput},
	{order.ErrInvalidShopID, dto.ErrCodeInvalidInput},
	{order.ErrMissingTotal, dto.ErrCodeInvalidInput},
	{catalog.ErrInvalidShopID, dto.ErrCodeInvalidInput},
	{catalog.ErrInvalidName, dto.ErrCodeInvalidInput},
	{catalog.ErrInvalidCatalogType, dto.ErrCodeInvalidInput},
	{catalog.ErrInvalidMarkupType, dto.ErrCodeInvalidInput},
	{catalog.ErrInvalidRoundingRule, dto.ErrCodeInvalidInput},
	{catalog.ErrNegativeComputedPrice, dto.ErrCodeInvalidInput},
	{channel.ErrInvalidShopID, dto.ErrCodeInvalidInput},
	{channel.ErrInvalidName, dto.ErrCodeInvalidInput},
	{channel.ErrInvalidType, dto.ErrCodeInvalidInput},
	{channel.ErrInvalidRole, dto.ErrCodeInvalidInput},

	{shared.ErrInvalidState, dto.ErrCodeInvalidInput},
}

// errorCode classifies a domain error into an API error code. Adapter errors
// are classified by kind: auth failures are actionable by the operator,
// everything else surfaces as a remote marketplace failure.
func errorCode(err error) (string, bool) {
	var adapterErr *marketplace.AdapterError
	if errors.As(err, &adapterErr) {
		if adapterErr.Auth {
			return dto.ErrCodeMarketplaceAuth, true
		}
		return dto.ErrCodeMarketplaceRemote, true
	}

	for _, entry := range sentinelCodes {
		if errors.Is(err, entry.err) {
			return entry.code, true
		}
	}
	return "", false
}
