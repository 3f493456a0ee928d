package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/shared"
)

// errorThreshold is the number of consecutive listing sync failures that
// flips a connection into the error state and suspends automatic syncs.
const errorThreshold = 3

// ---------------------------------------------------------------------------
// Credentials / Settings
// ---------------------------------------------------------------------------

// Credentials is the typed credential bundle for a marketplace account.
// Which fields are required depends on the marketplace; unused fields stay
// empty. The bundle is opaque to everything except the matching adapter.
type Credentials struct {
	// Amazon SP-API
	SellerID      string `json:"sellerId,omitempty"`
	MarketplaceID string `json:"marketplaceId,omitempty"`
	// OAuth client credentials (Amazon LWA, eBay, Walmart)
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	// Key/secret style (Target, Etsy)
	APIKey    string `json:"apiKey,omitempty"`
	APISecret string `json:"apiSecret,omitempty"`
	// eBay business policies required on offer creation
	FulfillmentPolicyID string `json:"fulfillmentPolicyId,omitempty"`
	PaymentPolicyID     string `json:"paymentPolicyId,omitempty"`
	ReturnPolicyID      string `json:"returnPolicyId,omitempty"`
	Sandbox             bool   `json:"sandbox,omitempty"`
}

// Merge applies the non-zero fields of patch on top of the receiver and
// returns the result. Field-level merge keeps concurrent partial updates
// from different admin actions from clobbering each other.
func (c Credentials) Merge(patch Credentials) Credentials {
	merged := c
	if patch.SellerID != "" {
		merged.SellerID = patch.SellerID
	}
	if patch.MarketplaceID != "" {
		merged.MarketplaceID = patch.MarketplaceID
	}
	if patch.ClientID != "" {
		merged.ClientID = patch.ClientID
	}
	if patch.ClientSecret != "" {
		merged.ClientSecret = patch.ClientSecret
	}
	if patch.RefreshToken != "" {
		merged.RefreshToken = patch.RefreshToken
	}
	if patch.AccessToken != "" {
		merged.AccessToken = patch.AccessToken
	}
	if patch.APIKey != "" {
		merged.APIKey = patch.APIKey
	}
	if patch.APISecret != "" {
		merged.APISecret = patch.APISecret
	}
	if patch.FulfillmentPolicyID != "" {
		merged.FulfillmentPolicyID = patch.FulfillmentPolicyID
	}
	if patch.PaymentPolicyID != "" {
		merged.PaymentPolicyID = patch.PaymentPolicyID
	}
	if patch.ReturnPolicyID != "" {
		merged.ReturnPolicyID = patch.ReturnPolicyID
	}
	if patch.Sandbox {
		merged.Sandbox = true
	}
	return merged
}

// Settings holds the per-connection sync toggles
type Settings struct {
	AutoSync      bool `json:"autoSync"`
	SyncInventory bool `json:"syncInventory"`
	SyncPrices    bool `json:"syncPrices"`
	SyncOrders    bool `json:"syncOrders"`
}

// DefaultSettings returns the settings applied to new connections
func DefaultSettings() Settings {
	return Settings{
		AutoSync:      true,
		SyncInventory: true,
		SyncPrices:    true,
		SyncOrders:    true,
	}
}

// SettingsPatch is a partial settings update; nil fields are left unchanged
type SettingsPatch struct {
	AutoSync      *bool `json:"autoSync,omitempty"`
	SyncInventory *bool `json:"syncInventory,omitempty"`
	SyncPrices    *bool `json:"syncPrices,omitempty"`
	SyncOrders    *bool `json:"syncOrders,omitempty"`
}

// Merge applies the set fields of patch on top of the receiver
func (s Settings) Merge(patch SettingsPatch) Settings {
	merged := s
	if patch.AutoSync != nil {
		merged.AutoSync = *patch.AutoSync
	}
	if patch.SyncInventory != nil {
		merged.SyncInventory = *patch.SyncInventory
	}
	if patch.SyncPrices != nil {
		merged.SyncPrices = *patch.SyncPrices
	}
	if patch.SyncOrders != nil {
		merged.SyncOrders = *patch.SyncOrders
	}
	return merged
}

// ---------------------------------------------------------------------------
// Connection Entity
// ---------------------------------------------------------------------------

// Connection is a shop's authenticated link to one marketplace account.
// At most one connection exists per (shop, marketplace, account id) tuple.
type Connection struct {
	shared.BaseEntity
	ShopID               uuid.UUID
	Marketplace          Marketplace
	MarketplaceAccountID string
	Credentials          Credentials
	Settings             Settings
	Status               ConnectionStatus
	LastSyncAt           *time.Time
	ErrorMessage         string
	SalesChannelID       *uuid.UUID
	// ConsecutiveFailures counts listing sync failures since the last
	// success; reaching the threshold flips Status to error.
	ConsecutiveFailures int
	IsActive            bool
}

// NewConnection creates a connection in the pending state
func NewConnection(shopID uuid.UUID, m Marketplace, accountID string) (*Connection, error) {
	if shopID == uuid.Nil {
		return nil, ErrInvalidShopID
	}
	if !m.IsValid() {
		return nil, ErrInvalidMarketplace
	}
	return &Connection{
		BaseEntity:           shared.NewBaseEntity(),
		ShopID:               shopID,
		Marketplace:          m,
		MarketplaceAccountID: accountID,
		Settings:             DefaultSettings(),
		Status:               ConnectionStatusPending,
		IsActive:             true,
	}, nil
}

// Activate marks the connection active after a successful connectivity test
// and clears the error state, resuming automatic syncs.
func (c *Connection) Activate() {
	c.Status = ConnectionStatusActive
	c.ErrorMessage = ""
	c.ConsecutiveFailures = 0
	c.UpdatedAt = time.Now()
}

// Deactivate suspends the connection without deleting it
func (c *Connection) Deactivate() {
	c.Status = ConnectionStatusInactive
	c.UpdatedAt = time.Now()
}

// MarkError sets the connection into the error state with a message
func (c *Connection) MarkError(msg string) {
	c.Status = ConnectionStatusError
	c.ErrorMessage = msg
	c.UpdatedAt = time.Now()
}

// Disconnect soft-deletes the connection. Historical orders keep existing
// with their connection reference nulled elsewhere.
func (c *Connection) Disconnect() {
	c.IsActive = false
	c.Status = ConnectionStatusInactive
	c.UpdatedAt = time.Now()
}

// RecordListingSyncSuccess resets the consecutive-failure counter and stamps
// the last sync time.
func (c *Connection) RecordListingSyncSuccess() {
	now := time.Now()
	c.ConsecutiveFailures = 0
	c.LastSyncAt = &now
	c.UpdatedAt = now
}

// RecordListingSyncFailure increments the consecutive-failure counter.
// Returns true when the threshold is reached and the connection flipped to
// error; automatic syncs stay suspended until a connection test succeeds.
func (c *Connection) RecordListingSyncFailure(msg string) bool {
	c.ConsecutiveFailures++
	c.UpdatedAt = time.Now()
	if c.ConsecutiveFailures >= errorThreshold {
		c.MarkError(msg)
		return true
	}
	return false
}

// CanAutoSync returns true if automatic syncs may run for this connection
func (c *Connection) CanAutoSync() bool {
	return c.IsActive && c.Status == ConnectionStatusActive && c.Settings.AutoSync
}

// ---------------------------------------------------------------------------
// ConnectionRepository Interface
// ---------------------------------------------------------------------------

// ConnectionRepository defines the interface for connection persistence
type ConnectionRepository interface {
	// Save creates or updates a connection
	Save(ctx context.Context, conn *Connection) error

	// FindByID finds a connection by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)

	// FindByShopAndMarketplace finds a connection by its tuple, preferring
	// an active row over disconnected leftovers
	FindByShopAndMarketplace(ctx context.Context, shopID uuid.UUID, m Marketplace, accountID string) (*Connection, error)

	// FindAllForShop finds all connections for a shop
	FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]Connection, error)

	// FindAutoSyncEnabled finds active connections with auto-sync on,
	// across all shops. Used by the sync scheduler.
	FindAutoSyncEnabled(ctx context.Context) ([]Connection, error)

	// Delete removes a connection row
	Delete(ctx context.Context, id uuid.UUID) error
}
