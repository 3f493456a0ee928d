// Package channel contains the Sales Channel bounded context: named
// distribution targets, their catalog assignments with per-link pricing
// overrides, and tenant access grants.
package channel

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/shared"
)

var (
	ErrChannelNotFound   = errors.New("channel: sales channel not found")
	ErrInvalidShopID     = errors.New("channel: invalid shop ID")
	ErrInvalidName       = errors.New("channel: name is required")
	ErrInvalidType       = errors.New("channel: invalid channel type")
	ErrInvalidRole       = errors.New("channel: invalid role")
	ErrLinkNotFound      = errors.New("channel: link not found")
	ErrLinkAlreadyExists = errors.New("channel: link already exists")
)

// ---------------------------------------------------------------------------
// ChannelType
// ---------------------------------------------------------------------------

// ChannelType classifies the distribution target of a sales channel
type ChannelType string

const (
	ChannelTypeMarketplace ChannelType = "marketplace"
	ChannelTypeRetail      ChannelType = "retail"
	ChannelTypeWholesale   ChannelType = "wholesale"
	ChannelTypeB2B         ChannelType = "b2b"
	ChannelTypeCustom      ChannelType = "custom"
)

// IsValid returns true if the channel type is valid
func (t ChannelType) IsValid() bool {
	switch t {
	case ChannelTypeMarketplace, ChannelTypeRetail, ChannelTypeWholesale, ChannelTypeB2B, ChannelTypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of ChannelType
func (t ChannelType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// SalesChannel Entity
// ---------------------------------------------------------------------------

// Configuration holds channel-level defaults applied when a catalog or link
// does not specify its own
type Configuration struct {
	DefaultCurrency      string `json:"defaultCurrency,omitempty"`
	InventoryBuffer      int    `json:"inventoryBuffer,omitempty"`
	FulfillmentLeadDays  int    `json:"fulfillmentLeadDays,omitempty"`
	AutoPublishListings  bool   `json:"autoPublishListings,omitempty"`
	NotificationsEnabled bool   `json:"notificationsEnabled,omitempty"`
}

// SalesChannel is a named grouping representing a distribution target.
// Channels with higher priority are synced first.
type SalesChannel struct {
	shared.BaseEntity
	ShopID        uuid.UUID
	Name          string
	Description   string
	ChannelType   ChannelType
	Priority      int
	Configuration Configuration
	IsActive      bool
}

// NewSalesChannel creates an active sales channel
func NewSalesChannel(shopID uuid.UUID, name string, channelType ChannelType) (*SalesChannel, error) {
	if shopID == uuid.Nil {
		return nil, ErrInvalidShopID
	}
	if name == "" {
		return nil, ErrInvalidName
	}
	if !channelType.IsValid() {
		return nil, ErrInvalidType
	}
	return &SalesChannel{
		BaseEntity:  shared.NewBaseEntity(),
		ShopID:      shopID,
		Name:        name,
		ChannelType: channelType,
		IsActive:    true,
	}, nil
}

// ---------------------------------------------------------------------------
// Repository Interface
// ---------------------------------------------------------------------------

// Repository defines the interface for sales channel persistence
type Repository interface {
	// Save creates or updates a sales channel
	Save(ctx context.Context, ch *SalesChannel) error

	// FindByID finds a sales channel by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SalesChannel, error)

	// FindAllForShop finds all channels for a shop, highest priority first
	FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]SalesChannel, error)

	// Delete removes a sales channel
	Delete(ctx context.Context, id uuid.UUID) error
}
