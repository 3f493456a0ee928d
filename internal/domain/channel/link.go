package channel

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// ChannelCatalogLink
// ---------------------------------------------------------------------------

// StrategyOverride is a partial pricing strategy applied on top of a
// catalog's base strategy. Nil fields inherit from the base.
type StrategyOverride struct {
	MarkupType   *catalog.MarkupType   `json:"markupType,omitempty"`
	MarkupValue  *decimal.Decimal      `json:"markupValue,omitempty"`
	RoundingRule *catalog.RoundingRule `json:"roundingRule,omitempty"`
}

// IsEmpty returns true if no field is overridden
func (o StrategyOverride) IsEmpty() bool {
	return o.MarkupType == nil && o.MarkupValue == nil && o.RoundingRule == nil
}

// ApplyTo merges the override into the base strategy field by field
func (o StrategyOverride) ApplyTo(base catalog.PricingStrategy) catalog.PricingStrategy {
	effective := base
	if o.MarkupType != nil {
		effective.MarkupType = *o.MarkupType
	}
	if o.MarkupValue != nil {
		effective.MarkupValue = *o.MarkupValue
	}
	if o.RoundingRule != nil {
		effective.RoundingRule = *o.RoundingRule
	}
	return effective
}

// CatalogLink assigns a catalog to a sales channel. Unique per
// (channel, catalog) pair.
type CatalogLink struct {
	shared.BaseEntity
	ChannelID        uuid.UUID
	CatalogID        uuid.UUID
	Priority         int
	StrategyOverride *StrategyOverride
	IsActive         bool
}

// NewCatalogLink creates an active catalog assignment
func NewCatalogLink(channelID, catalogID uuid.UUID) *CatalogLink {
	return &CatalogLink{
		BaseEntity: shared.NewBaseEntity(),
		ChannelID:  channelID,
		CatalogID:  catalogID,
		IsActive:   true,
	}
}

// ---------------------------------------------------------------------------
// TenantChannelLink
// ---------------------------------------------------------------------------

// Role determines the default permission set for a tenant on a channel
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// IsValid returns true if the role is valid
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleManager || r == RoleViewer
}

// Permissions is the access grant of a tenant on a channel
type Permissions struct {
	CanManageProducts bool `json:"canManageProducts"`
	CanManageOrders   bool `json:"canManageOrders"`
	CanManageSettings bool `json:"canManageSettings"`
	CanViewReports    bool `json:"canViewReports"`
}

// PermissionsPatch is a partial permission set. Nil fields fall back to the
// role defaults.
type PermissionsPatch struct {
	CanManageProducts *bool `json:"canManageProducts,omitempty"`
	CanManageOrders   *bool `json:"canManageOrders,omitempty"`
	CanManageSettings *bool `json:"canManageSettings,omitempty"`
	CanViewReports    *bool `json:"canViewReports,omitempty"`
}

// IsEmpty returns true if no field is set
func (p PermissionsPatch) IsEmpty() bool {
	return p.CanManageProducts == nil && p.CanManageOrders == nil &&
		p.CanManageSettings == nil && p.CanViewReports == nil
}

// TenantLink grants a tenant access to a sales channel. Unique per
// (tenant, channel) pair.
type TenantLink struct {
	shared.BaseEntity
	ShopID      uuid.UUID
	ChannelID   uuid.UUID
	Role        Role
	Permissions *PermissionsPatch
	IsActive    bool
}

// NewTenantLink creates an active access grant with role defaults
func NewTenantLink(shopID, channelID uuid.UUID, role Role) (*TenantLink, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	return &TenantLink{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		ChannelID:  channelID,
		Role:       role,
		IsActive:   true,
	}, nil
}

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// CatalogLinkRepository defines the interface for catalog link persistence
type CatalogLinkRepository interface {
	// Save creates or updates a catalog link
	Save(ctx context.Context, link *CatalogLink) error

	// FindByID finds a catalog link by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CatalogLink, error)

	// FindByChannelAndCatalog finds the link for a (channel, catalog) pair
	FindByChannelAndCatalog(ctx context.Context, channelID, catalogID uuid.UUID) (*CatalogLink, error)

	// FindAllForChannel finds all links for a channel
	FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]CatalogLink, error)

	// Delete removes a catalog link
	Delete(ctx context.Context, id uuid.UUID) error
}

// TenantLinkRepository defines the interface for tenant link persistence
type TenantLinkRepository interface {
	// Save creates or updates a tenant link
	Save(ctx context.Context, link *TenantLink) error

	// FindByID finds a tenant link by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*TenantLink, error)

	// FindByShopAndChannel finds the link for a (shop, channel) pair
	FindByShopAndChannel(ctx context.Context, shopID, channelID uuid.UUID) (*TenantLink, error)

	// FindAllForChannel finds all tenant links for a channel
	FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]TenantLink, error)

	// Delete removes a tenant link
	Delete(ctx context.Context, id uuid.UUID) error
}
