// Package catalog contains the Catalog bounded context: named, reusable
// filter + pricing-strategy bundles that select and price a product subset
// for publication on sales channels.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/shared"
)

var (
	ErrCatalogNotFound       = errors.New("catalog: catalog not found")
	ErrInvalidShopID         = errors.New("catalog: invalid shop ID")
	ErrInvalidName           = errors.New("catalog: name is required")
	ErrInvalidCatalogType    = errors.New("catalog: invalid catalog type")
	ErrInvalidMarkupType     = errors.New("catalog: invalid markup type")
	ErrInvalidRoundingRule   = errors.New("catalog: invalid rounding rule")
	ErrNegativeComputedPrice = errors.New("catalog: pricing strategy produced a negative price")
)

// ---------------------------------------------------------------------------
// CatalogType
// ---------------------------------------------------------------------------

// CatalogType classifies the purpose of a catalog
type CatalogType string

const (
	CatalogTypeStandard    CatalogType = "standard"
	CatalogTypeSeasonal    CatalogType = "seasonal"
	CatalogTypePromotional CatalogType = "promotional"
	CatalogTypeCustom      CatalogType = "custom"
)

// IsValid returns true if the catalog type is valid
func (t CatalogType) IsValid() bool {
	switch t {
	case CatalogTypeStandard, CatalogTypeSeasonal, CatalogTypePromotional, CatalogTypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of CatalogType
func (t CatalogType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

// Filters is the structured membership predicate of a catalog. It is
// evaluated against locally cached product attributes only, never against a
// remote API. An empty field imposes no constraint.
type Filters struct {
	// Collections the product must belong to (any match)
	Collections []string `json:"collections,omitempty"`
	// Tags the product must carry (any match, case-insensitive)
	Tags []string `json:"tags,omitempty"`
	// Vendor the product must have (exact match, case-insensitive)
	Vendor string `json:"vendor,omitempty"`
}

// IsEmpty returns true if no constraint is set
func (f Filters) IsEmpty() bool {
	return len(f.Collections) == 0 && len(f.Tags) == 0 && f.Vendor == ""
}

// ---------------------------------------------------------------------------
// PricingStrategy
// ---------------------------------------------------------------------------

// MarkupType selects how the markup value is applied to the source price
type MarkupType string

const (
	MarkupTypePercentage MarkupType = "percentage"
	MarkupTypeFixed      MarkupType = "fixed"
)

// IsValid returns true if the markup type is valid
func (t MarkupType) IsValid() bool {
	return t == MarkupTypePercentage || t == MarkupTypeFixed
}

// RoundingRule selects how the marked-up price is rounded
type RoundingRule string

const (
	RoundingRuleNone     RoundingRule = "none"
	RoundingRuleTo99     RoundingRule = "to_99"
	RoundingRuleToDollar RoundingRule = "to_dollar"
)

// IsValid returns true if the rounding rule is valid
func (r RoundingRule) IsValid() bool {
	return r == RoundingRuleNone || r == RoundingRuleTo99 || r == RoundingRuleToDollar
}

// PricingStrategy computes a marketplace-facing price from a source price.
// Markup is applied first, then the rounding rule.
type PricingStrategy struct {
	MarkupType   MarkupType      `json:"markupType"`
	MarkupValue  decimal.Decimal `json:"markupValue"`
	RoundingRule RoundingRule    `json:"roundingRule"`
}

// DefaultPricingStrategy returns the pass-through strategy
func DefaultPricingStrategy() PricingStrategy {
	return PricingStrategy{
		MarkupType:   MarkupTypePercentage,
		MarkupValue:  decimal.Zero,
		RoundingRule: RoundingRuleNone,
	}
}

// Validate validates the pricing strategy
func (s PricingStrategy) Validate() error {
	if !s.MarkupType.IsValid() {
		return ErrInvalidMarkupType
	}
	if !s.RoundingRule.IsValid() {
		return ErrInvalidRoundingRule
	}
	return nil
}

// ---------------------------------------------------------------------------
// Catalog Entity
// ---------------------------------------------------------------------------

// Catalog is a named filter + pricing-strategy bundle. Catalogs are
// tenant-scoped and referenced by id from channel links; they are not owned
// by any one connection.
type Catalog struct {
	shared.BaseEntity
	ShopID          uuid.UUID
	Name            string
	Description     string
	CatalogType     CatalogType
	Filters         Filters
	PricingStrategy PricingStrategy
	IsActive        bool
}

// NewCatalog creates an active catalog
func NewCatalog(shopID uuid.UUID, name string, catalogType CatalogType) (*Catalog, error) {
	if shopID == uuid.Nil {
		return nil, ErrInvalidShopID
	}
	if name == "" {
		return nil, ErrInvalidName
	}
	if catalogType == "" {
		catalogType = CatalogTypeStandard
	}
	if !catalogType.IsValid() {
		return nil, ErrInvalidCatalogType
	}
	return &Catalog{
		BaseEntity:      shared.NewBaseEntity(),
		ShopID:          shopID,
		Name:            name,
		CatalogType:     catalogType,
		PricingStrategy: DefaultPricingStrategy(),
		IsActive:        true,
	}, nil
}

// ---------------------------------------------------------------------------
// Repository Interface
// ---------------------------------------------------------------------------

// Repository defines the interface for catalog persistence
type Repository interface {
	// Save creates or updates a catalog
	Save(ctx context.Context, c *Catalog) error

	// FindByID finds a catalog by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Catalog, error)

	// FindByIDs finds catalogs by id, keyed by id
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Catalog, error)

	// FindAllForShop finds all catalogs for a shop
	FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]Catalog, error)

	// Delete removes a catalog
	Delete(ctx context.Context, id uuid.UUID) error
}
