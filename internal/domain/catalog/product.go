package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/shared"
)

var ErrProductNotFound = errors.New("catalog: source product not found")

// SourceProduct is a locally cached snapshot of a product on the source
// platform. Catalog filters evaluate against these cached attributes, so
// membership resolution never calls a remote API.
type SourceProduct struct {
	shared.BaseEntity
	ShopID          uuid.UUID
	SourceProductID string
	SourceVariantID string
	Title           string
	Description     string
	Handle          string
	Vendor          string
	ProductType     string
	Tags            []string
	Collections     []string
	SKU             string
	Price           decimal.Decimal
	CompareAtPrice  *decimal.Decimal
	Currency        string
	Inventory       int
	ImageURLs       []string
	SyncedAt        time.Time
}

// NewSourceProduct creates a snapshot stamped with the current time
func NewSourceProduct(shopID uuid.UUID, sourceProductID string) (*SourceProduct, error) {
	if shopID == uuid.Nil {
		return nil, ErrInvalidShopID
	}
	if sourceProductID == "" {
		return nil, errors.New("catalog: source product ID is required")
	}
	return &SourceProduct{
		BaseEntity:      shared.NewBaseEntity(),
		ShopID:          shopID,
		SourceProductID: sourceProductID,
		SyncedAt:        time.Now(),
	}, nil
}

// Refresh replaces the cached attributes and stamps SyncedAt
func (p *SourceProduct) Refresh(from SourceProduct) {
	p.SourceVariantID = from.SourceVariantID
	p.Title = from.Title
	p.Description = from.Description
	p.Handle = from.Handle
	p.Vendor = from.Vendor
	p.ProductType = from.ProductType
	p.Tags = from.Tags
	p.Collections = from.Collections
	p.SKU = from.SKU
	p.Price = from.Price
	p.CompareAtPrice = from.CompareAtPrice
	p.Currency = from.Currency
	p.Inventory = from.Inventory
	p.ImageURLs = from.ImageURLs
	p.SyncedAt = time.Now()
	p.Touch()
}

// ProductFilter describes query criteria for cached products
type ProductFilter struct {
	Vendor      string
	ProductType string
	Tag         string
	Page        *int
	PageSize    *int
}

// ProductRepository defines the interface for cached product persistence
type ProductRepository interface {
	// Save creates or updates a cached product
	Save(ctx context.Context, p *SourceProduct) error

	// FindByID finds a cached product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SourceProduct, error)

	// FindBySourceProductID finds a cached product by its source platform ID
	FindBySourceProductID(ctx context.Context, shopID uuid.UUID, sourceProductID string) (*SourceProduct, error)

	// FindAllForShop finds cached products for a shop matching the filter
	FindAllForShop(ctx context.Context, shopID uuid.UUID, filter ProductFilter) ([]SourceProduct, error)

	// CountForShop counts cached products for a shop matching the filter
	CountForShop(ctx context.Context, shopID uuid.UUID, filter ProductFilter) (int64, error)

	// Delete removes a cached product
	Delete(ctx context.Context, id uuid.UUID) error
}
