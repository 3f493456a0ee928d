// Package catalog contains the application services for product catalogs
// and the local source-product cache.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/catalog"
)

// CatalogServiceImpl implements catalog management and membership resolution
type CatalogServiceImpl struct {
	catalogRepo catalog.Repository
	productRepo catalog.ProductRepository
}

// NewCatalogService creates a new CatalogServiceImpl
func NewCatalogService(catalogRepo catalog.Repository, productRepo catalog.ProductRepository) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		catalogRepo: catalogRepo,
		productRepo: productRepo,
	}
}

// ---------------------------------------------------------------------------
// CRUD Operations
// ---------------------------------------------------------------------------

// CreateCatalogRequest carries the input for creating a catalog
type CreateCatalogRequest struct {
	Name            string
	Description     string
	CatalogType     catalog.CatalogType
	Filters         catalog.Filters
	PricingStrategy *catalog.PricingStrategy
}

// CreateCatalog creates a catalog for a shop
func (s *CatalogServiceImpl) CreateCatalog(ctx context.Context, shopID uuid.UUID, req CreateCatalogRequest) (*catalog.Catalog, error) {
	c, err := catalog.NewCatalog(shopID, req.Name, req.CatalogType)
	if err != nil {
		return nil, err
	}
	c.Description = req.Description
	c.Filters = req.Filters
	if req.PricingStrategy != nil {
		if err := req.PricingStrategy.Validate(); err != nil {
			return nil, err
		}
		c.PricingStrategy = *req.PricingStrategy
	}

	if err := s.catalogRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCatalog retrieves a catalog scoped to a shop
func (s *CatalogServiceImpl) GetCatalog(ctx context.Context, shopID, id uuid.UUID) (*catalog.Catalog, error) {
	c, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.ShopID != shopID {
		return nil, catalog.ErrCatalogNotFound
	}
	return c, nil
}

// ListCatalogs lists all catalogs for a shop
func (s *CatalogServiceImpl) ListCatalogs(ctx context.Context, shopID uuid.UUID) ([]catalog.Catalog, error) {
	return s.catalogRepo.FindAllForShop(ctx, shopID)
}

// UpdateCatalogRequest is a partial catalog update; nil fields are unchanged
type UpdateCatalogRequest struct {
	Name            *string
	Description     *string
	Filters         *catalog.Filters
	PricingStrategy *catalog.PricingStrategy
	IsActive        *bool
}

// UpdateCatalog applies a partial update to a catalog
func (s *CatalogServiceImpl) UpdateCatalog(ctx context.Context, shopID, id uuid.UUID, req UpdateCatalogRequest) (*catalog.Catalog, error) {
	c, err := s.GetCatalog(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, catalog.ErrInvalidName
		}
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Filters != nil {
		c.Filters = *req.Filters
	}
	if req.PricingStrategy != nil {
		if err := req.PricingStrategy.Validate(); err != nil {
			return nil, err
		}
		c.PricingStrategy = *req.PricingStrategy
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	c.Touch()

	if err := s.catalogRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCatalog removes a catalog
func (s *CatalogServiceImpl) DeleteCatalog(ctx context.Context, shopID, id uuid.UUID) error {
	c, err := s.GetCatalog(ctx, shopID, id)
	if err != nil {
		return err
	}
	return s.catalogRepo.Delete(ctx, c.ID)
}

// ---------------------------------------------------------------------------
// Membership & Pricing
// ---------------------------------------------------------------------------

// PricedProduct pairs a cached product with its catalog price
type PricedProduct struct {
	Product catalog.SourceProduct `json:"product"`
	Price   decimal.Decimal       `json:"price"`
	// PricingError is set when the strategy produced a negative price that
	// was clamped to zero
	PricingError string `json:"pricing_error,omitempty"`
}

// ResolveMembers returns the cached products matching the catalog's filters,
// each priced by the catalog's own strategy. Membership resolves entirely
// against the local cache.
func (s *CatalogServiceImpl) ResolveMembers(ctx context.Context, shopID, id uuid.UUID) ([]PricedProduct, error) {
	c, err := s.GetCatalog(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	return s.resolveWithStrategy(ctx, c, c.PricingStrategy)
}

// ResolveMembersWithStrategy prices the catalog's members with an effective
// strategy from a channel link instead of the catalog's own.
func (s *CatalogServiceImpl) ResolveMembersWithStrategy(
	ctx context.Context,
	shopID, id uuid.UUID,
	strategy catalog.PricingStrategy,
) ([]PricedProduct, error) {
	c, err := s.GetCatalog(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	return s.resolveWithStrategy(ctx, c, strategy)
}

func (s *CatalogServiceImpl) resolveWithStrategy(
	ctx context.Context,
	c *catalog.Catalog,
	strategy catalog.PricingStrategy,
) ([]PricedProduct, error) {
	products, err := s.productRepo.FindAllForShop(ctx, c.ShopID, catalog.ProductFilter{})
	if err != nil {
		return nil, err
	}

	members := c.ResolveMembers(products)
	priced := make([]PricedProduct, 0, len(members))
	for _, p := range members {
		price, perr := strategy.ComputePrice(p.Price)
		item := PricedProduct{Product: p, Price: price}
		if perr != nil {
			item.PricingError = perr.Error()
		}
		priced = append(priced, item)
	}
	return priced, nil
}
