package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/catalog"
)

// importPageSize is the page size requested from the source platform
const importPageSize = 100

// ErrSourceNotConfigured is returned when no source platform client is wired
var ErrSourceNotConfigured = errors.New("source platform is not configured")

// ProductImportServiceImpl pulls products from the source platform into the
// local cache that catalog filters evaluate against.
type ProductImportServiceImpl struct {
	productRepo catalog.ProductRepository
	source      catalog.SourceClient
	logger      *zap.Logger
}

// NewProductImportService creates a new ProductImportServiceImpl
func NewProductImportService(
	productRepo catalog.ProductRepository,
	source catalog.SourceClient,
	logger *zap.Logger,
) *ProductImportServiceImpl {
	return &ProductImportServiceImpl{
		productRepo: productRepo,
		source:      source,
		logger:      logger,
	}
}

// ImportResult summarizes one import run
type ImportResult struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ImportProducts fetches all products from the source platform and upserts
// them into the cache. One product's failure does not stop the run.
func (s *ProductImportServiceImpl) ImportProducts(ctx context.Context, shopID uuid.UUID) (*ImportResult, error) {
	if s.source == nil {
		return nil, ErrSourceNotConfigured
	}
	result := &ImportResult{}
	cursor := ""
	for {
		products, next, err := s.source.FetchProducts(ctx, cursor, importPageSize)
		if err != nil {
			return result, err
		}
		result.Fetched += len(products)

		for i := range products {
			if err := s.upsertProduct(ctx, shopID, &products[i], result); err != nil {
				result.Failed++
				s.logger.Error("product import failed",
					zap.String("shop_id", shopID.String()),
					zap.String("source_product_id", products[i].SourceProductID),
					zap.Error(err),
				)
			}
		}

		if next == "" {
			break
		}
		cursor = next
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	s.logger.Info("product import completed",
		zap.String("shop_id", shopID.String()),
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *ProductImportServiceImpl) upsertProduct(
	ctx context.Context,
	shopID uuid.UUID,
	incoming *catalog.SourceProduct,
	result *ImportResult,
) error {
	existing, err := s.productRepo.FindBySourceProductID(ctx, shopID, incoming.SourceProductID)
	if err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
		return err
	}

	if existing == nil {
		p, err := catalog.NewSourceProduct(shopID, incoming.SourceProductID)
		if err != nil {
			return err
		}
		p.Refresh(*incoming)
		if err := s.productRepo.Save(ctx, p); err != nil {
			return err
		}
		result.Created++
		return nil
	}

	existing.Refresh(*incoming)
	if err := s.productRepo.Save(ctx, existing); err != nil {
		return err
	}
	result.Updated++
	return nil
}

// ListProducts lists cached products for a shop
func (s *ProductImportServiceImpl) ListProducts(
	ctx context.Context,
	shopID uuid.UUID,
	filter catalog.ProductFilter,
) ([]catalog.SourceProduct, int64, error) {
	if filter.Page == nil || *filter.Page <= 0 {
		page := 1
		filter.Page = &page
	}
	if filter.PageSize == nil || *filter.PageSize <= 0 {
		size := 20
		filter.PageSize = &size
	}

	products, err := s.productRepo.FindAllForShop(ctx, shopID, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.productRepo.CountForShop(ctx, shopID, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, count, nil
}
