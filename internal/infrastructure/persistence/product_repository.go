package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Save creates or updates a cached product
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.SourceProduct) error {
	var model models.SourceProductModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a cached product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.SourceProduct, error) {
	var model models.SourceProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySourceProductID finds a cached product by its source platform ID
func (r *GormProductRepository) FindBySourceProductID(ctx context.Context, shopID uuid.UUID, sourceProductID string) (*catalog.SourceProduct, error) {
	var model models.SourceProductModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND source_product_id = ?", shopID, sourceProductID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForShop finds cached products for a shop matching the filter
func (r *GormProductRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID, filter catalog.ProductFilter) ([]catalog.SourceProduct, error) {
	var rows []models.SourceProductModel
	query := r.applyFilter(r.db.WithContext(ctx).Where("shop_id = ?", shopID), filter)

	if filter.Page != nil && filter.PageSize != nil && *filter.Page > 0 && *filter.PageSize > 0 {
		offset := (*filter.Page - 1) * *filter.PageSize
		query = query.Offset(offset).Limit(*filter.PageSize)
	}

	if err := query.Order("title ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.SourceProduct, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products, nil
}

// CountForShop counts cached products for a shop matching the filter
func (r *GormProductRepository) CountForShop(ctx context.Context, shopID uuid.UUID, filter catalog.ProductFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SourceProductModel{}).Where("shop_id = ?", shopID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a cached product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SourceProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// applyFilter applies filter criteria to the query. Tag matching goes
// through the jsonb containment operator.
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	if filter.Vendor != "" {
		query = query.Where("vendor ILIKE ?", filter.Vendor)
	}
	if filter.ProductType != "" {
		query = query.Where("product_type ILIKE ?", filter.ProductType)
	}
	if filter.Tag != "" {
		query = query.Where("tags @> ?", `["`+filter.Tag+`"]`)
	}
	return query
}

// Ensure GormProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
