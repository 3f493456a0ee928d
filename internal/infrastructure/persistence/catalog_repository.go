package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormCatalogRepository implements catalog.Repository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// Save creates or updates a catalog
func (r *GormCatalogRepository) Save(ctx context.Context, c *catalog.Catalog) error {
	var model models.CatalogModel
	model.FromDomain(c)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a catalog by its ID
func (r *GormCatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Catalog, error) {
	var model models.CatalogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrCatalogNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds catalogs by id, keyed by id. Missing ids are simply absent
// from the result.
func (r *GormCatalogRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Catalog, error) {
	result := make(map[uuid.UUID]*catalog.Catalog, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.CatalogModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		c := rows[i].ToDomain()
		result[c.ID] = c
	}
	return result, nil
}

// FindAllForShop finds all catalogs for a shop
func (r *GormCatalogRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]catalog.Catalog, error) {
	var rows []models.CatalogModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	catalogs := make([]catalog.Catalog, 0, len(rows))
	for i := range rows {
		catalogs = append(catalogs, *rows[i].ToDomain())
	}
	return catalogs, nil
}

// Delete removes a catalog
func (r *GormCatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CatalogModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrCatalogNotFound
	}
	return nil
}

// Ensure GormCatalogRepository implements catalog.Repository
var _ catalog.Repository = (*GormCatalogRepository)(nil)
