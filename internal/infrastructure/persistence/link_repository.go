package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// ---------------------------------------------------------------------------
// CatalogLink repository
// ---------------------------------------------------------------------------

// GormCatalogLinkRepository implements CatalogLinkRepository using GORM
type GormCatalogLinkRepository struct {
	db *gorm.DB
}

// NewGormCatalogLinkRepository creates a new GormCatalogLinkRepository
func NewGormCatalogLinkRepository(db *gorm.DB) *GormCatalogLinkRepository {
	return &GormCatalogLinkRepository{db: db}
}

// Save creates or updates a catalog link
func (r *GormCatalogLinkRepository) Save(ctx context.Context, link *channel.CatalogLink) error {
	var model models.CatalogLinkModel
	model.FromDomain(link)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a catalog link by its ID
func (r *GormCatalogLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.CatalogLink, error) {
	var model models.CatalogLinkModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByChannelAndCatalog finds the link for a (channel, catalog) pair
func (r *GormCatalogLinkRepository) FindByChannelAndCatalog(ctx context.Context, channelID, catalogID uuid.UUID) (*channel.CatalogLink, error) {
	var model models.CatalogLinkModel
	if err := r.db.WithContext(ctx).
		Where("channel_id = ? AND catalog_id = ?", channelID, catalogID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForChannel finds all links for a channel
func (r *GormCatalogLinkRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]channel.CatalogLink, error) {
	var rows []models.CatalogLinkModel
	if err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("priority DESC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make([]channel.CatalogLink, 0, len(rows))
	for i := range rows {
		links = append(links, *rows[i].ToDomain())
	}
	return links, nil
}

// Delete removes a catalog link
func (r *GormCatalogLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CatalogLinkModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrLinkNotFound
	}
	return nil
}

// Ensure GormCatalogLinkRepository implements CatalogLinkRepository
var _ channel.CatalogLinkRepository = (*GormCatalogLinkRepository)(nil)

// ---------------------------------------------------------------------------
// TenantLink repository
// ---------------------------------------------------------------------------

// GormTenantLinkRepository implements TenantLinkRepository using GORM
type GormTenantLinkRepository struct {
	db *gorm.DB
}

// NewGormTenantLinkRepository creates a new GormTenantLinkRepository
func NewGormTenantLinkRepository(db *gorm.DB) *GormTenantLinkRepository {
	return &GormTenantLinkRepository{db: db}
}

// Save creates or updates a tenant link
func (r *GormTenantLinkRepository) Save(ctx context.Context, link *channel.TenantLink) error {
	var model models.TenantLinkModel
	model.FromDomain(link)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a tenant link by its ID
func (r *GormTenantLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.TenantLink, error) {
	var model models.TenantLinkModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShopAndChannel finds the link for a (shop, channel) pair
func (r *GormTenantLinkRepository) FindByShopAndChannel(ctx context.Context, shopID, channelID uuid.UUID) (*channel.TenantLink, error) {
	var model models.TenantLinkModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND channel_id = ?", shopID, channelID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForChannel finds all tenant links for a channel
func (r *GormTenantLinkRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]channel.TenantLink, error) {
	var rows []models.TenantLinkModel
	if err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make([]channel.TenantLink, 0, len(rows))
	for i := range rows {
		links = append(links, *rows[i].ToDomain())
	}
	return links, nil
}

// Delete removes a tenant link
func (r *GormTenantLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TenantLinkModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrLinkNotFound
	}
	return nil
}

// Ensure GormTenantLinkRepository implements TenantLinkRepository
var _ channel.TenantLinkRepository = (*GormTenantLinkRepository)(nil)
