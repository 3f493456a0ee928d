package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormListingRepository implements ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// Save creates or updates a listing
func (r *GormListingRepository) Save(ctx context.Context, l *marketplace.Listing) error {
	var model models.ListingModel
	model.FromDomain(l)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a listing by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByConnectionAndProduct finds the listing of a product on a connection
func (r *GormListingRepository) FindByConnectionAndProduct(ctx context.Context, connectionID uuid.UUID, sourceProductID string) (*marketplace.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ? AND source_product_id = ?", connectionID, sourceProductID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMarketplaceListing finds a listing by its remote id
func (r *GormListingRepository) FindByMarketplaceListing(ctx context.Context, connectionID uuid.UUID, marketplaceListingID string) (*marketplace.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ? AND marketplace_listing_id = ?", connectionID, marketplaceListingID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds listings for a shop matching the filter
func (r *GormListingRepository) FindAll(ctx context.Context, shopID uuid.UUID, filter marketplace.ListingFilter) ([]marketplace.Listing, error) {
	var rows []models.ListingModel
	query := r.applyFilter(r.db.WithContext(ctx).Where("shop_id = ?", shopID), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	listings := make([]marketplace.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, *rows[i].ToDomain())
	}
	return listings, nil
}

// Count counts listings matching the filter
func (r *GormListingRepository) Count(ctx context.Context, shopID uuid.UUID, filter marketplace.ListingFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ListingModel{}).Where("shop_id = ?", shopID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindSyncDue finds listings whose sync is pending and due for a connection.
// A pending listing is due when it has no scheduled retry or the retry time
// has passed.
func (r *GormListingRepository) FindSyncDue(ctx context.Context, connectionID uuid.UUID, now time.Time, limit int) ([]marketplace.Listing, error) {
	var rows []models.ListingModel
	query := r.db.WithContext(ctx).
		Where("connection_id = ? AND sync_status = ?", connectionID, marketplace.SyncStatusPending).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	listings := make([]marketplace.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, *rows[i].ToDomain())
	}
	return listings, nil
}

// FindBySourceProduct finds all listings of a source product across
// connections for a shop
func (r *GormListingRepository) FindBySourceProduct(ctx context.Context, shopID uuid.UUID, sourceProductID string) ([]marketplace.Listing, error) {
	var rows []models.ListingModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND source_product_id = ?", shopID, sourceProductID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	listings := make([]marketplace.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, *rows[i].ToDomain())
	}
	return listings, nil
}

// Delete removes the local listing record
func (r *GormListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ListingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return marketplace.ErrListingNotFound
	}
	return nil
}

// DeleteByConnection removes all listings of a connection on disconnect
func (r *GormListingRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ListingModel{}, "connection_id = ?", connectionID).Error
}

// applyFilter applies filter criteria to the query
func (r *GormListingRepository) applyFilter(query *gorm.DB, filter marketplace.ListingFilter) *gorm.DB {
	if filter.ConnectionID != nil {
		query = query.Where("connection_id = ?", *filter.ConnectionID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SyncStatus != nil {
		query = query.Where("sync_status = ?", *filter.SyncStatus)
	}
	if filter.SourceProductID != "" {
		query = query.Where("source_product_id = ?", filter.SourceProductID)
	}
	return query
}

// Ensure GormListingRepository implements ListingRepository
var _ marketplace.ListingRepository = (*GormListingRepository)(nil)
