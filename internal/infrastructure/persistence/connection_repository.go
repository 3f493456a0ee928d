package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormConnectionRepository implements ConnectionRepository using GORM
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// Save creates or updates a connection
func (r *GormConnectionRepository) Save(ctx context.Context, conn *marketplace.Connection) error {
	var model models.ConnectionModel
	model.FromDomain(conn)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a connection by its ID
func (r *GormConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShopAndMarketplace finds a connection by its tuple. Disconnected
// rows stay behind after a reconnect, so the active row wins and newer
// rows beat older ones.
func (r *GormConnectionRepository) FindByShopAndMarketplace(ctx context.Context, shopID uuid.UUID, m marketplace.Marketplace, accountID string) (*marketplace.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND marketplace = ? AND marketplace_account_id = ?", shopID, m, accountID).
		Order("is_active DESC, created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForShop finds all connections for a shop
func (r *GormConnectionRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]marketplace.Connection, error) {
	var rows []models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	connections := make([]marketplace.Connection, 0, len(rows))
	for i := range rows {
		connections = append(connections, *rows[i].ToDomain())
	}
	return connections, nil
}

// FindAutoSyncEnabled finds active connections with auto-sync on across all
// shops. The settings jsonb is filtered in SQL so suspended connections never
// reach the scheduler.
func (r *GormConnectionRepository) FindAutoSyncEnabled(ctx context.Context) ([]marketplace.Connection, error) {
	var rows []models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND status = ?", true, marketplace.ConnectionStatusActive).
		Where("settings ->> 'autoSync' = 'true'").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	connections := make([]marketplace.Connection, 0, len(rows))
	for i := range rows {
		connections = append(connections, *rows[i].ToDomain())
	}
	return connections, nil
}

// Delete removes a connection row
func (r *GormConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ConnectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return marketplace.ErrConnectionNotFound
	}
	return nil
}

// Ensure GormConnectionRepository implements ConnectionRepository
var _ marketplace.ConnectionRepository = (*GormConnectionRepository)(nil)
