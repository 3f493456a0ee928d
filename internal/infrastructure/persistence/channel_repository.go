package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormChannelRepository implements channel.Repository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// Save creates or updates a sales channel
func (r *GormChannelRepository) Save(ctx context.Context, ch *channel.SalesChannel) error {
	var model models.SalesChannelModel
	model.FromDomain(ch)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a sales channel by its ID
func (r *GormChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.SalesChannel, error) {
	var model models.SalesChannelModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrChannelNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForShop finds all channels for a shop, highest priority first
func (r *GormChannelRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]channel.SalesChannel, error) {
	var rows []models.SalesChannelModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("priority DESC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	channels := make([]channel.SalesChannel, 0, len(rows))
	for i := range rows {
		channels = append(channels, *rows[i].ToDomain())
	}
	return channels, nil
}

// Delete removes a sales channel
func (r *GormChannelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SalesChannelModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrChannelNotFound
	}
	return nil
}

// Ensure GormChannelRepository implements channel.Repository
var _ channel.Repository = (*GormChannelRepository)(nil)
