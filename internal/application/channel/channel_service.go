// Package channel contains the application service for sales channels,
// their catalog assignments and tenant access grants.
package channel

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/channel"
)

// ChannelServiceImpl implements sales channel management
type ChannelServiceImpl struct {
	channelRepo     channel.Repository
	catalogRepo     catalog.Repository
	catalogLinkRepo channel.CatalogLinkRepository
	tenantLinkRepo  channel.TenantLinkRepository
}

// NewChannelService creates a new ChannelServiceImpl
func NewChannelService(
	channelRepo channel.Repository,
	catalogRepo catalog.Repository,
	catalogLinkRepo channel.CatalogLinkRepository,
	tenantLinkRepo channel.TenantLinkRepository,
) *ChannelServiceImpl {
	return &ChannelServiceImpl{
		channelRepo:     channelRepo,
		catalogRepo:     catalogRepo,
		catalogLinkRepo: catalogLinkRepo,
		tenantLinkRepo:  tenantLinkRepo,
	}
}

// ---------------------------------------------------------------------------
// Channel CRUD
// ---------------------------------------------------------------------------

// CreateChannelRequest carries the input for creating a sales channel
type CreateChannelRequest struct {
	Name          string
	Description   string
	ChannelType   channel.ChannelType
	Priority      int
	Configuration channel.Configuration
}

// CreateChannel creates a sales channel for a shop
func (s *ChannelServiceImpl) CreateChannel(ctx context.Context, shopID uuid.UUID, req CreateChannelRequest) (*channel.SalesChannel, error) {
	ch, err := channel.NewSalesChannel(shopID, req.Name, req.ChannelType)
	if err != nil {
		return nil, err
	}
	ch.Description = req.Description
	ch.Priority = req.Priority
	ch.Configuration = req.Configuration

	if err := s.channelRepo.Save(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// GetChannel retrieves a channel scoped to a shop
func (s *ChannelServiceImpl) GetChannel(ctx context.Context, shopID, id uuid.UUID) (*channel.SalesChannel, error) {
	ch, err := s.channelRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch.ShopID != shopID {
		return nil, channel.ErrChannelNotFound
	}
	return ch, nil
}

// ListChannels lists all channels for a shop, highest priority first
func (s *ChannelServiceImpl) ListChannels(ctx context.Context, shopID uuid.UUID) ([]channel.SalesChannel, error) {
	return s.channelRepo.FindAllForShop(ctx, shopID)
}

// UpdateChannelRequest is a partial channel update; nil fields are unchanged
type UpdateChannelRequest struct {
	Name          *string
	Description   *string
	Priority      *int
	Configuration *channel.Configuration
	IsActive      *bool
}

// UpdateChannel applies a partial update to a channel
func (s *ChannelServiceImpl) UpdateChannel(ctx context.Context, shopID, id uuid.UUID, req UpdateChannelRequest) (*channel.SalesChannel, error) {
	ch, err := s.GetChannel(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, channel.ErrInvalidName
		}
		ch.Name = *req.Name
	}
	if req.Description != nil {
		ch.Description = *req.Description
	}
	if req.Priority != nil {
		ch.Priority = *req.Priority
	}
	if req.Configuration != nil {
		ch.Configuration = *req.Configuration
	}
	if req.IsActive != nil {
		ch.IsActive = *req.IsActive
	}
	ch.Touch()

	if err := s.channelRepo.Save(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// DeleteChannel removes a channel
func (s *ChannelServiceImpl) DeleteChannel(ctx context.Context, shopID, id uuid.UUID) error {
	ch, err := s.GetChannel(ctx, shopID, id)
	if err != nil {
		return err
	}
	return s.channelRepo.Delete(ctx, ch.ID)
}

// ---------------------------------------------------------------------------
// Catalog Links
// ---------------------------------------------------------------------------

// LinkCatalogRequest carries the input for assigning a catalog to a channel
type LinkCatalogRequest struct {
	CatalogID        uuid.UUID
	Priority         int
	StrategyOverride *channel.StrategyOverride
}

// LinkCatalog assigns a catalog to a channel. A (channel, catalog) pair may
// be linked only once; duplicates are rejected.
func (s *ChannelServiceImpl) LinkCatalog(ctx context.Context, shopID, channelID uuid.UUID, req LinkCatalogRequest) (*channel.CatalogLink, error) {
	ch, err := s.GetChannel(ctx, shopID, channelID)
	if err != nil {
		return nil, err
	}

	c, err := s.catalogRepo.FindByID(ctx, req.CatalogID)
	if err != nil {
		return nil, err
	}
	if c.ShopID != shopID {
		return nil, catalog.ErrCatalogNotFound
	}

	existing, err := s.catalogLinkRepo.FindByChannelAndCatalog(ctx, ch.ID, c.ID)
	if err != nil && !errors.Is(err, channel.ErrLinkNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, channel.ErrLinkAlreadyExists
	}

	link := channel.NewCatalogLink(ch.ID, c.ID)
	link.Priority = req.Priority
	link.StrategyOverride = req.StrategyOverride

	if err := s.catalogLinkRepo.Save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// UpdateCatalogLinkRequest is a partial link update; nil fields are unchanged
type UpdateCatalogLinkRequest struct {
	Priority         *int
	StrategyOverride *channel.StrategyOverride
	IsActive         *bool
}

// UpdateCatalogLink applies a partial update to a catalog link
func (s *ChannelServiceImpl) UpdateCatalogLink(ctx context.Context, shopID, channelID, linkID uuid.UUID, req UpdateCatalogLinkRequest) (*channel.CatalogLink, error) {
	if _, err := s.GetChannel(ctx, shopID, channelID); err != nil {
		return nil, err
	}

	link, err := s.catalogLinkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.ChannelID != channelID {
		return nil, channel.ErrLinkNotFound
	}

	if req.Priority != nil {
		link.Priority = *req.Priority
	}
	if req.StrategyOverride != nil {
		link.StrategyOverride = req.StrategyOverride
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	link.Touch()

	if err := s.catalogLinkRepo.Save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// UnlinkCatalog removes a catalog assignment from a channel
func (s *ChannelServiceImpl) UnlinkCatalog(ctx context.Context, shopID, channelID, linkID uuid.UUID) error {
	if _, err := s.GetChannel(ctx, shopID, channelID); err != nil {
		return err
	}

	link, err := s.catalogLinkRepo.FindByID(ctx, linkID)
	if err != nil {
		return err
	}
	if link.ChannelID != channelID {
		return channel.ErrLinkNotFound
	}
	return s.catalogLinkRepo.Delete(ctx, link.ID)
}

// ResolveEffectiveCatalogs returns the channel's active catalogs in sync
// order with their effective pricing strategies.
func (s *ChannelServiceImpl) ResolveEffectiveCatalogs(ctx context.Context, shopID, channelID uuid.UUID) ([]channel.EffectiveCatalog, error) {
	ch, err := s.GetChannel(ctx, shopID, channelID)
	if err != nil {
		return nil, err
	}

	links, err := s.catalogLinkRepo.FindAllForChannel(ctx, ch.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.CatalogID)
	}
	catalogsByID, err := s.catalogRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*catalog.Catalog, len(catalogsByID))
	for id, c := range catalogsByID {
		byKey[id.String()] = c
	}
	return channel.ResolveEffectiveCatalogs(links, byKey), nil
}

// ---------------------------------------------------------------------------
// Tenant Links
// ---------------------------------------------------------------------------

// GrantAccess links a tenant to a channel with a role. A (tenant, channel)
// pair may be linked only once.
func (s *ChannelServiceImpl) GrantAccess(ctx context.Context, shopID, channelID uuid.UUID, role channel.Role, perms *channel.PermissionsPatch) (*channel.TenantLink, error) {
	existing, err := s.tenantLinkRepo.FindByShopAndChannel(ctx, shopID, channelID)
	if err != nil && !errors.Is(err, channel.ErrLinkNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, channel.ErrLinkAlreadyExists
	}

	link, err := channel.NewTenantLink(shopID, channelID, role)
	if err != nil {
		return nil, err
	}
	if perms != nil && !perms.IsEmpty() {
		link.Permissions = perms
	}

	if err := s.tenantLinkRepo.Save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// ResolvePermissions returns the effective permission set of a tenant on a
// channel: explicit link permissions override the role defaults field by
// field.
func (s *ChannelServiceImpl) ResolvePermissions(ctx context.Context, shopID, channelID uuid.UUID) (channel.Permissions, error) {
	link, err := s.tenantLinkRepo.FindByShopAndChannel(ctx, shopID, channelID)
	if err != nil {
		return channel.Permissions{}, err
	}
	return channel.ResolveEffectivePermissions(link), nil
}

// RevokeAccess removes a tenant's access to a channel
func (s *ChannelServiceImpl) RevokeAccess(ctx context.Context, shopID, channelID uuid.UUID) error {
	link, err := s.tenantLinkRepo.FindByShopAndChannel(ctx, shopID, channelID)
	if err != nil {
		return err
	}
	return s.tenantLinkRepo.Delete(ctx, link.ID)
}
