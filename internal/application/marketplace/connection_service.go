// Package marketplace contains the application services coordinating
// marketplace connections, listing sync and order sync across the domain
// ports and the adapter registry.
package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

// adapterCallTimeout bounds every remote adapter call; timeouts surface as
// retryable transport errors.
const adapterCallTimeout = 30 * time.Second

// ConnectionServiceImpl implements the marketplace connection lifecycle
type ConnectionServiceImpl struct {
	connRepo    marketplace.ConnectionRepository
	listingRepo marketplace.ListingRepository
	orderRepo   order.Repository
	registry    marketplace.Registry
	logger      *zap.Logger
}

// NewConnectionService creates a new ConnectionServiceImpl
func NewConnectionService(
	connRepo marketplace.ConnectionRepository,
	listingRepo marketplace.ListingRepository,
	orderRepo order.Repository,
	registry marketplace.Registry,
	logger *zap.Logger,
) *ConnectionServiceImpl {
	return &ConnectionServiceImpl{
		connRepo:    connRepo,
		listingRepo: listingRepo,
		orderRepo:   orderRepo,
		registry:    registry,
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// Lifecycle Operations
// ---------------------------------------------------------------------------

// CreateConnectionRequest carries the input for connecting a marketplace account
type CreateConnectionRequest struct {
	Marketplace          marketplace.Marketplace
	MarketplaceAccountID string
	Credentials          marketplace.Credentials
	Settings             *marketplace.SettingsPatch
	SalesChannelID       *uuid.UUID
}

// CreateConnection connects a marketplace account for a shop. The connection
// starts pending and becomes active only after a successful connectivity
// test. At most one active connection may exist per (shop, marketplace,
// account) tuple; duplicates are rejected. A previously disconnected
// account may reconnect, which creates a fresh connection.
func (s *ConnectionServiceImpl) CreateConnection(
	ctx context.Context,
	shopID uuid.UUID,
	req CreateConnectionRequest,
) (*marketplace.Connection, error) {
	if !req.Marketplace.IsValid() {
		return nil, marketplace.ErrInvalidMarketplace
	}

	existing, err := s.connRepo.FindByShopAndMarketplace(ctx, shopID, req.Marketplace, req.MarketplaceAccountID)
	if err != nil && !errors.Is(err, marketplace.ErrConnectionNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsActive {
		return nil, marketplace.ErrConnectionAlreadyExists
	}

	conn, err := marketplace.NewConnection(shopID, req.Marketplace, req.MarketplaceAccountID)
	if err != nil {
		return nil, err
	}
	conn.Credentials = req.Credentials
	if req.Settings != nil {
		conn.Settings = conn.Settings.Merge(*req.Settings)
	}
	conn.SalesChannelID = req.SalesChannelID

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("marketplace connection created",
		zap.String("shop_id", shopID.String()),
		zap.String("marketplace", conn.Marketplace.String()),
		zap.String("connection_id", conn.ID.String()),
	)
	return conn, nil
}

// GetConnection retrieves a connection scoped to a shop
func (s *ConnectionServiceImpl) GetConnection(ctx context.Context, shopID, id uuid.UUID) (*marketplace.Connection, error) {
	conn, err := s.connRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn.ShopID != shopID {
		return nil, marketplace.ErrConnectionNotFound
	}
	return conn, nil
}

// ListConnections lists all connections for a shop
func (s *ConnectionServiceImpl) ListConnections(ctx context.Context, shopID uuid.UUID) ([]marketplace.Connection, error) {
	return s.connRepo.FindAllForShop(ctx, shopID)
}

// TestConnection runs the adapter connectivity check. Success activates the
// connection, clears its error state and resumes automatic syncs. An
// expected auth failure marks the connection error with the remote message
// and returns the result without an error; only transport-level failures
// propagate as errors.
func (s *ConnectionServiceImpl) TestConnection(
	ctx context.Context,
	shopID, id uuid.UUID,
) (*marketplace.ConnectionTestResult, error) {
	conn, err := s.GetConnection(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.ForConnection(conn)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()

	result, err := adapter.TestConnection(callCtx)
	if err != nil {
		conn.MarkError(err.Error())
		if saveErr := s.connRepo.Save(ctx, conn); saveErr != nil {
			s.logger.Error("failed to persist connection error state",
				zap.String("connection_id", conn.ID.String()), zap.Error(saveErr))
		}
		return nil, err
	}

	if result.Success {
		conn.Activate()
	} else {
		conn.MarkError(result.Message)
	}
	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("connection test completed",
		zap.String("connection_id", conn.ID.String()),
		zap.Bool("success", result.Success),
	)
	return result, nil
}

// UpdateConnectionRequest is a partial connection update. Credentials merge
// field-level into the stored bundle; settings likewise. Nothing is
// overwritten wholesale, so concurrent partial updates from different admin
// actions do not clobber each other.
type UpdateConnectionRequest struct {
	Credentials    *marketplace.Credentials
	Settings       *marketplace.SettingsPatch
	SalesChannelID *uuid.UUID
}

// UpdateConnection applies a partial update to credentials and settings
func (s *ConnectionServiceImpl) UpdateConnection(
	ctx context.Context,
	shopID, id uuid.UUID,
	req UpdateConnectionRequest,
) (*marketplace.Connection, error) {
	conn, err := s.GetConnection(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	if req.Credentials != nil {
		conn.Credentials = conn.Credentials.Merge(*req.Credentials)
		// changed credentials must be re-verified before syncs resume
		if conn.Status == marketplace.ConnectionStatusActive {
			conn.Status = marketplace.ConnectionStatusPending
		}
	}
	if req.Settings != nil {
		conn.Settings = conn.Settings.Merge(*req.Settings)
	}
	if req.SalesChannelID != nil {
		conn.SalesChannelID = req.SalesChannelID
	}
	conn.Touch()

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Deactivate suspends a connection without deleting anything
func (s *ConnectionServiceImpl) Deactivate(ctx context.Context, shopID, id uuid.UUID) error {
	conn, err := s.GetConnection(ctx, shopID, id)
	if err != nil {
		return err
	}
	conn.Deactivate()
	return s.connRepo.Save(ctx, conn)
}

// Disconnect soft-deletes a connection. Its listings are removed locally and
// historical orders keep existing with their connection reference nulled,
// never cascaded.
func (s *ConnectionServiceImpl) Disconnect(ctx context.Context, shopID, id uuid.UUID) error {
	conn, err := s.GetConnection(ctx, shopID, id)
	if err != nil {
		return err
	}

	conn.Disconnect()
	if err := s.connRepo.Save(ctx, conn); err != nil {
		return err
	}

	if err := s.listingRepo.DeleteByConnection(ctx, conn.ID); err != nil {
		return err
	}
	if err := s.orderRepo.DetachConnection(ctx, conn.ID); err != nil {
		return err
	}

	s.logger.Info("marketplace connection disconnected",
		zap.String("shop_id", shopID.String()),
		zap.String("connection_id", conn.ID.String()),
	)
	return nil
}
