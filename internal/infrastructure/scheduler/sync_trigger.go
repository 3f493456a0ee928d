package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// SyncTriggerConfig
// ---------------------------------------------------------------------------

// SyncTriggerConfig holds configuration for the periodic sync trigger
type SyncTriggerConfig struct {
	// CheckInterval is how often to scan for connections due for a sync
	CheckInterval time.Duration

	// SyncInterval is the minimum gap between two passes of one connection
	SyncInterval time.Duration

	// LookbackBuffer is subtracted from the last sync time when computing the
	// order pull window, so clock skew never drops orders
	LookbackBuffer time.Duration

	// FirstSyncLookback is the order pull window for a connection that has
	// never synced
	FirstSyncLookback time.Duration
}

// DefaultSyncTriggerConfig returns default configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		CheckInterval:     time.Minute,
		SyncInterval:      5 * time.Minute,
		LookbackBuffer:    5 * time.Minute,
		FirstSyncLookback: 24 * time.Hour,
	}
}

// ---------------------------------------------------------------------------
// SyncTrigger
// ---------------------------------------------------------------------------

// SyncTrigger periodically scans auto-sync enabled connections and queues a
// sync job for each one that is due
type SyncTrigger struct {
	config    SyncTriggerConfig
	scheduler *SyncScheduler
	connRepo  marketplace.ConnectionRepository
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Track last scheduled time per connection to avoid duplicate scheduling
	lastScheduledMu sync.RWMutex
	lastScheduled   map[uuid.UUID]time.Time
}

// NewSyncTrigger creates a new periodic sync trigger
func NewSyncTrigger(
	config SyncTriggerConfig,
	scheduler *SyncScheduler,
	connRepo marketplace.ConnectionRepository,
	logger *zap.Logger,
) *SyncTrigger {
	return &SyncTrigger{
		config:        config,
		scheduler:     scheduler,
		connRepo:      connRepo,
		logger:        logger,
		lastScheduled: make(map[uuid.UUID]time.Time),
	}
}

// Start starts the trigger loop
func (t *SyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Duration("check_interval", t.config.CheckInterval),
		zap.Duration("sync_interval", t.config.SyncInterval),
	)

	return nil
}

// Stop stops the trigger loop
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically checks and queues sync jobs
func (t *SyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	// Run immediately on start
	t.checkAndSchedule(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndSchedule(ctx)
		}
	}
}

// checkAndSchedule queues a sync job for every auto-sync connection that is due
func (t *SyncTrigger) checkAndSchedule(ctx context.Context) {
	conns, err := t.connRepo.FindAutoSyncEnabled(ctx)
	if err != nil {
		t.logger.Error("Failed to load auto-sync connections", zap.Error(err))
		return
	}

	if len(conns) == 0 {
		t.logger.Debug("No auto-sync connections found")
		return
	}

	t.logger.Debug("Checking sync schedules",
		zap.Int("connection_count", len(conns)),
	)

	now := time.Now()

	for i := range conns {
		conn := &conns[i]
		if !conn.CanAutoSync() {
			continue
		}

		shouldSync, startTime, endTime := t.shouldScheduleSync(conn, now)
		if !shouldSync {
			continue
		}

		t.logger.Info("Scheduling connection sync",
			zap.String("connection_id", conn.ID.String()),
			zap.String("shop_id", conn.ShopID.String()),
			zap.String("marketplace", string(conn.Marketplace)),
			zap.Time("start_time", startTime),
			zap.Time("end_time", endTime),
		)

		if err := t.scheduler.ScheduleSync(conn, startTime, endTime); err != nil {
			t.logger.Error("Failed to queue connection sync",
				zap.String("connection_id", conn.ID.String()),
				zap.Error(err),
			)
			continue
		}

		t.updateLastScheduled(conn.ID, now)
	}
}

// shouldScheduleSync determines if a connection is due and computes its
// order pull window
func (t *SyncTrigger) shouldScheduleSync(conn *marketplace.Connection, now time.Time) (bool, time.Time, time.Time) {
	t.lastScheduledMu.RLock()
	lastScheduled, exists := t.lastScheduled[conn.ID]
	t.lastScheduledMu.RUnlock()

	if exists && now.Sub(lastScheduled) < t.config.SyncInterval {
		return false, time.Time{}, time.Time{}
	}

	var startTime time.Time
	if conn.LastSyncAt != nil {
		startTime = conn.LastSyncAt.Add(-t.config.LookbackBuffer)
	} else {
		startTime = now.Add(-t.config.FirstSyncLookback)
	}

	return true, startTime, now
}

// updateLastScheduled records when a connection was last queued
func (t *SyncTrigger) updateLastScheduled(connectionID uuid.UUID, ts time.Time) {
	t.lastScheduledMu.Lock()
	t.lastScheduled[connectionID] = ts
	t.lastScheduledMu.Unlock()
}

// TriggerManualSync queues an immediate sync for one connection over an
// explicit window
func (t *SyncTrigger) TriggerManualSync(ctx context.Context, connectionID uuid.UUID, startTime, endTime time.Time) error {
	if startTime.After(endTime) {
		return ErrInvalidTimeRange
	}
	if endTime.Sub(startTime) > 7*24*time.Hour {
		return ErrInvalidTimeRange // Max 7 days per sync
	}

	conn, err := t.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return err
	}

	t.logger.Info("Manual connection sync triggered",
		zap.String("connection_id", connectionID.String()),
		zap.String("marketplace", string(conn.Marketplace)),
		zap.Time("start_time", startTime),
		zap.Time("end_time", endTime),
	)

	return t.scheduler.ScheduleSync(conn, startTime, endTime)
}

// GetStats returns statistics about the trigger
func (t *SyncTrigger) GetStats() map[string]interface{} {
	t.lastScheduledMu.RLock()
	defer t.lastScheduledMu.RUnlock()

	stats := make(map[string]interface{})
	stats["is_running"] = t.isRunning
	stats["check_interval"] = t.config.CheckInterval.String()
	stats["tracked_connections"] = len(t.lastScheduled)

	lastScheduledTimes := make(map[string]string)
	for id, ts := range t.lastScheduled {
		lastScheduledTimes[id.String()] = ts.Format(time.RFC3339)
	}
	stats["last_scheduled"] = lastScheduledTimes

	return stats
}
