package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSyncFailed is returned when a connection sync fails
	ErrSyncFailed = errors.New("connection sync failed")

	// ErrSyncTimeout is returned when a connection sync times out
	ErrSyncTimeout = errors.New("connection sync timed out")

	// ErrInvalidTimeRange is returned for invalid sync time ranges
	ErrInvalidTimeRange = errors.New("invalid sync time range")
)
