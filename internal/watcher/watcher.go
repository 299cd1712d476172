package watcher

import "context"

// Client keeps the local mirror in step with the data API and raises
// one-shot notices when a scheduled post slips past its deadline.
type Client interface {
	// SchedulePostSync starts the periodic mirror refresh.
	SchedulePostSync(ctx context.Context) error

	// ScheduleOverdueSweep starts the periodic overdue check.
	ScheduleOverdueSweep(ctx context.Context) error

	// SyncOnce refreshes the mirror from the data API immediately.
	SyncOnce(ctx context.Context) error

	// SweepOnce classifies mirrored posts and notifies about newly
	// overdue ones.
	SweepOnce(ctx context.Context) error

	// ForgetNotified drops the notified marker for a post so a future
	// schedule on the same ID can alert again.
	ForgetNotified(postID int)
}
