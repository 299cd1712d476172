package watcherimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/linkpost/linkpost-bot/pkg/retry"
)

// SchedulePostSync starts the periodic mirror refresh.
func (w *WatcherImpl) SchedulePostSync(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create sync scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.Config.Watcher.SyncInterval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				w.Logger.Info("Context cancelled, stopping post sync job")
				return
			}

			taskCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()

			if err := w.SyncOnce(taskCtx); err != nil {
				w.Logger.Error("Post sync failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule post sync: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		w.Logger.Info("Stopping post sync scheduler")
		if err := scheduler.Shutdown(); err != nil {
			w.Logger.Error("Failed to shut down sync scheduler", "error", err)
		}
	}()

	return nil
}

// SyncOnce refreshes the mirror from the data API immediately.
func (w *WatcherImpl) SyncOnce(ctx context.Context) error {
	posts, err := w.API.AllPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch posts: %w", err)
	}

	err = retry.Do(ctx, w.Logger, "mirror replace", func() error {
		return w.PostRepo.ReplaceAll(ctx, posts)
	}, retry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to store posts: %w", err)
	}

	w.Logger.Debug("Mirror refreshed", "count", len(posts))
	return nil
}
