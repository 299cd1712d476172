package watcherimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/linkpost/linkpost-bot/internal/domain"
	"github.com/linkpost/linkpost-bot/pkg/formatter"
	"github.com/linkpost/linkpost-bot/pkg/retry"
)

const previewLen = 50

// ScheduleOverdueSweep starts the periodic overdue check.
func (w *WatcherImpl) ScheduleOverdueSweep(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create sweep scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.Config.Watcher.SweepInterval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				w.Logger.Info("Context cancelled, stopping overdue sweep job")
				return
			}

			taskCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()

			if err := w.SweepOnce(taskCtx); err != nil {
				w.Logger.Error("Overdue sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		w.Logger.Info("Stopping overdue sweep scheduler")
		if err := scheduler.Shutdown(); err != nil {
			w.Logger.Error("Failed to shut down sweep scheduler", "error", err)
		}
	}()

	return nil
}

// SweepOnce classifies mirrored posts and notifies about newly overdue ones.
// Each post alerts at most once: the marker is set only after the message
// actually went out, so a failed send is retried on the next sweep.
func (w *WatcherImpl) SweepOnce(ctx context.Context) error {
	posts, err := w.PostRepo.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list mirror: %w", err)
	}

	now := w.Clock.Now()
	for _, p := range posts {
		if p.State(now) != domain.StateOverdue {
			continue
		}
		if w.alreadyNotified(p.ID) {
			continue
		}

		text := fmt.Sprintf("Post #%d is overdue: %q was scheduled for %s. Publish it or pick a new time.",
			p.ID,
			formatter.Preview(p.Content, previewLen),
			p.ScheduledAt.Format("2006-01-02 15:04"),
		)

		err := retry.Do(ctx, w.Logger, "overdue notice", func() error {
			_, err := w.Telegram.SendMessage(w.Config.Telegram.User, text)
			return err
		}, retry.DefaultConfig())
		if err != nil {
			w.Logger.Error("Failed to deliver overdue notice", "postID", p.ID, "error", err)
			continue
		}

		w.markNotified(p.ID)
		w.Logger.Info("Overdue notice sent", "postID", p.ID)
	}

	return nil
}
