package watcherimpl

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/repositories/post"
	"github.com/linkpost/linkpost-bot/internal/telegram"
	"github.com/linkpost/linkpost-bot/internal/watcher"
	"github.com/linkpost/linkpost-bot/pkg/config"
	"github.com/linkpost/linkpost-bot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	API      api.Client
	Telegram telegram.Client
	PostRepo post.Repository
	Logger   logger.Logger
	Config   *config.Config
	Clock    clockwork.Clock
}

type WatcherImpl struct {
	API      api.Client
	Telegram telegram.Client
	PostRepo post.Repository
	Logger   logger.Logger
	Config   *config.Config
	Clock    clockwork.Clock

	// notified holds IDs already alerted as overdue. In-memory on
	// purpose: a restart clears it and overdue posts alert once more,
	// which beats missing an alert after a crash.
	mu       sync.Mutex
	notified map[int]struct{}
}

func New(opts Opts) *WatcherImpl {
	return &WatcherImpl{
		API:      opts.API,
		Telegram: opts.Telegram,
		PostRepo: opts.PostRepo,
		Logger:   opts.Logger.WithComponent("Watcher"),
		Config:   opts.Config,
		Clock:    opts.Clock,
		notified: make(map[int]struct{}),
	}
}

var _ watcher.Client = (*WatcherImpl)(nil)

// ForgetNotified drops the notified marker for a post
func (w *WatcherImpl) ForgetNotified(postID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.notified, postID)
}

func (w *WatcherImpl) alreadyNotified(postID int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.notified[postID]
	return ok
}

func (w *WatcherImpl) markNotified(postID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notified[postID] = struct{}{}
}
