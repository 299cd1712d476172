package commandimpl

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/command"
	"github.com/linkpost/linkpost-bot/internal/ratelimit"
	"github.com/linkpost/linkpost-bot/internal/repositories/post"
	"github.com/linkpost/linkpost-bot/internal/telegram"
	"github.com/linkpost/linkpost-bot/internal/uploader"
	"github.com/linkpost/linkpost-bot/internal/verification"
	"github.com/linkpost/linkpost-bot/internal/watcher"
	"github.com/linkpost/linkpost-bot/pkg/config"
	"github.com/linkpost/linkpost-bot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	API          api.Client
	Telegram     telegram.Client
	Watcher      watcher.Client
	PostRepo     post.Repository
	Uploader     *uploader.Client
	Verification *verification.Manager
	Logger       logger.Logger
	Config       *config.Config
	Clock        clockwork.Clock
	Limiter      ratelimit.Limiter
}

type CommandImpl struct {
	API          api.Client
	Telegram     telegram.Client
	Watcher      watcher.Client
	PostRepo     post.Repository
	Uploader     *uploader.Client
	Verification *verification.Manager
	Logger       logger.Logger
	Config       *config.Config
	Clock        clockwork.Clock
	Limiter      ratelimit.Limiter

	mu sync.Mutex
	// pendingDelete maps a chat to the post ID awaiting /confirm.
	pendingDelete map[int64]int
	// lastImage maps a chat to the most recently uploaded or generated
	// image URL, consumed by /attach and /create.
	lastImage map[int64]string
}

func New(opts Opts) *CommandImpl {
	return &CommandImpl{
		API:           opts.API,
		Telegram:      opts.Telegram,
		Watcher:       opts.Watcher,
		PostRepo:      opts.PostRepo,
		Uploader:      opts.Uploader,
		Verification:  opts.Verification,
		Logger:        opts.Logger.WithComponent("Command"),
		Config:        opts.Config,
		Clock:         opts.Clock,
		Limiter:       opts.Limiter,
		pendingDelete: make(map[int64]int),
		lastImage:     make(map[int64]string),
	}
}

var _ command.Client = (*CommandImpl)(nil)

func (c *CommandImpl) setPendingDelete(chatID int64, postID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete[chatID] = postID
}

func (c *CommandImpl) takePendingDelete(chatID int64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.pendingDelete[chatID]
	delete(c.pendingDelete, chatID)
	return id, ok
}

func (c *CommandImpl) setLastImage(chatID int64, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastImage[chatID] = url
}

func (c *CommandImpl) takeLastImage(chatID int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	url := c.lastImage[chatID]
	delete(c.lastImage, chatID)
	return url
}
