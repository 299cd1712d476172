package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/api/apiimpl"
	"github.com/linkpost/linkpost-bot/internal/command"
	"github.com/linkpost/linkpost-bot/internal/command/commandimpl"
	"github.com/linkpost/linkpost-bot/internal/identity"
	"github.com/linkpost/linkpost-bot/internal/identity/identityimpl"
	_ "github.com/linkpost/linkpost-bot/internal/migrations"
	"github.com/linkpost/linkpost-bot/internal/pgx"
	"github.com/linkpost/linkpost-bot/internal/ratelimit"
	"github.com/linkpost/linkpost-bot/internal/repositories/post"
	"github.com/linkpost/linkpost-bot/internal/telegram"
	"github.com/linkpost/linkpost-bot/internal/telegram/telegramimpl"
	"github.com/linkpost/linkpost-bot/internal/uploader"
	"github.com/linkpost/linkpost-bot/internal/verification"
	"github.com/linkpost/linkpost-bot/internal/watcher"
	"github.com/linkpost/linkpost-bot/internal/watcher/watcherimpl"
	"github.com/linkpost/linkpost-bot/pkg/config"
	"github.com/linkpost/linkpost-bot/pkg/logger"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
		clockwork.NewRealClock,
		uploader.New,
		verification.NewManager,
		newLimiter,
	),
	fx.Provide(
		fx.Annotate(
			telegramimpl.New,
			fx.As(new(telegram.Client)),
		),
		fx.Annotate(
			identityimpl.New,
			fx.As(new(identity.TokenSource)),
		),
		fx.Annotate(
			verification.NewHTTPProvider,
			fx.As(new(verification.Provider)),
		),
		fx.Annotate(
			apiimpl.New,
			fx.As(new(api.Client)),
		),
		fx.Annotate(
			watcherimpl.New,
			fx.As(new(watcher.Client)),
		),
		fx.Annotate(
			commandimpl.New,
			fx.As(new(command.Client)),
		),
	),
	post.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

func newLimiter() ratelimit.Limiter {
	return ratelimit.NewInMemoryLimiter(1, 2*time.Second, 5)
}

func migrate(c *config.Config) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", c.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	return goose.Up(db, filepath.Join(wd, "internal", "migrations"))
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, tgClient telegram.Client,
	wClient watcher.Client, cmdClient command.Client) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go startHttpServer(log, cfg)

			if err := wClient.SyncOnce(ctx); err != nil {
				log.Error("Initial post sync failed", "error", err)
				tgClient.SendMessageToUser("Post sync error: " + err.Error())
			}

			if err := wClient.SchedulePostSync(ctx); err != nil {
				return err
			}
			if err := wClient.ScheduleOverdueSweep(ctx); err != nil {
				return err
			}

			go func() {
				if err := cmdClient.HandleCommand(ctx); err != nil && ctx.Err() == nil {
					log.Error("Command handler stopped", "error", err)
					tgClient.SendMessageToUser("Command handler stopped: " + err.Error())
				}
			}()

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startHttpServer(log logger.Logger, cfg *config.Config) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Error("Failed to write response", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	log.Info(fmt.Sprintf("Starting server on :%d", cfg.App.Port))

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.App.Port), nil); err != nil {
		log.Error("Server failed to start", "error", err)
	}
}
