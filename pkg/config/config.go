package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Telegram struct {
		User    int64  `env:"TELEGRAM_USER"`
		Token   string `env:"TELEGRAM_TOKEN"`
		Channel string `env:"TELEGRAM_CHANNEL"`
		Admins  string `env:"TELEGRAM_ADMIN_CHAT_IDS"`
	}
	API struct {
		GraphQLURL     string `env:"API_GRAPHQL_URL" env-default:"http://127.0.0.1:8000/graphql"`
		UploadURL      string `env:"API_UPLOAD_URL" env-default:"http://127.0.0.1:8000/api/upload-image"`
		MaxUploadBytes int64  `env:"API_MAX_UPLOAD_BYTES" env-default:"5242880"`
	}
	Identity struct {
		TokenURL     string `env:"IDENTITY_TOKEN_URL"`
		ClientID     string `env:"IDENTITY_CLIENT_ID"`
		ClientSecret string `env:"IDENTITY_CLIENT_SECRET"`
	}
	Verification struct {
		ProviderURL string        `env:"VERIFICATION_PROVIDER_URL"`
		SiteKey     string        `env:"VERIFICATION_SITE_KEY"`
		TokenTTL    time.Duration `env:"VERIFICATION_TOKEN_TTL" env-default:"2m"`
	}
	Watcher struct {
		SyncInterval  time.Duration `env:"WATCHER_SYNC_INTERVAL" env-default:"30s"`
		SweepInterval time.Duration `env:"WATCHER_SWEEP_INTERVAL" env-default:"30s"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode,
	)
}

// AdminChatIDs parses the comma-separated admin list. Malformed entries are
// skipped rather than failing startup.
func (c *Config) AdminChatIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(c.Telegram.Admins, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
