package verification

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/linkpost/linkpost-bot/pkg/config"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"github.com/linkpost/linkpost-bot/pkg/logger"
	"go.uber.org/fx"
)

// Provider produces fresh human-verification tokens.
type Provider interface {
	Fetch(ctx context.Context) (string, error)
}

// Manager caches at most one provider token. Tokens are single-use and
// short-lived: once a mutation consumed one, or its TTL elapsed, or the
// server blamed it, the next Token call fetches a fresh one. A known-bad
// token can therefore never be resubmitted.
type Manager struct {
	provider Provider
	clock    clockwork.Clock
	ttl      time.Duration
	logger   logger.Logger

	mu       sync.Mutex
	token    string
	issuedAt time.Time
	used     bool
}

type ManagerOpts struct {
	fx.In

	Provider Provider
	Clock    clockwork.Clock
	Config   *config.Config
	Logger   logger.Logger
}

func NewManager(opts ManagerOpts) *Manager {
	return &Manager{
		provider: opts.Provider,
		clock:    opts.Clock,
		ttl:      opts.Config.Verification.TokenTTL,
		logger:   opts.Logger.WithComponent("Verification"),
	}
}

func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.token != "" && !m.used && m.clock.Since(m.issuedAt) < m.ttl {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	token, err := m.provider.Fetch(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrVerification, "could not obtain a verification token")
	}

	m.mu.Lock()
	m.token = token
	m.issuedAt = m.clock.Now()
	m.used = false
	m.mu.Unlock()
	return token, nil
}

// MarkUsed records that the cached token was consumed by a mutation.
func (m *Manager) MarkUsed() {
	m.mu.Lock()
	m.used = true
	m.mu.Unlock()
}

// Invalidate drops the cached token. Called when a mutation failure blames
// verification, mirroring the widget reset the dashboard performs.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.used = false
	m.mu.Unlock()
	m.logger.Info("Verification token invalidated")
}
