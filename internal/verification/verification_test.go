package verification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkpost/linkpost-bot/pkg/config"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"github.com/linkpost/linkpost-bot/pkg/logger"
)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) Fetch(_ context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.calls++
	return fmt.Sprintf("token-%d", s.calls), nil
}

func newTestManager(provider Provider, clock clockwork.Clock) *Manager {
	cfg := &config.Config{}
	cfg.Verification.TokenTTL = 2 * time.Minute
	return NewManager(ManagerOpts{
		Provider: provider,
		Clock:    clock,
		Config:   cfg,
		Logger:   logger.New(logger.Opts{}),
	})
}

func TestTokenIsCachedWhileFresh(t *testing.T) {
	provider := &stubProvider{}
	m := newTestManager(provider, clockwork.NewFakeClock())
	ctx := context.Background()

	first, err := m.Token(ctx)
	require.NoError(t, err)
	second, err := m.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls)
}

func TestTokenExpires(t *testing.T) {
	provider := &stubProvider{}
	clock := clockwork.NewFakeClock()
	m := newTestManager(provider, clock)
	ctx := context.Background()

	first, err := m.Token(ctx)
	require.NoError(t, err)

	clock.Advance(2*time.Minute + time.Second)

	second, err := m.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, provider.calls)
}

func TestTokenIsSingleUse(t *testing.T) {
	provider := &stubProvider{}
	m := newTestManager(provider, clockwork.NewFakeClock())
	ctx := context.Background()

	first, err := m.Token(ctx)
	require.NoError(t, err)
	m.MarkUsed()

	second, err := m.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	provider := &stubProvider{}
	m := newTestManager(provider, clockwork.NewFakeClock())
	ctx := context.Background()

	first, err := m.Token(ctx)
	require.NoError(t, err)

	// The server blamed the token: it must never be handed out again.
	m.Invalidate()

	second, err := m.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestProviderFailureIsVerificationError(t *testing.T) {
	m := newTestManager(&stubProvider{err: fmt.Errorf("provider down")}, clockwork.NewFakeClock())

	_, err := m.Token(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsVerification(err))
}
