package identityimpl

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/linkpost/linkpost-bot/internal/identity"
	"github.com/linkpost/linkpost-bot/pkg/config"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"github.com/linkpost/linkpost-bot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type Impl struct {
	ts     oauth2.TokenSource
	logger logger.Logger

	mu       sync.Mutex
	signedIn bool
}

// New builds a client-credentials token source against the identity
// provider. oauth2 reuses the token until expiry, so Token is cheap between
// refreshes.
func New(opts Opts) *Impl {
	cc := clientcredentials.Config{
		ClientID:     opts.Config.Identity.ClientID,
		ClientSecret: opts.Config.Identity.ClientSecret,
		TokenURL:     opts.Config.Identity.TokenURL,
	}
	return &Impl{
		ts:     cc.TokenSource(context.Background()),
		logger: opts.Logger.WithComponent("Identity"),
	}
}

var _ identity.TokenSource = (*Impl)(nil)

func (i *Impl) Token(_ context.Context) (string, error) {
	token, err := i.ts.Token()
	if err != nil {
		i.mu.Lock()
		i.signedIn = false
		i.mu.Unlock()
		i.logger.Error("Failed to obtain session token", "error", err)
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "identity provider rejected the credential request")
	}

	i.mu.Lock()
	i.signedIn = true
	i.mu.Unlock()
	return token.AccessToken, nil
}

func (i *Impl) IsSignedIn() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.signedIn
}
