package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/linkpost/linkpost-bot/pkg/config"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"go.uber.org/fx"
)

// HTTPProvider requests tokens from the verification provider's challenge
// endpoint. The contract is a single POST carrying the site key, answered
// with {"token": "..."}.
type HTTPProvider struct {
	url     string
	siteKey string
	client  *http.Client
}

type ProviderOpts struct {
	fx.In

	Config *config.Config
}

func NewHTTPProvider(opts ProviderOpts) *HTTPProvider {
	return &HTTPProvider{
		url:     opts.Config.Verification.ProviderURL,
		siteKey: opts.Config.Verification.SiteKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

var _ Provider = (*HTTPProvider)(nil)

func (p *HTTPProvider) Fetch(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{"siteKey": p.siteKey})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperrors.Transport(err, "verification provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Wrap(apperrors.ErrVerification,
			fmt.Sprintf("verification provider returned status %d", resp.StatusCode))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Wrap(apperrors.ErrVerification, "malformed provider response")
	}
	if out.Token == "" {
		return "", apperrors.Wrap(apperrors.ErrVerification, "provider returned an empty token")
	}
	return out.Token, nil
}
