package apiimpl

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/machinebox/graphql"

	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/domain"
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
	Tokens identity.TokenSource
}

type Impl struct {
	gql    *graphql.Client
	tokens identity.TokenSource
	logger logger.Logger
}

func New(opts Opts) *Impl {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Impl{
		gql:    graphql.NewClient(opts.Config.API.GraphQLURL, graphql.WithHTTPClient(httpClient)),
		tokens: opts.Tokens,
		logger: opts.Logger.WithComponent("DataAPI"),
	}
}

var _ api.Client = (*Impl)(nil)

// run attaches the bearer credential and executes one GraphQL operation.
// Rejected calls come back as transport errors; success:false envelopes are
// not errors at this level, callers branch on them.
func (i *Impl) run(ctx context.Context, operation string, req *graphql.Request, out any) error {
	token, err := i.tokens.Token(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUnauthorized, "no session token")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	if err := i.gql.Run(ctx, req, out); err != nil {
		i.logger.Error("GraphQL operation failed", "operation", operation, "request_id", requestID, "error", err)
		return apperrors.Transport(err, operation+" failed")
	}
	return nil
}

// wirePost is the post as the API sends it. Timestamps are ISO 8601 strings;
// a malformed scheduledAt decodes to nil instead of failing the fetch.
type wirePost struct {
	ID          int    `json:"id"`
	Content     string `json:"content"`
	Status      string `json:"status"`
	ImageURL    string `json:"imageUrl"`
	CreatedAt   string `json:"createdAt"`
	ScheduledAt string `json:"scheduledAt"`
}

func decodePost(w wirePost) domain.Post {
	var createdAt time.Time
	if t := domain.ParseSchedule(w.CreatedAt); t != nil {
		createdAt = *t
	}
	return domain.Post{
		ID:          w.ID,
		Content:     w.Content,
		ImageURL:    w.ImageURL,
		Status:      domain.DecodeStatus(w.Status),
		RawStatus:   w.Status,
		ScheduledAt: domain.ParseSchedule(w.ScheduledAt),
		CreatedAt:   createdAt,
	}
}

type wireUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"isAdmin"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

func decodeUser(w wireUser) domain.User {
	var createdAt time.Time
	if t := domain.ParseSchedule(w.CreatedAt); t != nil {
		createdAt = *t
	}
	return domain.User{
		ID:        w.ID,
		Username:  w.Username,
		Email:     w.Email,
		IsAdmin:   w.IsAdmin,
		IsActive:  w.IsActive,
		CreatedAt: createdAt,
	}
}
