package apiimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/machinebox/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/domain"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"github.com/linkpost/linkpost-bot/pkg/logger"
)

type stubTokens struct {
	token string
	err   error
}

func (s *stubTokens) Token(_ context.Context) (string, error) { return s.token, s.err }
func (s *stubTokens) IsSignedIn() bool                        { return s.err == nil }

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// newTestClient spins up a fake GraphQL endpoint dispatching on the query
// text and returns a client pointed at it.
func newTestClient(t *testing.T, handle func(t *testing.T, r *http.Request, req gqlRequest) string) *Impl {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, handle(t, r, req))
	}))
	t.Cleanup(srv.Close)

	return &Impl{
		gql:    graphql.NewClient(srv.URL),
		tokens: &stubTokens{token: "session-token"},
		logger: logger.New(logger.Opts{}).WithComponent("DataAPI"),
	}
}

func TestAllPostsDecodesAtBoundary(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, req gqlRequest) string {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		assert.Contains(t, req.Query, "allPosts")
		return `{"data":{"allPosts":[
			{"id":1,"content":"<p>hi</p>","status":"Publié","imageUrl":"","createdAt":"2025-06-01T10:00:00Z","scheduledAt":""},
			{"id":2,"content":"","status":"Brouillon","imageUrl":"http://img/2.png","createdAt":"2025-06-02T10:00:00Z","scheduledAt":"2099-01-01T00:00:00Z"},
			{"id":3,"content":"x","status":"pending-review","imageUrl":"","createdAt":"2025-06-03T10:00:00Z","scheduledAt":"garbage"}
		]}}`
	})

	posts, err := client.AllPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, domain.StatusPublished, posts[0].Status)
	assert.Nil(t, posts[0].ScheduledAt)

	assert.Equal(t, domain.StatusDraft, posts[1].Status)
	require.NotNil(t, posts[1].ScheduledAt)
	assert.Equal(t, 2099, posts[1].ScheduledAt.Year())

	// Unknown vocabulary keeps the raw value and degrades the bad timestamp.
	assert.Equal(t, domain.StatusUnknown, posts[2].Status)
	assert.Equal(t, "pending-review", posts[2].RawStatus)
	assert.Nil(t, posts[2].ScheduledAt)
}

func TestCreatePostFailureEnvelopeIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, _ *http.Request, req gqlRequest) string {
		assert.Contains(t, req.Query, "createPost")
		assert.Equal(t, "bad-token", req.Variables["recaptchaToken"])
		return `{"data":{"createPost":{"success":false,"message":"reCAPTCHA token expired","post":null}}}`
	})

	res, err := client.CreatePost(context.Background(), api.CreatePostInput{
		Content:           "<p>hello</p>",
		VerificationToken: "bad-token",
	})
	require.NoError(t, err, "success:false is an application failure, not a transport one")
	assert.False(t, res.Success)
	assert.Equal(t, "reCAPTCHA token expired", res.Message)
	assert.Nil(t, res.Post)
	assert.True(t, api.BlamesVerification(res.Message))
}

func TestPublishPostReturnsServerDeclaredStatus(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, _ *http.Request, req gqlRequest) string {
		assert.Contains(t, req.Query, "publishPost")
		assert.Equal(t, float64(7), req.Variables["id"])
		return `{"data":{"publishPost":{"post":{"id":7,"content":"c","status":"Publié","imageUrl":"","createdAt":"2025-06-01T10:00:00Z","scheduledAt":""}}}}`
	})

	post, err := client.PublishPost(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, post.Status)
}

func TestDeletePostNotOK(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, _ *http.Request, _ gqlRequest) string {
		return `{"data":{"deletePost":{"ok":false}}}`
	})

	err := client.DeletePost(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestGraphQLErrorBecomesTransportError(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, _ *http.Request, _ gqlRequest) string {
		return `{"errors":[{"message":"internal server error"}]}`
	})

	_, err := client.AllPosts(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.True(t, strings.Contains(err.Error(), "allPosts"))
}

func TestMissingTokenBlocksRequest(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, _ *http.Request, _ gqlRequest) string {
		t.Error("request must not reach the API without a token")
		return `{"data":{}}`
	})
	client.tokens = &stubTokens{err: apperrors.ErrUnauthorized}

	_, err := client.AllPosts(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}
