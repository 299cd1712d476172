package api

import (
	"context"
	"strings"
	"time"

	"github.com/linkpost/linkpost-bot/internal/domain"
)

// MutationResult is the envelope the content-creation mutations return.
// Success must be branched on by every caller: a transport-level 200 with
// success=false is still a failed mutation.
type MutationResult struct {
	Success bool
	Message string
	Post    *domain.Post
}

// ImageResult is the envelope of the AI image generation mutation.
type ImageResult struct {
	Success  bool
	Message  string
	ImageURL string
}

type CreatePostInput struct {
	Content           string
	ImageURL          string
	ScheduledAt       *time.Time
	VerificationToken string
}

type GeneratePostInput struct {
	Theme             string
	Tone              string
	Length            string
	ImageURL          string
	ScheduledAt       *time.Time
	VerificationToken string
}

type UpdatePostInput struct {
	ID       int
	Content  *string
	ImageURL *string
	Status   *string
	// ScheduledAt replaces the schedule when set. A pointer to the zero
	// time clears it.
	ScheduledAt *time.Time
}

type Client interface {
	AllPosts(ctx context.Context) ([]domain.Post, error)
	Me(ctx context.Context) (*domain.User, error)

	CreatePost(ctx context.Context, input CreatePostInput) (*MutationResult, error)
	GeneratePost(ctx context.Context, input GeneratePostInput) (*MutationResult, error)
	GenerateImage(ctx context.Context, prompt, verificationToken string) (*ImageResult, error)
	UpdatePost(ctx context.Context, input UpdatePostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, id int) error
	PublishPost(ctx context.Context, id int) (*domain.Post, error)

	// Admin operations.
	AllUsers(ctx context.Context) ([]domain.User, error)
	UpdateUserStatus(ctx context.Context, userID string, active bool) error
	PromoteToAdmin(ctx context.Context, userID string) error
	DeleteUser(ctx context.Context, userID string) error
	UpdatePostStatus(ctx context.Context, postID int, status string) error
	DeletePostAdmin(ctx context.Context, postID int) error
}

// BlamesVerification reports whether a server failure message points at the
// human-verification token, in which case the cached token must be discarded
// before the user retries.
func BlamesVerification(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "captcha") ||
		strings.Contains(m, "verification") ||
		strings.Contains(m, "token")
}
