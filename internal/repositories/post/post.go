package post

import (
	"context"
	"errors"

	"github.com/linkpost/linkpost-bot/internal/domain"
)

var ErrNotFound = errors.New("post not found")

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go
type Repository interface {
	// Upsert inserts a post or refreshes its mirrored fields
	Upsert(ctx context.Context, post domain.Post) error

	// ReplaceAll replaces the whole mirror with the given snapshot
	ReplaceAll(ctx context.Context, posts []domain.Post) error

	// GetByID returns a single mirrored post
	GetByID(ctx context.Context, id int) (*domain.Post, error)

	// List returns mirrored posts, newest first
	List(ctx context.Context, limit int) ([]*domain.Post, error)

	// SearchContent returns posts whose content matches the query
	SearchContent(ctx context.Context, query string, limit int) ([]*domain.Post, error)

	// Delete removes a post from the mirror
	Delete(ctx context.Context, id int) error
}
