package post

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkpost/linkpost-bot/internal/domain"
	"github.com/linkpost/linkpost-bot/internal/repositories"
	"github.com/linkpost/linkpost-bot/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("PostRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

const postColumns = "id, content, image_url, raw_status, scheduled_at, created_at"

// Upsert inserts a post or refreshes its mirrored fields
func (p *Pgx) Upsert(ctx context.Context, post domain.Post) error {
	query, args, err := repositories.SqBuilder.
		Insert("posts_mirror").
		Columns("id", "content", "image_url", "raw_status", "scheduled_at", "created_at", "synced_at").
		Values(post.ID, post.Content, post.ImageURL, post.RawStatus, post.ScheduledAt, post.CreatedAt, time.Now()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			image_url = EXCLUDED.image_url,
			raw_status = EXCLUDED.raw_status,
			scheduled_at = EXCLUDED.scheduled_at,
			synced_at = EXCLUDED.synced_at`).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

// ReplaceAll replaces the whole mirror with the given snapshot
func (p *Pgx) ReplaceAll(ctx context.Context, posts []domain.Post) error {
	tx, err := p.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "TRUNCATE posts_mirror"); err != nil {
		return err
	}

	now := time.Now()
	for _, post := range posts {
		query, args, err := repositories.SqBuilder.
			Insert("posts_mirror").
			Columns("id", "content", "image_url", "raw_status", "scheduled_at", "created_at", "synced_at").
			Values(post.ID, post.Content, post.ImageURL, post.RawStatus, post.ScheduledAt, post.CreatedAt, now).
			ToSql()
		if err != nil {
			return repositories.ErrBadQuery
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns a single mirrored post
func (p *Pgx) GetByID(ctx context.Context, id int) (*domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select(postColumns).
		From("posts_mirror").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	post, err := p.scanOne(p.pg.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

// List returns mirrored posts, newest first
func (p *Pgx) List(ctx context.Context, limit int) ([]*domain.Post, error) {
	builder := repositories.SqBuilder.
		Select(postColumns).
		From("posts_mirror").
		OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	return p.queryPosts(ctx, query, args...)
}

// SearchContent returns posts whose content matches the query
func (p *Pgx) SearchContent(ctx context.Context, search string, limit int) ([]*domain.Post, error) {
	builder := repositories.SqBuilder.
		Select(postColumns).
		From("posts_mirror").
		Where(sq.ILike{"content": "%" + search + "%"}).
		OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	return p.queryPosts(ctx, query, args...)
}

// Delete removes a post from the mirror
func (p *Pgx) Delete(ctx context.Context, id int) error {
	query, args, err := repositories.SqBuilder.
		Delete("posts_mirror").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Pgx) queryPosts(ctx context.Context, query string, args ...any) ([]*domain.Post, error) {
	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		post, err := p.scanOne(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (p *Pgx) scanOne(row pgx.Row) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(&post.ID, &post.Content, &post.ImageURL, &post.RawStatus, &post.ScheduledAt, &post.CreatedAt); err != nil {
		return nil, err
	}
	post.Status = domain.DecodeStatus(post.RawStatus)
	return &post, nil
}
