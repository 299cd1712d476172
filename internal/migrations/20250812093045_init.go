package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE posts_mirror (
		id INTEGER PRIMARY KEY,
		content TEXT NOT NULL DEFAULT '',
		image_url VARCHAR NOT NULL DEFAULT '',
		raw_status VARCHAR NOT NULL DEFAULT '',
		scheduled_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		synced_at TIMESTAMP WITH TIME ZONE NOT NULL
	);
	CREATE INDEX posts_mirror_created_at_idx ON posts_mirror (created_at DESC);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE posts_mirror;
	`)
	if err != nil {
		return err
	}
	return nil
}
