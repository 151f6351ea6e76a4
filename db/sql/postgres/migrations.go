package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the blog tables. Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		excerpt TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		published BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		author_id TEXT NOT NULL,
		author_email TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_picture TEXT NOT NULL,
		author_is_admin BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS post_tags (
		post_id TEXT REFERENCES posts(id) ON DELETE CASCADE,
		tag_id TEXT REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (post_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		post_id TEXT REFERENCES posts(id) ON DELETE CASCADE,
		author_id TEXT NOT NULL,
		author_email TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_picture TEXT NOT NULL,
		author_is_admin BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_id_idx ON comments (post_id, created_at DESC)`,
}

// ApplyMigrations executes statements in order inside one transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB, statements ...string) error {
	if db == nil {
		return fmt.Errorf("postgres: db is nil")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	for _, stmt := range statements {
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Migrate creates the blog schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	return ApplyMigrations(ctx, db, Schema...)
}
