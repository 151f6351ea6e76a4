package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adeilh/quill/api"
	"github.com/adeilh/quill/blog"
)

// PostRepository persists posts, tags and comments inside PostgreSQL.
// Author details are stored inline on posts and comments.
type PostRepository struct {
	db    *sql.DB
	clock clock.Clock
}

var _ api.Repository = (*PostRepository)(nil)

// NewPostRepository wraps an existing *sql.DB connection.
func NewPostRepository(db *sql.DB, clk clock.Clock) *PostRepository {
	if clk == nil {
		clk = clock.New()
	}
	return &PostRepository{db: db, clock: clk}
}

const postColumns = `id, title, content, excerpt, slug, published, created_at, updated_at,
	author_id, author_email, author_name, author_picture, author_is_admin`

const commentColumns = `id, content, created_at, post_id,
	author_id, author_email, author_name, author_picture, author_is_admin`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (blog.Post, error) {
	var p blog.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.Slug, &p.Published, &p.CreatedAt, &p.UpdatedAt,
		&p.Author.ID, &p.Author.Email, &p.Author.Name, &p.Author.Picture, &p.Author.IsAdmin,
	)
	return p, err
}

func scanComment(row scanner) (blog.Comment, error) {
	var c blog.Comment
	err := row.Scan(
		&c.ID, &c.Content, &c.CreatedAt, &c.PostID,
		&c.Author.ID, &c.Author.Email, &c.Author.Name, &c.Author.Picture, &c.Author.IsAdmin,
	)
	return c, err
}

func (r *PostRepository) ListPosts(ctx context.Context) ([]blog.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]blog.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list posts: %w", err)
	}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) PostByID(ctx context.Context, id string) (blog.Post, error) {
	return r.getPost(ctx, "id", id)
}

func (r *PostRepository) PostBySlug(ctx context.Context, slug string) (blog.Post, error) {
	return r.getPost(ctx, "slug", slug)
}

// getPost loads one post by a unique column; column is never user input.
func (r *PostRepository) getPost(ctx context.Context, column, value string) (blog.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE `+column+` = $1`, value)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return blog.Post{}, fmt.Errorf("post %s %s: %w", column, value, blog.ErrNotFound)
	}
	if err != nil {
		return blog.Post{}, fmt.Errorf("postgres: get post: %w", err)
	}
	posts := []blog.Post{p}
	if err := r.hydrate(ctx, posts); err != nil {
		return blog.Post{}, err
	}
	return posts[0], nil
}

// hydrate attaches tags and comments to posts with one query each.
func (r *PostRepository) hydrate(ctx context.Context, posts []blog.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
		posts[i].Tags = []blog.Tag{}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT pt.post_id, t.id, t.name
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1) ORDER BY t.name`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("postgres: load tags: %w", err)
	}
	for rows.Next() {
		var postID string
		var t blog.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name); err != nil {
			rows.Close()
			return fmt.Errorf("postgres: scan tag: %w", err)
		}
		i := index[postID]
		posts[i].Tags = append(posts[i].Tags, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: load tags: %w", err)
	}

	rows, err = r.db.QueryContext(ctx, `SELECT `+commentColumns+` FROM comments
		WHERE post_id = ANY($1) ORDER BY created_at DESC`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("postgres: load comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return fmt.Errorf("postgres: scan comment: %w", err)
		}
		i := index[c.PostID]
		posts[i].Comments = append(posts[i].Comments, c)
	}
	return rows.Err()
}

func (r *PostRepository) CreatePost(ctx context.Context, form blog.PostForm, author blog.Author) (blog.Post, error) {
	id := form.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := r.now()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO posts (`+postColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			id, form.Title, form.Content, form.Excerpt, form.Slug, form.Published, now, now,
			author.ID, author.Email, author.Name, author.Picture, author.IsAdmin,
		)
		if err != nil {
			return err
		}
		return setTags(ctx, tx, id, form.Tags)
	})
	if err != nil {
		return blog.Post{}, fmt.Errorf("postgres: create post %s: %w", form.Slug, translateError(err))
	}
	return r.PostByID(ctx, id)
}

func (r *PostRepository) UpdatePost(ctx context.Context, id string, form blog.PostForm) (blog.Post, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE posts
			SET title = $2, content = $3, excerpt = $4, slug = $5, published = $6, updated_at = $7
			WHERE id = $1`,
			id, form.Title, form.Content, form.Excerpt, form.Slug, form.Published, r.now(),
		)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return blog.ErrNotFound
		}
		return setTags(ctx, tx, id, form.Tags)
	})
	if err != nil {
		return blog.Post{}, fmt.Errorf("postgres: update post %s: %w", id, translateError(err))
	}
	return r.PostByID(ctx, id)
}

// setTags replaces a post's tags, creating tags by name as needed.
func setTags(ctx context.Context, tx *sql.Tx, postID string, names []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return err
	}
	for _, name := range blog.NormalizeTags(names) {
		var tagID string
		err := tx.QueryRowContext(ctx, `INSERT INTO tags (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, uuid.NewString(), name).Scan(&tagID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, postID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostRepository) DeletePost(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete post %s: %w", id, translateError(err))
	}
	return nil
}

func (r *PostRepository) Comments(ctx context.Context, postID string) ([]blog.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+commentColumns+` FROM comments
		WHERE post_id = $1 ORDER BY created_at DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]blog.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *PostRepository) AddComment(ctx context.Context, postID string, form blog.CommentForm, author blog.Author) (blog.Comment, error) {
	c := blog.Comment{
		ID:        uuid.NewString(),
		Content:   form.Content,
		CreatedAt: r.now(),
		PostID:    postID,
		Author:    author,
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO comments (`+commentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Content, c.CreatedAt, c.PostID,
		author.ID, author.Email, author.Name, author.Picture, author.IsAdmin,
	)
	if err != nil {
		return blog.Comment{}, fmt.Errorf("postgres: add comment to %s: %w", postID, translateError(err))
	}
	return c, nil
}

func (r *PostRepository) DeleteComment(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete comment %s: %w", id, err)
	}
	return nil
}

func (r *PostRepository) Tags(ctx context.Context) ([]blog.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]blog.Tag, 0)
	for rows.Next() {
		var t blog.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("postgres: scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *PostRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// now is truncated to the microsecond precision Postgres stores.
func (r *PostRepository) now() time.Time {
	return r.clock.Now().UTC().Truncate(time.Microsecond)
}

// translateError maps constraint violations onto domain errors.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", blog.ErrSlugTaken, pqErr.Message)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", blog.ErrNotFound, pqErr.Message)
		}
	}
	return err
}
