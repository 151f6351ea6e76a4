package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/adeilh/quill/blog"
	testpg "github.com/adeilh/quill/internal/testutil/postgrescontainer"
)

const testTimeout = 5 * time.Second

var author = blog.Author{ID: "u1", Email: "admin@example.com", Name: "Admin", Picture: "https://example.com/a.png", IsAdmin: true}

func TestMain(m *testing.M) {
	if err := testpg.Setup(); err != nil {
		fmt.Println("postgres repository tests skipped:", err)
		os.Exit(0)
	}
	code := m.Run()
	if err := testpg.Teardown(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: failed to stop postgres test container:", err)
	}
	os.Exit(code)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	db, err := Open(ctx, WithDSN(testpg.DSN()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS comments, post_tags, tags, posts"); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Running twice must be harmless.
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	return db
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background()); !errors.Is(err, ErrMissingDSN) {
		t.Fatalf("Open() error = %v, want ErrMissingDSN", err)
	}
}

func TestPostRepositoryLifecycle(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := NewPostRepository(openTestDB(t), clk)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	first, err := repo.CreatePost(ctx, blog.PostForm{Title: "First", Slug: "first", Content: "one", Published: true, Tags: []string{"go", "web", "go"}}, author)
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if first.ID == "" || first.Author != author || !first.CreatedAt.Equal(clk.Now()) {
		t.Fatalf("unexpected post %+v", first)
	}
	if got := first.TagNames(); len(got) != 2 || got[0] != "go" || got[1] != "web" {
		t.Fatalf("TagNames() = %v", got)
	}

	clk.Add(time.Minute)
	second, err := repo.CreatePost(ctx, blog.PostForm{Title: "Second", Slug: "second", Content: "two", Tags: []string{"go"}}, author)
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	posts, err := repo.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 2 || posts[0].ID != second.ID || posts[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", posts)
	}

	tags, err := repo.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags() error = %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected shared tags, got %+v", tags)
	}

	bySlug, err := repo.PostBySlug(ctx, "second")
	if err != nil || bySlug.ID != second.ID {
		t.Fatalf("PostBySlug() = %+v, %v", bySlug, err)
	}

	clk.Add(time.Minute)
	updated, err := repo.UpdatePost(ctx, first.ID, blog.PostForm{Title: "First v2", Slug: "first-v2", Content: "one!", Tags: []string{"rust"}})
	if err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
	if updated.Title != "First v2" || updated.Published || !updated.UpdatedAt.Equal(clk.Now()) || updated.TagNames()[0] != "rust" {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := repo.DeletePost(ctx, second.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if _, err := repo.PostByID(ctx, second.ID); !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("PostByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.DeletePost(ctx, second.ID); err != nil {
		t.Fatalf("deleting a missing post should succeed, got %v", err)
	}
}

func TestPostRepositoryErrors(t *testing.T) {
	repo := NewPostRepository(openTestDB(t), nil)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if _, err := repo.PostBySlug(ctx, "missing"); !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("PostBySlug() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.UpdatePost(ctx, "missing", blog.PostForm{Title: "x", Slug: "x", Content: "x"}); !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("UpdatePost() error = %v, want ErrNotFound", err)
	}

	form := blog.PostForm{Title: "Taken", Slug: "taken", Content: "x"}
	if _, err := repo.CreatePost(ctx, form, author); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if _, err := repo.CreatePost(ctx, form, author); !errors.Is(err, blog.ErrSlugTaken) {
		t.Fatalf("duplicate CreatePost() error = %v, want ErrSlugTaken", err)
	}
	if _, err := repo.AddComment(ctx, "missing", blog.CommentForm{Content: "hi"}, author); !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("AddComment() on missing post error = %v, want ErrNotFound", err)
	}
}

func TestPostRepositoryComments(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := NewPostRepository(openTestDB(t), clk)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	post, err := repo.CreatePost(ctx, blog.PostForm{Title: "Post", Slug: "post", Content: "x", Published: true}, author)
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	older, err := repo.AddComment(ctx, post.ID, blog.CommentForm{Content: "older"}, author)
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	clk.Add(time.Second)
	newer, err := repo.AddComment(ctx, post.ID, blog.CommentForm{Content: "newer"}, author)
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	comments, err := repo.Comments(ctx, post.ID)
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	if len(comments) != 2 || comments[0].ID != newer.ID || comments[1].ID != older.ID {
		t.Fatalf("expected newest comment first, got %+v", comments)
	}

	hydrated, err := repo.PostByID(ctx, post.ID)
	if err != nil || len(hydrated.Comments) != 2 {
		t.Fatalf("PostByID() comments = %+v, %v", hydrated.Comments, err)
	}

	if err := repo.DeleteComment(ctx, older.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
	if err := repo.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if comments, _ := repo.Comments(ctx, post.ID); len(comments) != 0 {
		t.Fatalf("expected comments removed with their post, got %+v", comments)
	}
}
