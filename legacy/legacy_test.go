package legacy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adeilh/quill/api"
	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/httpx"
)

const export = `[
  {
    "id": "p-existing", "title": "Existing", "content": "already there", "excerpt": "",
    "slug": "existing", "published": true, "createdAt": "2024-01-02T03:04:05Z",
    "author": {"id": "u1", "email": "admin@example.com", "name": "Admin", "picture": "", "isAdmin": true},
    "tags": [], "comments": []
  },
  {
    "id": "p-new", "title": "New Post", "content": "fresh content", "excerpt": "short",
    "slug": "new-post", "published": true, "createdAt": "2024-01-03T03:04:05Z",
    "author": {"id": "u1", "email": "admin@example.com", "name": "Admin", "picture": "", "isAdmin": true},
    "tags": [{"id": "t1", "name": "go"}, {"id": "t2", "name": "web"}],
    "comments": [
      {"id": "c1", "content": "first!", "createdAt": "2024-01-03T04:00:00Z", "postId": "p-new",
       "author": {"id": "u2", "email": "reader@example.com", "name": "Reader", "picture": "", "isAdmin": false}},
      {"id": "c2", "content": "second", "createdAt": "2024-01-03T05:00:00Z", "postId": "p-new",
       "author": {"id": "u2", "email": "reader@example.com", "name": "Reader", "picture": "", "isAdmin": false}}
    ]
  },
  {
    "id": "p-bad", "title": "Bad", "content": "x", "excerpt": "", "slug": "Bad Slug!", "published": false,
    "author": {"id": "u1", "email": "admin@example.com", "name": "Admin", "picture": "", "isAdmin": true},
    "tags": [], "comments": []
  },
  {
    "title": "No Id", "content": "y", "excerpt": "", "slug": "no-id", "published": false,
    "author": {"id": "u1", "email": "admin@example.com", "name": "Admin", "picture": "", "isAdmin": true},
    "tags": [], "comments": []
  }
]`

func newAPI(t *testing.T) (*api.MemoryRepository, *httpx.Client) {
	t.Helper()
	repo := api.NewMemoryRepository(nil)
	server := httpx.NewServer(httpx.WithLogger(zap.NewNop()))
	server.RegisterRoutes(api.NewHandler(repo, nil).Routes("/api"))
	ts := httpx.NewAppTestServer(server)
	t.Cleanup(ts.Close)
	return repo, httpx.NewClient(httpx.WithBaseURL(ts.BaseURL() + "/api"))
}

func TestImportFile(t *testing.T) {
	repo, transport := newAPI(t)
	ctx := context.Background()
	if _, err := repo.CreatePost(ctx, blog.PostForm{ID: "p-existing", Title: "Existing", Slug: "existing", Content: "already there"}, blog.Author{}); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), StorageKey+".json")
	if err := os.WriteFile(path, []byte(export), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	migrated, err := NewImporter(transport, zap.New(core)).ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if migrated != 2 {
		t.Fatalf("migrated = %d, want 2", migrated)
	}

	post, err := repo.PostByID(ctx, "p-new")
	if err != nil {
		t.Fatalf("PostByID() error = %v", err)
	}
	if post.Slug != "new-post" || post.Excerpt != "short" || len(post.Tags) != 2 || post.Author.Email != "admin@example.com" {
		t.Fatalf("unexpected migrated post %+v", post)
	}
	comments, err := repo.Comments(ctx, "p-new")
	if err != nil || len(comments) != 2 {
		t.Fatalf("Comments() = %+v, %v; want 2", comments, err)
	}
	if comments[0].Author.Email != "reader@example.com" {
		t.Fatalf("comment author not preserved: %+v", comments[0])
	}

	if _, err := repo.PostBySlug(ctx, "no-id"); err != nil {
		t.Fatalf("post without id not migrated: %v", err)
	}
	if _, err := repo.PostByID(ctx, "p-bad"); err == nil {
		t.Fatalf("invalid post should have been skipped")
	}
	if n := logs.FilterMessage("migrate post failed").Len(); n != 1 {
		t.Fatalf("expected one failure logged, got %d", n)
	}

	// Posts with ids are skipped; the id-less one now collides on its slug.
	again, err := NewImporter(transport, nil).ImportFile(ctx, path)
	if err != nil || again != 0 {
		t.Fatalf("second ImportFile() = %d, %v; want 0", again, err)
	}
}

func TestReadPosts(t *testing.T) {
	posts, err := ReadPosts(strings.NewReader(""))
	if err != nil || len(posts) != 0 {
		t.Fatalf("ReadPosts(empty) = %v, %v", posts, err)
	}
	if _, err := ReadPosts(strings.NewReader(`{"not": "an array"}`)); err == nil {
		t.Fatalf("expected decode error")
	}
	posts, err = ReadPosts(strings.NewReader(export))
	if err != nil || len(posts) != 4 || len(posts[1].Comments) != 2 {
		t.Fatalf("ReadPosts() = %d posts, %v", len(posts), err)
	}
}

func TestImportStopsWhenContextEnds(t *testing.T) {
	_, transport := newAPI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := NewImporter(transport, nil).Import(ctx, []blog.Post{{ID: "p1", Title: "t", Slug: "t", Content: "c"}})
	if err == nil || n != 0 {
		t.Fatalf("Import() = %d, %v; want context error", n, err)
	}
}

func TestImportMissingFile(t *testing.T) {
	_, transport := newAPI(t)
	if _, err := NewImporter(transport, nil).ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
