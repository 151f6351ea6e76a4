// Package legacy imports posts exported from the browser-storage version of
// the blog (the "blog_posts" array) into the REST API.
package legacy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/httpx"
)

// StorageKey names the array the old frontend kept its posts under.
const StorageKey = "blog_posts"

// ReadPosts decodes a blog_posts export: a JSON array of posts with their
// tags, author and comments inline.
func ReadPosts(r io.Reader) ([]blog.Post, error) {
	var posts []blog.Post
	if err := json.NewDecoder(r).Decode(&posts); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("legacy: decode %s: %w", StorageKey, err)
	}
	return posts, nil
}

// Importer talks to the API directly, bypassing any response cache, so
// posts keep their original ids.
type Importer struct {
	http *httpx.Client
	log  *zap.Logger
}

func NewImporter(transport *httpx.Client, logger *zap.Logger) *Importer {
	if transport == nil {
		transport = httpx.NewClient()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{http: transport, log: logger}
}

// ImportFile reads an export from path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("legacy: %w", err)
	}
	defer f.Close()
	posts, err := ReadPosts(f)
	if err != nil {
		return 0, err
	}
	return im.Import(ctx, posts)
}

// Import creates every post the API does not already have, then its
// comments. A post that fails is logged and skipped. The count of created
// posts is returned; the error is non-nil only when ctx ends early.
func (im *Importer) Import(ctx context.Context, posts []blog.Post) (int, error) {
	if len(posts) == 0 {
		im.log.Info("nothing to migrate")
		return 0, nil
	}
	migrated := 0
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return migrated, err
		}
		created, err := im.importPost(ctx, post)
		if err != nil {
			im.log.Error("migrate post failed", zap.String("id", post.ID), zap.String("slug", post.Slug), zap.Error(err))
			continue
		}
		if created {
			migrated++
		}
	}
	im.log.Info("migration completed", zap.Int("migrated", migrated), zap.Int("total", len(posts)))
	return migrated, nil
}

type createPostRequest struct {
	Post   blog.PostForm `json:"post"`
	Author blog.Author   `json:"author"`
}

type addCommentRequest struct {
	PostID  string           `json:"postId"`
	Comment blog.CommentForm `json:"comment"`
	Author  blog.Author      `json:"author"`
}

func (im *Importer) importPost(ctx context.Context, post blog.Post) (bool, error) {
	if post.ID != "" {
		exists, err := im.exists(ctx, post.ID)
		if err != nil {
			return false, err
		}
		if exists {
			im.log.Debug("post already present", zap.String("id", post.ID))
			return false, nil
		}
	}

	var created blog.Post
	req := createPostRequest{Post: post.Form(), Author: post.Author}
	if _, err := im.http.Post(ctx, "/posts", req, &created); err != nil {
		return false, fmt.Errorf("create post: %w", err)
	}

	for _, c := range post.Comments {
		body := addCommentRequest{PostID: created.ID, Comment: blog.CommentForm{Content: c.Content}, Author: c.Author}
		if _, err := im.http.Post(ctx, "/comments", body, nil); err != nil {
			im.log.Warn("migrate comment failed", zap.String("post_id", created.ID), zap.String("comment_id", c.ID), zap.Error(err))
		}
	}
	return true, nil
}

// exists treats any API answer other than success as absent. Transport
// failures are errors.
func (im *Importer) exists(ctx context.Context, id string) (bool, error) {
	_, err := im.http.Get(ctx, "/posts/{id}", nil, httpx.WithPathParams(map[string]string{"id": id}))
	if err == nil {
		return true, nil
	}
	var se *httpx.StatusError
	if errors.As(err, &se) {
		return false, nil
	}
	return false, fmt.Errorf("check post: %w", err)
}
