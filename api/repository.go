// Package api serves the blog REST API consumed by blog/client.
package api

import (
	"context"

	"github.com/adeilh/quill/blog"
)

// Repository is the storage behind the API. Lookups of missing rows return
// blog.ErrNotFound and slug collisions return blog.ErrSlugTaken. Deleting a
// missing row is not an error.
type Repository interface {
	ListPosts(ctx context.Context) ([]blog.Post, error)
	PostByID(ctx context.Context, id string) (blog.Post, error)
	PostBySlug(ctx context.Context, slug string) (blog.Post, error)
	CreatePost(ctx context.Context, form blog.PostForm, author blog.Author) (blog.Post, error)
	UpdatePost(ctx context.Context, id string, form blog.PostForm) (blog.Post, error)
	DeletePost(ctx context.Context, id string) error

	Comments(ctx context.Context, postID string) ([]blog.Comment, error)
	AddComment(ctx context.Context, postID string, form blog.CommentForm, author blog.Author) (blog.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	Tags(ctx context.Context) ([]blog.Tag, error)
}
