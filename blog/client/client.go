// Package client wraps the blog REST API with a TTL response cache.
//
// Reads consult the cache first and store fresh responses on a miss. Writes
// run the mutation and then drop the cache entries they can identify as
// stale. Read failures are logged and returned as an error Result whose
// OrEmpty value is the empty default.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/cache"
	"github.com/adeilh/quill/httpx"
)

type Client struct {
	http        *httpx.Client
	cache       cache.Store
	codec       cache.Codec
	log         *zap.Logger
	postsTTL    time.Duration
	commentsTTL time.Duration
	flight      singleflight.Group
}

// New builds a client over an API transport, typically an httpx.Client whose
// base URL points at the /api root.
func New(transport *httpx.Client, opts ...Option) *Client {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg = cfg.withDefaults()
	if transport == nil {
		transport = httpx.NewClient()
	}
	return &Client{
		http:        transport,
		cache:       cfg.Cache,
		codec:       cfg.Codec,
		log:         cfg.Logger,
		postsTTL:    cfg.PostsTTL,
		commentsTTL: cfg.CommentsTTL,
	}
}

// Cache exposes the store backing the client.
func (c *Client) Cache() cache.Store { return c.cache }

// cached implements check cache, fetch on miss, store on success. Concurrent
// misses for one key share a single fetch.
func cached[T any](ctx context.Context, c *Client, key blog.Key, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var hit T
	err := cache.GetValue(ctx, c.cache, c.codec, key.String(), &hit)
	if err == nil {
		return hit, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		c.log.Warn("cache read failed", zap.Stringer("key", key), zap.Error(err))
	}

	// The shared fetch runs detached from any one caller; the transport
	// timeout bounds it. Each caller still stops waiting on its own ctx.
	ch := c.flight.DoChan(key.String(), func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		fresh, err := fetch(fctx)
		if err != nil {
			return fresh, err
		}
		if err := cache.SetValue(fctx, c.cache, c.codec, key.String(), fresh, ttl); err != nil {
			c.log.Warn("cache write failed", zap.Stringer("key", key), zap.Error(err))
		}
		return fresh, nil
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (c *Client) invalidate(ctx context.Context, keys []blog.Key) {
	for _, k := range keys {
		if err := c.cache.Delete(ctx, k.String()); err != nil {
			c.log.Warn("cache invalidation failed", zap.Stringer("key", k), zap.Error(err))
		}
	}
}

// ListPosts returns every post the API knows about, drafts included.
func (c *Client) ListPosts(ctx context.Context) mo.Result[[]blog.Post] {
	posts, err := cached(ctx, c, blog.AllPosts(), c.postsTTL, func(ctx context.Context) ([]blog.Post, error) {
		var out []blog.Post
		if _, err := c.http.Get(ctx, "/posts", &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []blog.Post{}
		}
		return out, nil
	})
	if err != nil {
		c.log.Error("fetch posts failed", zap.Error(err))
		return mo.Err[[]blog.Post](fmt.Errorf("list posts: %w", err))
	}
	return mo.Ok(posts)
}

// PostByID returns None when the API answers 404.
func (c *Client) PostByID(ctx context.Context, id string) mo.Result[mo.Option[blog.Post]] {
	return c.getPost(ctx, blog.PostByID(id), "/posts/{id}", map[string]string{"id": id})
}

// PostBySlug returns None when the API answers 404.
func (c *Client) PostBySlug(ctx context.Context, slug string) mo.Result[mo.Option[blog.Post]] {
	return c.getPost(ctx, blog.PostBySlug(slug), "/posts/slug/{slug}", map[string]string{"slug": slug})
}

func (c *Client) getPost(ctx context.Context, key blog.Key, path string, params map[string]string) mo.Result[mo.Option[blog.Post]] {
	post, err := cached(ctx, c, key, c.postsTTL, func(ctx context.Context) (blog.Post, error) {
		var out blog.Post
		_, err := c.http.Get(ctx, path, &out, httpx.WithPathParams(params))
		return out, err
	})
	if httpx.IsNotFound(err) {
		return mo.Ok(mo.None[blog.Post]())
	}
	if err != nil {
		c.log.Error("fetch post failed", zap.Stringer("key", key), zap.Error(err))
		return mo.Err[mo.Option[blog.Post]](fmt.Errorf("get post: %w", err))
	}
	return mo.Ok(mo.Some(post))
}

type createPostRequest struct {
	Post   blog.PostForm `json:"post"`
	Author blog.Author   `json:"author"`
}

// CreatePost validates and submits a new post. Errors are returned to the
// caller so forms can show them.
func (c *Client) CreatePost(ctx context.Context, form blog.PostForm, author blog.Author) (blog.Post, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return blog.Post{}, err
	}
	var out blog.Post
	if _, err := c.http.Post(ctx, "/posts", createPostRequest{Post: form, Author: author}, &out); err != nil {
		c.log.Error("create post failed", zap.String("slug", form.Slug), zap.Error(err))
		return blog.Post{}, fmt.Errorf("create post: %w", translate(err))
	}
	c.invalidate(ctx, blog.StaleAfterCreatePost())
	return out, nil
}

// UpdatePost replaces a post's fields and tags. The entry cached under the
// post's slug is not dropped and may serve the old version until it expires.
func (c *Client) UpdatePost(ctx context.Context, id string, form blog.PostForm) (blog.Post, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return blog.Post{}, err
	}
	var out blog.Post
	if _, err := c.http.Put(ctx, "/posts/{id}", form, &out, httpx.WithPathParams(map[string]string{"id": id})); err != nil {
		c.log.Error("update post failed", zap.String("id", id), zap.Error(err))
		return blog.Post{}, fmt.Errorf("update post %s: %w", id, translate(err))
	}
	c.invalidate(ctx, blog.StaleAfterUpdatePost(id))
	return out, nil
}

// DeletePost reports whether the API accepted the deletion.
func (c *Client) DeletePost(ctx context.Context, id string) mo.Result[bool] {
	if _, err := c.http.Delete(ctx, "/posts/{id}", nil, httpx.WithPathParams(map[string]string{"id": id})); err != nil {
		c.log.Error("delete post failed", zap.String("id", id), zap.Error(err))
		return mo.Err[bool](fmt.Errorf("delete post %s: %w", id, translate(err)))
	}
	c.invalidate(ctx, blog.StaleAfterDeletePost(id))
	return mo.Ok(true)
}

// Comments returns a post's comment thread.
func (c *Client) Comments(ctx context.Context, postID string) mo.Result[[]blog.Comment] {
	comments, err := cached(ctx, c, blog.CommentsForPost(postID), c.commentsTTL, func(ctx context.Context) ([]blog.Comment, error) {
		var out []blog.Comment
		_, err := c.http.Get(ctx, "/comments/post/{postId}", &out, httpx.WithPathParams(map[string]string{"postId": postID}))
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = []blog.Comment{}
		}
		return out, nil
	})
	if err != nil {
		c.log.Error("fetch comments failed", zap.String("post_id", postID), zap.Error(err))
		return mo.Err[[]blog.Comment](fmt.Errorf("list comments: %w", err))
	}
	return mo.Ok(comments)
}

type addCommentRequest struct {
	PostID  string           `json:"postId"`
	Comment blog.CommentForm `json:"comment"`
	Author  blog.Author      `json:"author"`
}

func (c *Client) AddComment(ctx context.Context, postID string, form blog.CommentForm, author blog.Author) mo.Result[blog.Comment] {
	if err := form.Validate(); err != nil {
		return mo.Err[blog.Comment](err)
	}
	var out blog.Comment
	body := addCommentRequest{PostID: postID, Comment: form, Author: author}
	if _, err := c.http.Post(ctx, "/comments", body, &out); err != nil {
		c.log.Error("add comment failed", zap.String("post_id", postID), zap.Error(err))
		return mo.Err[blog.Comment](fmt.Errorf("add comment: %w", translate(err)))
	}
	c.invalidate(ctx, blog.StaleAfterAddComment(postID))
	return mo.Ok(out)
}

// DeleteComment removes a comment. The owning post is unknown here, so its
// cached thread is left alone; callers that know it use ClearPostComments.
func (c *Client) DeleteComment(ctx context.Context, commentID string) mo.Result[bool] {
	if _, err := c.http.Delete(ctx, "/comments/{id}", nil, httpx.WithPathParams(map[string]string{"id": commentID})); err != nil {
		c.log.Error("delete comment failed", zap.String("id", commentID), zap.Error(err))
		return mo.Err[bool](fmt.Errorf("delete comment %s: %w", commentID, translate(err)))
	}
	c.invalidate(ctx, blog.StaleAfterDeleteComment(commentID))
	return mo.Ok(true)
}

// Tags lists every tag. Tags are not cached.
func (c *Client) Tags(ctx context.Context) mo.Result[[]blog.Tag] {
	var out []blog.Tag
	if _, err := c.http.Get(ctx, "/tags", &out); err != nil {
		c.log.Error("fetch tags failed", zap.Error(err))
		return mo.Err[[]blog.Tag](fmt.Errorf("list tags: %w", err))
	}
	if out == nil {
		out = []blog.Tag{}
	}
	return mo.Ok(out)
}

// Health pings the API.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.http.Get(ctx, "/health", nil); err != nil {
		return fmt.Errorf("api health: %w", err)
	}
	return nil
}

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.clear(ctx, "")
}

// ClearPosts drops every cached post and post list.
func (c *Client) ClearPosts(ctx context.Context) error {
	return c.clear(ctx, blog.PostsCategory)
}

// ClearComments drops every cached comment thread.
func (c *Client) ClearComments(ctx context.Context) error {
	return c.clear(ctx, blog.CommentsCategory)
}

// ClearPostComments drops the cached thread of one post.
func (c *Client) ClearPostComments(ctx context.Context, postID string) error {
	key := blog.CommentsForPost(postID)
	if err := c.cache.Delete(ctx, key.String()); err != nil {
		c.log.Warn("cache invalidation failed", zap.Stringer("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) clear(ctx context.Context, prefix string) error {
	var err error
	if prefix == "" {
		err = c.cache.Clear(ctx)
	} else {
		err = c.cache.DeletePrefix(ctx, prefix)
	}
	if err != nil {
		c.log.Warn("cache clear failed", zap.String("prefix", prefix), zap.Error(err))
		return err
	}
	return nil
}

// translate maps API status codes onto domain errors.
func translate(err error) error {
	var se *httpx.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case httpx.StatusNotFound:
		return fmt.Errorf("%w: %w", blog.ErrNotFound, err)
	case httpx.StatusConflict:
		return fmt.Errorf("%w: %w", blog.ErrSlugTaken, err)
	case httpx.StatusBadRequest:
		return fmt.Errorf("%w: %w", blog.ErrInvalidInput, err)
	}
	return err
}
