package api

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/httpx"
)

// Handler serves the REST endpoints over a Repository.
type Handler struct {
	repo Repository
	log  *zap.Logger
}

func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, log: logger}
}

// Routes mounts the API under prefix, usually "/api".
func (h *Handler) Routes(prefix string) httpx.RouteRegistrar {
	return func(a *httpx.App) {
		r := httpx.NewRouter(a, prefix)
		r.GET("/health", h.health)
		r.GET("/tags", h.listTags)

		r.Group("/posts").
			GET("", h.listPosts).
			GET("/:id", h.getPost).
			GET("/slug/:slug", h.getPostBySlug).
			POST("", h.createPost).
			PUT("/:id", h.updatePost).
			DELETE("/:id", h.deletePost)

		r.Group("/comments").
			GET("/post/:postId", h.listComments).
			POST("", h.createComment).
			DELETE("/:id", h.deleteComment)
	}
}

type message struct {
	Message string `json:"message"`
}

func (h *Handler) health(c httpx.Context) error {
	return c.JSON(httpx.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listPosts(c httpx.Context) error {
	posts, err := h.repo.ListPosts(c.Request().Context())
	if err != nil {
		return h.fail(c, err, "Failed to retrieve posts")
	}
	for i := range posts {
		posts[i] = withReadTime(posts[i])
	}
	return c.JSON(httpx.StatusOK, posts)
}

func (h *Handler) getPost(c httpx.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return httpx.HTTPError(httpx.StatusBadRequest, "Post ID is required")
	}
	post, err := h.repo.PostByID(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve post")
	}
	return c.JSON(httpx.StatusOK, withReadTime(post))
}

func (h *Handler) getPostBySlug(c httpx.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return httpx.HTTPError(httpx.StatusBadRequest, "Post slug is required")
	}
	post, err := h.repo.PostBySlug(c.Request().Context(), slug)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve post")
	}
	return c.JSON(httpx.StatusOK, withReadTime(post))
}

type createPostRequest struct {
	Post   blog.PostForm `json:"post"`
	Author blog.Author   `json:"author"`
}

func (h *Handler) createPost(c httpx.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return httpx.HTTPError(httpx.StatusBadRequest, "Invalid request format")
	}
	form := req.Post.Normalize()
	if err := form.Validate(); err != nil {
		return h.fail(c, err, "Failed to create post")
	}
	post, err := h.repo.CreatePost(c.Request().Context(), form, req.Author)
	if err != nil {
		return h.fail(c, err, "Failed to create post")
	}
	h.log.Info("post created", zap.String("id", post.ID), zap.String("slug", post.Slug))
	return c.JSON(httpx.StatusCreated, withReadTime(post))
}

func (h *Handler) updatePost(c httpx.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return httpx.HTTPError(httpx.StatusBadRequest, "Post ID is required")
	}
	var form blog.PostForm
	if err := c.Bind(&form); err != nil {
		return httpx.HTTPError(httpx.StatusBadRequest, "Invalid request format")
	}
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return h.fail(c, err, "Failed to update post")
	}
	post, err := h.repo.UpdatePost(c.Request().Context(), id, form)
	if err != nil {
		return h.fail(c, err, "Failed to update post")
	}
	return c.JSON(httpx.StatusOK, withReadTime(post))
}

func (h *Handler) deletePost(c httpx.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return httpx.HTTPError(httpx.StatusBadRequest, "Post ID is required")
	}
	if err := h.repo.DeletePost(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to delete post")
	}
	return c.JSON(httpx.StatusOK, message{Message: "Post deleted successfully"})
}

func (h *Handler) listComments(c httpx.Context) error {
	postID := strings.TrimSpace(c.Param("postId"))
	if postID == "" {
		return httpx.HTTPError(httpx.StatusBadRequest, "Post ID is required")
	}
	comments, err := h.repo.Comments(c.Request().Context(), postID)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve comments")
	}
	return c.JSON(httpx.StatusOK, comments)
}

type createCommentRequest struct {
	PostID  string           `json:"postId"`
	Comment blog.CommentForm `json:"comment"`
	Author  blog.Author      `json:"author"`
}

func (h *Handler) createComment(c httpx.Context) error {
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return httpx.HTTPError(httpx.StatusBadRequest, "Invalid request format")
	}
	if strings.TrimSpace(req.PostID) == "" {
		return httpx.HTTPError(httpx.StatusBadRequest, "Post ID is required")
	}
	if err := req.Comment.Validate(); err != nil {
		return h.fail(c, err, "Failed to create comment")
	}
	comment, err := h.repo.AddComment(c.Request().Context(), req.PostID, req.Comment, req.Author)
	if err != nil {
		return h.fail(c, err, "Failed to create comment")
	}
	return c.JSON(httpx.StatusCreated, comment)
}

func (h *Handler) deleteComment(c httpx.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return httpx.HTTPError(httpx.StatusBadRequest, "Comment ID is required")
	}
	if err := h.repo.DeleteComment(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to delete comment")
	}
	return c.JSON(httpx.StatusOK, message{Message: "Comment deleted successfully"})
}

func (h *Handler) listTags(c httpx.Context) error {
	tags, err := h.repo.Tags(c.Request().Context())
	if err != nil {
		return h.fail(c, err, "Failed to retrieve tags")
	}
	return c.JSON(httpx.StatusOK, tags)
}

// fail maps repository errors onto HTTP errors. Internal failures are logged
// and reported with the generic message.
func (h *Handler) fail(c httpx.Context, err error, generic string) error {
	switch {
	case errors.Is(err, blog.ErrNotFound):
		return httpx.HTTPError(httpx.StatusNotFound, "Post not found")
	case errors.Is(err, blog.ErrSlugTaken):
		return httpx.HTTPError(httpx.StatusConflict, "Slug already in use")
	case errors.Is(err, blog.ErrInvalidPost), errors.Is(err, blog.ErrInvalidInput):
		return httpx.HTTPError(httpx.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		return err
	}
	h.log.Error(generic, zap.String("path", c.Path()), zap.Error(err))
	return httpx.HTTPError(httpx.StatusInternalError, generic)
}

func withReadTime(p blog.Post) blog.Post {
	if p.ReadTime == 0 {
		p.ReadTime = blog.EstimateReadTime(p.Content)
	}
	if p.Tags == nil {
		p.Tags = []blog.Tag{}
	}
	return p
}
