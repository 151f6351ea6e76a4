package web

import (
	"errors"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/adeilh/quill/auth"
	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/httpx"
)

// home lists published posts, newest first, optionally narrowed to ?tag=.
func (h *Handler) home(c httpx.Context) error {
	ctx := c.Request().Context()
	posts := blog.NewestFirst(blog.PublishedOnly(h.posts.ListPosts(ctx).OrEmpty()))
	tag := strings.TrimSpace(c.QueryParam("tag"))
	if tag != "" {
		posts = blog.WithTag(posts, tag)
	}

	cards := make([]card, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, card{Post: p, Excerpt: h.cardExcerpt(p), Minutes: p.Minutes()})
	}
	return c.Render(httpx.StatusOK, "home", homePage{base: h.base(c, "Latest Posts"), Posts: cards, Tag: tag})
}

func (h *Handler) cardExcerpt(p blog.Post) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	return h.md.Excerpt(p.Content, h.excerpt)
}

// visiblePost resolves a slug to a post the viewer may read. Drafts are only
// visible to admins.
func (h *Handler) visiblePost(c httpx.Context, slug string) (blog.Post, bool) {
	post, ok := h.posts.PostBySlug(c.Request().Context(), slug).OrEmpty().Get()
	if !ok {
		return blog.Post{}, false
	}
	if !post.Published {
		if viewer, _ := h.viewer(c); !viewer.IsAdmin {
			return blog.Post{}, false
		}
	}
	return post, true
}

func (h *Handler) showPost(c httpx.Context) error {
	post, ok := h.visiblePost(c, c.Param("slug"))
	if !ok {
		return h.notFound(c)
	}
	return h.renderPost(c, httpx.StatusOK, post, "")
}

func (h *Handler) renderPost(c httpx.Context, code int, post blog.Post, problem string) error {
	body, err := h.md.HTML(post.Content)
	if err != nil {
		h.log.Warn("render post body failed", zap.String("slug", post.Slug), zap.Error(err))
		body = template.HTML(template.HTMLEscapeString(post.Content))
	}

	viewer, signedIn := h.viewer(c)
	thread := blog.NewestCommentsFirst(h.posts.Comments(c.Request().Context(), post.ID).OrEmpty())
	comments := make([]commentView, 0, len(thread))
	for _, cm := range thread {
		comments = append(comments, commentView{Comment: cm, CanDelete: signedIn && canDelete(viewer, cm)})
	}

	page := postPage{
		base:     h.base(c, post.Title),
		Post:     post,
		Body:     body,
		Minutes:  post.Minutes(),
		Comments: comments,
	}
	page.Error = problem
	return c.Render(code, "post", page)
}

// canDelete allows admins and the comment's author.
func canDelete(viewer auth.Profile, cm blog.Comment) bool {
	if viewer.IsAdmin {
		return true
	}
	if viewer.ID != "" && viewer.ID == cm.Author.ID {
		return true
	}
	return viewer.Email != "" && strings.EqualFold(viewer.Email, cm.Author.Email)
}

func (h *Handler) addComment(c httpx.Context) error {
	post, ok := h.visiblePost(c, c.Param("slug"))
	if !ok {
		return h.notFound(c)
	}
	viewer, _ := h.viewer(c)
	form := blog.CommentForm{Content: c.FormValue("content")}

	err := h.posts.AddComment(c.Request().Context(), post.ID, form, viewer.Author()).Error()
	switch {
	case errors.Is(err, blog.ErrInvalidInput):
		return h.renderPost(c, httpx.StatusBadRequest, post, "Comment cannot be empty.")
	case err != nil:
		return h.renderPost(c, httpx.StatusBadGateway, post, "Your comment could not be saved. Please try again.")
	}
	return c.Redirect(httpx.StatusSeeOther, postPath(post.Slug)+"#comments")
}

// deleteComment removes a comment and then drops the owning post's cached
// thread, which the client cannot identify on its own.
func (h *Handler) deleteComment(c httpx.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	postID := strings.TrimSpace(c.FormValue("post_id"))
	if postID == "" {
		return h.message(c, httpx.StatusBadRequest, "Comment not deleted", "The comment's post is missing from the request.")
	}

	var target *blog.Comment
	thread := h.posts.Comments(ctx, postID).OrEmpty()
	for i := range thread {
		if thread[i].ID == id {
			target = &thread[i]
			break
		}
	}
	if target == nil {
		return h.message(c, httpx.StatusNotFound, "Comment Not Found", "The comment doesn't exist or has already been removed.")
	}
	if viewer, _ := h.viewer(c); !canDelete(viewer, *target) {
		return h.message(c, httpx.StatusForbidden, "Forbidden", "Only the author or an admin can delete this comment.")
	}

	if err := h.posts.DeleteComment(ctx, id).Error(); err != nil {
		return h.message(c, httpx.StatusBadGateway, "Comment not deleted", "The comment could not be deleted. Please try again.")
	}
	// Failures are logged by the client; the thread then expires on its own.
	_ = h.posts.ClearPostComments(ctx, postID)

	next := "/"
	if slug := strings.TrimSpace(c.FormValue("slug")); slug != "" {
		next = postPath(slug) + "#comments"
	}
	return c.Redirect(httpx.StatusSeeOther, next)
}
