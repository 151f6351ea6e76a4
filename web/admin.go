package web

import (
	"errors"
	"strings"

	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/httpx"
)

// adminIndex lists every post, drafts included, newest first.
func (h *Handler) adminIndex(c httpx.Context) error {
	posts := blog.NewestFirst(h.posts.ListPosts(c.Request().Context()).OrEmpty())
	return c.Render(httpx.StatusOK, "admin", adminPage{base: h.base(c, "Admin"), Posts: posts})
}

func (h *Handler) newPost(c httpx.Context) error {
	return h.renderEditor(c, httpx.StatusOK, blog.PostForm{}, "/admin/posts", "")
}

func (h *Handler) createPost(c httpx.Context) error {
	form := postForm(c)
	viewer, _ := h.viewer(c)
	if _, err := h.posts.CreatePost(c.Request().Context(), form, viewer.Author()); err != nil {
		code, problem := formProblem(err)
		return h.renderEditor(c, code, form, "/admin/posts", problem)
	}
	return c.Redirect(httpx.StatusSeeOther, "/admin")
}

func (h *Handler) editPost(c httpx.Context) error {
	id := c.Param("id")
	post, ok := h.posts.PostByID(c.Request().Context(), id).OrEmpty().Get()
	if !ok {
		return h.notFound(c)
	}
	return h.renderEditor(c, httpx.StatusOK, post.Form(), "/admin/posts/"+id, "")
}

func (h *Handler) updatePost(c httpx.Context) error {
	id := c.Param("id")
	form := postForm(c)
	form.ID = id
	if _, err := h.posts.UpdatePost(c.Request().Context(), id, form); err != nil {
		code, problem := formProblem(err)
		return h.renderEditor(c, code, form, "/admin/posts/"+id, problem)
	}
	return c.Redirect(httpx.StatusSeeOther, "/admin")
}

// deletePost redirects even when the post was already gone; the API deletes
// idempotently.
func (h *Handler) deletePost(c httpx.Context) error {
	if err := h.posts.DeletePost(c.Request().Context(), c.Param("id")).Error(); err != nil {
		return h.message(c, httpx.StatusBadGateway, "Post not deleted", "The post could not be deleted. Please try again.")
	}
	return c.Redirect(httpx.StatusSeeOther, "/admin")
}

func (h *Handler) clearCache(c httpx.Context) error {
	if err := h.posts.ClearCache(c.Request().Context()); err != nil {
		return h.message(c, httpx.StatusInternalError, "Cache not cleared", "The response cache could not be cleared.")
	}
	return c.Redirect(httpx.StatusSeeOther, "/admin")
}

func (h *Handler) renderEditor(c httpx.Context, code int, form blog.PostForm, action, problem string) error {
	title := "Edit Post"
	if form.ID == "" {
		title = "New Post"
	}
	page := editorPage{
		base:   h.base(c, title),
		Form:   form,
		Tags:   strings.Join(form.Tags, ", "),
		Action: action,
		IsNew:  form.ID == "",
	}
	page.Error = problem
	return c.Render(code, "editor", page)
}

// postForm reads the editor fields. An empty slug is derived from the title.
func postForm(c httpx.Context) blog.PostForm {
	form := blog.PostForm{
		Title:     c.FormValue("title"),
		Slug:      strings.TrimSpace(c.FormValue("slug")),
		Excerpt:   c.FormValue("excerpt"),
		Content:   c.FormValue("content"),
		Published: c.FormValue("published") != "",
		Tags:      blog.SplitTags(c.FormValue("tags")),
	}
	if form.Slug == "" {
		form.Slug = blog.Slugify(form.Title)
	}
	return form
}

// formProblem maps a save error onto a status and a message for the editor.
func formProblem(err error) (int, string) {
	switch {
	case errors.Is(err, blog.ErrInvalidPost):
		msg := err.Error()
		if i := strings.Index(msg, blog.ErrInvalidPost.Error()); i >= 0 {
			msg = msg[i+len(blog.ErrInvalidPost.Error()):]
		}
		msg = strings.TrimPrefix(msg, ": ")
		if msg == "" {
			return httpx.StatusBadRequest, "The post is invalid."
		}
		return httpx.StatusBadRequest, strings.ToUpper(msg[:1]) + msg[1:] + "."
	case errors.Is(err, blog.ErrSlugTaken):
		return httpx.StatusConflict, "That slug is already in use."
	case errors.Is(err, blog.ErrInvalidInput):
		return httpx.StatusBadRequest, "The post was rejected as invalid."
	case errors.Is(err, blog.ErrNotFound):
		return httpx.StatusNotFound, "The post no longer exists."
	}
	return httpx.StatusBadGateway, "The post could not be saved. Please try again."
}
