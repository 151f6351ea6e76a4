// Package web serves the blog's HTML frontend. Pages read through the
// caching blog client, render markdown bodies, and delegate sign-in to an
// identity provider.
package web

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/adeilh/quill/auth"
	"github.com/adeilh/quill/blog/client"
	"github.com/adeilh/quill/httpx"
	"github.com/adeilh/quill/render"
)

type Handler struct {
	posts    *client.Client
	sessions Sessions
	auth     *auth.Middleware
	provider IdentityProvider
	md       *render.Markdown
	views    *Templates
	log      *zap.Logger
	secure   bool
	excerpt  int
}

func NewHandler(posts *client.Client, sessions Sessions, opts ...Option) (*Handler, error) {
	if posts == nil {
		return nil, errors.New("web: handler requires a blog client")
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg = cfg.withDefaults()

	views, err := ParseTemplates()
	if err != nil {
		return nil, err
	}
	h := &Handler{
		posts:    posts,
		sessions: sessions,
		provider: cfg.Provider,
		md:       cfg.Markdown,
		views:    views,
		log:      cfg.Logger,
		secure:   cfg.CookieSecure,
		excerpt:  cfg.ExcerptLength,
	}
	h.auth, err = auth.NewMiddleware(sessions,
		auth.WithErrorHandler(h.reject),
		auth.WithSlidingExpiry(cfg.SessionTTL),
		auth.WithSessionRefresher(h.refreshCookie),
		auth.WithMiddlewareLogger(cfg.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	return h, nil
}

// Routes installs the renderer, the session middleware and every page.
func (h *Handler) Routes() httpx.RouteRegistrar {
	return func(a *httpx.App) {
		a.SetRenderer(h.views)
		a.Use(httpx.FromHTTPMiddleware(h.auth.Handler))
		signedIn := httpx.FromHTTPMiddleware(h.auth.RequireLogin)

		a.GET("/", h.home)
		a.GET("/posts/:slug", h.showPost)
		a.POST("/posts/:slug/comments", h.addComment, signedIn)
		a.POST("/comments/:id/delete", h.deleteComment, signedIn)

		a.GET("/login", h.login)
		a.GET("/callback", h.callback)
		a.GET("/logout", h.logout)

		a.Group("/admin", httpx.FromHTTPMiddleware(h.auth.RequireAdmin)).
			GET("", h.adminIndex).
			GET("/posts/new", h.newPost).
			POST("/posts", h.createPost).
			GET("/posts/:id/edit", h.editPost).
			POST("/posts/:id", h.updatePost).
			POST("/posts/:id/delete", h.deletePost).
			POST("/cache/clear", h.clearCache)
	}
}

func (h *Handler) viewer(c httpx.Context) (auth.Profile, bool) {
	return auth.ProfileFromContext(c.Request().Context())
}

func (h *Handler) base(c httpx.Context, title string) base {
	p, ok := h.viewer(c)
	return base{Title: title, User: p, SignedIn: ok}
}

func (h *Handler) message(c httpx.Context, code int, heading, text string) error {
	return c.Render(code, "message", messagePage{base: h.base(c, heading), Heading: heading, Message: text})
}

func (h *Handler) notFound(c httpx.Context) error {
	return h.message(c, httpx.StatusNotFound, "Post Not Found", "The post you're looking for doesn't exist or has been removed.")
}

// HandleError renders errors that escape the page handlers, such as unknown
// routes, as HTML pages.
func (h *Handler) HandleError(err error, c httpx.Context) {
	if c.Response().Committed {
		return
	}
	code := httpx.StatusOf(err)
	var renderErr error
	switch {
	case code == httpx.StatusNotFound:
		renderErr = h.message(c, code, "Page Not Found", "There is nothing at this address.")
	case code >= httpx.StatusInternalError:
		h.log.Error("request failed", zap.String("path", c.Request().URL.Path), zap.Error(err))
		renderErr = h.message(c, code, "Something went wrong", "The page could not be shown. Please try again.")
	default:
		renderErr = h.message(c, code, http.StatusText(code), "The request could not be completed.")
	}
	if renderErr != nil {
		h.log.Error("render error page failed", zap.Error(renderErr))
		_ = c.String(code, http.StatusText(code))
	}
}

// reject answers requests stopped by RequireLogin or RequireAdmin.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		http.Redirect(w, r, "/login", httpx.StatusFound)
		return
	}
	page := messagePage{
		base:    base{Title: "Forbidden"},
		Heading: "Forbidden",
		Message: "Admin access is required to view this page.",
	}
	page.User, page.SignedIn = auth.ProfileFromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(httpx.StatusForbidden)
	if err := h.views.Render(w, "message", page, nil); err != nil {
		h.log.Warn("render forbidden page failed", zap.Error(err))
	}
}

func postPath(slug string) string { return "/posts/" + slug }
