package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Middleware resolves the session cookie into a Profile on the request
// context. Handler never rejects; RequireLogin and RequireAdmin do.
type Middleware struct {
	sessions     SessionStore
	extractor    SessionIDExtractor
	skipper      MiddlewareSkipper
	errorHandler MiddlewareErrorHandler
	sliding      time.Duration
	refresh      SessionRefresher
	clock        clock.Clock
	log          *zap.Logger
}

func NewMiddleware(sessions SessionStore, opts ...MiddlewareOption) (*Middleware, error) {
	cfg, err := newMiddlewareConfig(sessions, opts...)
	if err != nil {
		return nil, err
	}
	return &Middleware{
		sessions:     cfg.sessions,
		extractor:    cfg.extractor,
		skipper:      cfg.skipper,
		errorHandler: cfg.errorHandler,
		sliding:      cfg.sliding,
		refresh:      cfg.refresh,
		clock:        cfg.clock,
		log:          cfg.logger,
	}, nil
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m == nil {
		panic("auth: middleware is nil")
	}
	if next == nil {
		next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.extractor(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := m.sessions.Get(r.Context(), id)
		if err != nil {
			if !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrSessionInvalidDescriptor) {
				m.log.Warn("session lookup failed", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		m.slide(w, r, sess)

		next.ServeHTTP(w, r.WithContext(ContextWithProfile(r.Context(), sess.Profile)))
	})
}

func (m *Middleware) slide(w http.ResponseWriter, r *http.Request, sess Session) {
	if m.sliding <= 0 || sess.ExpiresAt.IsZero() {
		return
	}
	now := m.clock.Now()
	if sess.ExpiresAt.Sub(now) >= m.sliding/2 {
		return
	}
	expiresAt := now.Add(m.sliding)
	if err := m.sessions.Touch(r.Context(), sess.ID, expiresAt); err != nil {
		m.log.Warn("session touch failed", zap.String("session", sess.ID), zap.Error(err))
		return
	}
	if m.refresh != nil {
		sess.ExpiresAt = expiresAt
		m.refresh(w, r, sess)
	}
}

// RequireLogin rejects requests without a profile. It must run after Handler.
func (m *Middleware) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ProfileFromContext(r.Context()); !ok {
			m.errorHandler(w, r, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from anonymous and non-admin users.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := ProfileFromContext(r.Context())
		if !ok {
			m.errorHandler(w, r, ErrUnauthenticated)
			return
		}
		if !p.IsAdmin {
			m.errorHandler(w, r, ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
