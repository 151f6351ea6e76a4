package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultCookieName is the cookie carrying the session id.
const DefaultCookieName = "quill_session"

var (
	ErrSessionIDNotFound = errors.New("auth: session id not found")
	ErrSessionIDInvalid  = errors.New("auth: invalid session id source")
)

// SessionIDExtractor pulls a session id from a request.
type SessionIDExtractor func(*http.Request) (string, error)

type MiddlewareSkipper func(*http.Request) bool

// MiddlewareErrorHandler answers requests rejected by RequireLogin or
// RequireAdmin. err is ErrUnauthenticated or ErrForbidden.
type MiddlewareErrorHandler func(http.ResponseWriter, *http.Request, error)

// SessionRefresher runs after a session was slid forward, typically to
// reissue the session cookie with the new expiry.
type SessionRefresher func(http.ResponseWriter, *http.Request, Session)

type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	sessions     SessionStore
	extractor    SessionIDExtractor
	skipper      MiddlewareSkipper
	errorHandler MiddlewareErrorHandler
	sliding      time.Duration
	refresh      SessionRefresher
	clock        clock.Clock
	logger       *zap.Logger
}

func newMiddlewareConfig(sessions SessionStore, opts ...MiddlewareOption) (middlewareConfig, error) {
	if sessions == nil {
		return middlewareConfig{}, errors.New("auth: middleware requires a session store")
	}
	cfg := middlewareConfig{
		sessions:     sessions,
		extractor:    ChainExtractors(CookieExtractor(DefaultCookieName), BearerExtractor()),
		skipper:      defaultSkipper,
		errorHandler: defaultErrorHandler,
		clock:        clock.New(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.extractor == nil {
		cfg.extractor = CookieExtractor(DefaultCookieName)
	}
	if cfg.skipper == nil {
		cfg.skipper = defaultSkipper
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = defaultErrorHandler
	}
	if cfg.clock == nil {
		cfg.clock = clock.New()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg, nil
}

func WithSessionIDExtractor(extractor SessionIDExtractor) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if extractor != nil {
			cfg.extractor = extractor
		}
	}
}

func WithSkipper(skipper MiddlewareSkipper) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if skipper != nil {
			cfg.skipper = skipper
		}
	}
}

func WithErrorHandler(handler MiddlewareErrorHandler) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if handler != nil {
			cfg.errorHandler = handler
		}
	}
}

// WithSlidingExpiry extends a session to ttl from now whenever less than
// half of ttl remains.
func WithSlidingExpiry(ttl time.Duration) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.sliding = ttl
		}
	}
}

func WithSessionRefresher(fn SessionRefresher) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.refresh = fn
	}
}

func WithMiddlewareClock(c clock.Clock) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.clock = c
	}
}

func WithMiddlewareLogger(logger *zap.Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.logger = logger
	}
}

// BearerExtractor reads "Authorization: Bearer <session id>" for API clients.
func BearerExtractor() SessionIDExtractor {
	return func(r *http.Request) (string, error) {
		header := r.Header.Get("Authorization")
		if header == "" {
			return "", ErrSessionIDNotFound
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", ErrSessionIDInvalid
		}
		id := strings.TrimSpace(parts[1])
		if id == "" {
			return "", ErrSessionIDInvalid
		}
		return id, nil
	}
}

func CookieExtractor(name string) SessionIDExtractor {
	name = strings.TrimSpace(name)
	return func(r *http.Request) (string, error) {
		if name == "" {
			return "", ErrSessionIDInvalid
		}
		cookie, err := r.Cookie(name)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				return "", ErrSessionIDNotFound
			}
			return "", err
		}
		value := strings.TrimSpace(cookie.Value)
		if value == "" {
			return "", ErrSessionIDInvalid
		}
		return value, nil
	}
}

func ChainExtractors(extractors ...SessionIDExtractor) SessionIDExtractor {
	copied := append([]SessionIDExtractor(nil), extractors...)
	return func(r *http.Request) (string, error) {
		var lastErr error = ErrSessionIDNotFound
		for _, extractor := range copied {
			if extractor == nil {
				continue
			}
			id, err := extractor(r)
			if err == nil {
				return id, nil
			}
			lastErr = err
		}
		return "", lastErr
	}
}

func defaultSkipper(*http.Request) bool { return false }

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusUnauthorized
	switch {
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	http.Error(w, err.Error(), status)
}
