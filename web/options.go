package web

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adeilh/quill/auth"
	"github.com/adeilh/quill/render"
)

// DefaultExcerptLength bounds generated card excerpts, in runes.
const DefaultExcerptLength = 160

// IdentityProvider is the sign-in flow the frontend delegates to. It is
// satisfied by *auth.Provider.
type IdentityProvider interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (auth.Profile, error)
	LogoutURL(returnTo string) string
}

// Sessions stores signed-in sessions and one-shot login states.
type Sessions interface {
	auth.SessionStore
	auth.StateStore
}

type Options struct {
	// Provider may be nil, in which case sign-in answers 503.
	Provider IdentityProvider
	Markdown *render.Markdown
	Logger   *zap.Logger
	// SessionTTL slides a session forward while the user is active.
	SessionTTL time.Duration
	// CookieSecure marks the session cookie HTTPS only.
	CookieSecure  bool
	ExcerptLength int
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		SessionTTL:    24 * time.Hour,
		ExcerptLength: DefaultExcerptLength,
	}
}

func (o Options) withDefaults() Options {
	if o.Markdown == nil {
		o.Markdown = render.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.ExcerptLength <= 0 {
		o.ExcerptLength = DefaultExcerptLength
	}
	return o
}

func WithProvider(p IdentityProvider) Option {
	return func(o *Options) { o.Provider = p }
}

func WithMarkdown(md *render.Markdown) Option {
	return func(o *Options) { o.Markdown = md }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Options) { o.SessionTTL = ttl }
}

func WithSecureCookie(secure bool) Option {
	return func(o *Options) { o.CookieSecure = secure }
}

func WithExcerptLength(n int) Option {
	return func(o *Options) { o.ExcerptLength = n }
}
