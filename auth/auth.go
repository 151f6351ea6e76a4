// Package auth delegates sign-in to an OAuth2 identity provider and keeps
// the resulting profile in a server-side session.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/adeilh/quill/blog"
)

var (
	ErrUnauthenticated = errors.New("auth: not signed in")
	ErrForbidden       = errors.New("auth: admin access required")
	ErrInvalidState    = errors.New("auth: invalid login state")
)

// Profile is the identity returned by the provider plus the admin flag.
type Profile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	IsAdmin bool   `json:"isAdmin"`
}

// Author converts the profile into the author attached to posts and comments.
func (p Profile) Author() blog.Author {
	return blog.Author{ID: p.ID, Email: p.Email, Name: p.Name, Picture: p.Picture, IsAdmin: p.IsAdmin}
}

// Session is the persisted shape of a signed-in browser session.
type Session struct {
	ID        string    `json:"id"`
	Profile   Profile   `json:"profile"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) IsExpired(at time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !at.Before(s.ExpiresAt)
}

// SessionStore persists sessions and supports lifecycle management.
type SessionStore interface {
	Create(ctx context.Context, profile Profile) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, expiresAt time.Time) error
}

// StateStore issues and redeems one-shot OAuth2 state values.
type StateStore interface {
	NewState(ctx context.Context) (string, error)
	ConsumeState(ctx context.Context, state string) error
}

type profileContextKey struct{}

// ContextWithProfile attaches a profile to ctx.
func ContextWithProfile(ctx context.Context, p Profile) context.Context {
	return context.WithValue(ctx, profileContextKey{}, p)
}

// ProfileFromContext returns the signed-in profile, if any.
func ProfileFromContext(ctx context.Context) (Profile, bool) {
	if ctx == nil {
		return Profile{}, false
	}
	p, ok := ctx.Value(profileContextKey{}).(Profile)
	return p, ok
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
