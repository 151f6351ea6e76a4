package web

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adeilh/quill/auth"
	"github.com/adeilh/quill/httpx"
)

func (h *Handler) signInUnavailable(c httpx.Context) error {
	return h.message(c, httpx.StatusServiceUnavailable, "Sign-in unavailable", "Sign-in is not configured for this site.")
}

// login starts the authorization-code flow with a fresh one-shot state.
func (h *Handler) login(c httpx.Context) error {
	if h.provider == nil {
		return h.signInUnavailable(c)
	}
	state, err := h.sessions.NewState(c.Request().Context())
	if err != nil {
		h.log.Error("issue login state failed", zap.Error(err))
		return h.signInUnavailable(c)
	}
	return c.Redirect(httpx.StatusFound, h.provider.LoginURL(state))
}

func (h *Handler) callback(c httpx.Context) error {
	if h.provider == nil {
		return h.signInUnavailable(c)
	}
	ctx := c.Request().Context()
	if reason := c.QueryParam("error"); reason != "" {
		h.log.Info("sign-in declined", zap.String("reason", reason))
		return h.message(c, httpx.StatusUnauthorized, "Sign-in cancelled", "The identity provider did not sign you in.")
	}
	if err := h.sessions.ConsumeState(ctx, c.QueryParam("state")); err != nil {
		h.log.Warn("login state rejected", zap.Error(err))
		return h.message(c, httpx.StatusBadRequest, "Sign-in failed", "The sign-in request expired. Please try again.")
	}

	profile, err := h.provider.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		h.log.Error("code exchange failed", zap.Error(err))
		return h.message(c, httpx.StatusBadGateway, "Sign-in failed", "The identity provider could not be reached. Please try again.")
	}
	sess, err := h.sessions.Create(ctx, profile)
	if err != nil {
		h.log.Error("create session failed", zap.String("email", profile.Email), zap.Error(err))
		return h.message(c, httpx.StatusServiceUnavailable, "Sign-in failed", "Your session could not be started. Please try again.")
	}

	c.SetCookie(h.sessionCookie(sess.ID, sess.ExpiresAt))
	h.log.Info("signed in", zap.String("email", profile.Email), zap.Bool("admin", profile.IsAdmin))
	return c.Redirect(httpx.StatusFound, "/")
}

// logout ends the local session, then the provider's.
func (h *Handler) logout(c httpx.Context) error {
	if ck, err := c.Cookie(auth.DefaultCookieName); err == nil && ck.Value != "" {
		if err := h.sessions.Delete(c.Request().Context(), ck.Value); err != nil {
			h.log.Warn("delete session failed", zap.Error(err))
		}
	}
	expired := h.sessionCookie("", time.Unix(0, 0))
	expired.MaxAge = -1
	c.SetCookie(expired)

	target := "/"
	if h.provider != nil {
		target = h.provider.LogoutURL(c.Scheme() + "://" + c.Request().Host + "/")
	}
	return c.Redirect(httpx.StatusFound, target)
}

// refreshCookie keeps the browser cookie alive as long as the slid session.
func (h *Handler) refreshCookie(w http.ResponseWriter, _ *http.Request, sess auth.Session) {
	http.SetCookie(w, h.sessionCookie(sess.ID, sess.ExpiresAt))
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.DefaultCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
