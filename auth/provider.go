package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/adeilh/quill/httpx"
)

// ProviderConfig describes an OAuth2 identity provider exposing the
// /authorize, /oauth/token, /userinfo and /v2/logout endpoints.
type ProviderConfig struct {
	// Domain is the tenant host; a scheme may be included for local testing.
	Domain       string
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string
	AdminEmails  []string
}

// Provider runs the authorization-code flow and resolves user profiles.
type Provider struct {
	oauth    *oauth2.Config
	base     string
	clientID string
	userinfo *httpx.Client
	admins   AdminPolicy
}

func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if strings.TrimSpace(cfg.Domain) == "" || strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("auth: provider requires a domain and client id")
	}
	base := strings.TrimRight(cfg.Domain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/authorize",
				TokenURL: base + "/oauth/token",
			},
		},
		base:     base,
		clientID: cfg.ClientID,
		userinfo: httpx.NewClient(httpx.WithBaseURL(base)),
		admins:   NewAdminPolicy(cfg.AdminEmails...),
	}, nil
}

// LoginURL is where the browser is sent to sign in.
func (p *Provider) LoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type userInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange trades an authorization code for the signed-in user's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (Profile, error) {
	if strings.TrimSpace(code) == "" {
		return Profile{}, fmt.Errorf("auth: exchange: %w", ErrUnauthenticated)
	}
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("auth: exchange code: %w", err)
	}
	var info userInfo
	if _, err := p.userinfo.Get(ctx, "/userinfo", &info, httpx.WithBearer(token.AccessToken)); err != nil {
		return Profile{}, fmt.Errorf("auth: fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return Profile{}, errors.New("auth: provider returned no email")
	}
	name := info.Name
	if name == "" {
		name = info.Email
	}
	return p.admins.Apply(Profile{
		ID:      info.Sub,
		Email:   info.Email,
		Name:    name,
		Picture: info.Picture,
	}), nil
}

// LogoutURL ends the provider session and sends the browser to returnTo.
func (p *Provider) LogoutURL(returnTo string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	if returnTo != "" {
		q.Set("returnTo", returnTo)
	}
	return p.base + "/v2/logout?" + q.Encode()
}

// Admins returns the policy used to flag admin profiles.
func (p *Provider) Admins() AdminPolicy { return p.admins }
