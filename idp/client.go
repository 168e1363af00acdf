package idp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/errors"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/logging"
)

// scopes requested on every authorization.
var scopes = []string{"openid", "email", "profile"}

// Tokens is the credential set returned by a successful code exchange.
type Tokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	Expiry       time.Time
}

// Client performs the OAuth2 authorization-code flow against the identity
// provider for any of the registered client identities.
type Client struct {
	domain      string
	redirectURI string
	registry    *Registry
	httpClient  *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// New creates a provider client. domain is the provider's base URL
// (e.g. "https://auth.example.com").
func New(domain, redirectURI string, registry *Registry, opts ...Option) *Client {
	c := &Client{
		domain:      strings.TrimRight(domain, "/"),
		redirectURI: redirectURI,
		registry:    registry,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Registry exposes the client registrations this client holds.
func (c *Client) Registry() *Registry {
	return c.registry
}

// LogoutURL builds the provider's logout endpoint URL for a registration, so
// the provider-side session is cleared along with the local cookies.
func (c *Client) LogoutURL(reg Registration, logoutURI string) string {
	return fmt.Sprintf("%s/logout?client_id=%s&logout_uri=%s",
		c.domain, url.QueryEscape(reg.ID), url.QueryEscape(logoutURI))
}

// AuthorizeURL builds the provider's authorization endpoint URL for one
// registration, carrying the encoded state through the redirect.
func (c *Client) AuthorizeURL(reg Registration, state State) string {
	return c.oauthConfig(reg).AuthCodeURL(state.Encode())
}

// Exchange posts the authorization code to the provider's token endpoint
// using the registration's credentials. Failures come back as error values;
// the call never panics and is bounded by the client's HTTP timeout.
func (c *Client) Exchange(ctx context.Context, code string, reg Registration) (*Tokens, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauthConfig(reg).Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "%s client: %v", reg.App, err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, apperrors.Wrapf(apperrors.ErrNoIDToken, "%s client token response", reg.App)
	}

	return &Tokens{
		AccessToken:  tok.AccessToken,
		IDToken:      rawIDToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// ResolveExchange resolves which registration issued the callback's code by
// trial: the hinted registration first, then every remaining one in registry
// order. The code is not self-describing, so this O(N) probe over the small
// registered set is the only resolution available. First success wins.
func (c *Client) ResolveExchange(ctx context.Context, code, hintApp string) (*Tokens, Registration, error) {
	order := c.registry.OrderFor(hintApp)
	if len(order) == 0 {
		return nil, Registration{}, apperrors.ErrNoRegistrations
	}

	var lastErr error
	for _, reg := range order {
		tokens, err := c.Exchange(ctx, code, reg)
		if err == nil {
			return tokens, reg, nil
		}
		logging.Debug().Str("app", reg.App).Err(err).Msg("code exchange attempt failed")
		lastErr = err
	}
	return nil, Registration{}, fmt.Errorf("%w: %v", apperrors.ErrAllClientsFailed, lastErr)
}

func (c *Client) oauthConfig(reg Registration) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     reg.ID,
		ClientSecret: reg.Secret,
		RedirectURL:  c.redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.domain + "/oauth2/authorize",
			TokenURL:  c.domain + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
