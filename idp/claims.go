package idp

import (
	"context"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/errors"
)

// Claim names as the provider emits them.
const (
	groupsClaim     = "cognito:groups"
	tenantClaim     = "custom:tenantId"
	superAdminGroup = "super_admin"
)

// Claims is the identity extracted from an ID token.
type Claims struct {
	Subject  string
	Email    string
	Name     string
	Groups   []string
	TenantID string
}

// IsSuperAdmin reports whether the identity carries the super-admin group.
func (c Claims) IsSuperAdmin() bool {
	return slices.Contains(c.Groups, superAdminGroup)
}

// Verifier turns a raw ID token into identity claims. Implementations decide
// how much to trust the token: production deployments must verify against the
// provider's published key set before trusting role or tenant claims.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (Claims, error)
}

// UnverifiedParser decodes claims WITHOUT checking the provider's signature.
// It exists for tests and local development against a stub provider; a
// deployment that faces real traffic must use OIDCVerifier instead.
type UnverifiedParser struct {
	parser *jwt.Parser
}

var _ Verifier = (*UnverifiedParser)(nil)

// NewUnverifiedParser returns the signature-skipping claims parser.
func NewUnverifiedParser() *UnverifiedParser {
	return &UnverifiedParser{parser: jwt.NewParser()}
}

// Verify decodes the token payload. The signature is not checked.
func (p *UnverifiedParser) Verify(_ context.Context, rawIDToken string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := p.parser.ParseUnverified(rawIDToken, mapClaims); err != nil {
		return Claims{}, apperrors.Wrapf(apperrors.ErrMalformedToken, "parse id token: %v", err)
	}
	return claimsFromMap(mapClaims), nil
}

// OIDCVerifier validates ID tokens against the provider's JWKS.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*OIDCVerifier)(nil)

// NewOIDCVerifier discovers the issuer and prepares a JWKS-backed verifier.
// The client ID check is skipped because any of the registered clients may
// have issued the token; registration resolution happens before claims are
// trusted.
func NewOIDCVerifier(ctx context.Context, issuer string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, apperrors.Wrapf(err, "discover oidc provider %s", issuer)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

// Verify checks the token signature and standard claims, then extracts ours.
func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Claims{}, apperrors.Wrapf(err, "verify id token")
	}

	var payload struct {
		Email    string   `json:"email"`
		Name     string   `json:"name"`
		Groups   []string `json:"cognito:groups"`
		TenantID string   `json:"custom:tenantId"`
	}
	if err := idToken.Claims(&payload); err != nil {
		return Claims{}, apperrors.Wrapf(apperrors.ErrMalformedToken, "extract claims: %v", err)
	}

	return Claims{
		Subject:  idToken.Subject,
		Email:    payload.Email,
		Name:     payload.Name,
		Groups:   payload.Groups,
		TenantID: payload.TenantID,
	}, nil
}

func claimsFromMap(m jwt.MapClaims) Claims {
	c := Claims{}
	c.Subject, _ = m["sub"].(string)
	c.Email, _ = m["email"].(string)
	c.Name, _ = m["name"].(string)
	if tenantID, ok := m[tenantClaim].(string); ok {
		c.TenantID = tenantID
	}

	switch groups := m[groupsClaim].(type) {
	case []interface{}:
		for _, g := range groups {
			if s, ok := g.(string); ok {
				c.Groups = append(c.Groups, s)
			}
		}
	case []string:
		c.Groups = groups
	case string:
		if groups != "" {
			c.Groups = []string{groups}
		}
	}
	return c
}
