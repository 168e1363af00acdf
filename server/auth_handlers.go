package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/idp"
	apperrors "github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/errors"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/logging"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/metrics"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/session"
)

// SignInHandler bounces the browser to the identity provider's authorization
// endpoint for the requested app registration, threading the desired return
// path through the opaque state.
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app := r.URL.Query().Get("app")
		if app != idp.AppAdmin {
			app = idp.AppTenant
		}

		reg, ok := s.idp.Registry().ByApp(app)
		if !ok {
			logging.Error().Str("app", app).Err(apperrors.ErrUnknownApp).Msg("sign-in unavailable")
			http.Error(w, "sign-in unavailable", http.StatusServiceUnavailable)
			return
		}

		state := idp.State{
			App:      app,
			ReturnTo: validateReturnTo(r.URL.Query().Get("returnTo")),
		}
		http.Redirect(w, r, s.idp.AuthorizeURL(reg, state), http.StatusFound)
	}
}

// AuthCallbackHandler is the endpoint the identity provider redirects to
// after login. It resolves which registration issued the code, derives role
// and tenant from the identity claims, writes the session cookies and bounces
// the browser to its destination. Every failure resolves locally into a
// sign-in redirect; a partial session is never written.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			s.failLogin(w, r, "none", "callback without code")
			return
		}

		// The state is untrusted input: a decode failure degrades to
		// defaults instead of failing the flow.
		state, err := idp.DecodeState(r.URL.Query().Get("state"))
		if err != nil {
			logging.Warn().Err(err).Msg("malformed callback state, using defaults")
			state = idp.State{}
		}

		tokens, reg, err := s.idp.ResolveExchange(r.Context(), code, state.App)
		if err != nil {
			s.failLogin(w, r, "none", "code exchange failed")
			return
		}

		claims, err := s.verifier.Verify(r.Context(), tokens.IDToken)
		if err != nil {
			s.failLogin(w, r, reg.App, "id token rejected")
			return
		}

		destination, sess, ok := s.sessionFromClaims(claims, tokens, state)
		if !ok {
			// neither a recognised role nor a tenant: no resolvable
			// destination, so no session may exist either
			s.failLogin(w, r, reg.App, "identity has no role and no tenant")
			return
		}

		s.sessions.Write(w, r, sess)
		metrics.LoginAttempts.WithLabelValues("success", reg.App).Inc()
		logging.Info().
			Str("app", reg.App).
			Str("role", string(sess.Role)).
			Str("tenant_id", sess.TenantID).
			Msg("login completed")
		http.Redirect(w, r, destination, http.StatusFound)
	}
}

// sessionFromClaims derives the session and the post-login destination.
func (s *Server) sessionFromClaims(claims idp.Claims, tokens *idp.Tokens, state idp.State) (string, session.Session, bool) {
	sess := session.Session{
		Subject:      claims.Subject,
		Email:        claims.Email,
		Role:         session.RoleMember,
		TenantID:     claims.TenantID,
		AccessToken:  tokens.AccessToken,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.Expiry,
	}

	switch {
	case claims.IsSuperAdmin():
		sess.Role = session.RoleSuperAdmin
		sess.TenantID = "" // super admins are tenant-free
		destination := validateReturnTo(state.ReturnTo)
		if destination == "" {
			destination = PathAdminHome
		}
		return destination, sess, true
	case claims.TenantID != "":
		// The token's tenant claim is authoritative for the destination,
		// even when the state carried a different /t/ return path.
		return "/t/" + claims.TenantID, sess, true
	default:
		return "", session.Session{}, false
	}
}

// failLogin resolves a failed flow into the sign-in entry point. The redirect
// never carries provider detail; specifics stay in the server log.
func (s *Server) failLogin(w http.ResponseWriter, r *http.Request, app, reason string) {
	metrics.LoginAttempts.WithLabelValues("failure", app).Inc()
	logging.Warn().Str("reason", reason).Msg("login failed")
	http.Redirect(w, r, RouteSignIn, http.StatusFound)
}

// LogoutHandler clears every session cookie and bounces to the provider's
// logout endpoint so the provider-side session dies too.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Clear(w, r)

		app := r.URL.Query().Get("app")
		if app != idp.AppAdmin {
			app = idp.AppTenant
		}
		reg, ok := s.idp.Registry().ByApp(app)
		if !ok {
			http.Redirect(w, r, PathRoot, http.StatusFound)
			return
		}
		http.Redirect(w, r, s.idp.LogoutURL(reg, s.config.Provider.LogoutURI), http.StatusFound)
	}
}

// SignedOutHandler is where the provider's logout redirect lands. Clearing
// again is harmless and covers logouts initiated on the provider side.
func (s *Server) SignedOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Clear(w, r)
		http.Redirect(w, r, PathRoot, http.StatusFound)
	}
}

// MeHandler returns the signed-in identity for client-side widgets. Claims
// come from the session's ID token through the configured verifier.
func (s *Server) MeHandler() http.HandlerFunc {
	type meResponse struct {
		Subject  string `json:"sub"`
		Email    string `json:"email"`
		Name     string `json:"name,omitempty"`
		Role     string `json:"role"`
		TenantID string `json:"tenantId,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Read(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := s.verifier.Verify(r.Context(), sess.IDToken)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(meResponse{
			Subject:  claims.Subject,
			Email:    claims.Email,
			Name:     claims.Name,
			Role:     string(sess.Role),
			TenantID: sess.TenantID,
		})
	}
}

// validateReturnTo only accepts relative paths, so a crafted state cannot
// turn the post-login redirect into an open redirect.
func validateReturnTo(uri string) string {
	if uri == "" {
		return ""
	}
	if !strings.HasPrefix(uri, "/") || strings.HasPrefix(uri, "//") {
		return ""
	}
	if _, err := url.ParseRequestURI(uri); err != nil {
		return ""
	}
	return uri
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
