package server

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/idp"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/metrics"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/routing"
)

// Gatekeeper intercepts every inbound request. It asks the tenant resolver
// for a routing decision, applies rewrites in place, and bounces
// session-less requests for protected paths to the sign-in entry point.
// Failures never escape as errors: routing trouble degrades to passthrough
// and auth trouble to a sign-in redirect.
func (s *Server) Gatekeeper(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inbound := r.URL.Path
		decision := s.resolver.Resolve(r.Host, inbound)
		metrics.RouteDecisions.WithLabelValues(string(decision.Action)).Inc()

		switch decision.Action {
		case routing.ActionRewrite:
			r.URL.Path = decision.Path
			r.URL.RawPath = ""
		case routing.ActionRedirect:
			http.Redirect(w, r, decision.Location, http.StatusFound)
			return
		}

		// A protected page stays protected whichever form of its path the
		// browser used, so both the inbound and the canonical path count.
		if s.isProtected(inbound) || s.isProtected(r.URL.Path) {
			if _, ok := s.sessions.Read(r); !ok {
				http.Redirect(w, r, s.signInURL(r.URL.Path), http.StatusFound)
				return
			}
		}

		next(w, r)
	}
}

// isProtected reports whether the internal path requires a session. Auth and
// API paths are excluded: the auth flow must stay reachable while signed out
// and the proxy answers 401 itself.
func (s *Server) isProtected(reqPath string) bool {
	if strings.HasPrefix(reqPath, "/auth/") || strings.HasPrefix(reqPath, "/api/") {
		return false
	}
	// Asset requests carry a file extension and are served without a session.
	if path.Ext(reqPath) != "" {
		return false
	}
	for _, prefix := range s.config.Routing.ProtectedPrefixes {
		trimmed := strings.TrimSuffix(prefix, "/")
		if reqPath == trimmed || strings.HasPrefix(reqPath, trimmed+"/") {
			return true
		}
	}
	return false
}

// signInURL builds the local sign-in entry point carrying the original
// destination, so the post-login redirect lands where the browser was headed.
func (s *Server) signInURL(returnTo string) string {
	app := idp.AppTenant
	if returnTo == PathAdminHome || strings.HasPrefix(returnTo, PathAdminHome+"/") {
		app = idp.AppAdmin
	}
	return fmt.Sprintf("%s?app=%s&returnTo=%s", RouteSignIn, app, url.QueryEscape(returnTo))
}

// PageHandler stands in for the page-rendering layer, which is outside this
// subsystem. It answers with the canonical internal path the gatekeeper
// resolved, which is what the downstream renderer would receive.
func (s *Server) PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeHTML)
		fmt.Fprintf(w, "<!doctype html><title>%s</title><main data-path=%q></main>",
			s.config.Server.AppName, r.URL.Path)
	}
}
