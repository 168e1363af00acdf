package server

import (
	"net/http"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/metrics"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("GET "+RouteSignIn, s.SignInHandler())
	s.RegisterRouteFunc("GET "+RouteCallback, s.AuthCallbackHandler())
	s.RegisterRouteFunc("GET "+RouteLogout, s.LogoutHandler())
	s.RegisterRouteFunc("GET "+RouteSignedOut, s.SignedOutHandler())

	// API
	s.RegisterRouteFunc("GET "+RouteMe, s.MeHandler())
	// The proxy accepts every verb, so the pattern carries no method.
	s.RegisterRouteHandler(RouteProxyPrefix, s.proxy)

	// Operational
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// Everything else is a page; rendering itself lives outside this
	// subsystem, the edge only guarantees the request reaches it with the
	// canonical internal path and a checked session.
	s.RegisterRouteFunc("/", s.PageHandler())
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
