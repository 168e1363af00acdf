// Package server is the HTTP surface of the console edge: the gatekeeper
// middleware that resolves tenants and enforces sessions, the OAuth2 callback
// and sign-in/out handlers, and the authenticated proxy in front of the
// backend API.
package server

import (
	"net/http"
	"strings"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/idp"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/config"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/logging"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/routing"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/session"
)

type Server struct {
	env      string
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   *config.Config
	resolver *routing.Resolver
	sessions *session.Codec
	idp      *idp.Client
	verifier idp.Verifier
	proxy    http.Handler
}

func New(cfg *config.Config, idpClient *idp.Client, verifier idp.Verifier) (*Server, error) {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		resolver: routing.NewResolver(cfg.Routing.PreviewDomain, cfg.Routing.SkipPrefixes),
		sessions: session.NewCodec(),
		idp:      idpClient,
		verifier: verifier,
	}
	s.env = cfg.Server.Environment

	proxy, err := s.newProxyHandler()
	if err != nil {
		return nil, err
	}
	s.proxy = proxy

	s.initRoutes()
	s.logRoutes()

	// Every request passes the gatekeeper before the mux dispatches it.
	s.handler = ChainMiddleware(s.mux.ServeHTTP,
		s.RecoverMiddleware,
		s.LoggingMiddleware,
		s.SecurityHeadersMiddleware,
		s.Gatekeeper,
	)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if !strings.EqualFold(s.env, "DEV") {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		logging.Debug().Str("route", route).Msg("route registered")
	}
}
