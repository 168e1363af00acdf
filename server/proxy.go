package server

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	apperrors "github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/errors"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/logging"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/metrics"
)

type proxyContextKey struct{}

// forwardedHeaders is the allow-list copied to the upstream request. The
// browser's cookies and any inbound Authorization header never cross over.
var forwardedHeaders = []string{"Content-Type", "Accept", "Accept-Language", "User-Agent"}

// newProxyHandler builds the authenticated pass-through in front of the
// backend API. The session's access token becomes the upstream bearer
// credential; requests without a session are refused before any upstream
// connection is made.
func (s *Server) newProxyHandler() (http.Handler, error) {
	target, err := url.Parse(s.config.Backend.BaseURL)
	if err != nil {
		return nil, err
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			out := pr.Out
			out.URL.Scheme = target.Scheme
			out.URL.Host = target.Host
			out.URL.Path = joinProxyPath(target.Path, strings.TrimPrefix(pr.In.URL.Path, strings.TrimSuffix(RouteProxyPrefix, "/")))
			out.URL.RawPath = ""
			out.Host = target.Host

			// GET and HEAD carry no body upstream, whatever the client sent.
			if out.Method == http.MethodGet || out.Method == http.MethodHead {
				out.Body = nil
				out.ContentLength = 0
			}

			headers := make(http.Header)
			for _, name := range forwardedHeaders {
				if v := pr.In.Header.Get(name); v != "" {
					headers.Set(name, v)
				}
			}
			if token, ok := pr.In.Context().Value(proxyContextKey{}).(string); ok {
				headers.Set("Authorization", "Bearer "+token)
			}
			out.Header = headers
		},
		ModifyResponse: func(resp *http.Response) error {
			// The encoding negotiated upstream is not the one the browser
			// negotiated with us.
			resp.Header.Del("Content-Encoding")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Error().
				Err(apperrors.Wrapf(apperrors.ErrUpstreamUnreachable, "%v", err)).
				Str("path", r.URL.Path).
				Msg("proxy request failed")
			writeJSONError(w, http.StatusInternalServerError, "upstream error")
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Read(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.config.Backend.RequestTimeout)
		defer cancel()
		ctx = context.WithValue(ctx, proxyContextKey{}, sess.AccessToken)

		sw := &statusWriter{ResponseWriter: w}
		rp.ServeHTTP(sw, r.WithContext(ctx))

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ProxyRequests.WithLabelValues(r.Method, metrics.StatusClass(status)).Inc()
	}), nil
}

// joinProxyPath glues the configured backend base path to the stripped
// request path without doubling slashes.
func joinProxyPath(base, rest string) string {
	base = strings.TrimSuffix(base, "/")
	if rest == "" {
		rest = "/"
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return base + rest
}
