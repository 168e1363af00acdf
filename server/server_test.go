package server_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/idp"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/config"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/server"
)

const (
	adminClientID  = "admin-client-1"
	tenantClientID = "tenant-client-1"
	testCode       = "auth-code-1"
	consoleHost    = "console.example.com"
	wwwHost        = "www.example.com"
	logoutURI      = "https://console.example.com/auth/signedout"
)

// identity is what the fake provider embeds in minted ID tokens.
type identity struct {
	Subject  string
	Email    string
	Groups   []string
	TenantID string
}

// fakeIdP stands in for the identity provider. Each accepted client_id maps
// to the identity its registration would authenticate.
type fakeIdP struct {
	mu       sync.Mutex
	attempts []string
	accepted map[string]identity
	ts       *httptest.Server
}

func newFakeIdP(t *testing.T, accepted map[string]identity) *fakeIdP {
	t.Helper()
	p := &fakeIdP{accepted: accepted}
	p.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		clientID := r.FormValue("client_id")

		p.mu.Lock()
		p.attempts = append(p.attempts, clientID)
		p.mu.Unlock()

		who, ok := p.accepted[clientID]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-for-" + clientID,
			"id_token":      mintIDToken(t, who),
			"refresh_token": "refresh-for-" + clientID,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(p.ts.Close)
	return p
}

func (p *fakeIdP) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.attempts...)
}

func mintIDToken(t *testing.T, who identity) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   who.Subject,
		"email": who.Email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if len(who.Groups) > 0 {
		claims["cognito:groups"] = who.Groups
	}
	if who.TenantID != "" {
		claims["custom:tenantId"] = who.TenantID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func testConfig(providerDomain, backendURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "8080",
			AppName:     "Console",
			Environment: "PROD",
		},
		Provider: config.ProviderConfig{
			Domain:         providerDomain,
			AdminClientID:  adminClientID,
			TenantClientID: tenantClientID,
			RedirectURI:    "https://" + consoleHost + "/auth/callback",
			LogoutURI:      logoutURI,
		},
		Backend: config.BackendConfig{
			BaseURL:        backendURL,
			RequestTimeout: 5 * time.Second,
		},
		Routing: config.RoutingConfig{
			PreviewDomain: "amplifyapp.com",
			SkipPrefixes:  []string{"/auth/", "/api/", "/metrics", "/healthz", "/_next/", "/static/"},
			ProtectedPrefixes: []string{
				"/admin", "/dashboard", "/child", "/users", "/t/",
			},
		},
	}
}

func newTestServer(t *testing.T, p *fakeIdP, backendURL string) *server.Server {
	t.Helper()
	if backendURL == "" {
		backendURL = "http://backend.internal:9000"
	}
	cfg := testConfig(p.ts.URL, backendURL)
	registry := idp.NewRegistry(
		idp.Registration{ID: adminClientID, App: idp.AppAdmin},
		idp.Registration{ID: tenantClientID, App: idp.AppTenant},
	)
	client := idp.New(p.ts.URL, cfg.Provider.RedirectURI, registry)

	s, err := server.New(cfg, client, idp.NewUnverifiedParser())
	require.NoError(t, err)
	return s
}

// sessionCookies produces the cookie set of a signed-in browser.
func sessionCookies(t *testing.T, who identity, role string) []*http.Cookie {
	t.Helper()
	cookies := []*http.Cookie{
		{Name: "access_token", Value: "access-token-value"},
		{Name: "id_token", Value: mintIDToken(t, who)},
		{Name: "session_expiry", Value: strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)},
		{Name: "role", Value: role},
	}
	if who.TenantID != "" {
		cookies = append(cookies, &http.Cookie{Name: "tenant_id", Value: who.TenantID})
	}
	return cookies
}

func doRequest(s *server.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func get(host, path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("http://%s%s", host, path), nil)
	req.Host = host
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}
