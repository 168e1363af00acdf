// Package config assembles the process-wide configuration once at startup.
// Components receive the resulting Config by reference and never read
// environment variables themselves.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Provider ProviderConfig `koanf:"provider"`
	Backend  BackendConfig  `koanf:"backend"`
	Routing  RoutingConfig  `koanf:"routing"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string `koanf:"port"`
	AppName     string `koanf:"app_name"`
	Environment string `koanf:"environment"` // DEV or PROD
}

// ProviderConfig describes the external identity provider and the client
// registrations it recognises.
type ProviderConfig struct {
	// Domain is the provider's base URL, e.g. "https://auth.example.com".
	Domain             string `koanf:"domain"`
	AdminClientID      string `koanf:"admin_client_id"`
	AdminClientSecret  string `koanf:"admin_client_secret"`
	TenantClientID     string `koanf:"tenant_client_id"`
	TenantClientSecret string `koanf:"tenant_client_secret"`
	RedirectURI        string `koanf:"redirect_uri"`
	LogoutURI          string `koanf:"logout_uri"`
	// VerifySignatures selects the JWKS-backed claims verifier. The unverified
	// parser is only acceptable for local development and tests.
	VerifySignatures bool `koanf:"verify_signatures"`
}

// BackendConfig describes the business API the authenticated proxy fronts.
type BackendConfig struct {
	BaseURL        string        `koanf:"base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// RoutingConfig configures the tenant resolver and the edge gatekeeper.
type RoutingConfig struct {
	// PreviewDomain is the wildcard domain used by preview deployments,
	// e.g. "amplifyapp.com". Requests from it use /t/<tenant> path aliasing
	// instead of subdomain routing.
	PreviewDomain string `koanf:"preview_domain"`
	// SkipPrefixes are path prefixes the gatekeeper never rewrites.
	SkipPrefixes []string `koanf:"skip_prefixes"`
	// ProtectedPrefixes are path prefixes that require a session.
	ProtectedPrefixes []string `koanf:"protected_prefixes"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// GetPort returns the listen address in ":port" form.
func (c *Config) GetPort() string {
	port := c.Server.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Server.Environment, "DEV")
}

// Validate checks that every required field is set.
func (c *Config) Validate() error {
	if c.Provider.Domain == "" {
		return fmt.Errorf("provider.domain is required")
	}
	if c.Provider.AdminClientID == "" || c.Provider.TenantClientID == "" {
		return fmt.Errorf("provider.admin_client_id and provider.tenant_client_id are required")
	}
	if c.Provider.RedirectURI == "" {
		return fmt.Errorf("provider.redirect_uri is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend.request_timeout must be positive")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			AppName:     "Mother-Kid Console",
			Environment: envOrDefault("ENV", "DEV"),
		},
		Provider: ProviderConfig{
			VerifySignatures: false,
		},
		Backend: BackendConfig{
			RequestTimeout: 30 * time.Second,
		},
		Routing: RoutingConfig{
			PreviewDomain: "amplifyapp.com",
			SkipPrefixes: []string{
				"/auth/",
				"/api/",
				"/metrics",
				"/healthz",
				"/_next/",
				"/static/",
			},
			ProtectedPrefixes: []string{
				"/admin",
				"/dashboard",
				"/child",
				"/users",
				"/t/",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func envOrDefault(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
