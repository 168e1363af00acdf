package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/console-edge/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources, lowest priority first:
// built-in defaults, an optional YAML file, then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envAliases maps short environment variable names onto config paths.
var envAliases = map[string]string{
	"PORT":         "server.port",
	"APP_NAME":     "server.app_name",
	"ENV":          "server.environment",
	"API_BASE_URL": "backend.base_url",
	"LOG_LEVEL":    "logging.level",
	"LOG_FORMAT":   "logging.format",
}

// envSections are the config sections that accept SECTION_SOME_KEY overrides,
// e.g. PROVIDER_ADMIN_CLIENT_ID -> provider.admin_client_id.
var envSections = []string{"server", "provider", "backend", "routing", "logging"}

// envTransformFunc maps environment variable names to koanf config paths.
// Returning an empty string skips unrelated variables.
func envTransformFunc(key string) string {
	if path, ok := envAliases[key]; ok {
		return path
	}
	lower := strings.ToLower(key)
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(lower, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return ""
}
