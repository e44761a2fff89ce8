// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Dawdaborje/sorobonto-backend/compose"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SOROBONTO_"

// Config is the root configuration structure.
type Config struct {
	// Apps lists the module identifiers to assemble, in order.
	Apps []string `yaml:"apps" env:"APPS" envSeparator:","`
	// AppsDir holds script-defined modules, one directory per identifier.
	AppsDir string `yaml:"apps_dir" env:"APPS_DIR"`

	Schema  SchemaConfig  `yaml:"schema" envPrefix:"SCHEMA_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
}

// SchemaConfig configures the composed schema.
type SchemaConfig struct {
	Greeting string `yaml:"greeting" env:"GREETING"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string `yaml:"addr" env:"ADDR"`
	GraphQLPath    string `yaml:"graphql_path" env:"GRAPHQL_PATH"`
	Playground     bool   `yaml:"playground" env:"PLAYGROUND"`
	PlaygroundPath string `yaml:"playground_path" env:"PLAYGROUND_PATH"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" env:"FORMAT"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// Default returns the configuration used for every key that is not set.
func Default() Config {
	return Config{
		AppsDir: "scripts",
		Schema: SchemaConfig{
			Greeting: compose.DefaultGreeting,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			GraphQLPath:    "/graphql",
			Playground:     true,
			PlaygroundPath: "/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads configuration from a YAML file, then applies SOROBONTO_*
// environment overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		data = []byte(os.ExpandEnv(string(data)))

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// setDefaults fills keys that were explicitly set to an empty value.
func setDefaults(cfg *Config) {
	def := Default()

	apps := cfg.Apps[:0:0]
	for _, id := range cfg.Apps {
		apps = append(apps, strings.TrimSpace(id))
	}
	cfg.Apps = apps

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.GraphQLPath == "" {
		cfg.Server.GraphQLPath = def.Server.GraphQLPath
	}
	if cfg.Server.PlaygroundPath == "" {
		cfg.Server.PlaygroundPath = def.Server.PlaygroundPath
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = def.Metrics.Path
	}
}

func validate(cfg *Config) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	paths := map[string]string{"server.graphql_path": cfg.Server.GraphQLPath}
	if cfg.Server.Playground {
		paths["server.playground_path"] = cfg.Server.PlaygroundPath
	}
	if cfg.Metrics.Enabled {
		paths["metrics.path"] = cfg.Metrics.Path
	}
	seen := map[string]string{}
	for _, key := range []string{"server.graphql_path", "server.playground_path", "metrics.path"} {
		path, ok := paths[key]
		if !ok {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with '/', got %q", key, path)
		}
		if other, dup := seen[path]; dup {
			return fmt.Errorf("%s and %s both use %q", other, key, path)
		}
		seen[path] = key
	}
	return nil
}
