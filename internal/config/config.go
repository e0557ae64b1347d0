// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package config loads GeoDesk configuration with koanf: struct defaults,
// then an optional YAML file, then GEODESK_* environment overrides, each
// layer overriding the previous one.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. GEODESK_SERVER_PORT=8080 sets server.port.
const envPrefix = "GEODESK_"

// DefaultConfigPaths are checked in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"geodesk.yaml",
	"config/geodesk.yaml",
	"/etc/geodesk/config.yaml",
}

// Config is the root configuration for the GeoDesk server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Blob      BlobConfig      `koanf:"blob"`
	Security  SecurityConfig  `koanf:"security"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
	API       APIConfig       `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and tunes the feature store backend.
type DatabaseConfig struct {
	// Backend is "duckdb" or "memory".
	Backend      string `koanf:"backend"`
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

// BlobConfig selects the raw upload storage backend.
type BlobConfig struct {
	// Backend is "fs" or "memory".
	Backend string `koanf:"backend"`
	Dir     string `koanf:"dir"`
}

// SecurityConfig holds auth and CORS settings.
type SecurityConfig struct {
	// JWTSecret signs access tokens. Required, at least 32 characters.
	JWTSecret   string        `koanf:"jwt_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
	BcryptCost  int           `koanf:"bcrypt_cost"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// RateLimitConfig throttles the unauthenticated auth endpoints.
type RateLimitConfig struct {
	Enabled           bool `koanf:"enabled"`
	RequestsPerMinute int  `koanf:"requests_per_minute"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// APIConfig holds query caps and pagination defaults.
type APIConfig struct {
	MapFeatureLimit      int   `koanf:"map_feature_limit"`
	SearchLimit          int   `koanf:"search_limit"`
	IngestFeatureCap     int   `koanf:"ingest_feature_cap"`
	NearbyCandidateLimit int   `koanf:"nearby_candidate_limit"`
	DefaultPageSize      int   `koanf:"default_page_size"`
	MaxPageSize          int   `koanf:"max_page_size"`
	MaxUploadBytes       int64 `koanf:"max_upload_bytes"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8787,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Backend:      "duckdb",
			Path:         "data/geodesk.db",
			MaxMemory:    "1GB",
			Threads:      4,
			MaxOpenConns: 4,
			MaxIdleConns: 2,
		},
		Blob: BlobConfig{
			Backend: "fs",
			Dir:     "data/blobs",
		},
		Security: SecurityConfig{
			TokenTTL:    168 * time.Hour,
			BcryptCost:  10,
			CORSOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		API: APIConfig{
			MapFeatureLimit:      2000,
			SearchLimit:          100,
			IngestFeatureCap:     1000,
			NearbyCandidateLimit: 100,
			DefaultPageSize:      20,
			MaxPageSize:          100,
			MaxUploadBytes:       50 << 20,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// CONFIG_PATH and then DefaultConfigPaths are consulted; a missing file
// is not an error, defaults and environment still apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		for _, p := range DefaultConfigPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps GEODESK_SERVER_PORT to server.port. Section names
// containing underscores (rate_limit) keep a single level.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))

	// Two-level keys only; the first underscore separates section from key.
	if i := strings.Index(s, "_"); i > 0 {
		section := s[:i]
		if section == "rate" {
			// rate_limit section
			rest := strings.TrimPrefix(s, "rate_limit_")
			if rest != s {
				return "rate_limit." + rest
			}
		}
		return section + "." + s[i+1:]
	}
	return s
}

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Database.Backend {
	case "duckdb", "memory":
	default:
		return fmt.Errorf("database.backend %q must be duckdb or memory", c.Database.Backend)
	}
	if c.Database.Backend == "duckdb" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the duckdb backend")
	}

	switch c.Blob.Backend {
	case "fs", "memory":
	default:
		return fmt.Errorf("blob.backend %q must be fs or memory", c.Blob.Backend)
	}
	if c.Blob.Backend == "fs" && c.Blob.Dir == "" {
		return fmt.Errorf("blob.dir is required for the fs backend")
	}

	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost %d out of range", c.Security.BcryptCost)
	}

	if c.API.MapFeatureLimit < 1 || c.API.SearchLimit < 1 ||
		c.API.IngestFeatureCap < 1 || c.API.NearbyCandidateLimit < 1 {
		return fmt.Errorf("api limits must be positive")
	}
	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api page sizes are inconsistent")
	}

	return nil
}
