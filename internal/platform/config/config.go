// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, storage) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/civilregistry/pkg/slice"
)

// # Configuration Schema

// Config holds all runtime configuration for the civil registry API and CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis), used for token revocation and the backup lock.
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Local disk storage for scanned documents and avatars
	StorageRoot     string `env:"STORAGE_ROOT"       envDefault:"./storage/app"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"    envDefault:"http://localhost:8080"`
	DocumentMaxSize int64  `env:"DOCUMENT_MAX_BYTES" envDefault:"10485760"`
	AvatarMaxSize   int64  `env:"AVATAR_MAX_BYTES"   envDefault:"2097152"`

	// Backups
	BackupDir            string `env:"BACKUP_DIR"              envDefault:"./storage/app/backups"`
	BackupRetentionCount int    `env:"BACKUP_RETENTION_COUNT"  envDefault:"5"`
	SchedulerEnabled     bool   `env:"BACKUP_SCHEDULER_ENABLED" envDefault:"true"`
	SchedulerTimezone    string `env:"APP_TIMEZONE"            envDefault:"Asia/Manila"`

	// Bootstrap administrator, consumed by `registryctl admin create`.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Registry Administrator"`

	// Cross-Origin Resource Sharing
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.BackupRetentionCount < 1 {
		return nil, fmt.Errorf("config: BACKUP_RETENTION_COUNT must be at least 1, got %d", cfg.BackupRetentionCount)
	}

	if _, err := time.LoadLocation(cfg.SchedulerTimezone); err != nil {
		return nil, fmt.Errorf("config: invalid APP_TIMEZONE %q: %w", cfg.SchedulerTimezone, err)
	}

	return cfg, nil
}

// Location returns the configured application timezone.
// Load has already validated it, so a failure falls back to UTC.
func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.UTC
	}
	return location
}

// AllowedOrigins returns EXTRA_ORIGINS trimmed, without blank entries.
func (c *Config) AllowedOrigins() []string {
	origins := slice.Map(c.ExtraOrigins, strings.TrimSpace)
	return slice.Filter(origins, func(origin string) bool { return origin != "" })
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

