// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
//
// Values are resolved in this order: process environment, then a .env file
// in the working directory, then the optional JSON-with-comments file named
// by CONFIG_FILE, then built-in development defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host      string
	Port      string
	Env       string // "development", "production", "testing"
	BaseURL   string // absolute site URL used in the sitemap
	LogFormat string // "text" or "json"
	SiteTitle string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int
	PageCacheTTL   time.Duration // lifetime of a cached public page

	// Admin account. An empty AdminPasswordHash leaves /admin open.
	AdminUser         string
	AdminPasswordHash string
	AdminTOTPSecret   string
}

// Load reads configuration from the environment, a .env file and the
// optional CONFIG_FILE, applying defaults for development where
// appropriate. Returns an error if critical values are missing in
// production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	file, err := readConfigFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v := file[key]; v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Host:      get("APP_HOST", "0.0.0.0"),
		Port:      get("APP_PORT", "8080"),
		Env:       get("APP_ENV", "development"),
		LogFormat: get("LOG_FORMAT", ""),
		SiteTitle: get("SITE_TITLE", "Blog CMS"),

		DBHost:     get("POSTGRES_HOST", "localhost"),
		DBPort:     get("POSTGRES_PORT", "5432"),
		DBUser:     get("POSTGRES_USER", "blogcms"),
		DBPassword: get("POSTGRES_PASSWORD", "changeme"),
		DBName:     get("POSTGRES_DB", "blogcms"),

		ValkeyHost:     get("VALKEY_HOST", "localhost"),
		ValkeyPort:     get("VALKEY_PORT", "6379"),
		ValkeyPassword: get("VALKEY_PASSWORD", ""),

		AdminUser:         get("ADMIN_USER", "admin"),
		AdminPasswordHash: get("ADMIN_PASSWORD_HASH", ""),
		AdminTOTPSecret:   get("ADMIN_TOTP_SECRET", ""),
	}
	if cfg.ValkeyDB, err = strconv.Atoi(get("VALKEY_DB", "0")); err != nil || cfg.ValkeyDB < 0 {
		return nil, fmt.Errorf("VALKEY_DB must be a non-negative integer")
	}
	if cfg.PageCacheTTL, err = time.ParseDuration(get("PAGE_CACHE_TTL", "5m")); err != nil || cfg.PageCacheTTL <= 0 {
		return nil, fmt.Errorf("PAGE_CACHE_TTL must be a positive duration such as 5m")
	}

	cfg.BaseURL = strings.TrimRight(get("BASE_URL", "http://localhost:"+cfg.Port), "/")
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDev() {
			cfg.LogFormat = "text"
		}
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AdminPasswordHash == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH must be set in production")
		}
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("BASE_URL: %w", err)
	}

	return cfg, nil
}

// readConfigFile parses a JSON-with-comments object of string values keyed
// by environment variable name. An empty path yields an empty map.
func readConfigFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(std, &values); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return values, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuthEnabled reports whether the admin area requires a login.
func (c *Config) AuthEnabled() bool {
	return c.AdminPasswordHash != ""
}
