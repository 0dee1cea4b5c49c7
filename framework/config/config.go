package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/km-arc/go-composer/framework/container"
)

// Config is the central typed configuration struct.
type Config struct {
	App      AppConfig
	Resolver ResolverConfig
	Catalog  CatalogConfig
	Log      LogConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	Port  string
}

type ResolverConfig struct {
	Strict           bool
	MaxSelectorDepth int
	Root             string // default root module for the CLI and HTTP index
}

type CatalogConfig struct {
	Path  string
	Watch bool
}

type LogConfig struct {
	Level  string
	Format string // json | console
}

type CacheConfig struct {
	Enabled bool
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "Composer"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", false),
			Port:  env("APP_PORT", "8000"),
		},
		Resolver: ResolverConfig{
			Strict:           envBool("RESOLVER_STRICT", false),
			MaxSelectorDepth: GetInt("RESOLVER_MAX_SELECTOR_DEPTH", container.DefaultMaxSelectorDepth),
			Root:             env("RESOLVER_ROOT", ""),
		},
		Catalog: CatalogConfig{
			Path:  env("CATALOG_PATH", "catalog.yaml"),
			Watch: envBool("CATALOG_WATCH", false),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
		},
		Cache: CacheConfig{
			Enabled: envBool("CACHE_ENABLED", true),
		},
	}
}

// Policy returns the conflict policy selected by RESOLVER_STRICT.
func (c *Config) Policy() container.Policy {
	if c.Resolver.Strict {
		return container.Strict
	}
	return container.Lenient
}

// Properties builds the read-only property snapshot handed to selectors and
// registrars: the given dotenv files first, overlaid by the process
// environment. Missing files are skipped.
func Properties(envFiles ...string) container.Properties {
	props := container.Properties{}
	for _, f := range envFiles {
		values, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		for k, v := range values {
			props[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			props[k] = v
		}
	}
	return props
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
