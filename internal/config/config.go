// Package config loads the ffs tool configuration from ffs.yaml and FFS_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ffs-ui/ffs/pkg/cache"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "ffs.yaml"

// envPrefix prefixes environment overrides. Nested keys use a double
// underscore: FFS_CACHE__BACKEND sets cache.backend.
const envPrefix = "FFS_"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultTheme: "default",
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     cache.TTLResource,
		},
		Preference: PreferenceConfig{
			Backend: "file",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
			Root: ".",
		},
	}
}

// Load reads configuration from the given YAML file, if it exists, then
// overlays FFS_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validCacheBackends = map[string]bool{
	cache.BackendFile:   true,
	cache.BackendMemory: true,
	cache.BackendRedis:  true,
	cache.BackendNone:   true,
}

var validPreferenceBackends = map[string]bool{
	"file":   true,
	"memory": true,
	"sqlite": true,
	"redis":  true,
	"mongo":  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Origin != "" {
		if err := ffserrors.ValidateURL(c.Origin); err != nil {
			return ffserrors.Wrap(ffserrors.ErrCodeInvalidConfig, err, "invalid origin")
		}
	}
	if c.Origin != "" && c.Assets != "" {
		return ffserrors.New(ffserrors.ErrCodeInvalidConfig, "origin and assets are mutually exclusive")
	}
	if err := ffserrors.ValidateName(ffserrors.ErrCodeInvalidConfig, "theme", c.DefaultTheme); err != nil {
		return err
	}
	if !validCacheBackends[c.Cache.Backend] {
		return ffserrors.New(ffserrors.ErrCodeInvalidConfig, "invalid cache.backend %q: must be one of file, memory, redis, none", c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisURL == "" {
		return ffserrors.New(ffserrors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
	}
	if c.Cache.TTL < 0 {
		return ffserrors.New(ffserrors.ErrCodeInvalidConfig, "cache.ttl must be non-negative")
	}
	if !validPreferenceBackends[c.Preference.Backend] {
		return ffserrors.New(ffserrors.ErrCodeInvalidConfig, "invalid preference.backend %q: must be one of file, memory, sqlite, redis, mongo", c.Preference.Backend)
	}
	switch c.Preference.Backend {
	case "redis", "mongo":
		if c.Preference.URL == "" {
			return ffserrors.New(ffserrors.ErrCodeInvalidConfig, "preference.url is required for the %s backend", c.Preference.Backend)
		}
	}
	if c.Serve.Addr == "" {
		return ffserrors.New(ffserrors.ErrCodeInvalidConfig, "serve.addr is required")
	}
	return nil
}
