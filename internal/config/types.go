package config

import "time"

// Config is the ffs tool configuration, corresponding to ffs.yaml.
type Config struct {
	// BaseURL is written into pages as the directory of library resources.
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	// Origin is where relative resource URLs are fetched from.
	Origin string `yaml:"origin" koanf:"origin"`
	// Assets is a local directory served instead of fetching over HTTP.
	Assets string `yaml:"assets" koanf:"assets"`
	// DefaultTheme is applied when no preference is stored.
	DefaultTheme string `yaml:"default_theme" koanf:"default_theme"`
	// Manifest is an optional TOML component manifest.
	Manifest string `yaml:"manifest" koanf:"manifest"`
	// Inline embeds resources into built pages.
	Inline bool `yaml:"inline" koanf:"inline"`
	// Debug enables debug logging.
	Debug bool `yaml:"debug" koanf:"debug"`

	Cache      CacheConfig      `yaml:"cache" koanf:"cache"`
	Preference PreferenceConfig `yaml:"preference" koanf:"preference"`
	Serve      ServeConfig      `yaml:"serve" koanf:"serve"`
}

// CacheConfig selects the response cache.
type CacheConfig struct {
	Backend  string        `yaml:"backend" koanf:"backend"`
	Dir      string        `yaml:"dir" koanf:"dir"`
	RedisURL string        `yaml:"redis_url" koanf:"redis_url"`
	TTL      time.Duration `yaml:"ttl" koanf:"ttl"`
}

// PreferenceConfig selects where the theme preference is stored.
type PreferenceConfig struct {
	Backend  string `yaml:"backend" koanf:"backend"`
	Path     string `yaml:"path" koanf:"path"`
	URL      string `yaml:"url" koanf:"url"`
	Database string `yaml:"database" koanf:"database"`
}

// ServeConfig configures `ffs serve`.
type ServeConfig struct {
	Addr string `yaml:"addr" koanf:"addr"`
	Root string `yaml:"root" koanf:"root"`
}
