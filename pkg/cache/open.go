package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend  string // file, memory, redis or none
	Dir      string // FileCache directory
	RedisURL string // RedisCache connection URL
	Prefix   string // RedisCache key prefix
}

// Open constructs the backend described by opts. An empty backend selects
// the file cache.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileCache(opts.Dir)
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisURL, opts.Prefix)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
