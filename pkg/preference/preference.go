// Package preference persists user preferences such as the selected theme.
//
// It plays the role of durable client-side storage: one string value per
// key, read when resolving the current theme and written on every
// successful theme switch.
//
// Backends:
//   - memory: in-process map for tests and single-page builds
//   - file: JSON file for the CLI (~/.config/ffs/preferences.json)
//   - sqlite: local database for long-running servers
//   - redis: shared storage for multi-instance deployments
//   - mongo: document storage for deployments that already run MongoDB
package preference

import (
	"context"
	"errors"
	"fmt"
)

// ThemeKey is the key under which the last selected theme is stored.
const ThemeKey = "ffs-theme"

// ErrUnknownBackend is returned by Open for unsupported backend names.
var ErrUnknownBackend = errors.New("unknown preference backend")

// Store is the interface for preference storage backends.
type Store interface {
	// Get returns the value for key. A missing key is ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases backend resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // memory, file, sqlite, redis or mongo
	Path     string // file and sqlite
	URL      string // redis and mongo
	Database string // mongo
}

// Open returns the backend described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.Path)
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(opts.Path)
	case "redis":
		return NewRedisStore(ctx, opts.URL)
	case "mongo":
		return NewMongoStore(ctx, opts.URL, opts.Database)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
