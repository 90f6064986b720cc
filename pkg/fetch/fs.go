package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"
)

// Fetcher retrieves the body of a resource URL.
// [Client] and [FSFetcher] implement it.
type Fetcher interface {
	GetBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// FSFetcher serves resources from a file system, mapping the path of each
// URL onto a file. Scheme and host are ignored, so pages can be assembled
// from a local checkout of the asset tree.
type FSFetcher struct {
	fsys fs.FS
}

// NewFSFetcher creates a fetcher over fsys.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

// GetBytes reads the file named by the URL path.
func (f *FSFetcher) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	name := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if name == "" {
		name = "."
	}
	data, err := fs.ReadFile(f.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("GET %s: %w", rawURL, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	return data, nil
}

var (
	_ Fetcher = (*Client)(nil)
	_ Fetcher = (*FSFetcher)(nil)
)
