package fetch

import (
	"fmt"
	"net/url"
	"strings"

	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
)

// Resolver turns library-relative paths into document hrefs and fetch
// targets.
//
// The base is written into the document (it may itself be relative, e.g.
// "/ui/"); the origin is where relative hrefs are fetched from when the
// loader runs outside a browser.
type Resolver struct {
	base   *url.URL
	origin *url.URL
}

// NewResolver parses base and origin. Either may be empty. A base without a
// trailing slash is treated as a directory.
func NewResolver(base, origin string) (*Resolver, error) {
	r := &Resolver{}
	if base != "" {
		u, err := url.Parse(dirURL(base))
		if err != nil {
			return nil, ffserrors.Wrap(ffserrors.ErrCodeInvalidConfig, err, "invalid base URL %q", base)
		}
		r.base = u
	}
	if origin != "" {
		if err := ffserrors.ValidateURL(origin); err != nil {
			return nil, err
		}
		u, err := url.Parse(dirURL(origin))
		if err != nil {
			return nil, ffserrors.Wrap(ffserrors.ErrCodeInvalidConfig, err, "invalid origin %q", origin)
		}
		r.origin = u
	}
	return r, nil
}

// Base returns the base URL as configured, with a trailing slash.
func (r *Resolver) Base() string {
	if r.base == nil {
		return ""
	}
	return r.base.String()
}

// Href resolves p against the base. Absolute URLs are returned unchanged;
// relative paths are validated first.
func (r *Resolver) Href(p string) (string, error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", ffserrors.Wrap(ffserrors.ErrCodeInvalidPath, err, "invalid resource URL %q", p)
	}
	if u.IsAbs() {
		return p, nil
	}
	if err := ffserrors.ValidatePath(p); err != nil {
		return "", err
	}
	if r.base == nil {
		return p, nil
	}
	return r.base.ResolveReference(u).String(), nil
}

// Target returns the URL to fetch for href.
func (r *Resolver) Target(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", href, err)
	}
	if u.IsAbs() || r.origin == nil {
		return href, nil
	}
	return r.origin.ResolveReference(u).String(), nil
}

func dirURL(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
