package bootstrap

import (
	"path"
	"regexp"
	"strings"

	"github.com/ffs-ui/ffs/pkg/dom"
	"github.com/ffs-ui/ffs/pkg/registry"
)

// Library resource paths, relative to the base URL.
const (
	BaseStylesheet = "styles/ffs-ui.css"
	RegistryScript = "scripts/ffs-components.js"
	ThemeScript    = "scripts/ffs-theme.js"
)

// loaderScript matches the file name of the loader tag.
var loaderScript = regexp.MustCompile(`^ffs-ui(\.min)?\.js$`)

// Config is the page-level configuration read from the loader tag.
type Config struct {
	// BaseURL is the directory library resources resolve against.
	BaseURL string
	// Autoload loads the components used on the page during Run.
	Autoload bool
	// Debug enables debug logging.
	Debug bool
	// Components, when non-nil, is the declared component list and
	// replaces scanning the page for component classes.
	Components []string
	// Manifest registers extra components and declares more names.
	Manifest *registry.Manifest
	// Extra holds every other data-* attribute, with "true" and "false"
	// coerced to booleans.
	Extra map[string]any
}

// DefaultConfig returns the configuration used when the tag declares
// nothing.
func DefaultConfig() Config {
	return Config{Autoload: true}
}

// FindLoaderScript returns the attributes of the page's ffs-ui.js tag.
func FindLoaderScript(doc *dom.Document) (map[string]string, bool) {
	el, ok := doc.FindScript(func(src string) bool {
		if i := strings.IndexAny(src, "?#"); i >= 0 {
			src = src[:i]
		}
		return loaderScript.MatchString(path.Base(src))
	})
	if !ok {
		return nil, false
	}
	attrs := make(map[string]string, len(el.Attrs))
	for _, a := range el.Attrs {
		attrs[a.Key] = a.Val
	}
	return attrs, true
}

// ConfigFromAttributes merges the loader tag's attributes over the
// defaults. The base URL defaults to the directory of the tag's src.
func ConfigFromAttributes(attrs map[string]string) Config {
	cfg := DefaultConfig()
	if src := attrs["src"]; src != "" {
		cfg.BaseURL = scriptDir(src)
	}
	if attrs["mode"] == "debug" {
		cfg.Debug = true
	}

	for key, raw := range attrs {
		name, ok := strings.CutPrefix(key, "data-")
		if !ok {
			continue
		}
		val := coerce(raw)
		switch name {
		case "base":
			cfg.BaseURL = raw
		case "autoload":
			if b, ok := val.(bool); ok {
				cfg.Autoload = b
			}
		case "debug":
			if b, ok := val.(bool); ok {
				cfg.Debug = cfg.Debug || b
			}
		case "components":
			cfg.Components = registry.ParseList(raw)
			if cfg.Components == nil {
				cfg.Components = []string{}
			}
		default:
			if cfg.Extra == nil {
				cfg.Extra = make(map[string]any)
			}
			cfg.Extra[name] = val
		}
	}
	return cfg
}

// requested returns the declared components, or nil when nothing is
// declared and the page must be scanned.
func (c Config) requested() []string {
	if c.Components == nil && c.Manifest == nil {
		return nil
	}
	names := append([]string{}, c.Components...)
	if c.Manifest != nil {
		names = append(names, c.Manifest.Components...)
	}
	return names
}

func coerce(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	default:
		return s
	}
}

func scriptDir(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	i := strings.LastIndex(src, "/")
	if i < 0 {
		return ""
	}
	return src[:i+1]
}
