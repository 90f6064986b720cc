package registry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
)

// Manifest declares the components a page needs, and optionally extra
// components to register first.
//
//	components = ["tooltip", "chart"]
//
//	[register.chart]
//	stylesheet = "styles/ffs-chart.css"
//	script = "scripts/ffs-chart.js"
type Manifest struct {
	Components []string          `toml:"components"`
	Register   map[string]Config `toml:"register"`
}

// ParseManifest decodes a TOML manifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
		return nil, ffserrors.Wrap(ffserrors.ErrCodeInvalidManifest, err, "parse manifest")
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads a TOML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return ParseManifest(f)
}

func (m *Manifest) validate() error {
	for _, name := range m.Components {
		if err := ffserrors.ValidateName(ffserrors.ErrCodeInvalidManifest, "component", name); err != nil {
			return err
		}
	}
	for name := range m.Register {
		if err := ffserrors.ValidateName(ffserrors.ErrCodeInvalidManifest, "component", name); err != nil {
			return err
		}
	}
	return nil
}

// Apply registers the manifest's extra components with r.
func (m *Manifest) Apply(r *Registry) error {
	for name, cfg := range m.Register {
		if err := r.Register(name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// ParseList parses a component list such as the value of a
// data-components attribute. Names may be separated by commas or spaces;
// duplicates are dropped.
func ParseList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
