package dom

import (
	"slices"
	"strings"
)

// SetProperty sets a CSS custom property on the root element.
func (d *Document) SetProperty(name, value string) {
	d.SetProperties(map[string]string{name: value})
}

// SetProperties applies several properties in one write. Existing
// declarations keep their position; new ones are appended in sorted order
// so the rendered style attribute is deterministic.
func (d *Document) SetProperties(props map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	style, _ := attr(d.htmlEl, "style")
	decls := ParseDeclarations(style)

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		i := slices.IndexFunc(decls, func(dc Declaration) bool { return dc.Name == name })
		if i >= 0 {
			decls[i].Value = props[name]
		} else {
			decls = append(decls, Declaration{Name: name, Value: props[name]})
		}
	}
	setAttr(d.htmlEl, "style", FormatDeclarations(decls))
}

// Property returns a property declared on the root element.
func (d *Document) Property(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	style, _ := attr(d.htmlEl, "style")
	for _, dc := range ParseDeclarations(style) {
		if dc.Name == name {
			return dc.Value, true
		}
	}
	return "", false
}

// Properties returns every property declared on the root element.
func (d *Document) Properties() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	style, _ := attr(d.htmlEl, "style")
	out := make(map[string]string)
	for _, dc := range ParseDeclarations(style) {
		out[dc.Name] = dc.Value
	}
	return out
}

// Classes returns the class list of the root element.
func (d *Document) Classes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	class, _ := attr(d.htmlEl, "class")
	return strings.Fields(class)
}

// HasClass reports whether the root element carries class c.
func (d *Document) HasClass(c string) bool {
	return slices.Contains(d.Classes(), c)
}

// AddClass adds c to the root element if absent.
func (d *Document) AddClass(c string) {
	d.updateClasses(func(cs []string) []string {
		if slices.Contains(cs, c) {
			return cs
		}
		return append(cs, c)
	})
}

// RemoveClass removes c from the root element.
func (d *Document) RemoveClass(c string) {
	d.updateClasses(func(cs []string) []string {
		return slices.DeleteFunc(cs, func(x string) bool { return x == c })
	})
}

// ReplaceClasses removes every root class matching drop, then adds c.
func (d *Document) ReplaceClasses(drop func(string) bool, c string) {
	d.updateClasses(func(cs []string) []string {
		cs = slices.DeleteFunc(cs, drop)
		return append(cs, c)
	})
}

func (d *Document) updateClasses(fn func([]string) []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	class, _ := attr(d.htmlEl, "class")
	cs := fn(strings.Fields(class))
	if len(cs) == 0 {
		removeAttr(d.htmlEl, "class")
		return
	}
	setAttr(d.htmlEl, "class", strings.Join(cs, " "))
}
