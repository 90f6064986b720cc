package registry

import (
	"strings"

	"github.com/ffs-ui/ffs/pkg/dom"
)

// Detect returns the registered components used on the page: every body
// class of the form "ffs-<name>" where <name> is registered, deduplicated,
// in document order.
func Detect(doc *dom.Document, r *Registry) []string {
	var used []string
	for _, class := range doc.ClassNames() {
		name, ok := strings.CutPrefix(class, ClassPrefix)
		if ok && r.Has(name) {
			used = append(used, name)
		}
	}
	return used
}
