package detect

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ffs-ui/ffs/pkg/dom"
)

// StyleMetrics resolves the font family of an element from the inline
// style attribute and the class rules of the document's inline stylesheets.
// It understands plain class selectors only; linked stylesheets are not
// fetched.
type StyleMetrics struct{}

// FontFamily returns the last font-family that applies to n, or "".
func (StyleMetrics) FontFamily(doc *dom.Document, n *html.Node) string {
	var classes []string
	var inline string
	for _, a := range n.Attr {
		switch a.Key {
		case "class":
			classes = strings.Fields(a.Val)
		case "style":
			inline = a.Val
		}
	}
	if f := fontFamily(dom.ParseDeclarations(inline)); f != "" {
		return f
	}

	var family string
	for _, sheet := range doc.InlineStyles() {
		for _, r := range dom.ParseRules(sheet) {
			if !selectsClass(r.Selectors, classes) {
				continue
			}
			if f := fontFamily(r.Declarations); f != "" {
				family = f
			}
		}
	}
	return family
}

func selectsClass(selectors, classes []string) bool {
	for _, sel := range selectors {
		for _, c := range classes {
			if sel == "."+c {
				return true
			}
		}
	}
	return false
}

// fontFamily returns the last font-family declaration, as the cascade would.
func fontFamily(decls []dom.Declaration) string {
	var family string
	for _, d := range decls {
		if strings.EqualFold(d.Name, "font-family") {
			family = d.Value
		}
	}
	return family
}
