package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SourceAttr marks inlined <style>/<script> elements with the URL they were
// fetched from, so inlined resources still count as present.
const SourceAttr = "data-ffs-src"

// Element describes a node to insert into the document.
type Element struct {
	Tag   string
	Attrs []html.Attribute
	Text  string
}

// Attr returns the value of the named attribute.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Link returns a stylesheet <link> element.
func Link(href string) Element {
	return Element{Tag: "link", Attrs: []html.Attribute{
		{Key: "rel", Val: "stylesheet"},
		{Key: "href", Val: href},
	}}
}

// Script returns an external <script> element.
func Script(src string) Element {
	return Element{Tag: "script", Attrs: []html.Attribute{{Key: "src", Val: src}}}
}

// InlineStyle returns a <style> element carrying css fetched from src.
func InlineStyle(src, css string) Element {
	return Element{Tag: "style", Attrs: []html.Attribute{{Key: SourceAttr, Val: src}}, Text: css}
}

// InlineScript returns a <script> element carrying js fetched from src.
func InlineScript(src, js string) Element {
	return Element{Tag: "script", Attrs: []html.Attribute{{Key: SourceAttr, Val: src}}, Text: js}
}

func (e Element) node() *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     e.Tag,
		DataAtom: atom.Lookup([]byte(e.Tag)),
		Attr:     append([]html.Attribute(nil), e.Attrs...),
	}
	if e.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: e.Text})
	}
	return n
}

func elementOf(n *html.Node) Element {
	e := Element{Tag: n.Data, Attrs: append([]html.Attribute(nil), n.Attr...)}
	if c := n.FirstChild; c != nil && c.Type == html.TextNode {
		e.Text = c.Data
	}
	return e
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func isStylesheet(n *html.Node) bool {
	rel, _ := attr(n, "rel")
	for _, r := range strings.Fields(rel) {
		if strings.EqualFold(r, "stylesheet") {
			return true
		}
	}
	return false
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) {
		if found == nil && c.Type == html.ElementNode && c.DataAtom == a {
			found = c
		}
	})
	return found
}
