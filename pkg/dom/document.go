package dom

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const skeleton = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document is a parsed HTML page.
type Document struct {
	mu      sync.RWMutex
	root    *html.Node
	htmlEl  *html.Node
	head    *html.Node
	body    *html.Node
	globals map[string]bool
	events  *bus
	logger  atomic.Pointer[log.Logger]
}

// Parse reads an HTML page. The HTML5 parsing algorithm always produces
// <html>, <head> and <body>, so every parsed page is usable.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:    root,
		htmlEl:  find(root, atom.Html),
		head:    find(root, atom.Head),
		body:    find(root, atom.Body),
		globals: make(map[string]bool),
		events:  newBus(),
	}, nil
}

// ParseString parses an HTML page held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// New returns an empty page.
func New() *Document {
	d, _ := ParseString(skeleton)
	return d
}

// SetLogger routes the document's own diagnostics, such as panicking
// event listeners, to l. A nil l restores log.Default().
func (d *Document) SetLogger(l *log.Logger) {
	d.logger.Store(l)
}

func (d *Document) log() *log.Logger {
	if l := d.logger.Load(); l != nil {
		return l
	}
	return log.Default()
}

// AppendHead appends el as the last child of <head>.
func (d *Document) AppendHead(el Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.head.AppendChild(el.node())
}

// Stylesheets returns the href of every stylesheet link and the source URL
// of every inlined stylesheet, in document order.
func (d *Document) Stylesheets() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.DataAtom {
		case atom.Link:
			if href, ok := attr(n, "href"); ok && isStylesheet(n) {
				out = append(out, href)
			}
		case atom.Style:
			if src, ok := attr(n, SourceAttr); ok {
				out = append(out, src)
			}
		}
	})
	return out
}

// Scripts returns the src of every external script and the source URL of
// every inlined script, in document order.
func (d *Document) Scripts() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Script {
			return
		}
		if src, ok := attr(n, "src"); ok {
			out = append(out, src)
		} else if src, ok := attr(n, SourceAttr); ok {
			out = append(out, src)
		}
	})
	return out
}

// HasStylesheet reports whether href is linked or inlined.
func (d *Document) HasStylesheet(href string) bool {
	for _, s := range d.Stylesheets() {
		if s == href {
			return true
		}
	}
	return false
}

// HasScript reports whether src is referenced or inlined.
func (d *Document) HasScript(src string) bool {
	for _, s := range d.Scripts() {
		if s == src {
			return true
		}
	}
	return false
}

// FindScript returns the first <script> whose src satisfies match.
func (d *Document) FindScript(match func(src string) bool) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var found *html.Node
	walk(d.root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode || n.DataAtom != atom.Script {
			return
		}
		if src, ok := attr(n, "src"); ok && match(src) {
			found = n
		}
	})
	if found == nil {
		return Element{}, false
	}
	return elementOf(found), true
}

// ClassNames returns every class used by an element inside <body>,
// deduplicated, in document order.
func (d *Document) ClassNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	walk(d.body, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		class, ok := attr(n, "class")
		if !ok {
			return
		}
		for _, c := range strings.Fields(class) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	})
	return out
}

// SetGlobal records that a script installed the named global.
func (d *Document) SetGlobal(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.globals[name] = true
}

// HasGlobal reports whether the named global is installed.
func (d *Document) HasGlobal(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.globals[name]
}

// WithProbe inserts el at the end of <body>, calls fn with the inserted
// node and removes the node again, even if fn panics. fn runs without the
// document lock held and must not retain the node.
func (d *Document) WithProbe(el Element, fn func(n *html.Node)) {
	n := el.node()
	d.mu.Lock()
	d.body.AppendChild(n)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		d.mu.Unlock()
	}()
	fn(n)
}

// Render writes the page as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// String renders the page to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// InlineStyles returns the text of every <style> element in document order.
func (d *Document) InlineStyles() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Style {
			return
		}
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		out = append(out, b.String())
	})
	return out
}
