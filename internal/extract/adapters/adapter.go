package adapters

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/chronia/internal/model"
)

// Adapter turns a parsed HTML page into the block stream the extractor reads
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool

	// ExtractDocument walks the page into headings, fragments and table rows
	ExtractDocument(doc *html.Node, url string) (*model.Document, error)
}

// Registry manages domain adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewWikipediaAdapter())

	// Set generic adapter as fallback
	registry.generic = NewGenericAdapter()

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL and content type
func (r *Registry) FindAdapter(url string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter
		}
	}
	return r.generic
}

// Lookup returns the adapter registered under name, including the generic one
func (r *Registry) Lookup(name string) (Adapter, bool) {
	for _, adapter := range r.adapters {
		if adapter.Name() == name {
			return adapter, true
		}
	}
	if r.generic != nil && r.generic.Name() == name {
		return r.generic, true
	}
	return nil, false
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct{}

// ExtractText returns the visible text of a node with whitespace collapsed.
// Footnote markers, edit links, styles and scripts are left out.
func (b *BaseAdapter) ExtractText(n *html.Node) string {
	var buf strings.Builder
	b.writeText(&buf, n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func (b *BaseAdapter) writeText(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if b.isHidden(n) {
			return
		}
		if n.Data == "br" {
			buf.WriteString(" ")
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.writeText(buf, c)
	}
}

// isHidden reports elements whose text never belongs to the content
func (b *BaseAdapter) isHidden(n *html.Node) bool {
	switch n.Data {
	case "style", "script", "noscript":
		return true
	case "sup":
		return b.HasClass(n, "reference") || b.HasClass(n, "noprint")
	case "span":
		return b.HasClass(n, "mw-editsection") || b.HasClass(n, "sortkey")
	}
	return false
}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}

	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, class := range strings.Fields(attr.Val) {
				if class == className {
					return true
				}
			}
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindAll finds all nodes matching a predicate
func (b *BaseAdapter) FindAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// FindFirst finds the first node matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// isElement reports whether n is an element with one of the given tags
func isElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, tag := range tags {
		if n.Data == tag {
			return true
		}
	}
	return false
}
