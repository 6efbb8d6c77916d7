package adapters

import (
	"golang.org/x/net/html"

	"github.com/ppiankov/chronia/internal/model"
)

// GenericAdapter is the fallback adapter for unknown domains
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// ExtractDocument walks <main> or <article> when present, otherwise <body>.
// Every table with at least two columns is read.
func (a *GenericAdapter) ExtractDocument(doc *html.Node, url string) (*model.Document, error) {
	content := a.FindFirst(doc, func(n *html.Node) bool { return isElement(n, "main", "article") })
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool { return isElement(n, "body") })
	}
	if content == nil {
		content = doc
	}

	b := newBuilder(a.title(doc), url, func(n *html.Node) bool {
		return a.FindFirst(n, func(c *html.Node) bool {
			return isElement(c, "tr") && countCells(c) >= 2
		}) != nil
	})
	b.heading = b.doc.Title
	b.walk(content)
	return b.doc, nil
}

func (a *GenericAdapter) title(doc *html.Node) string {
	for _, tag := range []string{"title", "h1"} {
		if n := a.FindFirst(doc, func(n *html.Node) bool { return isElement(n, tag) }); n != nil {
			if text := a.ExtractText(n); text != "" {
				return text
			}
		}
	}
	return ""
}

func countCells(tr *html.Node) int {
	count := 0
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "td", "th") {
			count++
		}
	}
	return count
}
