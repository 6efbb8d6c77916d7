package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/chronia/internal/model"
)

// WikipediaAdapter reads MediaWiki article markup: the parser output block,
// its wikitables and its nested timeline lists.
type WikipediaAdapter struct {
	BaseAdapter
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Contains(rawURL, "wikipedia.org")
	}
	host := strings.ToLower(u.Hostname())
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// ExtractDocument walks the article body. Only wikitables are read as tables;
// layout tables and infoboxes are skipped.
func (a *WikipediaAdapter) ExtractDocument(doc *html.Node, rawURL string) (*model.Document, error) {
	content := a.FindFirst(doc, func(n *html.Node) bool {
		return isElement(n, "div") && a.HasClass(n, "mw-parser-output")
	})
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool {
			return isElement(n, "div") && a.GetAttribute(n, "id") == "mw-content-text"
		})
	}
	if content == nil {
		content = doc
	}

	b := newBuilder(a.title(doc, rawURL), rawURL, func(n *html.Node) bool {
		return a.HasClass(n, "wikitable")
	})
	b.heading = b.doc.Title
	b.walk(content)
	return b.doc, nil
}

// title prefers the rendered first heading, then <title> without the site
// suffix, then the page name from the URL.
func (a *WikipediaAdapter) title(doc *html.Node, rawURL string) string {
	if h1 := a.FindFirst(doc, func(n *html.Node) bool {
		return isElement(n, "h1") && (a.GetAttribute(n, "id") == "firstHeading" || a.HasClass(n, "firstHeading"))
	}); h1 != nil {
		if text := a.ExtractText(h1); text != "" {
			return text
		}
	}
	if t := a.FindFirst(doc, func(n *html.Node) bool { return isElement(n, "title") }); t != nil {
		text := a.ExtractText(t)
		if i := strings.LastIndex(text, " - Wikipedia"); i > 0 {
			text = text[:i]
		}
		if text != "" {
			return text
		}
	}
	return pageName(rawURL)
}

// pageName derives a readable title from a /wiki/ URL
func pageName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := u.Path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return strings.ReplaceAll(name, "_", " ")
}
