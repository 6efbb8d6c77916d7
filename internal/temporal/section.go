package temporal

import (
	"fmt"

	"github.com/ppiankov/chronia/internal/model"
)

// TextSection is one node of a document's heading tree. Span is the
// unresolved date the heading itself carries; Dated is false when it has none.
type TextSection struct {
	Name   string
	Depth  int
	Parent *TextSection
	Span   model.Span
	Dated  bool
}

// Path returns the heading breadcrumb from the outermost named section down
// to s. The document root is omitted.
func (s *TextSection) Path() []string {
	var path []string
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Depth > 0 && cur.Name != "" {
			path = append([]string{cur.Name}, path...)
		}
	}
	return path
}

// SectionTracker builds the section tree for one document pass. It must not
// be shared between documents.
type SectionTracker struct {
	parser  *Parser
	root    *TextSection
	current *TextSection
}

// NewSectionTracker starts a tree whose root is the document title. A title
// such as "Timeline of the 16th century" dates the whole document.
func (p *Parser) NewSectionTracker(title string) *SectionTracker {
	root := p.newSection(title, 0, nil)
	return &SectionTracker{parser: p, root: root, current: root}
}

func (p *Parser) newSection(name string, depth int, parent *TextSection) *TextSection {
	s := &TextSection{Name: name, Depth: depth, Parent: parent}
	if name == "" {
		return s
	}
	if m, err := p.matchHeading(name); err == nil {
		s.Span = m.Span
		s.Dated = true
	}
	return s
}

// Enter opens a section at depth, closing every open section at the same
// depth or deeper.
func (t *SectionTracker) Enter(name string, depth int) *TextSection {
	t.Unwind(depth)
	s := t.parser.newSection(name, depth, t.current)
	t.current = s
	return s
}

// Unwind closes open sections at depth or deeper.
func (t *SectionTracker) Unwind(depth int) {
	for t.current != t.root && t.current.Depth >= depth {
		t.current = t.current.Parent
	}
}

// Detached creates a section under the current one without entering it. It
// serves fragments that name their own nearest heading.
func (t *SectionTracker) Detached(name string) *TextSection {
	return t.parser.newSection(name, t.current.Depth+1, t.current)
}

// Current returns the innermost open section
func (t *SectionTracker) Current() *TextSection {
	return t.current
}

// Root returns the document-level section
func (t *SectionTracker) Root() *TextSection {
	return t.root
}

// Inherit returns the span of the nearest dated section at or above s, with
// confidence forced to inferred (the legendary rule still applies).
func (p *Parser) Inherit(s *TextSection) (model.Span, error) {
	for cur := s; cur != nil; cur = cur.Parent {
		if !cur.Dated {
			continue
		}
		span := cur.Span.WithNote(fmt.Sprintf("section %q", cur.Name))
		return p.resolver.Resolve(span, model.OriginSection, cur.Name), nil
	}
	return model.Span{}, ErrInheritanceExhausted
}
