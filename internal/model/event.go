package model

// Event is a dated item extracted from a document
type Event struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`                           // Fragment text or joined row cells
	Date    Span     `json:"date" yaml:"date"`                           // Resolved span
	Source  Source   `json:"source" yaml:"source"`                       // Where in the document the item came from
	Origin  Origin   `json:"origin" yaml:"origin"`                       // How the date was obtained
	Section []string `json:"section,omitempty" yaml:"section,omitempty"` // Heading breadcrumb, outermost first
}

// Dropped records an item excluded from the output and why
type Dropped struct {
	Text    string   `json:"text" yaml:"text"`
	Source  Source   `json:"source" yaml:"source"`
	Reason  string   `json:"reason" yaml:"reason"`
	Section []string `json:"section,omitempty" yaml:"section,omitempty"`
}

// Source classifies the structural origin of an item
type Source string

const (
	SourceFragment Source = "fragment"
	SourceTableRow Source = "table_row"
)

// Origin records which path produced a span
type Origin string

const (
	OriginDirect   Origin = "direct"   // Parsed from the item's own text
	OriginFallback Origin = "fallback" // Coarser reading of a malformed value
	OriginRowspan  Origin = "rowspan"  // Inherited from a spanning year cell
	OriginSection  Origin = "section"  // Inherited from an ancestor heading
)

// Inherited reports whether the span came from structural inheritance
func (o Origin) Inherited() bool {
	return o == OriginRowspan || o == OriginSection
}
