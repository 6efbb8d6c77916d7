package model

import (
	"strings"
	"unicode"
)

// Document is the structural view of a source page handed to the extractor:
// an ordered stream of headings, text fragments and table rows.
type Document struct {
	Title  string  `json:"title"`
	URL    string  `json:"url,omitempty"`
	Blocks []Block `json:"blocks"`
}

// BlockKind classifies a Block
type BlockKind string

const (
	BlockHeading    BlockKind = "heading"     // Section heading (Level 1-6)
	BlockFragment   BlockKind = "fragment"    // Bullet text or prose snippet
	BlockTableStart BlockKind = "table_start" // A new table begins; row-span state resets
	BlockRow        BlockKind = "row"         // One table row
)

// BodyLevel is the first level below every HTML heading. List items nest
// from here so a dated parent item acts as a section for its children.
const BodyLevel = 10

// Block is one structural element of a Document
type Block struct {
	Kind    BlockKind `json:"kind"`
	Text    string    `json:"text,omitempty"`    // Heading or fragment text
	Level   int       `json:"level,omitempty"`   // Heading depth, or nesting level of a fragment or row
	Heading string    `json:"heading,omitempty"` // Nearest heading for fragments produced without a section walk
	Cells   []Cell    `json:"cells,omitempty"`   // Table cells, year column first
}

// Cell is a single table cell. Positions covered by a row-span from an earlier
// row are delivered as empty cells with RowSpan 0.
type Cell struct {
	Text    string `json:"text"`
	RowSpan int    `json:"rowspan,omitempty"`
}

// Empty reports whether the cell carries no visible text
func (c Cell) Empty() bool {
	return strings.TrimFunc(c.Text, unicode.IsSpace) == ""
}

// Heading creates a heading block
func Heading(text string, level int) Block {
	return Block{Kind: BlockHeading, Text: text, Level: level}
}

// Fragment creates a fragment block
func Fragment(text string) Block {
	return Block{Kind: BlockFragment, Text: text}
}

// At returns a copy of b placed at level
func (b Block) At(level int) Block {
	b.Level = level
	return b
}

// TableStart creates a table start marker
func TableStart() Block {
	return Block{Kind: BlockTableStart}
}

// Row creates a table row block
func Row(cells ...Cell) Block {
	return Block{Kind: BlockRow, Cells: cells}
}
