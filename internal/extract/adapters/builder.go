package adapters

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/ppiankov/chronia/internal/model"
)

// stopHeadings end the content walk: nothing after them is history.
var stopHeadings = map[string]bool{
	"see also":        true,
	"references":      true,
	"external links":  true,
	"notes":           true,
	"further reading": true,
	"bibliography":    true,
	"sources":         true,
	"citations":       true,
}

// noiseClasses mark page furniture whose text is never content.
var noiseClasses = []string{
	"navbox", "vertical-navbox", "reflist", "references", "infobox", "sidebar",
	"toc", "mw-editsection", "hatnote", "metadata", "thumb", "shortdescription",
	"noprint", "mw-empty-elt",
}

// yearHeaders name the column a table keys its rows by.
var yearHeaders = []string{"year", "date", "period", "when", "century", "era"}

// builder walks a content root into a model.Document
type builder struct {
	BaseAdapter
	doc     *model.Document
	tables  func(*html.Node) bool
	heading string
	stopped bool
}

func newBuilder(title, url string, tables func(*html.Node) bool) *builder {
	return &builder{
		doc:    &model.Document{Title: title, URL: url},
		tables: tables,
	}
}

func (b *builder) emit(block model.Block) {
	if block.Kind == model.BlockFragment || block.Kind == model.BlockRow {
		block.Heading = b.heading
	}
	b.doc.Blocks = append(b.doc.Blocks, block)
}

func (b *builder) isNoise(n *html.Node) bool {
	if b.isHidden(n) {
		return true
	}
	for _, class := range noiseClasses {
		if b.HasClass(n, class) {
			return true
		}
	}
	return b.GetAttribute(n, "role") == "navigation" || isElement(n, "nav", "footer", "aside", "figure")
}

func (b *builder) walk(n *html.Node) {
	for c := n.FirstChild; c != nil && !b.stopped; c = c.NextSibling {
		if c.Type != html.ElementNode || b.isNoise(c) {
			continue
		}
		switch c.Data {
		case "h2", "h3", "h4", "h5", "h6":
			b.headingBlock(c)
		case "ul", "ol":
			b.list(c, 0)
		case "dl":
			b.definitions(c)
		case "p":
			b.paragraph(c)
		case "table":
			if b.tables(c) {
				b.table(c)
			}
		default:
			b.walk(c)
		}
	}
}

func (b *builder) headingBlock(n *html.Node) {
	text := b.ExtractText(n)
	if text == "" {
		return
	}
	if stopHeadings[strings.ToLower(text)] {
		b.stopped = true
		return
	}
	level := int(n.Data[1] - '0')
	b.heading = text
	b.emit(model.Heading(text, level))
}

// list emits one fragment per item. An item carrying a nested list becomes a
// heading at its own depth so its children inherit from it.
func (b *builder) list(n *html.Node, depth int) {
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if !isElement(li, "li") || b.isNoise(li) {
			continue
		}
		text, nested := b.itemText(li)
		level := model.BodyLevel + depth
		switch {
		case len(nested) > 0 && text != "":
			b.emit(model.Heading(text, level))
		case text != "":
			b.emit(model.Fragment(text).At(level))
		}
		for _, sub := range nested {
			b.list(sub, depth+1)
		}
	}
}

// itemText returns the item's own text and its nested lists
func (b *builder) itemText(li *html.Node) (string, []*html.Node) {
	var buf strings.Builder
	var nested []*html.Node
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "ul", "ol", "dl") {
			nested = append(nested, c)
			continue
		}
		if c.Type == html.ElementNode && b.isNoise(c) {
			continue
		}
		b.writeText(&buf, c)
	}
	return strings.Join(strings.Fields(buf.String()), " "), nested
}

// definitions handles "; term : description" lists, where the term is a
// heading for its descriptions.
func (b *builder) definitions(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case isElement(c, "dt"):
			if text := b.ExtractText(c); text != "" {
				b.emit(model.Heading(text, model.BodyLevel))
			}
		case isElement(c, "dd"):
			text, nested := b.itemText(c)
			if text != "" {
				b.emit(model.Fragment(text).At(model.BodyLevel + 1))
			}
			for _, sub := range nested {
				if isElement(sub, "dl") {
					b.definitions(sub)
				} else {
					b.list(sub, 1)
				}
			}
		}
	}
}

func (b *builder) paragraph(n *html.Node) {
	for _, sentence := range splitSentences(b.ExtractText(n)) {
		b.emit(model.Fragment(sentence).At(model.BodyLevel))
	}
}

// --- tables ---

type gridCell struct {
	cell   model.Cell
	header bool // column header <th>
	data   bool // <td> or a row header <th scope="row">
}

// table emits a start marker, the caption as a heading and one row block per
// data row. Row-spans are expanded into empty placeholder cells.
func (b *builder) table(n *html.Node) {
	grid := b.grid(n)
	if len(grid) == 0 {
		return
	}

	b.emit(model.TableStart().At(model.BodyLevel))
	if caption := b.FindFirst(n, func(c *html.Node) bool { return isElement(c, "caption") }); caption != nil {
		if text := b.ExtractText(caption); text != "" {
			b.emit(model.Heading(text, model.BodyLevel))
		}
	}

	// Only leading rows are column headers; the first row holding data ends them.
	headers := 0
	for headers < len(grid) && headerRow(grid[headers]) {
		headers++
	}

	yearCol := 0
	for _, row := range grid[:headers] {
		if col, ok := yearColumn(row); ok {
			yearCol = col
			break
		}
	}

	for _, row := range grid[headers:] {
		cells := make([]model.Cell, 0, len(row))
		if yearCol < len(row) {
			cells = append(cells, row[yearCol].cell)
		}
		for i, gc := range row {
			if i != yearCol {
				cells = append(cells, gc.cell)
			}
		}
		b.emit(model.Row(cells...).At(model.BodyLevel + 1))
	}
}

// grid lays the table out column by column, filling positions covered by a
// row-span from above with empty cells.
func (b *builder) grid(table *html.Node) [][]gridCell {
	var rows []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case isElement(c, "tr"):
				rows = append(rows, c)
			case isElement(c, "thead", "tbody", "tfoot"):
				collect(c)
			}
		}
	}
	collect(table)

	pending := map[int]int{}
	var grid [][]gridCell
	for _, tr := range rows {
		var row []gridCell
		col := 0
		fill := func() {
			for pending[col] > 0 {
				pending[col]--
				row = append(row, gridCell{})
				col++
			}
		}
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if !isElement(td, "td", "th") {
				continue
			}
			fill()
			cell := model.Cell{Text: b.ExtractText(td)}
			span := spanAttr(b.GetAttribute(td, "rowspan"), maxRowSpan)
			if span > 1 {
				cell.RowSpan = span
			}
			width := spanAttr(b.GetAttribute(td, "colspan"), maxColSpan)
			header := td.Data == "th" && !strings.EqualFold(b.GetAttribute(td, "scope"), "row")
			for i := 0; i < width; i++ {
				gc := gridCell{header: header, data: !header}
				if i == 0 {
					gc.cell = cell
				}
				row = append(row, gc)
				if span > 1 {
					pending[col] = span - 1
				}
				col++
			}
		}
		// Spans reaching past the last explicit cell.
		for {
			next := -1
			for c, left := range pending {
				if c >= col && left > 0 && (next < 0 || c < next) {
					next = c
				}
			}
			if next < 0 {
				break
			}
			for col < next {
				row = append(row, gridCell{})
				col++
			}
			fill()
		}
		if len(row) > 0 {
			grid = append(grid, row)
		}
	}
	return grid
}

// HTML caps colspan at 1000 and rowspan at 65534.
const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// spanAttr reads a rowspan or colspan value, clamped to [1, limit].
func spanAttr(v string, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, limit)
}

// headerRow reports whether row holds only column headers. Span
// placeholders count as neither headers nor data.
func headerRow(row []gridCell) bool {
	seen := false
	for _, gc := range row {
		if gc.data {
			return false
		}
		if gc.header && !gc.cell.Empty() {
			seen = true
		}
	}
	return seen
}

func yearColumn(row []gridCell) (int, bool) {
	for i, gc := range row {
		label := strings.ToLower(gc.cell.Text)
		for _, h := range yearHeaders {
			if strings.Contains(label, h) {
				return i, true
			}
		}
	}
	return 0, false
}

// --- sentences ---

// abbreviations never end a sentence.
var abbreviations = map[string]bool{
	"c": true, "ca": true, "cf": true, "fl": true, "r": true, "b": true, "d": true,
	"est": true, "approx": true, "st": true, "mt": true, "dr": true, "mr": true,
	"mrs": true, "no": true, "vol": true, "vs": true, "etc": true, "jr": true, "sr": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true,
	"aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

// splitSentences breaks prose at a terminator followed by a capitalised word.
// Initials ("B.C.") and common abbreviations ("c.", "St.") do not split.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i+2 < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if runes[i+1] != ' ' || !unicode.IsUpper(runes[i+2]) {
			continue
		}
		if r == '.' && !sentenceEnd(runes[start:i]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 2
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// sentenceEnd reports whether a period after head closes a sentence
func sentenceEnd(head []rune) bool {
	j := len(head)
	for j > 0 && unicode.IsLetter(head[j-1]) {
		j--
	}
	word := string(head[j:])
	if word == "" {
		return true
	}
	// A letter preceded by a period is part of initials.
	if len([]rune(word)) == 1 && (unicode.IsUpper([]rune(word)[0]) || (j > 0 && head[j-1] == '.')) {
		return false
	}
	return !abbreviations[strings.ToLower(word)]
}
