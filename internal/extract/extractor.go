package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/chronia/internal/model"
	"github.com/ppiankov/chronia/internal/temporal"
)

// Result is the outcome of one document pass
type Result struct {
	Events  []model.Event
	Dropped []model.Dropped
	Stats   model.Stats
}

// Extractor turns a document's block stream into dated events. Each item is
// parsed directly first; only unresolved items fall back to row-span and then
// section inheritance.
type Extractor struct {
	parser *temporal.Parser
	logger *slog.Logger
}

// NewExtractor creates an extractor around a shared parser
func NewExtractor(parser *temporal.Parser, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{parser: parser, logger: logger}
}

// pass holds the mutable state of a single Process call
type pass struct {
	*Extractor
	doc     *model.Document
	tracker *temporal.SectionTracker
	rows    temporal.RowspanContext
	result  *Result
}

// Process walks doc once. The section tree and row-span state are created
// fresh for every call, so one Extractor can serve concurrent documents.
func (e *Extractor) Process(doc *model.Document) *Result {
	p := &pass{
		Extractor: e,
		doc:       doc,
		tracker:   e.parser.NewSectionTracker(doc.Title),
		result:    &Result{Stats: model.NewStats()},
	}

	for i, b := range doc.Blocks {
		switch b.Kind {
		case model.BlockHeading:
			p.tracker.Enter(b.Text, b.Level)
		case model.BlockTableStart:
			p.rows = temporal.RowspanContext{}
			p.unwind(b.Level)
		case model.BlockFragment:
			p.unwind(b.Level)
			p.fragment(i, b)
		case model.BlockRow:
			p.unwind(b.Level)
			p.row(i, b)
		default:
			e.logger.Debug("skipping unknown block", "kind", b.Kind, "index", i)
		}
	}

	e.logger.Debug("document processed",
		"title", doc.Title,
		"blocks", len(doc.Blocks),
		"events", len(p.result.Events),
		"dropped", len(p.result.Dropped))
	return p.result
}

func (p *pass) unwind(level int) {
	if level > 0 {
		p.tracker.Unwind(level)
	}
}

// section returns the section a block inherits from. A fragment that names
// its own heading outside any tracked heading gets a detached section.
func (p *pass) section(b model.Block) *temporal.TextSection {
	current := p.tracker.Current()
	if b.Heading != "" && current == p.tracker.Root() && b.Heading != p.doc.Title {
		return p.tracker.Detached(b.Heading)
	}
	return current
}

func (p *pass) fragment(index int, b model.Block) {
	text := strings.TrimSpace(b.Text)
	if text == "" {
		return
	}
	section := p.section(b)

	m, err := p.parser.ParseMatch(text)
	if err == nil {
		p.emit(index, text, model.SourceFragment, m, section)
		return
	}
	p.countMalformed(err)

	span, ierr := p.parser.Inherit(section)
	if ierr != nil {
		p.drop(text, model.SourceFragment, section, dropReason(err, ierr))
		return
	}
	p.emit(index, text, model.SourceFragment, temporal.Match{Span: span, Origin: model.OriginSection}, section)
}

func (p *pass) row(index int, b model.Block) {
	text := rowText(b.Cells)
	section := p.section(b)

	m, next, err := p.parser.ParseTableRow(b.Cells, p.rows)
	p.rows = next
	if err == nil {
		p.emit(index, text, model.SourceTableRow, m, section)
		return
	}
	p.countMalformed(err)

	span, ierr := p.parser.Inherit(section)
	if ierr != nil {
		p.drop(text, model.SourceTableRow, section, dropReason(err, ierr))
		return
	}
	p.emit(index, text, model.SourceTableRow, temporal.Match{Span: span, Origin: model.OriginSection}, section)
}

func (p *pass) emit(index int, text string, source model.Source, m temporal.Match, section *temporal.TextSection) {
	if m.Malformed != nil {
		p.result.Stats.RecordMalformed()
	}
	ev := model.Event{
		ID:      p.eventID(index),
		Text:    text,
		Date:    m.Span,
		Source:  source,
		Origin:  m.Origin,
		Section: section.Path(),
	}
	p.result.Events = append(p.result.Events, ev)
	p.result.Stats.RecordResolved(ev)
}

func (p *pass) drop(text string, source model.Source, section *temporal.TextSection, reason string) {
	p.logger.Info("item dropped", "reason", reason, "source", source, "text", truncate(text, 80))
	p.result.Dropped = append(p.result.Dropped, model.Dropped{
		Text:    text,
		Source:  source,
		Reason:  reason,
		Section: section.Path(),
	})
	p.result.Stats.RecordUnresolved(reason)
}

func (p *pass) countMalformed(err error) {
	var mv *temporal.MalformedValueError
	if errors.As(err, &mv) {
		p.result.Stats.RecordMalformed()
	}
}

// eventID is stable for a given document location
func (p *pass) eventID(index int) string {
	key := p.doc.URL
	if key == "" {
		key = p.doc.Title
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", key, index))).String()
}

// dropReason keys a dropped item by its most specific failure: a malformed
// value or an exhausted row-span wins over the plain lack of a dated ancestor.
func dropReason(parseErr, inheritErr error) string {
	if errors.Is(parseErr, temporal.ErrNoMatch) {
		return temporal.Reason(inheritErr)
	}
	return temporal.Reason(parseErr)
}

// rowText joins the non-year cells of a row; a row with nothing else keeps
// its year cell text.
func rowText(cells []model.Cell) string {
	var parts []string
	for i, c := range cells {
		if i == 0 || c.Empty() {
			continue
		}
		parts = append(parts, strings.TrimSpace(c.Text))
	}
	if len(parts) == 0 && len(cells) > 0 {
		return strings.TrimSpace(cells[0].Text)
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
