package temporal

import (
	"fmt"

	"github.com/ppiankov/chronia/internal/model"
)

// RowspanContext carries a spanning year cell down a table column. The zero
// value is the idle state. It is passed into and returned from each row call
// and never held by the parser.
type RowspanContext struct {
	Year      int  // Inherited year magnitude
	IsBC      bool // Inherited era
	Remaining int  // Rows still covered by the spanning cell

	span model.Span // Unresolved span of the spanning cell
	text string
	kind Kind
}

// Active reports whether the context still covers upcoming rows
func (c RowspanContext) Active() bool {
	return c.Remaining > 0
}

// inherited returns the span handed to a covered row
func (c RowspanContext) inherited() model.Span {
	if !c.span.IsZero() {
		return c.span
	}
	return singleYear(c.Year, eraOf(c.IsBC), model.PrecisionYear)
}

func eraOf(bc bool) era {
	if bc {
		return eraBC
	}
	return eraAD
}

// ParseTableRow reads the year cell (the first cell) of a row against the
// row-span state and returns the match with the updated state.
//
//	Idle + explicit cell        parse, start inheriting when RowSpan > 1
//	Inheriting + empty cell     reuse the inherited span as inferred
//	Inheriting + explicit cell  reset and parse, warning about the contradiction
//	Idle + empty cell           ErrRowspanExhausted
func (p *Parser) ParseTableRow(cells []model.Cell, state RowspanContext) (Match, RowspanContext, error) {
	if len(cells) == 0 || cells[0].Empty() {
		return p.inheritRow(state)
	}

	year := cells[0]
	if state.Active() {
		p.logger.Warn("explicit year cell inside declared row-span",
			"cell", year.Text, "remaining", state.Remaining, "inherited", state.inherited().String())
	}

	m, err := p.match(year.Text)
	if err != nil {
		p.logUnresolved(year.Text, err)
		return Match{}, RowspanContext{}, err
	}

	next := RowspanContext{}
	if year.RowSpan > 1 {
		next = RowspanContext{
			Year:      m.Span.StartYear,
			IsBC:      m.Span.StartBC,
			Remaining: year.RowSpan - 1,
			span:      m.Span,
			text:      year.Text,
			kind:      m.Strategy,
		}
	}
	m.Span = p.resolver.Resolve(m.Span, m.Origin, year.Text)
	return m, next, nil
}

func (p *Parser) inheritRow(state RowspanContext) (Match, RowspanContext, error) {
	if !state.Active() {
		p.logger.Warn("empty year cell with no active row-span")
		return Match{}, RowspanContext{}, ErrRowspanExhausted
	}

	next := state
	next.Remaining--
	raw := state.inherited().WithNote(fmt.Sprintf("row-span from %q, %d left", state.text, next.Remaining))
	if next.Remaining == 0 {
		next = RowspanContext{}
	}

	return Match{
		Span:     p.resolver.Resolve(raw, model.OriginRowspan, state.text),
		Raw:      Normalize(state.text),
		Origin:   model.OriginRowspan,
		Strategy: state.kind,
	}, next, nil
}

// ParseTableCell is ParseTableRow without provenance.
func (p *Parser) ParseTableCell(cells []model.Cell, state RowspanContext) (model.Span, RowspanContext, error) {
	m, next, err := p.ParseTableRow(cells, state)
	if err != nil {
		return model.Span{}, next, err
	}
	return m.Span, next, nil
}
