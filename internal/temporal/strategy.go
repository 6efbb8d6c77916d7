package temporal

import (
	"github.com/ppiankov/chronia/internal/model"
)

// Kind identifies a grammar family
type Kind string

const (
	KindFullDate        Kind = "full-date"
	KindExactYear       Kind = "exact-year"
	KindCircaYear       Kind = "circa-year"
	KindYearRange       Kind = "year-range"
	KindMultiValue      Kind = "multi-value"
	KindCenturyRange    Kind = "century-range"
	KindCentury         Kind = "century"
	KindCenturyModifier Kind = "century-modifier"
	KindYearsAgo        Kind = "years-ago"
	KindDecade          Kind = "decade"
	KindTableCell       Kind = "table-cell"
)

// Strategy recognizes one grammar family. Parse receives normalized text and
// reports (span, true, nil) on a match, (zero, false, nil) when the text is not
// in its family, and a *MalformedValueError when the shape matched but the
// values are not a valid date.
//
// The set is closed: implementations live in this package only.
type Strategy interface {
	Kind() Kind
	Parse(text string) (model.Span, bool, error)

	sealed()
}

// strategyBase carries the shared identity of every strategy.
type strategyBase struct {
	kind Kind
}

func (b strategyBase) Kind() Kind { return b.kind }

func (strategyBase) sealed() {}

// note builds the provenance note for a match.
func (b strategyBase) note(extra ...string) string {
	out := "strategy=" + string(b.kind)
	for _, e := range extra {
		if e != "" {
			out += "; " + e
		}
	}
	return out
}

// DefaultStrategies returns the strategies in dispatch priority order. More
// specific grammars precede general ones and ranges precede single values.
func DefaultStrategies(anchorYear int) []Strategy {
	exact := newExactYear()
	yearRange := newYearRange()
	century := newCentury()

	return []Strategy{
		newFullDate(),
		exact,
		newCircaYear(),
		yearRange,
		newMultiValue(),
		newCenturyRange(),
		century,
		newCenturyModifier(),
		newYearsAgo(anchorYear),
		newDecade(),
		newTableCell(exact, yearRange, century),
	}
}

// yearPoint is one parsed year with its era.
type yearPoint struct {
	year   int
	digits string
	era    era
}

func (p yearPoint) signed() int {
	return model.Signed(p.year, p.era.bc())
}
