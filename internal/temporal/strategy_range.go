package temporal

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/ppiankov/chronia/internal/model"
)

// --- year range ---

var yearRangePattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^` +
		optCirca("c1") + optEraPrefix("pre1") + named("y1", numPattern) + optEra("era1") +
		sepPattern +
		optCirca("c2") + optEraPrefix("pre2") + named("y2", numPattern) + optEra("era2"))
})

type yearRange struct {
	strategyBase
}

func newYearRange() *yearRange {
	return &yearRange{strategyBase{kind: KindYearRange}}
}

func (s *yearRange) Parse(text string) (model.Span, bool, error) {
	re := yearRangePattern()
	m := matchPrefix(re, text, false)
	if m == nil {
		return model.Span{}, false, nil
	}

	first, ok1 := s.point(re, m, "y1", "pre1", "era1")
	second, ok2 := s.point(re, m, "y2", "pre2", "era2")
	if !ok1 || !ok2 {
		return model.Span{}, false, malformed(s.kind, text, "conflicting era markers", nil)
	}
	if first.year == 0 || second.year == 0 {
		return model.Span{}, false, malformed(s.kind, text, "year zero", nil)
	}

	var notes []string
	if !first.era.bc() && !second.era.bc() {
		if expanded := expandAbbreviated(first.year, first.digits, second.year, second.digits); expanded != second.year {
			notes = append(notes, fmt.Sprintf("expanded %s to %d", second.digits, expanded))
			second.year = expanded
		}
	}

	// An era on one end applies to both: "2500-1500 BCE" is entirely BC.
	propagated := 0
	switch {
	case first.era == eraNone && second.era != eraNone:
		first.era = second.era
		propagated = 1
		notes = append(notes, "era-propagated="+second.era.String()+" to start")
	case second.era == eraNone && first.era != eraNone:
		second.era = first.era
		propagated = 2
		notes = append(notes, "era-propagated="+first.era.String()+" to end")
	}

	if second.signed() < first.signed() && propagated != 0 {
		a, b := first, second
		if propagated == 1 {
			a.era = flipEra(a.era)
		} else {
			b.era = flipEra(b.era)
		}
		if b.signed() >= a.signed() {
			first, second = a, b
			notes = append(notes, "era-corrected")
		}
	}

	if second.signed() < first.signed() {
		anchor := first
		if propagated == 1 {
			anchor = second
		}
		fb := singleYear(anchor.year, anchor.era, model.PrecisionYear).
			WithNote(s.note(append(notes, "fallback: reversed range, kept "+fmt.Sprint(anchor.year)+" "+anchor.era.String())...))
		return model.Span{}, false, malformed(s.kind, text, "range reversed after era propagation", &fb)
	}

	span := model.YearSpan(first.signed(), second.signed(), model.PrecisionYear)
	if submatch(re, m, "c1") != "" || submatch(re, m, "c2") != "" {
		span.Circa = true
		span.Precision = model.PrecisionApproximate
	}
	return span.WithNote(s.note(notes...)), true, nil
}

func (s *yearRange) point(re *regexp.Regexp, m []string, year, prefix, suffix string) (yearPoint, bool) {
	digits := submatch(re, m, year)
	n, _ := parseNumber(digits)
	e, ok := readEra(re, m, prefix, suffix)
	return yearPoint{year: n, digits: digits, era: e}, ok
}

func flipEra(e era) era {
	if e == eraBC {
		return eraAD
	}
	return eraBC
}

// --- multi-value ---

type multiValueGrammar struct {
	list *regexp.Regexp
	item *regexp.Regexp
}

var multiValuePatterns = sync.OnceValue(func() multiValueGrammar {
	item := `(?:` + eraPrefixWord + `\s*)?` + numPattern + `(?:\s*` + eraPattern + `)?`
	return multiValueGrammar{
		list: regexp.MustCompile(`^` + optCirca("circa") + named("list", item+`(?:`+listSepPattern+item+`)+`)),
		item: regexp.MustCompile(optEraPrefix("pre") + named("year", numPattern) + optEra("era")),
	}
})

var alternativePattern = regexp.MustCompile(`(?i)\s+or\s+|/`)

type multiValue struct {
	strategyBase
}

func newMultiValue() *multiValue {
	return &multiValue{strategyBase{kind: KindMultiValue}}
}

func (s *multiValue) Parse(text string) (model.Span, bool, error) {
	g := multiValuePatterns()
	m := matchPrefix(g.list, text, false)
	if m == nil {
		return model.Span{}, false, nil
	}
	list := submatch(g.list, m, "list")

	var points []yearPoint
	for _, im := range g.item.FindAllStringSubmatch(list, -1) {
		n, _ := parseNumber(submatch(g.item, im, "year"))
		e, ok := readEra(g.item, im, "pre", "era")
		if !ok {
			return model.Span{}, false, malformed(s.kind, text, "conflicting era markers", nil)
		}
		if n == 0 {
			return model.Span{}, false, malformed(s.kind, text, "year zero", nil)
		}
		points = append(points, yearPoint{year: n, digits: submatch(g.item, im, "year"), era: e})
	}
	if len(points) < 2 {
		return model.Span{}, false, nil
	}

	// A trailing era covers the values before it ("44, 43 and 42 BC"),
	// a leading one covers the values after it.
	current := eraNone
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].era != eraNone {
			current = points[i].era
		} else {
			points[i].era = current
		}
	}
	current = eraNone
	for i := range points {
		if points[i].era != eraNone {
			current = points[i].era
		} else {
			points[i].era = current
		}
	}

	var notes []string
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if prev.era.bc() || cur.era.bc() {
			continue
		}
		if expanded := expandAbbreviated(prev.year, prev.digits, cur.year, cur.digits); expanded != cur.year {
			notes = append(notes, fmt.Sprintf("expanded %s to %d", cur.digits, expanded))
			points[i].year = expanded
			points[i].digits = fmt.Sprint(expanded)
		}
	}

	lo, hi := points[0].signed(), points[0].signed()
	for _, p := range points[1:] {
		lo = min(lo, p.signed())
		hi = max(hi, p.signed())
	}
	notes = append(notes, fmt.Sprintf("values=%d", len(points)))
	if alternativePattern.MatchString(list) {
		notes = append(notes, noteAlternatives)
	}

	span := model.YearSpan(lo, hi, model.PrecisionYear)
	if submatch(g.list, m, "circa") != "" {
		span.Circa = true
		span.Precision = model.PrecisionApproximate
	}
	return span.WithNote(s.note(notes...)), true, nil
}

// noteAlternatives marks a span read from competing values ("1066 or 1067").
const noteAlternatives = "alternatives"
