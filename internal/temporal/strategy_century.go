package temporal

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/chronia/internal/model"
)

// centuryBounds returns the signed first and last year of the Nth century.
// The 5th century BC runs 500-401 BC, the 5th century AD 401-500.
func centuryBounds(n int, bc bool) (int, int) {
	if bc {
		return -100 * n, -(100*(n-1) + 1)
	}
	return 100*(n-1) + 1, 100 * n
}

// blockBounds returns the signed bounds of a "1700s" style hundred-year block.
// "1700s" is 1700-1799; "500s BC" is 599-500 BC.
func blockBounds(n int, bc bool) (int, int) {
	if bc {
		return -(n + 99), -n
	}
	return n, n + 99
}

// third offsets within a hundred-year block, 1-based.
var thirds = map[string][2]int{
	"early":  {1, 33},
	"mid":    {34, 66},
	"middle": {34, 66},
	"late":   {67, 100},
}

// applyModifier narrows a hundred-year block to the third named by mod.
// "before" and "prior to" select the late third of the preceding block.
func applyModifier(lo, hi int, mod string) (int, int, bool) {
	mod = strings.ToLower(mod)
	if mod == "before" || mod == "prior to" {
		return applyModifier(model.ShiftSigned(lo, -100), model.ShiftSigned(lo, -1), "late")
	}
	t, ok := thirds[mod]
	if !ok {
		return lo, hi, false
	}
	return model.ShiftSigned(lo, t[0]-1), model.ShiftSigned(lo, t[1]-1), true
}

// --- century ---

var centuryPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^` + thePattern + named("ord", ordinalPattern) + centuryWord + optEra("era"))
})

type century struct {
	strategyBase
}

func newCentury() *century {
	return &century{strategyBase{kind: KindCentury}}
}

func (s *century) Parse(text string) (model.Span, bool, error) {
	re := centuryPattern()
	m := matchPrefix(re, text, true)
	if m == nil {
		return model.Span{}, false, nil
	}
	n, ok := parseOrdinal(submatch(re, m, "ord"))
	if !ok || n == 0 {
		return model.Span{}, false, malformed(s.kind, text, "century zero", nil)
	}
	e := parseEra(submatch(re, m, "era"))
	lo, hi := centuryBounds(n, e.bc())
	return model.YearSpan(lo, hi, model.PrecisionCentury).WithNote(s.note(fmt.Sprintf("century=%d%s", n, eraSuffix(e)))), true, nil
}

func eraSuffix(e era) string {
	if e == eraNone {
		return ""
	}
	return " " + e.String()
}

// --- century range ---

var centuryRangePattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^` + thePattern +
		named("o1", ordinalPattern) + `(?:` + centuryWord + `)?` + optEra("era1") +
		`(?:` + sepPattern + `|\s+(?i:and)\s+|\s*/\s*)` + thePattern +
		named("o2", ordinalPattern) + centuryWord + optEra("era2"))
})

type centuryRange struct {
	strategyBase
}

func newCenturyRange() *centuryRange {
	return &centuryRange{strategyBase{kind: KindCenturyRange}}
}

func (s *centuryRange) Parse(text string) (model.Span, bool, error) {
	re := centuryRangePattern()
	m := matchPrefix(re, text, false)
	if m == nil {
		return model.Span{}, false, nil
	}
	n1, ok1 := parseOrdinal(submatch(re, m, "o1"))
	n2, ok2 := parseOrdinal(submatch(re, m, "o2"))
	if !ok1 || !ok2 || n1 == 0 || n2 == 0 {
		return model.Span{}, false, malformed(s.kind, text, "century zero", nil)
	}
	e1 := parseEra(submatch(re, m, "era1"))
	e2 := parseEra(submatch(re, m, "era2"))

	var notes []string
	propagated := 0
	switch {
	case e1 == eraNone && e2 != eraNone:
		e1, propagated = e2, 1
		notes = append(notes, "era-propagated="+e2.String()+" to start")
	case e2 == eraNone && e1 != eraNone:
		e2, propagated = e1, 2
		notes = append(notes, "era-propagated="+e1.String()+" to end")
	}

	lo, _ := centuryBounds(n1, e1.bc())
	_, hi := centuryBounds(n2, e2.bc())
	if hi < lo && propagated != 0 {
		f1, f2 := e1, e2
		if propagated == 1 {
			f1 = flipEra(e1)
		} else {
			f2 = flipEra(e2)
		}
		flo, _ := centuryBounds(n1, f1.bc())
		_, fhi := centuryBounds(n2, f2.bc())
		if fhi >= flo {
			e1, e2, lo, hi = f1, f2, flo, fhi
			notes = append(notes, "era-corrected")
		}
	}

	if hi < lo {
		flo, fhi := centuryBounds(n1, e1.bc())
		fb := model.YearSpan(flo, fhi, model.PrecisionCentury).
			WithNote(s.note(append(notes, fmt.Sprintf("fallback: reversed range, kept century %d%s", n1, eraSuffix(e1)))...))
		return model.Span{}, false, malformed(s.kind, text, "century range reversed after era propagation", &fb)
	}

	notes = append(notes, fmt.Sprintf("centuries=%d%s..%d%s", n1, eraSuffix(e1), n2, eraSuffix(e2)))
	return model.YearSpan(lo, hi, model.PrecisionCentury).WithNote(s.note(notes...)), true, nil
}

// --- century with modifier ---

// centuryUnit matches "16th century" or a "1700s" block. The century word is
// optional so the first half of "Early 16th-late 17th century" still matches.
func centuryUnit(p string) string {
	return `(?:` + named(p+"ord", ordinalPattern) + `(?:` + named(p+"word", centuryWord) + `)?` +
		`|` + named(p+"block", `\d{1,2}00`) + `'?s)` + optEra(p+"era")
}

var centuryModifierPattern = sync.OnceValue(func() *regexp.Regexp {
	mod := func(name string) string {
		return `(?:` + named(name, modPattern) + `[\s-]+` + thePattern + `)?`
	}
	return regexp.MustCompile(`^` + thePattern + mod("mod1") + centuryUnit("a") +
		`(?:` + sepPattern + thePattern + mod("mod2") + centuryUnit("b") + `)?`)
})

type centuryModifier struct {
	strategyBase
}

func newCenturyModifier() *centuryModifier {
	return &centuryModifier{strategyBase{kind: KindCenturyModifier}}
}

// modUnit is one modified century or block before resolution.
type modUnit struct {
	n     int
	block bool
	word  bool
	era   era
	mod   string
}

func (u modUnit) bounds() (int, int) {
	if u.block {
		return blockBounds(u.n, u.era.bc())
	}
	return centuryBounds(u.n, u.era.bc())
}

func (u modUnit) resolve() (int, int) {
	lo, hi := u.bounds()
	if u.mod != "" {
		lo, hi, _ = applyModifier(lo, hi, u.mod)
	}
	return lo, hi
}

func (u modUnit) label() string {
	base := fmt.Sprintf("%d", u.n)
	if u.block {
		base += "s"
	}
	base += eraSuffix(u.era)
	if u.mod != "" {
		base = strings.ToLower(u.mod) + " " + base
	}
	return base
}

func (s *centuryModifier) Parse(text string) (model.Span, bool, error) {
	re := centuryModifierPattern()
	m := matchPrefix(re, text, false)
	if m == nil {
		return model.Span{}, false, nil
	}

	first, ok := s.unit(re, m, "a", "mod1")
	if !ok {
		return model.Span{}, false, nil
	}
	hasSecond := submatch(re, m, "bord") != "" || submatch(re, m, "bblock") != ""
	if !hasSecond {
		// A lone unit needs a modifier and must be a full century or block.
		if first.mod == "" || (!first.block && !first.word) {
			return model.Span{}, false, nil
		}
		if first.n == 0 {
			return model.Span{}, false, malformed(s.kind, text, "century zero", nil)
		}
		lo, hi := first.resolve()
		return model.YearSpan(lo, hi, model.PrecisionCentury).WithNote(s.note(first.label())), true, nil
	}

	second, ok := s.unit(re, m, "b", "mod2")
	if !ok || (first.mod == "" && second.mod == "") {
		return model.Span{}, false, nil
	}
	if first.n == 0 || second.n == 0 {
		return model.Span{}, false, malformed(s.kind, text, "century zero", nil)
	}
	// "Early 16th-late 17th century": the first unit borrows the second's kind.
	if !first.block && !first.word && second.block {
		return model.Span{}, false, nil
	}

	var notes []string
	switch {
	case first.era == eraNone && second.era != eraNone:
		first.era = second.era
		notes = append(notes, "era-propagated="+second.era.String()+" to start")
	case second.era == eraNone && first.era != eraNone:
		second.era = first.era
		notes = append(notes, "era-propagated="+first.era.String()+" to end")
	}

	lo, _ := first.resolve()
	_, hi := second.resolve()
	if hi < lo {
		flo, fhi := first.resolve()
		fb := model.YearSpan(flo, fhi, model.PrecisionCentury).
			WithNote(s.note(append(notes, "fallback: reversed hybrid, kept "+first.label())...))
		return model.Span{}, false, malformed(s.kind, text, "hybrid century phrase reversed", &fb)
	}
	notes = append([]string{"hybrid=" + first.label() + ".." + second.label()}, notes...)
	return model.YearSpan(lo, hi, model.PrecisionCentury).WithNote(s.note(notes...)), true, nil
}

func (s *centuryModifier) unit(re *regexp.Regexp, m []string, p, modName string) (modUnit, bool) {
	u := modUnit{
		era: parseEra(submatch(re, m, p+"era")),
		mod: submatch(re, m, modName),
	}
	if block := submatch(re, m, p+"block"); block != "" {
		n, ok := parseNumber(block)
		if !ok {
			return modUnit{}, false
		}
		u.n, u.block = n, true
		return u, true
	}
	n, ok := parseOrdinal(submatch(re, m, p+"ord"))
	if !ok {
		return modUnit{}, false
	}
	u.n = n
	u.word = submatch(re, m, p+"word") != ""
	return u, true
}
