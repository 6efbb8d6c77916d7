package temporal

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/chronia/internal/model"
)

var multipliers = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
	"ka":       1e3,
	"kya":      1e3,
	"kyr":      1e3,
	"ma":       1e6,
	"mya":      1e6,
	"myr":      1e6,
	"bya":      1e9,
	"ga":       1e9,
}

// maxAge bounds "years ago" values well past the age of the universe, so the
// year arithmetic stays inside int.
const maxAge = 1e11

type yearsAgoGrammar struct {
	words *regexp.Regexp
	units *regexp.Regexp
}

var yearsAgoPatterns = sync.OnceValue(func() yearsAgoGrammar {
	amount := optCirca("circa") + named("n1", decimalPattern) + `(?:` + sepPattern + named("n2", decimalPattern) + `)?\s*`
	return yearsAgoGrammar{
		words: regexp.MustCompile(`^` + amount +
			`(?:` + named("mult", `(?i:thousand|million|billion)`) + `\s+)?` +
			`(?i:years?|yrs?)\s+(?i:ago)\b`),
		units: regexp.MustCompile(`^` + amount +
			named("unit", `(?i:kya|kyr|ka|mya|myr|ma|bya|ga)`) + `\b(?:\s+(?i:ago)\b)?`),
	}
})

type yearsAgo struct {
	strategyBase
	anchor int
}

func newYearsAgo(anchorYear int) *yearsAgo {
	return &yearsAgo{strategyBase: strategyBase{kind: KindYearsAgo}, anchor: anchorYear}
}

// Parse converts "N years ago" into calendar years counted back from the
// anchor year. The result is always approximate.
func (s *yearsAgo) Parse(text string) (model.Span, bool, error) {
	g := yearsAgoPatterns()
	re, m := g.words, matchPrefix(g.words, text, false)
	unit := ""
	if m != nil {
		unit = submatch(re, m, "mult")
	} else {
		re, m = g.units, matchPrefix(g.units, text, false)
		if m == nil {
			return model.Span{}, false, nil
		}
		unit = submatch(re, m, "unit")
	}

	mult := 1.0
	if unit != "" {
		mult = multipliers[strings.ToLower(unit)]
	}

	older, ok := parseDecimal(submatch(re, m, "n1"))
	if !ok || older <= 0 {
		return model.Span{}, false, malformed(s.kind, text, "non-positive age", nil)
	}
	newer := older
	var notes []string
	if n2 := submatch(re, m, "n2"); n2 != "" {
		newer, ok = parseDecimal(n2)
		if !ok || newer <= 0 {
			return model.Span{}, false, malformed(s.kind, text, "non-positive age", nil)
		}
		if newer > older {
			older, newer = newer, older
			notes = append(notes, "ages sorted")
		}
	}

	if older*mult > maxAge {
		return model.Span{}, false, malformed(s.kind, text, fmt.Sprintf("age %g years out of range", older*mult), nil)
	}

	start := s.toSigned(older * mult)
	end := s.toSigned(newer * mult)

	span := model.YearSpan(start, end, model.PrecisionApproximate)
	span.Circa = true
	notes = append([]string{fmt.Sprintf("anchor=%d", s.anchor)}, notes...)
	return span.WithNote(s.note(notes...)), true, nil
}

// toSigned converts an age in years into a signed calendar year using
// astronomical numbering, so counting back across 1 BC / AD 1 skips no year.
func (s *yearsAgo) toSigned(age float64) int {
	astro := s.anchor - int(math.Round(age))
	year, bc := model.FromAstronomical(astro)
	return model.Signed(year, bc)
}
