package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ppiankov/chronia/internal/model"
)

// readEra resolves the era of a single number from its optional prefix and
// suffix captures. Conflicting markers ("AD 79 BC") are reported as !ok.
func readEra(re *regexp.Regexp, m []string, prefix, suffix string) (era, bool) {
	pre := parseEra(submatch(re, m, prefix))
	suf := parseEra(submatch(re, m, suffix))
	switch {
	case pre != eraNone && suf != eraNone && pre != suf:
		return eraNone, false
	case suf != eraNone:
		return suf, true
	default:
		return pre, true
	}
}

// singleYear builds a one-year span.
func singleYear(year int, e era, precision model.Precision) model.Span {
	return model.Span{
		StartYear: year,
		StartBC:   e.bc(),
		EndYear:   year,
		EndBC:     e.bc(),
		Precision: precision,
	}
}

// --- full date ---

type fullDateGrammar struct {
	iso, dmy, mdy, my *regexp.Regexp
}

var fullDatePatterns = sync.OnceValue(func() fullDateGrammar {
	year := optEraPrefix("pre") + named("year", numPattern) + optEra("era")
	day := named("day", `\d{1,2}`) + `(?i:st|nd|rd|th)?`
	month := named("month", monthPattern) + `\.?`
	return fullDateGrammar{
		iso: regexp.MustCompile(`^` + named("year", `\d{4}`) + `-` + named("month", `\d{1,2}`) + `-` + named("day", `\d{1,2}`) + `\b`),
		dmy: regexp.MustCompile(`^` + day + `\s+` + month + `,?\s+` + year),
		mdy: regexp.MustCompile(`^` + month + `\s+` + day + `,?\s+` + year),
		my:  regexp.MustCompile(`^` + month + `,?\s+` + year),
	}
})

type fullDate struct {
	strategyBase
}

func newFullDate() *fullDate {
	return &fullDate{strategyBase{kind: KindFullDate}}
}

func (s *fullDate) Parse(text string) (model.Span, bool, error) {
	g := fullDatePatterns()
	forms := []struct {
		re   *regexp.Regexp
		name string
	}{
		{g.iso, "iso"},
		{g.dmy, "day-month-year"},
		{g.mdy, "month-day-year"},
		{g.my, "month-year"},
	}
	for _, form := range forms {
		m := matchPrefix(form.re, text, true)
		if m == nil {
			continue
		}
		span, err := s.build(form.re, m, text, form.name)
		if err != nil {
			return model.Span{}, false, err
		}
		return span, true, nil
	}
	return model.Span{}, false, nil
}

func (s *fullDate) build(re *regexp.Regexp, m []string, text, form string) (model.Span, error) {
	year, _ := parseNumber(submatch(re, m, "year"))
	if year == 0 {
		return model.Span{}, malformed(s.kind, text, "year zero", nil)
	}
	e, ok := readEra(re, m, "pre", "era")
	if !ok {
		return model.Span{}, malformed(s.kind, text, "conflicting era markers", nil)
	}

	monthText := submatch(re, m, "month")
	month, isName := parseMonth(monthText)
	if !isName {
		month, _ = strconv.Atoi(monthText)
	}
	day := 0
	if d := submatch(re, m, "day"); d != "" {
		day, _ = strconv.Atoi(d)
	}

	if month < 1 || month > 12 {
		fb := singleYear(year, e, model.PrecisionYear).
			WithNote(s.note("form="+form, fmt.Sprintf("fallback: dropped invalid month %d", month)))
		return model.Span{}, malformed(s.kind, text, fmt.Sprintf("month %d out of range", month), &fb)
	}
	if day != 0 && (day < 1 || day > model.DaysIn(month)) {
		fb := singleYear(year, e, model.PrecisionMonth)
		fb.StartMonth, fb.EndMonth = month, month
		fb = fb.WithNote(s.note("form="+form, fmt.Sprintf("fallback: dropped invalid day %d", day)))
		return model.Span{}, malformed(s.kind, text, fmt.Sprintf("day %d out of range for %s", day, model.MonthName(month)), &fb)
	}

	span := singleYear(year, e, model.PrecisionMonth)
	span.StartMonth, span.EndMonth = month, month
	if day != 0 {
		span.StartDay, span.EndDay = day, day
		span.Precision = model.PrecisionDay
	}
	return span.WithNote(s.note("form=" + form)), nil
}

// --- exact year ---

var exactYearPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^` + optEraPrefix("pre") + named("year", numPattern) + optEra("era"))
})

type exactYear struct {
	strategyBase
}

func newExactYear() *exactYear {
	return &exactYear{strategyBase{kind: KindExactYear}}
}

func (s *exactYear) Parse(text string) (model.Span, bool, error) {
	re := exactYearPattern()
	m := matchPrefix(re, text, true)
	if m == nil {
		return model.Span{}, false, nil
	}
	year, _ := parseNumber(submatch(re, m, "year"))
	if year == 0 {
		return model.Span{}, false, malformed(s.kind, text, "year zero", nil)
	}
	e, ok := readEra(re, m, "pre", "era")
	if !ok {
		return model.Span{}, false, malformed(s.kind, text, "conflicting era markers", nil)
	}
	if e == eraNone && !bareYearTrailerOK(text[len(m[0]):]) {
		return model.Span{}, false, nil
	}
	return singleYear(year, e, model.PrecisionYear).WithNote(s.note()), true, nil
}

// bareYearTrailerOK reports whether prose after a number with no era marker is
// set apart from it, as in "1066 - Hastings". A number running straight into
// words ("300 Spartans") is a count, not a year.
func bareYearTrailerOK(rest string) bool {
	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return strings.ContainsRune("-–:,.;()[]?/", r)
}

// --- circa year ---

var circaYearPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^` + named("circa", circaPattern) + `\s*` + optEraPrefix("pre") + named("year", numPattern) + optEra("era"))
})

type circaYear struct {
	strategyBase
}

func newCircaYear() *circaYear {
	return &circaYear{strategyBase{kind: KindCircaYear}}
}

func (s *circaYear) Parse(text string) (model.Span, bool, error) {
	re := circaYearPattern()
	m := matchPrefix(re, text, true)
	if m == nil {
		return model.Span{}, false, nil
	}
	year, _ := parseNumber(submatch(re, m, "year"))
	if year == 0 {
		return model.Span{}, false, malformed(s.kind, text, "year zero", nil)
	}
	e, ok := readEra(re, m, "pre", "era")
	if !ok {
		return model.Span{}, false, malformed(s.kind, text, "conflicting era markers", nil)
	}
	span := singleYear(year, e, model.PrecisionApproximate)
	span.Circa = true
	return span.WithNote(s.note("marker=" + submatch(re, m, "circa"))), true, nil
}
