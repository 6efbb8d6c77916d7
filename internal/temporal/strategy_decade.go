package temporal

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/chronia/internal/model"
)

var decadePattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^` + thePattern + `(?:` + named("mod", modPattern) + `[\s-]+` + thePattern + `)?` +
		named("decade", `\d{2,4}`) + `'?s` + optEra("era"))
})

type decade struct {
	strategyBase
}

func newDecade() *decade {
	return &decade{strategyBase{kind: KindDecade}}
}

// Parse reads "1990s" as exactly 1990-1999. "1800s" is the decade 1800-1809;
// century blocks only apply when a modifier makes them century-modifier input.
func (s *decade) Parse(text string) (model.Span, bool, error) {
	re := decadePattern()
	m := matchPrefix(re, text, true)
	if m == nil {
		return model.Span{}, false, nil
	}
	n, _ := parseNumber(submatch(re, m, "decade"))
	if n < 10 || n%10 != 0 {
		return model.Span{}, false, nil
	}

	var notes []string
	if mod := submatch(re, m, "mod"); mod != "" {
		notes = append(notes, fmt.Sprintf("modifier %q ignored", strings.ToLower(mod)))
	}

	var span model.Span
	if parseEra(submatch(re, m, "era")).bc() {
		// "40s BC" counts down: 49 BC to 40 BC.
		span = model.YearSpan(-(n + 9), -n, model.PrecisionDecade)
	} else {
		span = model.YearSpan(n, n+9, model.PrecisionDecade)
	}
	notes = append([]string{fmt.Sprintf("decade=%ds", n)}, notes...)
	return span.WithNote(s.note(notes...)), true, nil
}
