package temporal

import (
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/chronia/internal/model"
)

type tableNoise struct {
	label    *regexp.Regexp
	estimate *regexp.Regexp
	trailing *regexp.Regexp
	wrapped  *regexp.Regexp
	brackets *regexp.Regexp
}

var loadTableNoise = sync.OnceValue(func() *tableNoise {
	return &tableNoise{
		label:    regexp.MustCompile(`^(?i:year|date|period|when)\s*:\s*`),
		estimate: regexp.MustCompile(`^(?i:est\.|estimated|fl\.|r\.)\s*`),
		trailing: regexp.MustCompile(`\s*[?*†‡#]+$`),
		wrapped:  regexp.MustCompile(`^[(\[]\s*([^()\[\]]*?)\s*[)\]]$`),
		brackets: regexp.MustCompile(`\s+\[[^\]]*\]$`),
	}
})

// cleanCell strips the decoration table cells tend to carry around a date.
func cleanCell(text string) string {
	n := loadTableNoise()
	out := text
	for {
		prev := out
		out = n.label.ReplaceAllString(out, "")
		out = n.estimate.ReplaceAllString(out, "")
		if m := n.wrapped.FindStringSubmatch(out); m != nil {
			out = m[1]
		}
		out = n.trailing.ReplaceAllString(out, "")
		out = n.brackets.ReplaceAllString(out, "")
		out = strings.TrimSpace(out)
		if out == prev {
			return out
		}
	}
}

// tableCell is the last resort for noisy table cells. It only matches when
// cleaning changed the text, otherwise the delegates already had their turn.
type tableCell struct {
	strategyBase
	delegates []Strategy
}

func newTableCell(delegates ...Strategy) *tableCell {
	return &tableCell{strategyBase: strategyBase{kind: KindTableCell}, delegates: delegates}
}

func (s *tableCell) Parse(text string) (model.Span, bool, error) {
	cleaned := cleanCell(text)
	if cleaned == "" || cleaned == text {
		return model.Span{}, false, nil
	}
	for _, d := range s.delegates {
		span, ok, err := d.Parse(cleaned)
		if err != nil {
			return model.Span{}, false, err
		}
		if ok {
			return span.WithNote(s.note("table-fallback")), true, nil
		}
	}
	return model.Span{}, false, nil
}
