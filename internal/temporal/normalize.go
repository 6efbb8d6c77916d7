package temporal

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
	"’", "'",
	"‘", "'",
	"ʼ", "'",
)

type normalizer struct {
	footnote *regexp.Regexp
	space    *regexp.Regexp
	lead     *regexp.Regexp
	wrapped  *regexp.Regexp
}

var loadNormalizer = sync.OnceValue(func() *normalizer {
	return &normalizer{
		footnote: regexp.MustCompile(`(?i)\[\s*(?:\d{1,3}|[a-z]|[ivx]{1,4}|note\s*\d+|n\s*\d+|nb\s*\d+|citation needed|clarification needed|dubious(?:\s*-\s*discuss)?|when\?|which\?|according to whom\?|by whom\?|better source needed|page needed)\s*\]`),
		space:    regexp.MustCompile(`\s+`),
		lead:     regexp.MustCompile(`(?i)^(?:(?:in|during|from|between)\s+)?(?:the\s+)?`),
		wrapped:  regexp.MustCompile(`^\((.*)\)$`),
	}
})

// Normalize folds the text into the shape the strategies expect: NFKC, ASCII
// dashes and apostrophes, no footnote markers, single spaces and no leading
// "in"/"during"/"from"/"between"/"the".
func Normalize(text string) string {
	n := loadNormalizer()

	out := norm.NFKC.String(text)
	out = dashReplacer.Replace(out)
	out = n.footnote.ReplaceAllString(out, "")
	out = n.space.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)

	if m := n.wrapped.FindStringSubmatch(out); m != nil && !strings.ContainsAny(m[1], "()") {
		out = strings.TrimSpace(m[1])
	}

	if loc := n.lead.FindStringIndex(out); loc != nil && loc[1] > 0 && loc[1] < len(out) {
		out = out[loc[1]:]
	}
	return out
}
