package temporal

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/chronia/internal/model"
)

var disputePattern = regexp.MustCompile(`(?i)\b(?:disputed|contested|debated|controversial|uncertain|unclear|conflicting)\b|\d\s*\?`)

// Resolver stamps the final confidence and precision on a span produced by
// any path: direct parse, fallback, row-span or section inheritance.
type Resolver struct {
	FoundingThreshold    int // BC magnitude; signed start <= -threshold is legendary
	VeryAncientThreshold int // BC magnitude beyond which precision is coarsened
}

// Resolve applies the rules in order. Later rules override earlier ones, and
// the legendary rule overrides everything. text is the source text the span
// was read from and is only inspected for dispute markers.
func (r Resolver) Resolve(span model.Span, origin model.Origin, text string) model.Span {
	conf := model.ConfidenceExplicit
	if span.Circa {
		conf = model.ConfidenceApproximate
	}
	if disputePattern.MatchString(text) || span.HasNote(noteAlternatives) {
		conf = model.ConfidenceContentious
	}
	if origin == model.OriginFallback {
		conf = model.ConfidenceFallback
	}
	if origin.Inherited() {
		conf = model.ConfidenceInferred
	}

	if span.SignedStart() <= -r.FoundingThreshold {
		if conf != model.ConfidenceExplicit {
			span = span.WithNote(string(conf) + "-overridden")
		}
		conf = model.ConfidenceLegendary
	}
	span.Confidence = conf

	if r.VeryAncientThreshold > 0 && span.StartBC && span.StartYear > r.VeryAncientThreshold {
		coarser := span.Precision.Coarser()
		span = span.WithNote(fmt.Sprintf("precision %s->%s beyond %d BC", span.Precision, coarser, r.VeryAncientThreshold))
		span.Precision = coarser
	}
	return span
}
