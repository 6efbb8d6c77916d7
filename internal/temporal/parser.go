package temporal

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/chronia/internal/model"
)

// Options configures a Parser
type Options struct {
	AnchorYear           int // Processing year for "years ago"; 0 = current year
	FoundingThreshold    int // BC magnitude; 0 = model.DefaultFoundingThreshold
	VeryAncientThreshold int // BC magnitude; 0 = model.DefaultVeryAncientThreshold
}

// DefaultOptions returns options anchored at the current year
func DefaultOptions() Options {
	return Options{
		AnchorYear:           time.Now().Year(),
		FoundingThreshold:    model.DefaultFoundingThreshold,
		VeryAncientThreshold: model.DefaultVeryAncientThreshold,
	}
}

// OptionsFromConfig builds options from engine configuration
func OptionsFromConfig(cfg model.EngineConfig, now time.Time) Options {
	return Options{
		AnchorYear:           cfg.ResolvedAnchorYear(now),
		FoundingThreshold:    cfg.FoundingThreshold,
		VeryAncientThreshold: cfg.VeryAncientThreshold,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AnchorYear == 0 {
		o.AnchorYear = def.AnchorYear
	}
	if o.FoundingThreshold == 0 {
		o.FoundingThreshold = def.FoundingThreshold
	}
	if o.VeryAncientThreshold == 0 {
		o.VeryAncientThreshold = def.VeryAncientThreshold
	}
	return o
}

// Match is a resolved parse result with its provenance
type Match struct {
	Span      model.Span
	Raw       string // Normalized text the strategy saw
	Origin    model.Origin
	Strategy  Kind
	Malformed *MalformedValueError // Set when the span is a fallback reading
}

// Parser dispatches text to the strategies in priority order. It holds no
// mutable state and is safe for concurrent use.
type Parser struct {
	opts       Options
	strategies []Strategy
	resolver   Resolver
	logger     *slog.Logger
}

// NewParser creates a parser. Zero option fields take their defaults; a nil
// logger uses slog.Default().
func NewParser(opts Options, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &Parser{
		opts:       opts,
		strategies: DefaultStrategies(opts.AnchorYear),
		resolver: Resolver{
			FoundingThreshold:    opts.FoundingThreshold,
			VeryAncientThreshold: opts.VeryAncientThreshold,
		},
		logger: logger,
	}
}

// Options returns the effective options
func (p *Parser) Options() Options {
	return p.opts
}

// Strategies returns the dispatch order
func (p *Parser) Strategies() []Kind {
	kinds := make([]Kind, len(p.strategies))
	for i, s := range p.strategies {
		kinds[i] = s.Kind()
	}
	return kinds
}

// Parse is the primary entry point. Unresolved text yields ErrNoMatch or a
// *MalformedValueError.
func (p *Parser) Parse(text string) (model.Span, error) {
	m, err := p.ParseMatch(text)
	if err != nil {
		return model.Span{}, err
	}
	return m.Span, nil
}

// ParseMatch is Parse with provenance.
func (p *Parser) ParseMatch(text string) (Match, error) {
	m, err := p.match(text)
	if err != nil {
		p.logUnresolved(text, err)
		return Match{}, err
	}
	m.Span = p.resolver.Resolve(m.Span, m.Origin, text)
	return m, nil
}

// Resolve stamps confidence and precision on a span obtained elsewhere
func (p *Parser) Resolve(span model.Span, origin model.Origin, text string) model.Span {
	return p.resolver.Resolve(span, origin, text)
}

// match dispatches without resolving. First match wins; a malformed value with
// a fallback resolves to the fallback, one without lets dispatch continue.
func (p *Parser) match(text string) (Match, error) {
	norm := Normalize(text)
	if norm == "" {
		return Match{}, ErrNoMatch
	}

	var rejected *MalformedValueError
	for _, s := range p.strategies {
		span, ok, err := s.Parse(norm)
		if err != nil {
			var mv *MalformedValueError
			if !errors.As(err, &mv) {
				return Match{}, err
			}
			if mv.Fallback != nil {
				p.logger.Debug("malformed date, using fallback",
					"text", text, "strategy", mv.Strategy, "reason", mv.Reason)
				return Match{Span: *mv.Fallback, Raw: norm, Origin: model.OriginFallback, Strategy: s.Kind(), Malformed: mv}, nil
			}
			if rejected == nil {
				rejected = mv
			}
			continue
		}
		if ok {
			return Match{Span: span, Raw: norm, Origin: model.OriginDirect, Strategy: s.Kind()}, nil
		}
	}
	if rejected != nil {
		return Match{}, rejected
	}
	return Match{}, ErrNoMatch
}

func (p *Parser) logUnresolved(text string, err error) {
	var mv *MalformedValueError
	if errors.As(err, &mv) {
		p.logger.Info("malformed date rejected", "text", text, "strategy", mv.Strategy, "reason", mv.Reason)
		return
	}
	p.logger.Debug("no date found", "text", text)
}

var (
	headingGroup = regexp.MustCompile(`\(([^()]+)\)`)
	headingOf    = regexp.MustCompile(`(?i)\s+of\s+`)
)

// headingCandidates lists the parts of a heading that may carry its date:
// the whole text, each parenthesized group, the part after a colon and the
// part after the last " of ".
func headingCandidates(text string) []string {
	candidates := []string{text}
	for _, m := range headingGroup.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if _, after, ok := strings.Cut(text, ":"); ok {
		candidates = append(candidates, after)
	}
	if locs := headingOf.FindAllStringIndex(text, -1); len(locs) > 0 {
		candidates = append(candidates, text[locs[len(locs)-1][1]:])
	}
	return candidates
}

// matchHeading returns the unresolved span a heading carries
func (p *Parser) matchHeading(text string) (Match, error) {
	var last error = ErrNoMatch
	for _, c := range headingCandidates(text) {
		m, err := p.match(c)
		if err == nil {
			if c != text {
				m.Span = m.Span.WithNote("heading part " + `"` + strings.TrimSpace(c) + `"`)
			}
			return m, nil
		}
		var mv *MalformedValueError
		if errors.As(err, &mv) {
			last = err
		}
	}
	return Match{}, last
}

// ParseSectionHeading resolves the date a section heading carries, if any.
func (p *Parser) ParseSectionHeading(text string) (model.Span, error) {
	m, err := p.matchHeading(text)
	if err != nil {
		p.logUnresolved(text, err)
		return model.Span{}, err
	}
	return p.resolver.Resolve(m.Span, m.Origin, text), nil
}
