package model

import (
	"errors"
	"fmt"
	"strings"
)

// Span is a resolved calendar interval with precision and confidence metadata.
// Years are stored as magnitudes; the era lives in the BC flags.
type Span struct {
	StartYear  int        `json:"start_year" yaml:"start_year"`
	StartBC    bool       `json:"is_bc_start" yaml:"is_bc_start"`
	StartMonth int        `json:"start_month,omitempty" yaml:"start_month,omitempty"` // 0 when unknown
	StartDay   int        `json:"start_day,omitempty" yaml:"start_day,omitempty"`     // 0 when unknown
	EndYear    int        `json:"end_year" yaml:"end_year"`
	EndBC      bool       `json:"is_bc_end" yaml:"is_bc_end"`
	EndMonth   int        `json:"end_month,omitempty" yaml:"end_month,omitempty"`
	EndDay     int        `json:"end_day,omitempty" yaml:"end_day,omitempty"`
	Precision  Precision  `json:"precision" yaml:"precision"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Circa      bool       `json:"circa" yaml:"circa"`
	MatchNotes string     `json:"match_notes,omitempty" yaml:"match_notes,omitempty"` // Provenance trail (strategy, normalization, overrides)
}

// Precision is the granularity of date knowledge, finest first.
type Precision string

const (
	PrecisionDay         Precision = "day"
	PrecisionMonth       Precision = "month"
	PrecisionYear        Precision = "year"
	PrecisionDecade      Precision = "decade"
	PrecisionCentury     Precision = "century"
	PrecisionApproximate Precision = "approximate"
	PrecisionUnknown     Precision = "unknown"
)

var precisionOrder = []Precision{
	PrecisionDay,
	PrecisionMonth,
	PrecisionYear,
	PrecisionDecade,
	PrecisionCentury,
	PrecisionApproximate,
	PrecisionUnknown,
}

// Rank returns the position of p in the granularity order (0 = day).
// Unrecognized values rank as unknown.
func (p Precision) Rank() int {
	for i, candidate := range precisionOrder {
		if candidate == p {
			return i
		}
	}
	return len(precisionOrder) - 1
}

// Coarser returns the next coarser precision level. Unknown is terminal.
func (p Precision) Coarser() Precision {
	rank := p.Rank()
	if rank+1 >= len(precisionOrder) {
		return PrecisionUnknown
	}
	return precisionOrder[rank+1]
}

// FinerThan reports whether p is strictly more precise than other.
func (p Precision) FinerThan(other Precision) bool {
	return p.Rank() < other.Rank()
}

// Precisions returns every precision level, finest first.
func Precisions() []Precision {
	out := make([]Precision, len(precisionOrder))
	copy(out, precisionOrder)
	return out
}

// Confidence classifies where a resolved date came from and how reliable it is.
// The string values are a contract with downstream loaders; do not add to them.
type Confidence string

const (
	ConfidenceExplicit    Confidence = "explicit"    // Stated directly in the source text
	ConfidenceInferred    Confidence = "inferred"    // Inherited from a row-span or section heading
	ConfidenceLegendary   Confidence = "legendary"   // Before the founding threshold
	ConfidenceApproximate Confidence = "approximate" // Source carries a circa marker
	ConfidenceContentious Confidence = "contentious" // Source marks the date as disputed
	ConfidenceFallback    Confidence = "fallback"    // Coarser reading after a malformed value
)

// Confidences returns the full confidence contract in a stable order.
func Confidences() []Confidence {
	return []Confidence{
		ConfidenceExplicit,
		ConfidenceInferred,
		ConfidenceLegendary,
		ConfidenceApproximate,
		ConfidenceContentious,
		ConfidenceFallback,
	}
}

// Valid reports whether c is part of the confidence contract.
func (c Confidence) Valid() bool {
	for _, known := range Confidences() {
		if c == known {
			return true
		}
	}
	return false
}

// Span validation errors
var (
	ErrZeroYear        = errors.New("year zero does not exist")
	ErrReversedSpan    = errors.New("span ends before it starts")
	ErrInvalidMonth    = errors.New("month out of range")
	ErrInvalidDay      = errors.New("day out of range for month")
	ErrDayWithoutMonth = errors.New("day given without month")
)

// YearSpan builds a span covering whole years between two signed years.
func YearSpan(signedStart, signedEnd int, precision Precision) Span {
	startYear, startBC := FromSigned(signedStart)
	endYear, endBC := FromSigned(signedEnd)
	return Span{
		StartYear: startYear,
		StartBC:   startBC,
		EndYear:   endYear,
		EndBC:     endBC,
		Precision: precision,
	}
}

// SignedStart returns the start year on a single signed timeline (BC negated).
func (s Span) SignedStart() int {
	return Signed(s.StartYear, s.StartBC)
}

// SignedEnd returns the end year on a single signed timeline (BC negated).
func (s Span) SignedEnd() int {
	return Signed(s.EndYear, s.EndBC)
}

// IsZero reports whether the span carries no date at all.
func (s Span) IsZero() bool {
	return s.StartYear == 0 && s.EndYear == 0
}

// Validate checks the calendar invariants of the span.
func (s Span) Validate() error {
	if s.StartYear <= 0 || s.EndYear <= 0 {
		return ErrZeroYear
	}
	if err := validateMonthDay(s.StartMonth, s.StartDay); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := validateMonthDay(s.EndMonth, s.EndDay); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if s.SignedEnd() < s.SignedStart() {
		return ErrReversedSpan
	}
	if s.SignedEnd() == s.SignedStart() && s.StartMonth > 0 && s.EndMonth > 0 {
		if s.EndMonth < s.StartMonth || (s.EndMonth == s.StartMonth && s.EndDay > 0 && s.EndDay < s.StartDay) {
			return ErrReversedSpan
		}
	}
	return nil
}

func validateMonthDay(month, day int) error {
	if month == 0 {
		if day != 0 {
			return ErrDayWithoutMonth
		}
		return nil
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if day == 0 {
		return nil
	}
	if day < 1 || day > DaysIn(month) {
		return ErrInvalidDay
	}
	return nil
}

// WithNote returns a copy of the span with note appended to MatchNotes.
func (s Span) WithNote(note string) Span {
	if note == "" {
		return s
	}
	if s.MatchNotes == "" {
		s.MatchNotes = note
	} else {
		s.MatchNotes += "; " + note
	}
	return s
}

// HasNote reports whether note appears in the provenance trail.
func (s Span) HasNote(note string) bool {
	for _, part := range strings.Split(s.MatchNotes, "; ") {
		if part == note {
			return true
		}
	}
	return false
}

// String renders the span for humans, e.g. "2500 BC – 1500 BC" or "c. 1450".
func (s Span) String() string {
	start := formatPoint(s.StartYear, s.StartBC, s.StartMonth, s.StartDay)
	end := formatPoint(s.EndYear, s.EndBC, s.EndMonth, s.EndDay)

	out := start
	if end != start {
		out = start + " – " + end
	}
	if s.Circa {
		out = "c. " + out
	}
	return out
}

func formatPoint(year int, bc bool, month, day int) string {
	var b strings.Builder
	if day > 0 {
		fmt.Fprintf(&b, "%d ", day)
	}
	if month > 0 {
		b.WriteString(MonthName(month))
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%d", year)
	if bc {
		b.WriteString(" BC")
	}
	return b.String()
}
