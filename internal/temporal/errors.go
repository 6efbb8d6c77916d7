package temporal

import (
	"errors"
	"fmt"

	"github.com/ppiankov/chronia/internal/model"
)

// Unresolved outcomes. None of them is fatal; callers drop or re-route the item.
var (
	// ErrNoMatch means no strategy recognized the text.
	ErrNoMatch = errors.New("no strategy matched")

	// ErrRowspanExhausted means an empty year cell arrived with no active row-span.
	ErrRowspanExhausted = errors.New("empty year cell with no active row-span")

	// ErrInheritanceExhausted means no ancestor section carries a resolvable date.
	ErrInheritanceExhausted = errors.New("no dated ancestor section")
)

// MalformedValueError is returned when a strategy recognizes the shape of the
// text but the extracted components are not a valid calendar date.
type MalformedValueError struct {
	Strategy Kind
	Text     string
	Reason   string
	Fallback *model.Span // Coarser reading, nil when none exists
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("%s: malformed value %q: %s", e.Strategy, e.Text, e.Reason)
}

func malformed(kind Kind, text, reason string, fallback *model.Span) *MalformedValueError {
	return &MalformedValueError{Strategy: kind, Text: text, Reason: reason, Fallback: fallback}
}

// IsUnresolved reports whether err is one of the non-fatal unresolved outcomes.
func IsUnresolved(err error) bool {
	if err == nil {
		return false
	}
	var mv *MalformedValueError
	return errors.Is(err, ErrNoMatch) ||
		errors.Is(err, ErrRowspanExhausted) ||
		errors.Is(err, ErrInheritanceExhausted) ||
		errors.As(err, &mv)
}

// Reason returns a short stable label for an unresolved outcome, used as a
// statistics key.
func Reason(err error) string {
	var mv *MalformedValueError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &mv):
		return "malformed"
	case errors.Is(err, ErrRowspanExhausted):
		return "rowspan_exhausted"
	case errors.Is(err, ErrInheritanceExhausted):
		return "inheritance_exhausted"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	default:
		return "error"
	}
}
