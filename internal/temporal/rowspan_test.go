package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronia/internal/model"
)

func row(year string, span int, rest ...string) []model.Cell {
	cells := []model.Cell{{Text: year, RowSpan: span}}
	for _, r := range rest {
		cells = append(cells, model.Cell{Text: r})
	}
	return cells
}

func TestParseTableRow_InheritsRangeSpan(t *testing.T) {
	p := newTestParser(t)

	m, state, err := p.ParseTableRow(row("1914–18", 3, "War"), RowspanContext{})
	require.NoError(t, err)
	assert.Equal(t, model.OriginDirect, m.Origin)
	assert.Equal(t, 1914, state.Year)
	assert.Equal(t, 2, state.Remaining)

	for want := 1; want >= 0; want-- {
		m, state, err = p.ParseTableRow(row("", 0, "Battle"), state)
		require.NoError(t, err)
		assert.Equal(t, model.OriginRowspan, m.Origin)
		assert.Equal(t, KindYearRange, m.Strategy)
		assert.Equal(t, 1914, m.Span.SignedStart())
		assert.Equal(t, 1918, m.Span.SignedEnd())
		assert.Equal(t, model.ConfidenceInferred, m.Span.Confidence)
		assert.Equal(t, want, state.Remaining)
	}
	assert.Equal(t, RowspanContext{}, state)
}

func TestParseTableRow_ExplicitCellResetsState(t *testing.T) {
	p := newTestParser(t)

	_, state, err := p.ParseTableRow(row("1516", 3), RowspanContext{})
	require.NoError(t, err)
	require.True(t, state.Active())

	m, state, err := p.ParseTableRow(row("1520", 1), state)
	require.NoError(t, err)
	assert.Equal(t, 1520, m.Span.StartYear)
	assert.Equal(t, model.ConfidenceExplicit, m.Span.Confidence)
	assert.False(t, state.Active())

	_, _, err = p.ParseTableRow(row("", 0), state)
	assert.ErrorIs(t, err, ErrRowspanExhausted)
}

func TestParseTableRow_NewSpanReplacesOld(t *testing.T) {
	p := newTestParser(t)

	_, state, err := p.ParseTableRow(row("1516", 4), RowspanContext{})
	require.NoError(t, err)

	_, state, err = p.ParseTableRow(row("1520", 2), state)
	require.NoError(t, err)
	assert.Equal(t, 1520, state.Year)
	assert.Equal(t, 1, state.Remaining)
}

func TestParseTableRow_IdleEmptyCell(t *testing.T) {
	p := newTestParser(t)

	_, state, err := p.ParseTableRow(row("  ", 0, "Orphan"), RowspanContext{})
	assert.ErrorIs(t, err, ErrRowspanExhausted)
	assert.Equal(t, "rowspan_exhausted", Reason(err))
	assert.False(t, state.Active())

	_, _, err = p.ParseTableRow(nil, RowspanContext{})
	assert.ErrorIs(t, err, ErrRowspanExhausted)
}

func TestParseTableRow_UnparseableCellResets(t *testing.T) {
	p := newTestParser(t)

	_, state, err := p.ParseTableRow(row("1516", 3), RowspanContext{})
	require.NoError(t, err)

	_, state, err = p.ParseTableRow(row("Unknown", 2), state)
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, RowspanContext{}, state)
}

func TestParseTableRow_LegendaryWinsOverInherited(t *testing.T) {
	p := newTestParser(t)

	_, state, err := p.ParseTableRow(row("800 BC", 2), RowspanContext{})
	require.NoError(t, err)

	m, _, err := p.ParseTableRow(row("", 0), state)
	require.NoError(t, err)
	assert.Equal(t, model.ConfidenceLegendary, m.Span.Confidence)
	assert.True(t, m.Span.HasNote("inferred-overridden"))
}

func TestParseTableRow_InheritedNotesDoNotAccumulate(t *testing.T) {
	p := newTestParser(t)

	_, state, err := p.ParseTableRow(row("12,000 BC", 3), RowspanContext{})
	require.NoError(t, err)

	first, state, err := p.ParseTableRow(row("", 0), state)
	require.NoError(t, err)
	second, _, err := p.ParseTableRow(row("", 0), state)
	require.NoError(t, err)

	// Precision is coarsened once per emission, never compounded.
	assert.Equal(t, model.PrecisionDecade, first.Span.Precision)
	assert.Equal(t, model.PrecisionDecade, second.Span.Precision)
}

func TestRowspanContext_ZeroSpanFallsBackToYear(t *testing.T) {
	p := newTestParser(t)

	span, state, err := p.ParseTableCell(row("", 0), RowspanContext{Year: 44, IsBC: true, Remaining: 1})
	require.NoError(t, err)
	assert.Equal(t, -44, span.SignedStart())
	assert.Equal(t, -44, span.SignedEnd())
	assert.Equal(t, model.ConfidenceInferred, span.Confidence)
	assert.False(t, state.Active())
}
