package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronia/internal/model"
)

func TestScenarios(t *testing.T) {
	p := newTestParser(t)

	t.Run("tilde year BCE", func(t *testing.T) {
		span, err := p.Parse("~9300 BCE")
		require.NoError(t, err)
		assert.Equal(t, 9300, span.StartYear)
		assert.Equal(t, 9300, span.EndYear)
		assert.True(t, span.StartBC)
		assert.True(t, span.EndBC)
		assert.True(t, span.Circa)
	})

	t.Run("range with trailing era", func(t *testing.T) {
		span, err := p.Parse("2500–1500 BCE")
		require.NoError(t, err)
		assert.Equal(t, 2500, span.StartYear)
		assert.True(t, span.StartBC)
		assert.Equal(t, 1500, span.EndYear)
		assert.True(t, span.EndBC)
	})

	t.Run("century range", func(t *testing.T) {
		span, err := p.Parse("11th–14th centuries")
		require.NoError(t, err)
		assert.Equal(t, 1001, span.StartYear)
		assert.False(t, span.StartBC)
		assert.Equal(t, 1400, span.EndYear)
		assert.False(t, span.EndBC)
	})

	t.Run("decade", func(t *testing.T) {
		span, err := p.Parse("1990s")
		require.NoError(t, err)
		assert.Equal(t, 1990, span.StartYear)
		assert.Equal(t, 1999, span.EndYear)
		assert.Equal(t, model.PrecisionDecade, span.Precision)
	})

	t.Run("late century third", func(t *testing.T) {
		span, err := p.Parse("Late 16th century")
		require.NoError(t, err)
		assert.Equal(t, 1567, span.StartYear)
		assert.Equal(t, 1600, span.EndYear)
		assert.False(t, span.StartBC)
	})

	t.Run("row-span inheritance", func(t *testing.T) {
		first, state, err := p.ParseTableCell([]model.Cell{{Text: "753 BC", RowSpan: 2}, {Text: "Founding of Rome"}}, RowspanContext{})
		require.NoError(t, err)
		assert.Equal(t, model.ConfidenceExplicit, first.Confidence)
		assert.Equal(t, RowspanContext{Year: 753, IsBC: true, Remaining: 1}, state.public())

		second, state, err := p.ParseTableCell([]model.Cell{{}, {Text: "Romulus becomes king"}}, state)
		require.NoError(t, err)
		assert.Equal(t, 753, second.StartYear)
		assert.True(t, second.StartBC)
		assert.Equal(t, model.ConfidenceInferred, second.Confidence)
		assert.False(t, state.Active())

		_, _, err = p.ParseTableCell([]model.Cell{{}, {Text: "Later event"}}, state)
		assert.ErrorIs(t, err, ErrRowspanExhausted)
	})
}

// public strips the unexported carry fields for comparison.
func (c RowspanContext) public() RowspanContext {
	return RowspanContext{Year: c.Year, IsBC: c.IsBC, Remaining: c.Remaining}
}

func allInputs() []string {
	inputs := make([]string, 0, len(parseCases))
	for _, tc := range parseCases {
		inputs = append(inputs, tc.input)
	}
	return append(inputs,
		"~9300 BCE", "1 BC", "AD 1", "1st century BC", "10s BC", "Late 1st century BC",
		"Early 5th century BC", "Before 6th century BC", "3rd–1st centuries BC",
		"1 BC – AD 1", "c. 5000 years ago", "1000 BC – 500 BC",
	)
}

func TestProperties(t *testing.T) {
	p := newTestParser(t)

	for _, input := range allInputs() {
		t.Run(input, func(t *testing.T) {
			span, err := p.Parse(input)
			require.NoError(t, err)

			again, err := p.Parse(input)
			require.NoError(t, err)
			assert.Equal(t, span, again, "idempotent")

			assert.NotZero(t, span.StartYear, "no year zero")
			assert.NotZero(t, span.EndYear, "no year zero")
			assert.GreaterOrEqual(t, span.SignedEnd(), span.SignedStart(), "chronological")
			assert.NoError(t, span.Validate())
			assert.True(t, span.Confidence.Valid())

			legendary := span.SignedStart() <= -model.DefaultFoundingThreshold
			assert.Equal(t, legendary, span.Confidence == model.ConfidenceLegendary, "legendary iff before threshold")
		})
	}
}

func TestDecadeCoversTenYears(t *testing.T) {
	p := newTestParser(t)

	for _, input := range []string{"1990s", "1800s", "10s", "2000s", "40s BC", "10s BC", "1990's"} {
		t.Run(input, func(t *testing.T) {
			m, err := p.ParseMatch(input)
			require.NoError(t, err)
			require.Equal(t, KindDecade, m.Strategy)
			assert.Equal(t, 9, m.Span.SignedEnd()-m.Span.SignedStart())
		})
	}

	span, err := p.Parse("1800s")
	require.NoError(t, err)
	assert.Equal(t, 1800, span.StartYear)
}
