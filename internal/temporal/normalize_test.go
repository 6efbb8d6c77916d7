package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"In 1516[12]", "1516"},
		{"  2500 – 1500   BCE ", "2500 - 1500 BCE"},
		{"(c. 1450)", "c. 1450"},
		{"the 1990s", "1990s"},
		{"during the 5th century [citation needed]", "5th century"},
		{"１５１６", "1516"},
		{"1990’s", "1990's"},
		{"1516 [a] – Founding", "1516 - Founding"},
		{"the", "the"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestExpandAbbreviated(t *testing.T) {
	assert.Equal(t, 1918, expandAbbreviated(1914, "1914", 18, "18"))
	assert.Equal(t, 1517, expandAbbreviated(1516, "1516", 17, "17"))
	assert.Equal(t, 2, expandAbbreviated(1999, "1999", 2, "2"))
	assert.Equal(t, 1600, expandAbbreviated(1500, "1500", 1600, "1600"))
}

func TestParseHelpers(t *testing.T) {
	n, ok := parseOrdinal("fifth")
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	n, ok = parseOrdinal("21st")
	assert.True(t, ok)
	assert.Equal(t, 21, n)

	n, ok = parseMonth("Sept.")
	assert.True(t, ok)
	assert.Equal(t, 9, n)

	n, ok = parseMonth("February")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	assert.Equal(t, eraBC, parseEra("B.C.E."))
	assert.Equal(t, eraAD, parseEra("CE"))
	assert.Equal(t, eraNone, parseEra(""))
}

func TestTrailerOK(t *testing.T) {
	tests := []struct {
		rest   string
		single bool
		want   bool
	}{
		{"", true, true},
		{" - Founding of the city", true, true},
		{"s", true, false},
		{"th century", true, false},
		{",000", true, false},
		{" years ago", false, false},
		{" million years ago", false, false},
		{"'s", true, false},
		{"-18", true, false},
		{"-18", false, true},
		{", 1460 and 1470", true, false},
		{" March", true, false},
		{"?", true, true},
		{" - late 17th century", true, false},
		{" to the seventeenth century", true, false},
		{" - early 1700s", true, false},
		{" - the first king", true, true},
	}

	for _, tc := range tests {
		t.Run(tc.rest, func(t *testing.T) {
			assert.Equal(t, tc.want, trailerOK(tc.rest, tc.single))
		})
	}
}

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "1516", cleanCell("est. 1516"))
	assert.Equal(t, "1516", cleanCell("Year: 1516"))
	assert.Equal(t, "1516", cleanCell("[1516]"))
	assert.Equal(t, "1516", cleanCell("1516†"))
	assert.Equal(t, "1516", cleanCell("(1516?)"))
	assert.Equal(t, "1516", cleanCell("1516"))
}
