package model

import (
	"errors"
	"testing"
)

func TestSpan_Validate(t *testing.T) {
	tests := []struct {
		name string
		span Span
		want error
	}{
		{"valid year", Span{StartYear: 1516, EndYear: 1516}, nil},
		{"bc to ad", Span{StartYear: 100, StartBC: true, EndYear: 100}, nil},
		{"zero start", Span{StartYear: 0, EndYear: 5}, ErrZeroYear},
		{"zero end", Span{StartYear: 5, EndYear: 0}, ErrZeroYear},
		{"reversed", Span{StartYear: 1500, EndYear: 1400}, ErrReversedSpan},
		{"reversed bc", Span{StartYear: 1500, StartBC: true, EndYear: 2500, EndBC: true}, ErrReversedSpan},
		{"month 13", Span{StartYear: 1516, StartMonth: 13, EndYear: 1516}, ErrInvalidMonth},
		{"day 32", Span{StartYear: 1516, StartMonth: 1, StartDay: 32, EndYear: 1516}, ErrInvalidDay},
		{"feb 29 allowed", Span{StartYear: 1517, StartMonth: 2, StartDay: 29, EndYear: 1517}, nil},
		{"day without month", Span{StartYear: 1516, StartDay: 3, EndYear: 1516}, ErrDayWithoutMonth},
		{"reversed within year", Span{StartYear: 1516, StartMonth: 5, EndYear: 1516, EndMonth: 3}, ErrReversedSpan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.span.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestYearSpan(t *testing.T) {
	s := YearSpan(-2500, -1500, PrecisionYear)
	if s.StartYear != 2500 || !s.StartBC || s.EndYear != 1500 || !s.EndBC {
		t.Errorf("unexpected span %+v", s)
	}
	if s.SignedStart() != -2500 || s.SignedEnd() != -1500 {
		t.Errorf("signed = %d..%d", s.SignedStart(), s.SignedEnd())
	}
}

func TestSpan_String(t *testing.T) {
	tests := []struct {
		span Span
		want string
	}{
		{YearSpan(-2500, -1500, PrecisionYear), "2500 BC – 1500 BC"},
		{YearSpan(1516, 1516, PrecisionYear), "1516"},
		{Span{StartYear: 44, StartBC: true, StartMonth: 3, StartDay: 15, EndYear: 44, EndBC: true, EndMonth: 3, EndDay: 15}, "15 March 44 BC"},
		{Span{StartYear: 1450, EndYear: 1450, Circa: true}, "c. 1450"},
	}

	for _, tt := range tests {
		if got := tt.span.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSpan_Notes(t *testing.T) {
	s := Span{}.WithNote("strategy=exact-year").WithNote("").WithNote("table-fallback")
	if s.MatchNotes != "strategy=exact-year; table-fallback" {
		t.Errorf("MatchNotes = %q", s.MatchNotes)
	}
	if !s.HasNote("table-fallback") {
		t.Error("expected table-fallback note")
	}
	if s.HasNote("table") {
		t.Error("HasNote should match whole entries only")
	}
}

func TestPrecision_Order(t *testing.T) {
	if !PrecisionDay.FinerThan(PrecisionMonth) {
		t.Error("day should be finer than month")
	}
	if PrecisionCentury.FinerThan(PrecisionDecade) {
		t.Error("century should not be finer than decade")
	}
	if PrecisionYear.Coarser() != PrecisionDecade {
		t.Errorf("year coarser = %s", PrecisionYear.Coarser())
	}
	if PrecisionApproximate.Coarser() != PrecisionUnknown {
		t.Errorf("approximate coarser = %s", PrecisionApproximate.Coarser())
	}
	if PrecisionUnknown.Coarser() != PrecisionUnknown {
		t.Error("unknown should be terminal")
	}
	if Precision("bogus").Rank() != PrecisionUnknown.Rank() {
		t.Error("unrecognized precision should rank as unknown")
	}
	if len(Precisions()) != 7 {
		t.Errorf("expected 7 precision levels, got %d", len(Precisions()))
	}
}

func TestConfidence_Contract(t *testing.T) {
	want := []string{"explicit", "inferred", "legendary", "approximate", "contentious", "fallback"}
	got := Confidences()
	if len(got) != len(want) {
		t.Fatalf("expected %d confidences, got %d", len(want), len(got))
	}
	for i, c := range got {
		if string(c) != want[i] {
			t.Errorf("confidence %d = %q, want %q", i, c, want[i])
		}
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	if Confidence("certain").Valid() {
		t.Error("unknown confidence should be invalid")
	}
}
