package model

// Signed maps a year magnitude and era onto one timeline: 1 BC is -1, AD 1 is 1.
// There is no zero; a zero magnitude maps to 0 and is rejected by Span.Validate.
func Signed(year int, bc bool) int {
	if bc {
		return -year
	}
	return year
}

// FromSigned is the inverse of Signed.
func FromSigned(signed int) (year int, bc bool) {
	if signed < 0 {
		return -signed, true
	}
	return signed, false
}

// FromAstronomical converts astronomical year numbering (0 = 1 BC, -1 = 2 BC)
// into a magnitude and era.
func FromAstronomical(astro int) (year int, bc bool) {
	if astro >= 1 {
		return astro, false
	}
	return 1 - astro, true
}

// ToAstronomical converts a magnitude and era into astronomical numbering.
func ToAstronomical(year int, bc bool) int {
	if bc {
		return 1 - year
	}
	return year
}

// ShiftSigned moves a signed year by delta years, skipping the missing year zero.
func ShiftSigned(signed, delta int) int {
	year, bc := FromSigned(signed)
	astro := ToAstronomical(year, bc) + delta
	year, bc = FromAstronomical(astro)
	return Signed(year, bc)
}

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysIn returns the maximum day for month, allowing February 29.
func DaysIn(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return daysInMonth[month]
}

var monthNames = [13]string{"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// MonthName returns the English month name, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month]
}
