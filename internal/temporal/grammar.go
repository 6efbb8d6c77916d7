package temporal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Shared pattern fragments. Every strategy anchors at the start of the
// normalized text and leaves the remainder to trailerOK.
const (
	numPattern     = `(?:\d{1,3}(?:,\d{3})+|\d{1,7})`
	decimalPattern = `(?:\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`
	eraPattern     = `(?:(?i:BCE|BC|AD|CE)\b|(?i:B\.\s?C\.(?:\s?E\.?)?|A\.\s?D\.|C\.\s?E\.))`
	eraPrefixWord  = `(?:(?i:AD)\b|(?i:A\.\s?D\.))`
	circaPattern   = `(?:~|≈|(?i:circa|ca\.|c\.|approx\.|approximately|around|about|abt\.|roughly))`
	sepPattern     = `(?:\s*-\s*|\s+(?i:to|until|till|through|thru)\s+)`
	listSepPattern = `(?:\s*,\s*(?:(?i:and|or)\s+)?|\s*/\s*|\s*&\s*|\s+(?i:and|or)\s+)`
	ordinalPattern = `(?:\d{1,2}(?i:st|nd|rd|th)|(?i:first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|eleventh|twelfth|thirteenth|fourteenth|fifteenth|sixteenth|seventeenth|eighteenth|nineteenth|twentieth|twenty[-\s]first))`
	centuryWord    = `(?:[\s-]+(?i:centuries|century|cent\.))`
	monthPattern   = `(?i:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`
	modPattern     = `(?i:early|mid|middle|late|before|prior to)`
	thePattern     = `(?:(?i:the)\s+)?`
)

// named wraps pattern in a named capture group.
func named(name, pattern string) string {
	return "(?P<" + name + ">" + pattern + ")"
}

// optEra is an optional era suffix captured as name.
func optEra(name string) string {
	return `(?:\s*` + named(name, eraPattern) + `)?`
}

// optEraPrefix is an optional leading "AD" captured as name.
func optEraPrefix(name string) string {
	return `(?:` + named(name, eraPrefixWord) + `\s*)?`
}

// optCirca is an optional approximation marker captured as name.
func optCirca(name string) string {
	return `(?:` + named(name, circaPattern) + `\s*)?`
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"eleventh": 11, "twelfth": 12, "thirteenth": 13, "fourteenth": 14, "fifteenth": 15,
	"sixteenth": 16, "seventeenth": 17, "eighteenth": 18, "nineteenth": 19, "twentieth": 20,
	"twenty-first": 21, "twenty first": 21,
}

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

// era is the calendar era attached to a number, if any.
type era int

const (
	eraNone era = iota
	eraBC
	eraAD
)

func (e era) String() string {
	switch e {
	case eraBC:
		return "BC"
	case eraAD:
		return "AD"
	default:
		return ""
	}
}

func (e era) bc() bool {
	return e == eraBC
}

// parseEra maps a captured era suffix or prefix to an era.
func parseEra(s string) era {
	if s == "" {
		return eraNone
	}
	compact := strings.ToUpper(strings.NewReplacer(".", "", " ", "").Replace(s))
	switch compact {
	case "BC", "BCE":
		return eraBC
	case "AD", "CE":
		return eraAD
	default:
		return eraNone
	}
}

// parseNumber parses an integer that may carry thousands separators.
func parseNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDecimal parses a possibly fractional quantity ("2.5", "250,000").
func parseDecimal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseOrdinal parses "5th" or "fifth" into 5.
func parseOrdinal(s string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if n, ok := ordinalWords[lower]; ok {
		return n, true
	}
	digits := strings.TrimRightFunc(lower, unicode.IsLetter)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseMonth maps a month name or abbreviation to 1-12.
func parseMonth(s string) (int, bool) {
	lower := strings.ToLower(strings.TrimSuffix(s, "."))
	if len(lower) < 3 {
		return 0, false
	}
	if n, ok := monthNumbers[lower]; ok {
		return n, true
	}
	n, ok := monthNumbers[lower[:3]]
	return n, ok
}

// expandAbbreviated expands a shortened second year ("1914-18") using the
// leading digits of the first. It returns second unchanged when no expansion applies.
func expandAbbreviated(first int, firstDigits string, second int, secondDigits string) int {
	fd := strings.ReplaceAll(firstDigits, ",", "")
	sd := strings.ReplaceAll(secondDigits, ",", "")
	if len(sd) >= len(fd) || second >= first {
		return second
	}
	expanded, err := strconv.Atoi(fd[:len(fd)-len(sd)] + sd)
	if err != nil || expanded <= first {
		return second
	}
	return expanded
}

type trailerRules struct {
	adjacent   *regexp.Regexp
	quantity   *regexp.Regexp
	rangeCont  *regexp.Regexp
	listCont   *regexp.Regexp
	monthCont  *regexp.Regexp
	possessive *regexp.Regexp
}

// Openings of the second half of a range: a number, or a century that may
// carry a modifier ("late 17th century", "early 1700s").
const (
	numberEndpoint  = `(?:` + circaPattern + `\s*)?(?:` + eraPrefixWord + `\s*)?\d`
	centuryEndpoint = thePattern + `(?:` + modPattern + `[\s-]+` + thePattern + `)?(?:` + ordinalPattern + centuryWord + `|\d{1,2}00'?s)`
)

var loadTrailer = sync.OnceValue(func() *trailerRules {
	return &trailerRules{
		adjacent:   regexp.MustCompile(`^[.,]\d`),
		quantity:   regexp.MustCompile(`^\s*(?:(?i:years?|yrs?|million|thousand|billion|mya|kya|ka|ma|myr|kyr)\b|(?i:centur|millenni))`),
		rangeCont:  regexp.MustCompile(`^` + sepPattern + `(?:` + numberEndpoint + `|` + centuryEndpoint + `)`),
		listCont:   regexp.MustCompile(`^` + listSepPattern + `(?:` + eraPrefixWord + `\s*)?\d`),
		monthCont:  regexp.MustCompile(`^\s+` + monthPattern + `\b`),
		possessive: regexp.MustCompile(`^'s\b`),
	}
})

// trailerOK reports whether the text left after a match may follow a complete
// date expression. Single-value strategies additionally refuse remainders that
// continue into a range or a list, so those grammars get their turn.
func trailerOK(rest string, single bool) bool {
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	t := loadTrailer()
	if t.adjacent.MatchString(rest) || t.quantity.MatchString(rest) || t.possessive.MatchString(rest) {
		return false
	}
	if single {
		if t.rangeCont.MatchString(rest) || t.listCont.MatchString(rest) || t.monthCont.MatchString(rest) {
			return false
		}
	}
	return true
}

// submatch returns the named group of a FindStringSubmatch result, or "".
func submatch(re *regexp.Regexp, m []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return m[idx]
}

// matchPrefix runs re against text and applies the trailer rule.
func matchPrefix(re *regexp.Regexp, text string, single bool) []string {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}
	if !trailerOK(text[loc[1]:], single) {
		return nil
	}
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}
