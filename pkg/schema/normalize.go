package schema

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// clock exports render numeric IDs as floats ("1234.0")
	floatSuffixRe = regexp.MustCompile(`\.0+$`)
)

// Organisational prefix the clock system puts in front of shop names.
const clockShopPrefix = "ES - SHOP - "

// NormalizeName folds a person name for comparison:
//  1. lowercase and trim
//  2. strip diacritics (NFD decompose, drop combining marks)
//  3. collapse whitespace
//  4. "Last, First" becomes "first last"
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return s
	}
	s = stripDiacritics(s)
	s = whitespaceRe.ReplaceAllString(s, " ")

	if parts := strings.SplitN(s, ",", 2); len(parts) == 2 {
		first := strings.TrimSpace(parts[1])
		last := strings.TrimSpace(parts[0])
		if first != "" && last != "" {
			s = first + " " + last
		}
	}
	return strings.TrimSpace(s)
}

// stripDiacritics removes accents: NFD decomposition splits 'é' into 'e' plus
// a combining mark, and the marks (unicode.Mn) are dropped.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

var titleCaser = cases.Title(language.Spanish)

// TitleName renders a display name in title case ("ANA GARCÍA" -> "Ana García").
func TitleName(name string) string {
	return titleCaser.String(whitespaceRe.ReplaceAllString(strings.TrimSpace(name), " "))
}

// Accepted textual timestamp layouts, tried in order. Day-first layouts
// follow the Spanish regional exports.
var timestampLayouts = []struct {
	layout  string
	hasZone bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.000-0700", true},
	{"2006-01-02T15:04:05-0700", true},
	{"2006-01-02 15:04:05-07:00", true},
	{"2006-01-02T15:04:05.000", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05.000", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"02/01/2006 15:04:05", false},
	{"02/01/2006 15:04", false},
	{"2/1/2006 15:04:05", false},
	{"2/1/2006 15:04", false},
	{"02-01-2006 15:04:05", false},
	{"2006-01-02", false},
	{"02/01/2006", false},
	{"2/1/2006", false},
}

// ParseTimestamp parses an export cell into a time. It accepts the textual
// layouts above and Excel serial numbers. hasZone reports whether the value
// carried an explicit offset; naive values are wall-clock times the caller
// must place in the source timezone. ok is false for empty or unparseable
// cells.
func ParseTimestamp(s string) (t time.Time, hasZone bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return time.Time{}, false, false
	}
	for _, l := range timestampLayouts {
		if parsed, err := time.Parse(l.layout, s); err == nil {
			return parsed, l.hasZone, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		parsed, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			// excelize returns the wall clock in UTC; keep it naive
			return parsed.Round(time.Second), false, true
		}
	}
	return time.Time{}, false, false
}

// ParseBool accepts the boolean spellings found across the exports.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "1.0", "yes", "y", "si", "sí", "verdadero", "x":
		return true
	}
	return false
}

// ParseNumber parses a number, accepting a decimal comma ("0,5").
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeCategory maps raw appointment macro-categories onto the reporting
// categories: missing values are first visits, fittings count as pre-sales
// and "Post-Sales" is the legacy spelling of after-sales.
func NormalizeCategory(raw string) string {
	c := strings.TrimSpace(raw)
	switch {
	case c == "" || strings.EqualFold(c, "nan") || strings.EqualFold(c, "na"):
		return "First Visit"
	case strings.EqualFold(c, "fitting"):
		return "Pre-Sales"
	case strings.EqualFold(c, "post-sales"):
		return "After-Sales"
	}
	return c
}

// CleanHRID strips float artefacts from clock system IDs. "nan" and blanks
// become "".
func CleanHRID(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return floatSuffixRe.ReplaceAllString(s, "")
}

// CleanClockShop removes the organisational prefix from a clock shop name and
// straightens typographic apostrophes.
func CleanClockShop(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, clockShopPrefix)
	s = strings.ReplaceAll(s, "’", "'")
	return strings.TrimSpace(s)
}

// ShopCodeFromDescr extracts the 3-character shop code from an HR
// "<code> - <description>" cell.
func ShopCodeFromDescr(descr string) string {
	s := strings.TrimSpace(descr)
	if len(s) < 3 {
		return s
	}
	return s[:3]
}

// CleanCode trims identifiers that spreadsheets may have rendered as floats.
func CleanCode(raw string) string {
	return floatSuffixRe.ReplaceAllString(strings.TrimSpace(raw), "")
}
