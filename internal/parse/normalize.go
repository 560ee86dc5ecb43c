package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	annotationRe = regexp.MustCompile(`\s*\((?:A|F|FS|AS)\)\s*$`)
)

// NormalizeDate converts dd/mm/yy[yy] (slash or dash separated) to ISO
// yyyy-mm-dd. Two-digit years get a "20" prefix, day and month are
// zero-padded.
//
// A string that does not split into exactly three parts is returned
// unmodified. Downstream form prefill relies on receiving something here
// rather than an empty value, so the fallthrough stays.
func NormalizeDate(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return raw
	}
	day, month, year := parts[0], parts[1], parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month + "-" + day
}

// NormalizeProductName collapses internal whitespace and strips trailing
// parenthetical annotation codes like (A), (F), (FS), (AS).
func NormalizeProductName(raw string) string {
	s := spaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	for {
		stripped := strings.TrimSpace(annotationRe.ReplaceAllString(s, ""))
		if stripped == s {
			return s
		}
		s = stripped
	}
}

// ParseAmount parses a currency capture: currency sign and thousands
// separators removed.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(raw, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(strings.TrimSpace(s))
}
