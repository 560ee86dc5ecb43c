package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// heuristic is one step of a field cascade: a pattern plus a plausibility
// check on its capture. Heuristics run in order; the first whose capture
// passes validation wins. A rejected capture behaves exactly like no match.
type heuristic struct {
	re *regexp.Regexp
	// validate returns a non-empty reason to reject the capture.
	validate func(string) string
	// takeLast picks the last occurrence in the text instead of the first
	// (used for trailing line-end amounts).
	takeLast bool
}

func lengthBetween(min, max int, forbidden ...string) func(string) string {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if len(v) < min || len(v) > max {
			return fmt.Sprintf("length %d outside [%d,%d]", len(v), min, max)
		}
		for _, f := range forbidden {
			if strings.EqualFold(v, f) {
				return "literal label " + f
			}
		}
		return ""
	}
}

func amountBetween(min, max decimal.Decimal, minExclusive bool) func(string) string {
	return func(v string) string {
		d, err := ParseAmount(v)
		if err != nil {
			return "not a number: " + err.Error()
		}
		if minExclusive {
			if d.Cmp(min) <= 0 {
				return fmt.Sprintf("%s not above %s", d, min)
			}
		} else if d.Cmp(min) < 0 {
			return fmt.Sprintf("%s below %s", d, min)
		}
		if d.Cmp(max) >= 0 {
			return fmt.Sprintf("%s not under %s", d, max)
		}
		return ""
	}
}

const dateCapture = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`
const amountCapture = `([0-9][0-9,]*\.\d{2})`

var (
	invoiceNumberPatterns = []heuristic{
		{re: regexp.MustCompile(`(?i)invoice\s+no\b\.?\s*:?\s*([A-Za-z0-9][A-Za-z0-9/-]*)`), validate: lengthBetween(5, 12, "Invoice", "Order")},
		{re: regexp.MustCompile(`(?i)invoice\s*:\s*([A-Za-z0-9][A-Za-z0-9/-]*)`), validate: lengthBetween(5, 12, "Invoice", "Order")},
		// positional: six digits then a dd/mm/yy date at line start
		{re: regexp.MustCompile(`(?m)^\s*(\d{6})\s+\d{2}/\d{2}/\d{2}`), validate: lengthBetween(5, 12)},
		// positional: letter plus seven digits at line start
		{re: regexp.MustCompile(`(?m)^\s*([A-Za-z]\d{7})\b`), validate: lengthBetween(5, 12)},
	}

	datePatterns = []heuristic{
		{re: regexp.MustCompile(`(?i)\bdate\s*:?\s*` + dateCapture)},
		{re: regexp.MustCompile(`(?i)tax\s+point\s+date\s*:?\s*` + dateCapture)},
		{re: regexp.MustCompile(`(?i)invoice\s+date\s*:?\s*` + dateCapture)},
	}

	referencePatterns = []heuristic{
		{re: regexp.MustCompile(`(?i)your\s+order\s+no\b\.?\s*:?\s*(\S+)`), validate: lengthBetween(3, 30)},
		{re: regexp.MustCompile(`(?i)order\s+no\b\.?\s*:?\s*(\S+)`), validate: lengthBetween(3, 30)},
		{re: regexp.MustCompile(`(?i)\breference\s*:?\s*(\S+)`), validate: lengthBetween(3, 30)},
	}

	totalBound = amountBetween(decimal.NewFromInt(10), decimal.NewFromInt(100000), false)
	vatBound   = amountBetween(decimal.Zero, decimal.NewFromInt(50000), true)

	totalAmountPatterns = []heuristic{
		{re: regexp.MustCompile(`(?i)total\s+amount\s*:?\s*£?\s*` + amountCapture), validate: totalBound},
		{re: regexp.MustCompile(`(?i)\btotal\b\s*:?\s*£?\s*` + amountCapture), validate: totalBound},
		// last line-trailing currency value in the document
		{re: regexp.MustCompile(`(?m)£\s*` + amountCapture + `\s*$`), validate: totalBound, takeLast: true},
	}

	vatAmountPatterns = []heuristic{
		{re: regexp.MustCompile(`(?i)VAT\s*@\s*\d+(?:\.\d+)?\s*%\s*:?\s*£?\s*` + amountCapture), validate: vatBound},
		{re: regexp.MustCompile(`(?i)VAT\s+Amount\s*:?\s*£?\s*` + amountCapture), validate: vatBound},
		{re: regexp.MustCompile(`(?i)Total\s+VAT\s*:?\s*£?\s*` + amountCapture), validate: vatBound},
		{re: regexp.MustCompile(`(?i)Value\s+Added\s+Tax\s*:?\s*£?\s*` + amountCapture), validate: vatBound},
	}
)

// firstMatch walks a cascade and returns the first capture that passes
// validation, recording every attempt in the trace. Returns nil when the
// cascade is exhausted; never an error.
func firstMatch(field, text string, cascade []heuristic, tr *Trace) *string {
	for i, h := range cascade {
		var m []string
		if h.takeLast {
			all := h.re.FindAllStringSubmatch(text, -1)
			if len(all) > 0 {
				m = all[len(all)-1]
			}
		} else {
			m = h.re.FindStringSubmatch(text)
		}
		if m == nil {
			tr.add(field, i, false, "no match")
			continue
		}
		capture := strings.TrimSpace(m[1])
		if h.validate != nil {
			if reason := h.validate(capture); reason != "" {
				tr.add(field, i, false, reason)
				continue
			}
		}
		tr.add(field, i, true, "")
		return &capture
	}
	return nil
}
