package parse

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oakmere/invoiceparse/constants"
	"github.com/oakmere/invoiceparse/internal/extract"
)

// LineItem is one recognized invoice line. Immutable once returned.
type LineItem struct {
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// lineClusterTolerance is the vertical distance (in PDF units) within
// which fragments belong to the same visual line.
const lineClusterTolerance = 5.0

// minLineLength filters out fragments too short to be an item line.
const minLineLength = 10

// boilerplateKeywords mark non-item lines (headers, totals, terms).
var boilerplateKeywords = []string{
	"VAT Code",
	"VAT Rate",
	"Currency",
	"Payment within",
	"All items included",
	"Total Goods",
	"TOTAL",
}

var (
	// Format A: short alphanumeric code, name, qty, unit, £unit, £total, V flag.
	formatARe = regexp.MustCompile(`^([A-Za-z0-9]{4,5})\s+(.+?)\s+(\d+)\s+(CASE|SINGLE|PACK\d+|BOX)\s+£?(\d+(?:\.\d+)?)\s+£?(\d[\d,]*(?:\.\d+)?)\s+V\b`)
	// Format B: 5-digit code, name, qty, unit token, price, value, VAT code.
	formatBRe = regexp.MustCompile(`^(\d{5})\s+(.+?)\s+(\d+)\s+([A-Za-z]+)\s+(\d+(?:\.\d+)?)\s+(\d+(?:\.\d+)?)\s+(\d{1,2})\s*$`)

	fallbackCodeRe = regexp.MustCompile(`^(\d{4,6}|[A-Za-z]{1,3}\d{4,6})\b`)
	numericLeadRe  = regexp.MustCompile(`^(\d+(?:\.\d+)?)`)
	decimalTokenRe = regexp.MustCompile(`^\d+\.\d+`)
	intRe          = regexp.MustCompile(`^\d{1,2}$`)
	plainNumberRe  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// LineItemExtractor recovers purchased items from positioned fragments.
// Formats are tried strictest-first per line; the aggressive numeric
// fallback trades precision for recall and can be switched off.
type LineItemExtractor struct {
	logger *slog.Logger

	// DisableFallback turns off the last-resort numeric heuristic.
	DisableFallback bool
}

func NewLineItemExtractor(logger *slog.Logger) *LineItemExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineItemExtractor{logger: logger}
}

// Extract clusters fragments into visual lines and runs the format cascade
// on each. Never fails: lines nothing recognizes are simply omitted.
func (e *LineItemExtractor) Extract(frags []extract.Fragment) ([]LineItem, Trace) {
	var (
		items []LineItem
		tr    Trace
	)
	for _, line := range ClusterLines(frags) {
		if len(line) < minLineLength {
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		item, patternIdx := e.matchLine(line)
		if item == nil {
			tr.add("line_item", -1, false, "no format matched: "+truncateLine(line))
			continue
		}
		tr.add("line_item", patternIdx, true, "")
		items = append(items, *item)
	}
	e.logger.Debug("lineitems.extracted", "fragments", len(frags), "items", len(items))
	return items, tr
}

// ClusterLines groups fragments into visual lines: a fragment whose
// vertical coordinate is within tolerance of the previous fragment joins
// its cluster. Fragments keep their original left-to-right order; clusters
// are joined with single spaces.
func ClusterLines(frags []extract.Fragment) []string {
	if len(frags) == 0 {
		return nil
	}
	var (
		lines   []string
		current []string
	)
	prev := frags[0]
	current = append(current, frags[0].Text)
	for _, f := range frags[1:] {
		dy := f.Y - prev.Y
		if dy < 0 {
			dy = -dy
		}
		if f.Page != prev.Page || dy > lineClusterTolerance {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, f.Text)
		prev = f
	}
	lines = append(lines, strings.Join(current, " "))
	return lines
}

func isBoilerplate(line string) bool {
	for _, kw := range boilerplateKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// matchLine applies the format cascade and returns the first acceptable
// item plus the index of the format that produced it (0-based, matching
// the documented cascade order).
func (e *LineItemExtractor) matchLine(line string) (*LineItem, int) {
	line = strings.TrimSpace(line)

	if item := matchFormatA(line); item != nil {
		return item, 0
	}
	if item := matchFormatB(line); item != nil {
		return item, 1
	}
	if item := matchFormatALoose(line); item != nil {
		return item, 2
	}
	if item := matchFormatBLoose(line); item != nil {
		return item, 3
	}
	if !e.DisableFallback {
		if item := matchFallback(line); item != nil {
			return item, 4
		}
	}
	return nil, -1
}

func matchFormatA(line string) *LineItem {
	m := formatARe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return buildItem(m[1], m[2], m[3], m[4], m[5], m[6])
}

func matchFormatB(line string) *LineItem {
	m := formatBRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return buildItem(m[1], m[2], m[3], m[4], m[5], m[6])
}

// matchFormatALoose re-derives Format A from whitespace tokens: locate the
// last standalone V flag and walk back four tokens (qty, unit, unit price,
// total). Everything between the code and that window is the name.
func matchFormatALoose(line string) *LineItem {
	toks := strings.Fields(line)
	vIdx := -1
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i] == "V" {
			vIdx = i
			break
		}
	}
	if vIdx < 5 {
		return nil
	}
	qty, unit, price, total := toks[vIdx-4], toks[vIdx-3], toks[vIdx-2], toks[vIdx-1]
	if !plainNumberRe.MatchString(qty) || !plainNumberRe.MatchString(stripCurrency(price)) {
		return nil
	}
	name := strings.Join(toks[1:vIdx-4], " ")
	return buildItem(toks[0], name, qty, unit, price, total)
}

// matchFormatBLoose re-derives Format B from tokens: the last token must be
// a 1-2 digit VAT rate; walking back gives RRP, value, price, unit, qty.
func matchFormatBLoose(line string) *LineItem {
	toks := strings.Fields(line)
	n := len(toks)
	if n < 8 {
		return nil
	}
	if !intRe.MatchString(toks[n-1]) {
		return nil
	}
	qty, unit, price, value := toks[n-6], toks[n-5], toks[n-4], toks[n-3]
	if !plainNumberRe.MatchString(qty) || !plainNumberRe.MatchString(stripCurrency(price)) {
		return nil
	}
	name := strings.Join(toks[1:n-6], " ")
	return buildItem(toks[0], name, qty, unit, price, value)
}

// matchFallback is the last-resort heuristic: a leading code token, then at
// least two decimal numbers somewhere on the line. The first numeric-led
// token is the quantity, the second-to-last numeric is the line total, the
// one before that the unit price. Low confidence on unusual layouts; kept
// permissive on purpose.
func matchFallback(line string) *LineItem {
	cm := fallbackCodeRe.FindStringSubmatch(line)
	if cm == nil {
		return nil
	}
	code := cm[1]
	rest := strings.TrimSpace(line[len(code):])
	toks := strings.Fields(rest)

	var (
		nums      []decimal.Decimal
		nameToks  []string
		decimals  int
		sawNumber bool
	)
	for _, t := range toks {
		m := numericLeadRe.FindStringSubmatch(t)
		if m != nil {
			sawNumber = true
			if d, err := decimal.NewFromString(m[1]); err == nil {
				nums = append(nums, d)
			}
			if decimalTokenRe.MatchString(t) {
				decimals++
			}
			continue
		}
		if !sawNumber {
			nameToks = append(nameToks, t)
		}
	}
	if decimals < 2 || len(nums) < 2 {
		return nil
	}

	name := NormalizeProductName(strings.Join(nameToks, " "))
	if len(name) < 3 {
		return nil
	}

	qty := nums[0]
	total := nums[len(nums)-2]
	price := total
	if len(nums) >= 3 {
		price = nums[len(nums)-3]
	}
	if !qty.IsPositive() || total.IsNegative() || price.IsNegative() {
		return nil
	}
	return &LineItem{
		ProductCode:  code,
		ProductName:  name,
		Quantity:     qty,
		Unit:         string(constants.UnitUnknown),
		PricePerUnit: price,
		TotalPrice:   total,
	}
}

// buildItem validates and assembles an item from raw captures; nil when
// the numbers do not hold up.
func buildItem(code, name, qty, unit, price, total string) *LineItem {
	q, err := decimal.NewFromString(stripCurrency(qty))
	if err != nil || !q.IsPositive() {
		return nil
	}
	p, err := ParseAmount(price)
	if err != nil || p.IsNegative() {
		return nil
	}
	t, err := ParseAmount(total)
	if err != nil || t.IsNegative() {
		return nil
	}
	cleanName := NormalizeProductName(name)
	if cleanName == "" {
		return nil
	}
	return &LineItem{
		ProductCode:  strings.TrimSpace(code),
		ProductName:  cleanName,
		Quantity:     q,
		Unit:         string(constants.NormalizeUnit(unit)),
		PricePerUnit: p,
		TotalPrice:   t,
	}
}

func stripCurrency(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "£", ""), ",", ""))
}

func truncateLine(s string) string {
	if len(s) <= 40 {
		return s
	}
	return s[:40] + "…"
}
