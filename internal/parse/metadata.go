package parse

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmere/invoiceparse/constants"
	"github.com/oakmere/invoiceparse/internal/rules"
)

// Metadata is the structured header data recovered from one invoice.
// Every field degrades independently to nil when no heuristic produced a
// plausible value. Immutable once returned.
type Metadata struct {
	InvoiceNumber    *string          `json:"invoice_number"`
	InvoiceReference *string          `json:"invoice_reference"`
	Date             *string          `json:"date"`
	SiteName         *string          `json:"site_name"`
	SupplierName     *string          `json:"supplier_name"`
	TotalAmount      *decimal.Decimal `json:"total_amount"`
	VATAmount        *decimal.Decimal `json:"vat_amount"`
	RuleCategoryID   *uuid.UUID       `json:"rule_category_id"`
	RuleSupplierID   *uuid.UUID       `json:"rule_supplier_id"`
	RuleSiteID       *uuid.UUID       `json:"rule_site_id"`
}

type MetadataExtractor struct {
	logger *slog.Logger
}

func NewMetadataExtractor(logger *slog.Logger) *MetadataExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataExtractor{logger: logger}
}

// Extract runs every field cascade over the invoice text. It never fails:
// a field with no acceptable capture is nil, and the trace records which
// heuristics were attempted and why losers lost.
func (e *MetadataExtractor) Extract(text string, ruleSet []rules.Rule) (Metadata, Trace) {
	var (
		md Metadata
		tr Trace
	)

	md.InvoiceNumber = firstMatch("invoice_number", text, invoiceNumberPatterns, &tr)

	if raw := firstMatch("date", text, datePatterns, &tr); raw != nil {
		d := NormalizeDate(*raw)
		md.Date = &d
	}

	matched := rules.Match(text, ruleSet)
	var replacements []string
	if matched != nil {
		md.RuleCategoryID = matched.DefaultCategoryID
		md.RuleSupplierID = matched.SupplierID
		md.RuleSiteID = matched.DefaultSiteID
		replacements = matched.SiteNameReplacements
		tr.add("rule", 0, true, "")
		e.logger.Debug("metadata.rule.matched", "rule_id", matched.ID, "pattern", matched.TextPattern, "priority", matched.Priority)
	} else {
		tr.add("rule", 0, false, "no rule fingerprint in text")
	}

	md.InvoiceReference = firstMatch("invoice_reference", text, referencePatterns, &tr)
	md.SiteName = extractSiteName(text, replacements, &tr)
	md.TotalAmount = firstAmount("total_amount", text, totalAmountPatterns, &tr)
	md.VATAmount = firstAmount("vat_amount", text, vatAmountPatterns, &tr)

	if name, ok := constants.IdentifySupplier(text); ok {
		md.SupplierName = &name
		tr.add("supplier_name", 0, true, "")
	} else {
		tr.add("supplier_name", 0, false, "no known supplier fingerprint")
	}

	e.logger.Debug("metadata.extracted",
		"invoice_number", deref(md.InvoiceNumber),
		"date", deref(md.Date),
		"site", deref(md.SiteName),
		"supplier", deref(md.SupplierName),
		"rule_matched", matched != nil,
	)
	return md, tr
}

func firstAmount(field, text string, cascade []heuristic, tr *Trace) *decimal.Decimal {
	raw := firstMatch(field, text, cascade, tr)
	if raw == nil {
		return nil
	}
	d, err := ParseAmount(*raw)
	if err != nil {
		// validators already parsed the capture; not reachable in practice
		return nil
	}
	return &d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
