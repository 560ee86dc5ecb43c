package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/oakmere/invoiceparse/internal/extract"
	"github.com/oakmere/invoiceparse/internal/parse"
	"github.com/oakmere/invoiceparse/internal/rules"
)

// ProcessedInvoice is the orchestrator's output for one file.
type ProcessedInvoice struct {
	SourceFile string           `json:"source_file"`
	Metadata   parse.Metadata   `json:"metadata"`
	LineItems  []parse.LineItem `json:"line_items"`
	Prefill    FormData         `json:"prefill"`
	Trace      parse.Trace      `json:"trace,omitempty"`
}

// FormData is the derived prefill view a downstream form starts from. Not
// canonical; a reviewer edits it before anything is persisted. Missing
// fields default to empty strings, the date to today.
type FormData struct {
	InvoiceNumber    string `json:"invoice_number"`
	InvoiceReference string `json:"invoice_reference"`
	Date             string `json:"date"`
	SiteName         string `json:"site_name"`
	SupplierName     string `json:"supplier_name"`
	TotalAmount      string `json:"total_amount"`
	VATAmount        string `json:"vat_amount"`
	CategoryID       string `json:"category_id"`
	SupplierID       string `json:"supplier_id"`
	SiteID           string `json:"site_id"`
}

// Processor runs text extraction, metadata parsing and line-item parsing
// for one file. Stateless across invocations: the rule list is the only
// shared input and it is read-only.
type Processor struct {
	logger    *slog.Logger
	extractor extract.TextExtractor
	metadata  *parse.MetadataExtractor
	lineItems *parse.LineItemExtractor
}

func NewProcessor(logger *slog.Logger, extractor extract.TextExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		metadata:  parse.NewMetadataExtractor(logger),
		lineItems: parse.NewLineItemExtractor(logger),
	}
}

// ProcessInvoice runs the full chain for one file. Only a text-extraction
// failure is returned as an error; everything downstream degrades to nils
// and empty slices.
func (p *Processor) ProcessInvoice(ctx context.Context, path string, ruleSet []rules.Rule) (*ProcessedInvoice, error) {
	ext, err := p.extractor.Extract(ctx, path)
	if err != nil {
		p.logger.Error("processor.extract.failed", "path", path, "error", err)
		return nil, err
	}
	p.logger.Info("processor.extract.ok",
		"path", path,
		"pages", ext.Pages,
		"text_bytes", len(ext.FullText),
		"fragments", len(ext.Fragments),
	)

	md, trace := p.metadata.Extract(ext.FullText, ruleSet)

	items, itemTrace := p.lineItems.Extract(ext.Fragments)
	trace = append(trace, itemTrace...)

	inv := &ProcessedInvoice{
		SourceFile: path,
		Metadata:   md,
		LineItems:  items,
		Prefill:    buildPrefill(md),
		Trace:      trace,
	}
	p.logger.Info("processor.parse.ok",
		"path", path,
		"line_items", len(items),
		"invoice_number", inv.Prefill.InvoiceNumber,
	)
	return inv, nil
}

func buildPrefill(md parse.Metadata) FormData {
	f := FormData{
		Date: time.Now().UTC().Format("2006-01-02"),
	}
	if md.InvoiceNumber != nil {
		f.InvoiceNumber = *md.InvoiceNumber
	}
	if md.InvoiceReference != nil {
		f.InvoiceReference = *md.InvoiceReference
	}
	if md.Date != nil {
		f.Date = *md.Date
	}
	if md.SiteName != nil {
		f.SiteName = *md.SiteName
	}
	if md.SupplierName != nil {
		f.SupplierName = *md.SupplierName
	}
	if md.TotalAmount != nil {
		f.TotalAmount = md.TotalAmount.StringFixed(2)
	}
	if md.VATAmount != nil {
		f.VATAmount = md.VATAmount.StringFixed(2)
	}
	if md.RuleCategoryID != nil {
		f.CategoryID = md.RuleCategoryID.String()
	}
	if md.RuleSupplierID != nil {
		f.SupplierID = md.RuleSupplierID.String()
	}
	if md.RuleSiteID != nil {
		f.SiteID = md.RuleSiteID.String()
	}
	return f
}
