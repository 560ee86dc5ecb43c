package export

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/oakmere/invoiceparse/internal/pipeline"
)

// Service produces XLSX bytes summarizing a batch run: one Invoices sheet
// with the extracted metadata per file, one Line Items sheet with every
// recognized item, failures included on the first sheet with their error.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

const (
	invoiceSheet = "Invoices"
	itemSheet    = "Line Items"
)

func (s *Service) BatchReportXLSX(results []pipeline.BatchResult) ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemSheet); err != nil {
		return nil, err
	}

	invoiceHeaders := []string{
		"Source File",
		"Invoice Number",
		"Reference",
		"Date",
		"Site",
		"Supplier",
		"Total",
		"VAT",
		"Line Items",
		"Error",
	}
	for i, h := range invoiceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(invoiceSheet, cell, h)
	}

	itemHeaders := []string{
		"Source File",
		"Product Code",
		"Product Name",
		"Quantity",
		"Unit",
		"Unit Price",
		"Line Total",
	}
	for i, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemSheet, cell, h)
	}

	invRow, itemRow := 2, 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, invRow)
			_ = f.SetCellValue(invoiceSheet, cell, v)
		}
		write(1, r.SourceFile)

		if r.Err != nil {
			write(10, r.Err.Error())
			invRow++
			continue
		}

		p := r.Invoice.Prefill
		write(2, p.InvoiceNumber)
		write(3, p.InvoiceReference)
		write(4, p.Date)
		write(5, p.SiteName)
		write(6, p.SupplierName)
		write(7, p.TotalAmount)
		write(8, p.VATAmount)
		write(9, len(r.Invoice.LineItems))
		invRow++

		for _, it := range r.Invoice.LineItems {
			writeItem := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, itemRow)
				_ = f.SetCellValue(itemSheet, cell, v)
			}
			writeItem(1, r.SourceFile)
			writeItem(2, it.ProductCode)
			writeItem(3, it.ProductName)
			writeItem(4, it.Quantity.String())
			writeItem(5, it.Unit)
			writeItem(6, it.PricePerUnit.StringFixed(2))
			writeItem(7, it.TotalPrice.StringFixed(2))
			itemRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.batch_report.ok", "invoices", invRow-2, "line_items", itemRow-2)
	return buf.Bytes(), nil
}
