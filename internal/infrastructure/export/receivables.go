// Package export renders settlement data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	salesapp "github.com/solarerp/backend/internal/application/sales"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of the files written here
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const receivablesSheet = "Receivables"

var receivableHeaders = []string{"#", "Description", "Entry", "Due date", "Amount", "Status", "Paid at", "Notes"}

// ReceivablesFileName is the attachment name for a sale's schedule
func ReceivablesFileName(saleNumber string) string {
	return fmt.Sprintf("receivables-%s.xlsx", saleNumber)
}

// WriteReceivables writes the payment schedule of a sale as one sheet, a
// header block with the sale followed by one row per receivable in index order
func WriteReceivables(w io.Writer, detail *salesapp.SaleDetailResponse) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", receivablesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sale := detail.Sale
	header := [][]any{
		{"Sale", sale.SaleNumber},
		{"Payment method", sale.PaymentMethod},
		{"Status", sale.Status},
		{"Total", sale.TotalAmount.InexactFloat64()},
	}
	for i, row := range header {
		if err := f.SetSheetRow(receivablesSheet, cell(1, i+1), &row); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	tableStart := len(header) + 2
	headers := make([]any, len(receivableHeaders))
	for i, h := range receivableHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(receivablesSheet, cell(1, tableStart), &headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(receivablesSheet, cell(1, tableStart), cell(len(receivableHeaders), tableStart), bold); err != nil {
		return fmt.Errorf("style headers: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	for i, r := range detail.Receivables {
		rowNo := tableStart + 1 + i
		entry := "no"
		if r.IsEntry {
			entry = "yes"
		}
		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.Format(time.DateOnly)
		}
		row := []any{
			r.InstallmentIndex,
			r.Description,
			entry,
			r.DueDate.Format(time.DateOnly),
			r.Amount.InexactFloat64(),
			r.Status,
			paidAt,
			r.Notes,
		}
		if err := f.SetSheetRow(receivablesSheet, cell(1, rowNo), &row); err != nil {
			return fmt.Errorf("write receivable %d: %w", r.InstallmentIndex, err)
		}
	}
	if n := len(detail.Receivables); n > 0 {
		if err := f.SetCellStyle(receivablesSheet, cell(5, tableStart+1), cell(5, tableStart+n), money); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}
	_ = f.SetColWidth(receivablesSheet, "B", "B", 28)
	_ = f.SetColWidth(receivablesSheet, "D", "G", 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
