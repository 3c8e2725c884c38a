package export

import (
	"fmt"
	"time"

	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of spreadsheet exports
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	usageSheet        = "Usage"
	transactionsSheet = "Transactions"
)

var usageHeaders = []string{"Inventory ID", "Item", "Quantity", "Share"}

// MonthlyReportXLSX renders a monthly report as a workbook with a usage
// ranking sheet and a transaction sheet
func MonthlyReportXLSX(report *inventory.MonthlyReport, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", usageSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s %d", report.Month, report.Year)
	if err := f.SetCellValue(usageSheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(usageSheet, "C1", fmt.Sprintf("Transactions: %d", report.TotalTransactions)); err != nil {
		return nil, err
	}
	if err := writeHeader(f, usageSheet, 2, usageHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, u := range report.TopUsage {
		row := []any{u.InventoryID, u.ItemName, u.Quantity, u.Share.InexactFloat64()}
		if err := writeRow(f, usageSheet, i+3, row); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, transactionsSheet, 1, TransactionCSVHeader, headerStyle); err != nil {
		return nil, err
	}
	for i, tx := range report.Transactions {
		var dept any
		if tx.DepartmentID != nil {
			dept = *tx.DepartmentID
		}
		row := []any{
			tx.ID, tx.ItemName, tx.InventoryID, dept, string(tx.Type),
			tx.Quantity, tx.PerformedBy, string(tx.Verification),
			tx.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, transactionsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(usageSheet, "B", "B", 28)
	_ = f.SetColWidth(transactionsSheet, "B", "B", 28)
	_ = f.SetColWidth(transactionsSheet, "I", "I", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
