// Package export renders transaction history into downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/hospital-erp/backend/internal/domain/inventory"
)

// CSVContentType is the MIME type of CSV exports
const CSVContentType = "text/csv"

// TransactionCSVHeader is the column order of transaction CSV exports
var TransactionCSVHeader = []string{
	"id", "itemname", "inventoryid", "departmentId", "transactiontype",
	"quantity", "performedby", "verification", "createdAt",
}

// TransactionsCSV renders transactions as CSV with timestamps in loc
func TransactionsCSV(txs []inventory.Transaction, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(TransactionCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, tx := range txs {
		dept := ""
		if tx.DepartmentID != nil {
			dept = strconv.FormatInt(*tx.DepartmentID, 10)
		}
		record := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.ItemName,
			strconv.FormatInt(tx.InventoryID, 10),
			dept,
			string(tx.Type),
			strconv.Itoa(tx.Quantity),
			tx.PerformedBy,
			string(tx.Verification),
			tx.CreatedAt.In(loc).Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
