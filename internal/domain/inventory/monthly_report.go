package inventory

import (
	"sort"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UsageEntry is one row of the monthly outflow ranking
type UsageEntry struct {
	InventoryID int64
	ItemName    string
	Quantity    int
	Share       decimal.Decimal
}

// MonthlyReport aggregates the transactions of one calendar month
type MonthlyReport struct {
	Month             time.Month
	Year              int
	TotalTransactions int
	// TopUsedItems maps inventory id to the summed Usage and Checkout quantity
	TopUsedItems map[int64]int
	TopUsage     []UsageEntry
	Transactions []Transaction
}

// MonthWindow returns [first day of month, first day of next month) in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) (shared.DateRange, error) {
	if month < time.January || month > time.December {
		return shared.DateRange{}, shared.NewDomainError("INVALID_INPUT", "Month must be between 1 and 12")
	}
	if year < 1 {
		return shared.DateRange{}, shared.NewDomainError("INVALID_INPUT", "Year must be positive")
	}
	if loc == nil {
		loc = time.Local
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)
	return shared.DateRange{From: &from, To: &to}, nil
}

// BuildMonthlyReport aggregates the transactions that fall inside the month.
// Transactions outside the window are ignored so callers may pass a superset.
func BuildMonthlyReport(year int, month time.Month, loc *time.Location, txs []Transaction) (*MonthlyReport, error) {
	window, err := MonthWindow(year, month, loc)
	if err != nil {
		return nil, err
	}

	report := &MonthlyReport{
		Month:        month,
		Year:         year,
		TopUsedItems: make(map[int64]int),
		TopUsage:     make([]UsageEntry, 0),
		Transactions: make([]Transaction, 0),
	}

	names := make(map[int64]string)
	totalOutflow := 0
	for _, tx := range txs {
		if !window.Contains(tx.CreatedAt) {
			continue
		}
		report.Transactions = append(report.Transactions, tx)
		if !tx.Type.IsOutflow() {
			continue
		}
		report.TopUsedItems[tx.InventoryID] += tx.Quantity
		names[tx.InventoryID] = tx.ItemName
		totalOutflow += tx.Quantity
	}
	report.TotalTransactions = len(report.Transactions)

	for id, qty := range report.TopUsedItems {
		share := decimal.Zero
		if totalOutflow > 0 {
			share = decimal.NewFromInt(int64(qty)).Div(decimal.NewFromInt(int64(totalOutflow))).Round(2)
		}
		report.TopUsage = append(report.TopUsage, UsageEntry{
			InventoryID: id,
			ItemName:    names[id],
			Quantity:    qty,
			Share:       share,
		})
	}
	sort.Slice(report.TopUsage, func(i, j int) bool {
		if report.TopUsage[i].Quantity != report.TopUsage[j].Quantity {
			return report.TopUsage[i].Quantity > report.TopUsage[j].Quantity
		}
		return report.TopUsage[i].InventoryID < report.TopUsage[j].InventoryID
	})

	return report, nil
}
