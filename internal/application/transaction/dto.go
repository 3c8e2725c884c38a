package transaction

import (
	"time"

	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// ListTransactionsFilter represents filter options for the transaction history
type ListTransactionsFilter struct {
	Type         string     `form:"type" binding:"omitempty,oneof=Transfer Usage Restocking Procurement Checkout"`
	Kind         string     `form:"kind" binding:"omitempty,oneof=checkin checkout"`
	DepartmentID *int64     `form:"departmentId"`
	Search       string     `form:"search"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	Limit        int        `form:"limit" binding:"omitempty,min=1,max=500"`
}

// TransactionListResponse is one page of the transaction history
type TransactionListResponse struct {
	Transactions []inventoryapp.TransactionResponse `json:"transactions"`
	Total        int64                              `json:"total"`
	TotalPages   int                                `json:"totalPages"`
	CurrentPage  int                                `json:"currentPage"`
}

// MonthlyReportQuery selects the report month. Zero values mean the current month.
type MonthlyReportQuery struct {
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
	Year  int `form:"year" binding:"omitempty,min=2000,max=9999"`
}

// UsageEntryResponse is one row of the monthly outflow ranking
type UsageEntryResponse struct {
	InventoryID int64           `json:"inventoryid"`
	ItemName    string          `json:"itemname"`
	Quantity    int             `json:"quantity"`
	Share       decimal.Decimal `json:"share"`
}

// MonthlyReportResponse is the monthly report payload
type MonthlyReportResponse struct {
	Month             int                                `json:"month"`
	Year              int                                `json:"year"`
	TotalTransactions int                                `json:"totalTransactions"`
	TopUsedItems      map[int64]int                      `json:"topUsedItems"`
	TopUsage          []UsageEntryResponse               `json:"topUsage"`
	Transactions      []inventoryapp.TransactionResponse `json:"transactions"`
}

// ExportFilter selects the transactions of an export
type ExportFilter struct {
	Type         string     `form:"type" binding:"omitempty,oneof=Transfer Usage Restocking Procurement Checkout"`
	Kind         string     `form:"kind" binding:"omitempty,oneof=checkin checkout"`
	DepartmentID *int64     `form:"departmentId"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Month        int        `form:"month" binding:"omitempty,min=1,max=12"`
	Year         int        `form:"year" binding:"omitempty,min=2000,max=9999"`
}

// ExportResult is a generated file. With object storage configured the file
// is uploaded and URL is a presigned download link; otherwise Data holds
// the file for streaming.
type ExportResult struct {
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	URL         string    `json:"csvUrl,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	Data        []byte    `json:"-"`
}

// ToMonthlyReportResponse converts a domain report to its response
func ToMonthlyReportResponse(r *inventory.MonthlyReport) *MonthlyReportResponse {
	resp := &MonthlyReportResponse{
		Month:             int(r.Month),
		Year:              r.Year,
		TotalTransactions: r.TotalTransactions,
		TopUsedItems:      r.TopUsedItems,
		TopUsage:          make([]UsageEntryResponse, 0, len(r.TopUsage)),
		Transactions:      inventoryapp.ToTransactionResponses(r.Transactions),
	}
	for _, u := range r.TopUsage {
		resp.TopUsage = append(resp.TopUsage, UsageEntryResponse{
			InventoryID: u.InventoryID,
			ItemName:    u.ItemName,
			Quantity:    u.Quantity,
			Share:       u.Share,
		})
	}
	return resp
}
