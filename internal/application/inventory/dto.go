package inventory

import (
	"time"

	"github.com/hospital-erp/backend/internal/domain/inventory"
)

// BatchInput is one batch delivered by a restock
type BatchInput struct {
	Quantity   int        `json:"quantity" binding:"required,gt=0"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Supplier   string     `json:"supplier,omitempty" binding:"max=200"`
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID         int64      `json:"id,omitempty"`
	Quantity   int        `json:"quantity"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Supplier   string     `json:"supplier,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// ItemResponse represents a stock item of either ledger. Warehouse items
// carry thresholds; department items carry their department id.
type ItemResponse struct {
	ID                int64           `json:"id"`
	ItemName          string          `json:"itemname"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	DepartmentID      *int64          `json:"departmentId,omitempty"`
	MinimumStockLevel int             `json:"minimumStockLevel"`
	RestockThreshold  int             `json:"restockThreshold"`
	Supplier          string          `json:"supplier,omitempty"`
	Quantity          int             `json:"quantity"`
	IsLowStock        bool            `json:"isLowStock"`
	Batches           []BatchResponse `json:"batches"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID              int64     `json:"id"`
	ItemName        string    `json:"itemname"`
	InventoryID     int64     `json:"inventoryid"`
	DepartmentID    *int64    `json:"departmentId,omitempty"`
	TransactionType string    `json:"transactiontype"`
	Quantity        int       `json:"quantity"`
	PerformedBy     string    `json:"performedby"`
	Verification    string    `json:"verification"`
	RequestID       *int64    `json:"requestId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ListItemsFilter narrows a ledger listing
type ListItemsFilter struct {
	Search       string `form:"search"`
	DepartmentID int64  `form:"departmentId"`
}

// AddItemRequest creates a warehouse item, optionally with opening batches
type AddItemRequest struct {
	ItemName          string       `json:"itemname" binding:"required,min=1,max=200"`
	Category          string       `json:"category" binding:"max=100"`
	Unit              string       `json:"unit" binding:"max=50"`
	MinimumStockLevel int          `json:"minimumStockLevel" binding:"min=0"`
	RestockThreshold  int          `json:"restockThreshold" binding:"min=0"`
	Supplier          string       `json:"supplier" binding:"max=200"`
	Batches           []BatchInput `json:"batches" binding:"omitempty,dive"`
}

// RestockRequest appends batches to a warehouse item
type RestockRequest struct {
	Batches []BatchInput `json:"batches" binding:"required,min=1,dive"`
}

// TransferRequest moves warehouse stock into a department
type TransferRequest struct {
	ItemName     string `json:"itemName" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	DepartmentID int64  `json:"departmentId" binding:"required,gt=0"`
}

// CheckoutItemRequest takes stock out of a ledger without a request
type CheckoutItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// MovementResponse is the result of a ledger mutation: the item after the
// change and the transaction recorded for it
type MovementResponse struct {
	Item        ItemResponse        `json:"item"`
	Transaction TransactionResponse `json:"transaction"`
}

// TransferResponse is the result of a warehouse to department transfer
type TransferResponse struct {
	Source      ItemResponse        `json:"source"`
	Item        ItemResponse        `json:"item"`
	Transaction TransactionResponse `json:"transaction"`
}

// LedgerResponse is the listing of one ledger
type LedgerResponse struct {
	Inventory []ItemResponse `json:"inventory"`
}

// ItemEnvelope wraps a single item
type ItemEnvelope struct {
	Item ItemResponse `json:"item"`
}

// ToItemResponse converts a domain item to its response
func ToItemResponse(item *inventory.StockItem) ItemResponse {
	resp := ItemResponse{
		ID:                item.ID,
		ItemName:          item.ItemName,
		Category:          item.Category,
		Unit:              item.Unit,
		MinimumStockLevel: item.MinimumStockLevel,
		RestockThreshold:  item.RestockThreshold,
		Supplier:          item.Supplier,
		Quantity:          item.EffectiveQuantity(),
		IsLowStock:        item.IsLowStock(),
		Batches:           make([]BatchResponse, 0, len(item.Batches)),
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
	if !item.Scope.IsMain() {
		deptID := item.Scope.DepartmentID
		resp.DepartmentID = &deptID
	}
	for _, b := range item.Batches {
		br := BatchResponse{
			ID:         b.ID,
			Quantity:   b.Quantity,
			ExpiryDate: b.ExpiryDate,
			Supplier:   b.Supplier,
		}
		if !b.CreatedAt.IsZero() {
			created := b.CreatedAt
			br.CreatedAt = &created
		}
		resp.Batches = append(resp.Batches, br)
	}
	return resp
}

// ToItemResponses converts a list of domain items
func ToItemResponses(items []inventory.StockItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, ToItemResponse(&items[i]))
	}
	return out
}

// ToTransactionResponse converts a domain transaction to its response
func ToTransactionResponse(tx *inventory.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		ItemName:        tx.ItemName,
		InventoryID:     tx.InventoryID,
		DepartmentID:    tx.DepartmentID,
		TransactionType: tx.Type.String(),
		Quantity:        tx.Quantity,
		PerformedBy:     tx.PerformedBy,
		Verification:    string(tx.Verification),
		RequestID:       tx.RequestID,
		CreatedAt:       tx.CreatedAt,
	}
}

// ToTransactionResponses converts a list of domain transactions
func ToTransactionResponses(txs []inventory.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, ToTransactionResponse(&txs[i]))
	}
	return out
}

// ToBatches converts batch inputs into domain batches
func ToBatches(inputs []BatchInput) ([]inventory.Batch, error) {
	out := make([]inventory.Batch, 0, len(inputs))
	for _, in := range inputs {
		b, err := inventory.NewBatch(in.Quantity, in.ExpiryDate, in.Supplier)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
