package models

import (
	"time"

	"github.com/hospital-erp/backend/internal/domain/inventory"
)

// StockItemModel is the persistence model for both ledgers. DepartmentID 0
// is the central warehouse.
type StockItemModel struct {
	BaseModel
	DepartmentID      int64             `gorm:"not null;default:0;uniqueIndex:idx_stock_item_scope_name,priority:1"`
	ItemName          string            `gorm:"type:varchar(200);not null;uniqueIndex:idx_stock_item_scope_name,priority:2"`
	Category          string            `gorm:"type:varchar(100)"`
	Unit              string            `gorm:"type:varchar(50)"`
	MinimumStockLevel int               `gorm:"not null;default:0"`
	RestockThreshold  int               `gorm:"not null;default:0"`
	Supplier          string            `gorm:"type:varchar(200)"`
	Batches           []StockBatchModel `gorm:"foreignKey:ItemID"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// StockBatchModel is one batch row. Position preserves consumption order.
type StockBatchModel struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	ItemID     int64      `gorm:"not null;index"`
	Position   int        `gorm:"not null"`
	Quantity   int        `gorm:"not null"`
	ExpiryDate *time.Time `gorm:"type:date"`
	Supplier   string     `gorm:"type:varchar(200)"`
	CreatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the model to a domain stock item
func (m *StockItemModel) ToDomain() *inventory.StockItem {
	item := &inventory.StockItem{
		BaseEntity:        m.BaseModel.ToDomain(),
		Scope:             inventory.Scope{DepartmentID: m.DepartmentID},
		ItemName:          m.ItemName,
		Category:          m.Category,
		Unit:              m.Unit,
		MinimumStockLevel: m.MinimumStockLevel,
		RestockThreshold:  m.RestockThreshold,
		Supplier:          m.Supplier,
		Batches:           make([]inventory.Batch, 0, len(m.Batches)),
	}
	for _, b := range m.Batches {
		item.Batches = append(item.Batches, inventory.Batch{
			ID:         b.ID,
			Quantity:   b.Quantity,
			ExpiryDate: b.ExpiryDate,
			Supplier:   b.Supplier,
			CreatedAt:  b.CreatedAt,
		})
	}
	return item
}

// StockItemModelFromDomain converts a domain item, without its batches
func StockItemModelFromDomain(item *inventory.StockItem) *StockItemModel {
	m := &StockItemModel{
		DepartmentID:      item.Scope.DepartmentID,
		ItemName:          item.ItemName,
		Category:          item.Category,
		Unit:              item.Unit,
		MinimumStockLevel: item.MinimumStockLevel,
		RestockThreshold:  item.RestockThreshold,
		Supplier:          item.Supplier,
	}
	m.FromDomainBaseEntity(item.BaseEntity)
	return m
}

// InventoryTransactionModel is the append-only ledger row
type InventoryTransactionModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	ItemName     string    `gorm:"type:varchar(200);not null;index"`
	InventoryID  int64     `gorm:"not null;index"`
	DepartmentID *int64    `gorm:"index"`
	Type         string    `gorm:"column:transaction_type;type:varchar(20);not null;index"`
	Quantity     int       `gorm:"not null"`
	PerformedBy  string    `gorm:"type:varchar(100);not null"`
	Verification string    `gorm:"type:varchar(20);not null"`
	RequestID    *int64    `gorm:"index"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InventoryTransactionModel) TableName() string {
	return "inventory_transactions"
}

// ToDomain converts the model to a domain transaction
func (m *InventoryTransactionModel) ToDomain() *inventory.Transaction {
	return &inventory.Transaction{
		ID:           m.ID,
		ItemName:     m.ItemName,
		InventoryID:  m.InventoryID,
		DepartmentID: m.DepartmentID,
		Type:         inventory.TransactionType(m.Type),
		Quantity:     m.Quantity,
		PerformedBy:  m.PerformedBy,
		Verification: inventory.Verification(m.Verification),
		RequestID:    m.RequestID,
		CreatedAt:    m.CreatedAt,
	}
}

// InventoryTransactionModelFromDomain converts a domain transaction
func InventoryTransactionModelFromDomain(tx *inventory.Transaction) *InventoryTransactionModel {
	return &InventoryTransactionModel{
		ID:           tx.ID,
		ItemName:     tx.ItemName,
		InventoryID:  tx.InventoryID,
		DepartmentID: tx.DepartmentID,
		Type:         string(tx.Type),
		Quantity:     tx.Quantity,
		PerformedBy:  tx.PerformedBy,
		Verification: string(tx.Verification),
		RequestID:    tx.RequestID,
		CreatedAt:    tx.CreatedAt,
	}
}
