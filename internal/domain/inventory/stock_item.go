package inventory

import (
	"fmt"
	"strings"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// Scope identifies which ledger an item belongs to: the central warehouse
// or one department sub-store. Item ids are only unique within a scope.
type Scope struct {
	DepartmentID int64
}

// MainScope is the central warehouse ledger
func MainScope() Scope {
	return Scope{}
}

// DepartmentScope is the ledger of one department
func DepartmentScope(departmentID int64) Scope {
	return Scope{DepartmentID: departmentID}
}

// IsMain reports whether this is the central warehouse scope
func (s Scope) IsMain() bool {
	return s.DepartmentID == 0
}

// String returns a stable key for the scope
func (s Scope) String() string {
	if s.IsMain() {
		return "main"
	}
	return fmt.Sprintf("department:%d", s.DepartmentID)
}

// StockItem is a batch-tracked item in either ledger. Department items do
// not carry stock thresholds.
type StockItem struct {
	shared.BaseEntity
	Scope             Scope
	ItemName          string
	Category          string
	Unit              string
	MinimumStockLevel int
	RestockThreshold  int
	Supplier          string
	Batches           []Batch
}

// NewMainItem creates an item in the central warehouse
func NewMainItem(itemName, category, unit string, minimumStockLevel, restockThreshold int, supplier string) (*StockItem, error) {
	item, err := newStockItem(MainScope(), itemName, category, unit, supplier)
	if err != nil {
		return nil, err
	}
	if minimumStockLevel < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Minimum stock level cannot be negative")
	}
	if restockThreshold < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Restock threshold cannot be negative")
	}
	item.MinimumStockLevel = minimumStockLevel
	item.RestockThreshold = restockThreshold
	return item, nil
}

// NewDepartmentItem creates an item in a department sub-store
func NewDepartmentItem(departmentID int64, itemName, category, unit, supplier string) (*StockItem, error) {
	if departmentID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department ID is required")
	}
	return newStockItem(DepartmentScope(departmentID), itemName, category, unit, supplier)
}

func newStockItem(scope Scope, itemName, category, unit, supplier string) (*StockItem, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Item name cannot be empty")
	}
	if len(itemName) > 200 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Item name cannot exceed 200 characters")
	}
	return &StockItem{
		BaseEntity: shared.NewBaseEntity(),
		Scope:      scope,
		ItemName:   itemName,
		Category:   strings.TrimSpace(category),
		Unit:       strings.TrimSpace(unit),
		Supplier:   strings.TrimSpace(supplier),
		Batches:    make([]Batch, 0),
	}, nil
}

// EffectiveQuantity is the on-hand stock of the item
func (i *StockItem) EffectiveQuantity() int {
	return EffectiveQuantity(i.Batches)
}

// IsLowStock reports whether a warehouse item has dropped under its restock
// threshold. It is an alert only and never blocks an operation.
func (i *StockItem) IsLowStock() bool {
	if !i.Scope.IsMain() {
		return false
	}
	return i.EffectiveQuantity() < i.RestockThreshold
}

// CanFulfill reports whether the batches hold at least quantity units
func (i *StockItem) CanFulfill(quantity int) bool {
	return i.EffectiveQuantity() >= quantity
}

// Restock appends new batches to the item
func (i *StockItem) Restock(newBatches ...Batch) error {
	batches, err := Restock(i.Batches, newBatches)
	if err != nil {
		return err
	}
	i.Batches = batches
	i.Touch()
	return nil
}

// Consume depletes the item's batches in list order. See Consume.
func (i *StockItem) Consume(quantity int) (ConsumeResult, error) {
	batches, result, err := Consume(i.Batches, quantity)
	if err != nil {
		return ConsumeResult{}, err
	}
	i.Batches = batches
	i.Touch()
	return result, nil
}

// ConsumeStrict depletes the item only when the whole quantity is on hand.
// The ledger of record uses it so an accepted request never leaves a deficit.
func (i *StockItem) ConsumeStrict(quantity int) (ConsumeResult, error) {
	if quantity <= 0 {
		return ConsumeResult{}, ErrInvalidQuantity
	}
	if !i.CanFulfill(quantity) {
		return ConsumeResult{}, shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock for %s: requested %d, available %d", i.ItemName, quantity, i.EffectiveQuantity())
	}
	return i.Consume(quantity)
}

// Clone returns a deep copy of the item
func (i *StockItem) Clone() *StockItem {
	if i == nil {
		return nil
	}
	c := *i
	c.Batches = cloneBatches(i.Batches)
	return &c
}
