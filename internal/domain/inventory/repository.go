package inventory

import (
	"context"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// StockItemRepository defines the interface for stock item persistence
type StockItemRepository interface {
	// FindByID finds an item by its ID within a scope
	FindByID(ctx context.Context, scope Scope, id int64) (*StockItem, error)

	// FindByIDForUpdate finds an item and locks its row for the surrounding transaction
	FindByIDForUpdate(ctx context.Context, scope Scope, id int64) (*StockItem, error)

	// FindByName finds an item by exact name within a scope
	FindByName(ctx context.Context, scope Scope, itemName string) (*StockItem, error)

	// List lists the items of a scope, optionally filtered by a search term
	List(ctx context.Context, scope Scope, search string) ([]StockItem, error)

	// Save creates or updates an item and its batches
	Save(ctx context.Context, item *StockItem) error
}

// TransactionFilter narrows a transaction listing
type TransactionFilter struct {
	shared.Filter
	Types        []TransactionType
	DepartmentID *int64
	Range        shared.DateRange
}

// TransactionRepository defines the interface for the append-only transaction ledger
type TransactionRepository interface {
	// Create appends a transaction; records are never updated or deleted
	Create(ctx context.Context, tx *Transaction) error

	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id int64) (*Transaction, error)

	// List returns one page of transactions and the total match count
	List(ctx context.Context, filter TransactionFilter) ([]Transaction, int64, error)

	// ListInRange returns every transaction inside the date range, oldest first
	ListInRange(ctx context.Context, r shared.DateRange) ([]Transaction, error)
}
