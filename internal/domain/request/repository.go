package request

import (
	"context"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// InventoryRequestFilter narrows an inventory request listing
type InventoryRequestFilter struct {
	shared.Filter
	DepartmentID *int64
	Status       Status
	Range        shared.DateRange
}

// InventoryRequestRepository defines the interface for inventory request persistence
type InventoryRequestRepository interface {
	// FindByID finds a request by its ID
	FindByID(ctx context.Context, id int64) (*InventoryRequest, error)

	// FindByIDForUpdate finds a request and locks its row for the surrounding transaction
	FindByIDForUpdate(ctx context.Context, id int64) (*InventoryRequest, error)

	// List returns one page of requests and the total match count
	List(ctx context.Context, filter InventoryRequestFilter) ([]InventoryRequest, int64, error)

	// Save creates or updates a request
	Save(ctx context.Context, r *InventoryRequest) error

	// Delete removes a request
	Delete(ctx context.Context, id int64) error
}

// PurchaseRequestFilter narrows a purchase request listing
type PurchaseRequestFilter struct {
	shared.Filter
	DepartmentID *int64
	Status       PurchaseStatus
}

// PurchaseRequestRepository defines the interface for purchase request persistence
type PurchaseRequestRepository interface {
	FindByID(ctx context.Context, id int64) (*PurchaseRequest, error)
	FindBySourceRequest(ctx context.Context, sourceRequestID int64) (*PurchaseRequest, error)
	List(ctx context.Context, filter PurchaseRequestFilter) ([]PurchaseRequest, int64, error)
	Save(ctx context.Context, p *PurchaseRequest) error
	Delete(ctx context.Context, id int64) error
}
