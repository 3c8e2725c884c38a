package request

import (
	"time"

	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
)

// RequestResponse represents an inventory request in API responses
type RequestResponse struct {
	ID                int64     `json:"id"`
	ItemName          string    `json:"itemName"`
	Quantity          int       `json:"quantity"`
	DepartmentID      int64     `json:"departmentId"`
	RequestedBy       string    `json:"requestedBy"`
	Status            string    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	CheckedOutBy      string    `json:"checkedOutBy,omitempty"`
	CheckoutMethod    string    `json:"checkoutMethod,omitempty"`
	PurchaseRequestID *int64    `json:"purchaseRequestId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// RequestListResponse is one page of inventory requests
type RequestListResponse struct {
	Requests    []RequestResponse `json:"requests"`
	Total       int64             `json:"total"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
}

// ListRequestsFilter represents filter options for inventory request lists
type ListRequestsFilter struct {
	Search       string     `form:"search"`
	DepartmentID *int64     `form:"departmentId"`
	Status       string     `form:"status" binding:"omitempty,oneof=Pending Approved Rejected Restocking Procurement CheckedOut"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	Limit        int        `form:"limit" binding:"omitempty,min=1,max=200"`
	OrderBy      string     `form:"orderBy"`
	OrderDir     string     `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// CreateRequestInput asks the warehouse for stock. A zero DepartmentID
// defaults to the caller's department.
type CreateRequestInput struct {
	ItemName     string `json:"itemName" binding:"required,max=200"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	DepartmentID int64  `json:"departmentId" binding:"omitempty,gt=0"`
}

// UpdateStatusInput moves a request along its state machine
type UpdateStatusInput struct {
	Status string `json:"status" binding:"required,oneof=Approved Rejected Restocking Procurement"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// StatusChangeResponse is the result of a status change together with what
// the hand-off produced: the transfer for an approval, the purchase request
// for a procurement hand-off.
type StatusChangeResponse struct {
	Request         RequestResponse                `json:"request"`
	Transfer        *inventoryapp.TransferResponse `json:"transfer,omitempty"`
	PurchaseRequest *PurchaseRequestResponse       `json:"purchaseRequest,omitempty"`
}

// PurchaseRequestResponse represents a purchase request in API responses
type PurchaseRequestResponse struct {
	ID              int64     `json:"id"`
	ItemName        string    `json:"itemname"`
	Quantity        int       `json:"quantity"`
	DeadlineDate    time.Time `json:"deadlineDate"`
	DepartmentID    int64     `json:"departmentId"`
	Status          string    `json:"status"`
	SourceRequestID *int64    `json:"sourceRequestId,omitempty"`
	Overdue         bool      `json:"overdue"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PurchaseRequestListResponse is one page of purchase requests
type PurchaseRequestListResponse struct {
	Requests    []PurchaseRequestResponse `json:"requests"`
	Total       int64                     `json:"total"`
	TotalPages  int                       `json:"totalPages"`
	CurrentPage int                       `json:"currentPage"`
}

// ListPurchaseRequestsFilter represents filter options for purchase request lists
type ListPurchaseRequestsFilter struct {
	Search       string `form:"search"`
	DepartmentID *int64 `form:"departmentId"`
	Status       string `form:"status" binding:"omitempty,oneof=Pending Submitted Approved Rejected"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// CreatePurchaseRequestInput creates a purchase request
type CreatePurchaseRequestInput struct {
	ItemName     string    `json:"itemname" binding:"required,max=200"`
	Quantity     int       `json:"quantity" binding:"required,gt=0"`
	DeadlineDate time.Time `json:"deadlineDate" binding:"required"`
	DepartmentID int64     `json:"departmentId" binding:"omitempty,gt=0"`
}

// UpdatePurchaseStatusInput moves a purchase request along its state machine
type UpdatePurchaseStatusInput struct {
	Status string `json:"status" binding:"required,oneof=Submitted Approved Rejected"`
}

// RequestEnvelope wraps a single inventory request
type RequestEnvelope struct {
	Request RequestResponse `json:"request"`
}

// PurchaseRequestEnvelope wraps a single purchase request
type PurchaseRequestEnvelope struct {
	Request PurchaseRequestResponse `json:"request"`
}

// ToRequestResponse converts a domain request to its response
func ToRequestResponse(r *request.InventoryRequest) RequestResponse {
	return RequestResponse{
		ID:                r.ID,
		ItemName:          r.ItemName,
		Quantity:          r.Quantity,
		DepartmentID:      r.DepartmentID,
		RequestedBy:       r.RequestedBy,
		Status:            r.Status.String(),
		Notes:             r.Notes,
		CheckedOutBy:      r.CheckedOutBy,
		CheckoutMethod:    string(r.CheckoutMethod),
		PurchaseRequestID: r.PurchaseRequestID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ToPurchaseRequestResponse converts a domain purchase request to its response
func ToPurchaseRequestResponse(p *request.PurchaseRequest, now time.Time) PurchaseRequestResponse {
	return PurchaseRequestResponse{
		ID:              p.ID,
		ItemName:        p.ItemName,
		Quantity:        p.Quantity,
		DeadlineDate:    p.DeadlineDate,
		DepartmentID:    p.DepartmentID,
		Status:          p.Status.String(),
		SourceRequestID: p.SourceRequestID,
		Overdue:         p.IsOverdue(now),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// pageOf builds a repository filter from page and limit query values
func pageOf(page, limit int, search, orderBy, orderDir string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if limit > 0 {
		f.PageSize = limit
	}
	f.Search = search
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}
