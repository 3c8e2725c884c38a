package request

import (
	"strings"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// Status is the lifecycle state of an inventory request
type Status string

const (
	StatusPending     Status = "Pending"
	StatusApproved    Status = "Approved"
	StatusRejected    Status = "Rejected"
	StatusRestocking  Status = "Restocking"
	StatusProcurement Status = "Procurement"
	StatusCheckedOut  Status = "CheckedOut"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected,
		StatusRestocking, StatusProcurement, StatusCheckedOut:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition leaves this status
func (s Status) IsTerminal() bool {
	return s != StatusPending && s != StatusApproved
}

// ParseStatus parses a status name
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.IsValid() {
		return "", shared.NewDomainErrorf("INVALID_INPUT", "Unknown request status %q", s)
	}
	return st, nil
}

var inventoryTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusRestocking, StatusProcurement},
	StatusApproved: {StatusCheckedOut},
}

// CanTransition reports whether from -> to is a legal inventory request move
func CanTransition(from, to Status) bool {
	for _, s := range inventoryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckoutMethod records how a checkout was redeemed
type CheckoutMethod string

const (
	CheckoutMethodToken  CheckoutMethod = "token"
	CheckoutMethodManual CheckoutMethod = "manual"
)

// InventoryRequest is a department's ask to draw stock from the warehouse.
type InventoryRequest struct {
	shared.BaseEntity
	ItemName          string
	Quantity          int
	DepartmentID      int64
	RequestedBy       string
	Status            Status
	Notes             string
	CheckedOutBy      string
	CheckoutMethod    CheckoutMethod
	PurchaseRequestID *int64
}

// NewInventoryRequest creates a pending inventory request
func NewInventoryRequest(itemName string, quantity int, departmentID int64, requestedBy string) (*InventoryRequest, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Item name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if departmentID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department ID is required")
	}
	requestedBy = strings.TrimSpace(requestedBy)
	if requestedBy == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Requested by is required")
	}
	return &InventoryRequest{
		BaseEntity:   shared.NewBaseEntity(),
		ItemName:     itemName,
		Quantity:     quantity,
		DepartmentID: departmentID,
		RequestedBy:  requestedBy,
		Status:       StatusPending,
	}, nil
}

// TransitionError reports an illegal status change
func TransitionError(from, to Status) *shared.DomainError {
	return shared.NewDomainErrorf("INVALID_STATE", "Cannot move request from %s to %s", from, to)
}

func (r *InventoryRequest) transition(to Status, notes string) error {
	if !CanTransition(r.Status, to) {
		return TransitionError(r.Status, to)
	}
	r.Status = to
	if notes = strings.TrimSpace(notes); notes != "" {
		r.Notes = notes
	}
	r.Touch()
	return nil
}

// Approve accepts a pending request
func (r *InventoryRequest) Approve(notes string) error {
	return r.transition(StatusApproved, notes)
}

// Reject declines a pending request
func (r *InventoryRequest) Reject(notes string) error {
	return r.transition(StatusRejected, notes)
}

// MarkRestocking hands the request over to the warehouse restock workflow
func (r *InventoryRequest) MarkRestocking(notes string) error {
	return r.transition(StatusRestocking, notes)
}

// MarkProcurement hands the request over to external procurement. The
// linked purchase request is recorded with LinkPurchaseRequest.
func (r *InventoryRequest) MarkProcurement(notes string) error {
	return r.transition(StatusProcurement, notes)
}

// LinkPurchaseRequest records the purchase request created for a
// Procurement hand-off.
func (r *InventoryRequest) LinkPurchaseRequest(id int64) error {
	if r.Status != StatusProcurement {
		return TransitionError(r.Status, StatusProcurement)
	}
	if r.PurchaseRequestID != nil {
		return shared.NewDomainError("ALREADY_EXISTS", "Request is already linked to a purchase request")
	}
	r.PurchaseRequestID = &id
	return nil
}

// CheckOut completes an approved request
func (r *InventoryRequest) CheckOut(checkedOutBy string, method CheckoutMethod) error {
	checkedOutBy = strings.TrimSpace(checkedOutBy)
	if checkedOutBy == "" {
		return shared.NewDomainError("INVALID_INPUT", "Checkout user is required")
	}
	if method != CheckoutMethodToken && method != CheckoutMethodManual {
		return shared.NewDomainError("INVALID_INPUT", "Invalid checkout method")
	}
	if err := r.transition(StatusCheckedOut, ""); err != nil {
		return err
	}
	r.CheckedOutBy = checkedOutBy
	r.CheckoutMethod = method
	return nil
}

// ApplyStatus dispatches a requested status to its transition. CheckedOut
// cannot be reached this way; it needs the checkout workflow.
func (r *InventoryRequest) ApplyStatus(to Status, notes string) error {
	switch to {
	case StatusApproved:
		return r.Approve(notes)
	case StatusRejected:
		return r.Reject(notes)
	case StatusRestocking:
		return r.MarkRestocking(notes)
	case StatusProcurement:
		return r.MarkProcurement(notes)
	case StatusCheckedOut:
		return shared.NewDomainError("INVALID_STATE", "Use checkout to complete a request")
	}
	return shared.NewDomainErrorf("INVALID_INPUT", "Unknown request status %q", to)
}

// CanDelete reports whether the request may still be withdrawn
func (r *InventoryRequest) CanDelete() bool {
	return r.Status == StatusPending
}

// Age returns how long the request has existed
func (r *InventoryRequest) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}
