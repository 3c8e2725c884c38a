package request

import (
	"strings"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// PurchaseStatus is the lifecycle state of a purchase request
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "Pending"
	PurchaseStatusSubmitted PurchaseStatus = "Submitted"
	PurchaseStatusApproved  PurchaseStatus = "Approved"
	PurchaseStatusRejected  PurchaseStatus = "Rejected"
)

// String returns the string representation of PurchaseStatus
func (s PurchaseStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusSubmitted, PurchaseStatusApproved, PurchaseStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the purchase request is closed
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseStatusApproved || s == PurchaseStatusRejected
}

// ParsePurchaseStatus parses a purchase status name
func ParsePurchaseStatus(s string) (PurchaseStatus, error) {
	st := PurchaseStatus(strings.TrimSpace(s))
	if !st.IsValid() {
		return "", shared.NewDomainErrorf("INVALID_INPUT", "Unknown purchase status %q", s)
	}
	return st, nil
}

// PurchaseRequest is an ask for external procurement with a deadline.
type PurchaseRequest struct {
	shared.BaseEntity
	ItemName        string
	Quantity        int
	DeadlineDate    time.Time
	DepartmentID    int64
	Status          PurchaseStatus
	SourceRequestID *int64
}

// NewPurchaseRequest creates a pending purchase request
func NewPurchaseRequest(itemName string, quantity int, deadline time.Time, departmentID int64) (*PurchaseRequest, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Item name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if deadline.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Deadline date is required")
	}
	if departmentID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department ID is required")
	}
	return &PurchaseRequest{
		BaseEntity:   shared.NewBaseEntity(),
		ItemName:     itemName,
		Quantity:     quantity,
		DeadlineDate: deadline,
		DepartmentID: departmentID,
		Status:       PurchaseStatusPending,
	}, nil
}

// NewPurchaseRequestFrom creates the purchase request that a Procurement
// hand-off of an inventory request produces.
func NewPurchaseRequestFrom(source *InventoryRequest, deadline time.Time) (*PurchaseRequest, error) {
	if source == nil || source.Status != StatusProcurement {
		return nil, shared.NewDomainError("INVALID_STATE", "Source request must be in Procurement")
	}
	pr, err := NewPurchaseRequest(source.ItemName, source.Quantity, deadline, source.DepartmentID)
	if err != nil {
		return nil, err
	}
	sourceID := source.ID
	pr.SourceRequestID = &sourceID
	return pr, nil
}

func purchaseTransitionError(from, to PurchaseStatus) *shared.DomainError {
	return shared.NewDomainErrorf("INVALID_STATE", "Cannot move purchase request from %s to %s", from, to)
}

// Submit sends a pending purchase request for approval
func (p *PurchaseRequest) Submit() error {
	if p.Status != PurchaseStatusPending {
		return purchaseTransitionError(p.Status, PurchaseStatusSubmitted)
	}
	p.Status = PurchaseStatusSubmitted
	p.Touch()
	return nil
}

// Approve accepts a submitted purchase request
func (p *PurchaseRequest) Approve() error {
	if p.Status != PurchaseStatusSubmitted {
		return purchaseTransitionError(p.Status, PurchaseStatusApproved)
	}
	p.Status = PurchaseStatusApproved
	p.Touch()
	return nil
}

// Reject declines a submitted purchase request
func (p *PurchaseRequest) Reject() error {
	if p.Status != PurchaseStatusSubmitted {
		return purchaseTransitionError(p.Status, PurchaseStatusRejected)
	}
	p.Status = PurchaseStatusRejected
	p.Touch()
	return nil
}

// ApplyStatus dispatches a requested status to its transition
func (p *PurchaseRequest) ApplyStatus(to PurchaseStatus) error {
	switch to {
	case PurchaseStatusSubmitted:
		return p.Submit()
	case PurchaseStatusApproved:
		return p.Approve()
	case PurchaseStatusRejected:
		return p.Reject()
	}
	return purchaseTransitionError(p.Status, to)
}

// CanDelete reports whether the purchase request may be removed
func (p *PurchaseRequest) CanDelete() bool {
	return p.Status == PurchaseStatusPending
}

// IsOverdue reports whether an open purchase request passed its deadline
func (p *PurchaseRequest) IsOverdue(now time.Time) bool {
	return !p.Status.IsTerminal() && now.After(p.DeadlineDate)
}
