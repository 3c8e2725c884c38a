package inventory

import (
	"strings"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// TransactionType represents the type of a stock-affecting event
type TransactionType string

const (
	// TransactionTypeTransfer moves stock from the warehouse into a department
	TransactionTypeTransfer TransactionType = "Transfer"
	// TransactionTypeUsage consumes department stock directly
	TransactionTypeUsage TransactionType = "Usage"
	// TransactionTypeRestocking adds batches to the warehouse
	TransactionTypeRestocking TransactionType = "Restocking"
	// TransactionTypeProcurement records stock received from an external vendor
	TransactionTypeProcurement TransactionType = "Procurement"
	// TransactionTypeCheckout completes a request or a warehouse checkout
	TransactionTypeCheckout TransactionType = "Checkout"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTransfer,
		TransactionTypeUsage,
		TransactionTypeRestocking,
		TransactionTypeProcurement,
		TransactionTypeCheckout:
		return true
	}
	return false
}

// IsOutflow returns true if the transaction takes stock out of circulation
func (t TransactionType) IsOutflow() bool {
	return t == TransactionTypeUsage || t == TransactionTypeCheckout
}

// ParseTransactionType parses a transaction type name
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", shared.NewDomainErrorf("INVALID_INPUT", "Unknown transaction type %q", s)
	}
	return t, nil
}

// TransactionKind groups transaction types for history views
type TransactionKind string

const (
	TransactionKindCheckIn  TransactionKind = "checkin"
	TransactionKindCheckOut TransactionKind = "checkout"
)

// Types returns the transaction types in the kind
func (k TransactionKind) Types() []TransactionType {
	switch k {
	case TransactionKindCheckIn:
		return []TransactionType{TransactionTypeProcurement, TransactionTypeRestocking, TransactionTypeTransfer}
	case TransactionKindCheckOut:
		return []TransactionType{TransactionTypeUsage, TransactionTypeCheckout}
	}
	return nil
}

// Verification records how the acting identity was established
type Verification string

const (
	// VerificationSession means the actor is the authenticated caller
	VerificationSession Verification = "session"
	// VerificationToken means the actor redeemed a one-time checkout token
	VerificationToken Verification = "token"
	// VerificationManual means an operator typed in the actor's identifier
	VerificationManual Verification = "manual"
)

// IsValid returns true if the verification is valid
func (v Verification) IsValid() bool {
	switch v {
	case VerificationSession, VerificationToken, VerificationManual:
		return true
	}
	return false
}

// Transaction is an immutable audit record of a stock-affecting event.
type Transaction struct {
	ID           int64
	ItemName     string
	InventoryID  int64
	DepartmentID *int64
	Type         TransactionType
	Quantity     int
	PerformedBy  string
	Verification Verification
	RequestID    *int64
	CreatedAt    time.Time
}

// NewTransaction creates a new transaction record
func NewTransaction(
	txType TransactionType,
	item *StockItem,
	quantity int,
	performedBy string,
	verification Verification,
) (*Transaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid transaction type")
	}
	if item == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Inventory item is required")
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	performedBy = strings.TrimSpace(performedBy)
	if performedBy == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Performed by is required")
	}
	if !verification.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid verification")
	}

	tx := &Transaction{
		ItemName:     item.ItemName,
		InventoryID:  item.ID,
		Type:         txType,
		Quantity:     quantity,
		PerformedBy:  performedBy,
		Verification: verification,
		CreatedAt:    time.Now(),
	}
	if !item.Scope.IsMain() {
		deptID := item.Scope.DepartmentID
		tx.DepartmentID = &deptID
	}
	return tx, nil
}

// WithRequest links the transaction to the inventory request it completes
func (t *Transaction) WithRequest(requestID int64) *Transaction {
	t.RequestID = &requestID
	return t
}
