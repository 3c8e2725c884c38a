package store

import (
	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/domain/inventory"
)

// Event is a confirmed outcome applied to the state by Reduce. Only the
// types declared in this package implement it.
type Event interface {
	eventName() string
}

// SessionStarted installs the session returned by login
type SessionStarted struct {
	Session Session
}

// SessionCleared drops the session and every cached view
type SessionCleared struct{}

// LedgerFetched replaces a ledger with the server's listing and confirms it
type LedgerFetched struct {
	Scope inventory.Scope
	Items []inventoryapp.ItemResponse
}

// ItemUpserted adopts one item as returned by the server
type ItemUpserted struct {
	Item inventoryapp.ItemResponse
}

// RestockCompleted adopts a restocked item and its Restocking transaction
type RestockCompleted struct {
	Movement inventoryapp.MovementResponse
}

// TransferCompleted adopts both sides of a warehouse transfer
type TransferCompleted struct {
	Transfer inventoryapp.TransferResponse
}

// CheckoutCompleted applies a completed request checkout: the request
// becomes CheckedOut, its quantity is depleted from the cached department
// ledger and the Checkout transaction is appended, all in one step.
type CheckoutCompleted struct {
	RequestID int64
	Result    checkoutapp.CompleteResponse
}

// DirectCheckoutCompleted applies a checkout made without a request
type DirectCheckoutCompleted struct {
	Scope    inventory.Scope
	ItemID   int64
	Quantity int
	Movement inventoryapp.MovementResponse
}

// RequestsFetched replaces the cached request page
type RequestsFetched struct {
	Requests []requestapp.RequestResponse
}

// RequestUpserted adopts a created or fetched request
type RequestUpserted struct {
	Request requestapp.RequestResponse
}

// RequestStatusChanged adopts a status change and whatever it handed off
type RequestStatusChanged struct {
	Change requestapp.StatusChangeResponse
}

// RequestRemoved drops a deleted request
type RequestRemoved struct {
	ID int64
}

// PurchaseRequestsFetched replaces the cached purchase request page
type PurchaseRequestsFetched struct {
	PurchaseRequests []requestapp.PurchaseRequestResponse
}

// PurchaseRequestUpserted adopts a created or updated purchase request
type PurchaseRequestUpserted struct {
	PurchaseRequest requestapp.PurchaseRequestResponse
}

// PurchaseRequestRemoved drops a deleted purchase request
type PurchaseRequestRemoved struct {
	ID int64
}

// TransactionsFetched replaces the cached transaction page
type TransactionsFetched struct {
	Transactions []inventoryapp.TransactionResponse
}

// DepartmentsFetched replaces the department registry
type DepartmentsFetched struct {
	Departments []identityapp.DepartmentResponse
}

// DepartmentUpserted adopts a created or updated department
type DepartmentUpserted struct {
	Department identityapp.DepartmentResponse
}

// DepartmentRemoved drops a deleted department
type DepartmentRemoved struct {
	ID int64
}

// UsersFetched replaces the cached user list
type UsersFetched struct {
	Users []identityapp.UserResponse
}

// UserUpserted adopts a created, updated or restored user
type UserUpserted struct {
	User identityapp.UserResponse
}

// UserRemoved drops a deleted user from the active list
type UserRemoved struct {
	ID int64
}

func (SessionStarted) eventName() string          { return "session_started" }
func (SessionCleared) eventName() string          { return "session_cleared" }
func (LedgerFetched) eventName() string           { return "ledger_fetched" }
func (ItemUpserted) eventName() string            { return "item_upserted" }
func (RestockCompleted) eventName() string        { return "restock_completed" }
func (TransferCompleted) eventName() string       { return "transfer_completed" }
func (CheckoutCompleted) eventName() string       { return "checkout_completed" }
func (DirectCheckoutCompleted) eventName() string { return "direct_checkout_completed" }
func (RequestsFetched) eventName() string         { return "requests_fetched" }
func (RequestUpserted) eventName() string         { return "request_upserted" }
func (RequestStatusChanged) eventName() string    { return "request_status_changed" }
func (RequestRemoved) eventName() string          { return "request_removed" }
func (PurchaseRequestsFetched) eventName() string { return "purchase_requests_fetched" }
func (PurchaseRequestUpserted) eventName() string { return "purchase_request_upserted" }
func (PurchaseRequestRemoved) eventName() string  { return "purchase_request_removed" }
func (TransactionsFetched) eventName() string     { return "transactions_fetched" }
func (DepartmentsFetched) eventName() string      { return "departments_fetched" }
func (DepartmentUpserted) eventName() string      { return "department_upserted" }
func (DepartmentRemoved) eventName() string       { return "department_removed" }
func (UsersFetched) eventName() string            { return "users_fetched" }
func (UserUpserted) eventName() string            { return "user_upserted" }
func (UserRemoved) eventName() string             { return "user_removed" }

// Name returns the log name of an event
func Name(ev Event) string {
	return ev.eventName()
}
