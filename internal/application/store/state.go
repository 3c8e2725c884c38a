// Package store holds the client-side state of the ERP console: the cached
// ledgers, requests, transactions and registry data, updated only through
// Reduce so every change is a total function of the previous state.
package store

import (
	"time"

	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/inventory"
)

// LedgerStatus tells whether a cached ledger matches the server
type LedgerStatus string

const (
	// LedgerConfirmed is a ledger exactly as the server last returned it
	LedgerConfirmed LedgerStatus = "confirmed"
	// LedgerProvisional is a ledger patched by a local depletion that has
	// not been re-fetched yet
	LedgerProvisional LedgerStatus = "provisional"
)

// LedgerView is the cached content of one ledger scope
type LedgerView struct {
	Scope  inventory.Scope
	Items  []inventory.StockItem
	Status LedgerStatus
}

// Item returns the cached item with the given id
func (v LedgerView) Item(id int64) (inventory.StockItem, bool) {
	for _, it := range v.Items {
		if it.ID == id {
			return it, true
		}
	}
	return inventory.StockItem{}, false
}

// ItemByName returns the cached item with the given name
func (v LedgerView) ItemByName(name string) (inventory.StockItem, bool) {
	for _, it := range v.Items {
		if it.ItemName == name {
			return it, true
		}
	}
	return inventory.StockItem{}, false
}

// Session is the authenticated user and the modules resolved for them
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      identityapp.UserResponse
	Modules   []identityapp.ModuleResponse
}

// CanWrite reports whether the session holds write access on a module.
// Administrators may write everywhere, as the server grants them.
func (s *Session) CanWrite(key string) bool {
	if s == nil {
		return false
	}
	if identity.Role(s.User.Role).IsAdministrative() {
		return true
	}
	for _, m := range s.Modules {
		if m.Key == key {
			return m.Write
		}
	}
	return false
}

// Deficit records a local depletion that found less stock in the cache than
// the server accepted. It means the cached ledger was stale.
type Deficit struct {
	Scope     inventory.Scope
	ItemName  string
	Requested int
	Missing   int
	RequestID *int64
	At        time.Time
}

// State is the whole client state. Values are never modified in place:
// every reducer returns a new State sharing untouched parts with the old.
type State struct {
	Session          *Session
	Ledgers          map[inventory.Scope]LedgerView
	Requests         []requestapp.RequestResponse
	PurchaseRequests []requestapp.PurchaseRequestResponse
	Transactions     []inventoryapp.TransactionResponse
	Departments      []identityapp.DepartmentResponse
	Users            []identityapp.UserResponse
	Deficits         []Deficit
}

// NewState returns an empty state
func NewState() State {
	return State{Ledgers: make(map[inventory.Scope]LedgerView)}
}

// Ledger returns the cached ledger of a scope
func (s State) Ledger(scope inventory.Scope) (LedgerView, bool) {
	v, ok := s.Ledgers[scope]
	return v, ok
}

// Request returns the cached inventory request with the given id
func (s State) Request(id int64) (requestapp.RequestResponse, bool) {
	for _, r := range s.Requests {
		if r.ID == id {
			return r, true
		}
	}
	return requestapp.RequestResponse{}, false
}

// IsProvisional reports whether the scope holds an unconfirmed local change
func (s State) IsProvisional(scope inventory.Scope) bool {
	v, ok := s.Ledgers[scope]
	return ok && v.Status == LedgerProvisional
}

func (s State) withLedger(v LedgerView) State {
	ledgers := make(map[inventory.Scope]LedgerView, len(s.Ledgers)+1)
	for k, l := range s.Ledgers {
		ledgers[k] = l
	}
	ledgers[v.Scope] = v
	s.Ledgers = ledgers
	return s
}

// itemFromResponse rebuilds a domain item from its wire form so the
// depletion rule can run against cached data
func itemFromResponse(r inventoryapp.ItemResponse) inventory.StockItem {
	item := inventory.StockItem{
		Scope:             inventory.MainScope(),
		ItemName:          r.ItemName,
		Category:          r.Category,
		Unit:              r.Unit,
		MinimumStockLevel: r.MinimumStockLevel,
		RestockThreshold:  r.RestockThreshold,
		Supplier:          r.Supplier,
		Batches:           make([]inventory.Batch, 0, len(r.Batches)),
	}
	item.ID = r.ID
	item.CreatedAt = r.CreatedAt
	item.UpdatedAt = r.UpdatedAt
	if r.DepartmentID != nil {
		item.Scope = inventory.DepartmentScope(*r.DepartmentID)
	}
	for _, b := range r.Batches {
		batch := inventory.Batch{
			ID:         b.ID,
			Quantity:   b.Quantity,
			ExpiryDate: b.ExpiryDate,
			Supplier:   b.Supplier,
		}
		if b.CreatedAt != nil {
			batch.CreatedAt = *b.CreatedAt
		}
		item.Batches = append(item.Batches, batch)
	}
	return item
}

func scopeOf(r inventoryapp.ItemResponse) inventory.Scope {
	if r.DepartmentID != nil {
		return inventory.DepartmentScope(*r.DepartmentID)
	}
	return inventory.MainScope()
}
