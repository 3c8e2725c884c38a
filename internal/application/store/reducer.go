package store

import (
	"fmt"

	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
)

var (
	// ErrProvisionalLedger is returned when a local depletion would be
	// stacked on a ledger that has not been re-fetched since the last one
	ErrProvisionalLedger = shared.NewDomainError("PROVISIONAL_LEDGER", "Ledger has an unconfirmed local change and must be re-fetched first")
	// ErrUnknownRequest is returned when an event names a request that is
	// not in the cached state
	ErrUnknownRequest = shared.NewDomainError("NOT_FOUND", "Request is not loaded")
)

// Reduce applies one event and returns the next state. It never modifies
// its input; on error the returned state is the input unchanged.
func Reduce(s State, ev Event) (State, error) {
	if s.Ledgers == nil {
		s.Ledgers = make(map[inventory.Scope]LedgerView)
	}

	switch e := ev.(type) {
	case SessionStarted:
		session := e.Session
		s.Session = &session
		return s, nil
	case SessionCleared:
		return NewState(), nil
	case LedgerFetched:
		return reduceLedgerFetched(s, e), nil
	case ItemUpserted:
		return s.withItem(e.Item), nil
	case RestockCompleted:
		return s.withItem(e.Movement.Item).withTransaction(e.Movement.Transaction), nil
	case TransferCompleted:
		return reduceTransfer(s, e.Transfer), nil
	case CheckoutCompleted:
		return reduceCheckout(s, e)
	case DirectCheckoutCompleted:
		return reduceDirectCheckout(s, e)
	case RequestsFetched:
		s.Requests = e.Requests
		return s, nil
	case RequestUpserted:
		s.Requests = upsert(s.Requests, e.Request, requestID)
		return s, nil
	case RequestStatusChanged:
		return reduceStatusChange(s, e.Change)
	case RequestRemoved:
		s.Requests = remove(s.Requests, e.ID, requestID)
		return s, nil
	case PurchaseRequestsFetched:
		s.PurchaseRequests = e.PurchaseRequests
		return s, nil
	case PurchaseRequestUpserted:
		s.PurchaseRequests = upsert(s.PurchaseRequests, e.PurchaseRequest, purchaseRequestID)
		return s, nil
	case PurchaseRequestRemoved:
		s.PurchaseRequests = remove(s.PurchaseRequests, e.ID, purchaseRequestID)
		return s, nil
	case TransactionsFetched:
		s.Transactions = e.Transactions
		return s, nil
	case DepartmentsFetched:
		s.Departments = e.Departments
		return s, nil
	case DepartmentUpserted:
		s.Departments = upsert(s.Departments, e.Department, departmentID)
		return s, nil
	case DepartmentRemoved:
		s.Departments = remove(s.Departments, e.ID, departmentID)
		return s, nil
	case UsersFetched:
		s.Users = e.Users
		return s, nil
	case UserUpserted:
		s.Users = upsert(s.Users, e.User, userID)
		return s, nil
	case UserRemoved:
		s.Users = remove(s.Users, e.ID, userID)
		return s, nil
	}
	return s, fmt.Errorf("store: unknown event %T", ev)
}

func reduceLedgerFetched(s State, e LedgerFetched) State {
	items := make([]inventory.StockItem, 0, len(e.Items))
	for _, r := range e.Items {
		items = append(items, itemFromResponse(r))
	}
	return s.withLedger(LedgerView{Scope: e.Scope, Items: items, Status: LedgerConfirmed})
}

func reduceTransfer(s State, t inventoryapp.TransferResponse) State {
	return s.withItem(t.Source).withItem(t.Item).withTransaction(t.Transaction)
}

func reduceCheckout(s State, e CheckoutCompleted) (State, error) {
	cur, ok := s.Request(e.RequestID)
	if !ok {
		return s, ErrUnknownRequest
	}
	if request.Status(cur.Status) != request.StatusApproved {
		return s, request.TransitionError(request.Status(cur.Status), request.StatusCheckedOut)
	}

	id := cur.ID
	next, err := s.deplete(
		inventory.DepartmentScope(cur.DepartmentID),
		e.Result.Item.ID, cur.ItemName, cur.Quantity, &id, e.Result.Transaction,
	)
	if err != nil {
		return s, err
	}
	next.Requests = upsert(next.Requests, e.Result.Request, requestID)
	return next.withTransaction(e.Result.Transaction), nil
}

func reduceDirectCheckout(s State, e DirectCheckoutCompleted) (State, error) {
	next, err := s.deplete(e.Scope, e.ItemID, e.Movement.Item.ItemName, e.Quantity, nil, e.Movement.Transaction)
	if err != nil {
		return s, err
	}
	return next.withTransaction(e.Movement.Transaction), nil
}

func reduceStatusChange(s State, change requestapp.StatusChangeResponse) (State, error) {
	to := request.Status(change.Request.Status)
	if cur, ok := s.Request(change.Request.ID); ok {
		from := request.Status(cur.Status)
		if from != to && !request.CanTransition(from, to) {
			return s, request.TransitionError(from, to)
		}
	}

	next := s
	next.Requests = upsert(s.Requests, change.Request, requestID)
	if change.Transfer != nil {
		next = reduceTransfer(next, *change.Transfer)
	}
	if change.PurchaseRequest != nil {
		next.PurchaseRequests = upsert(next.PurchaseRequests, *change.PurchaseRequest, purchaseRequestID)
	}
	return next, nil
}

// deplete runs the batch depletion rule on the cached item and marks the
// scope provisional. A scope that is not cached is left alone; a scope that
// is already provisional refuses a second local change.
func (s State) deplete(
	scope inventory.Scope,
	itemID int64,
	itemName string,
	quantity int,
	reqID *int64,
	tx inventoryapp.TransactionResponse,
) (State, error) {
	v, ok := s.Ledgers[scope]
	if !ok {
		return s, nil
	}
	if v.Status == LedgerProvisional {
		return s, ErrProvisionalLedger
	}

	idx := -1
	for i, it := range v.Items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, it := range v.Items {
			if it.ItemName == itemName {
				idx = i
				break
			}
		}
	}

	var batches []inventory.Batch
	if idx >= 0 {
		batches = v.Items[idx].Batches
	}
	depleted, result, err := inventory.Consume(batches, quantity)
	if err != nil {
		return s, err
	}

	items := append([]inventory.StockItem(nil), v.Items...)
	if idx >= 0 {
		items[idx].Batches = depleted
	}
	next := s.withLedger(LedgerView{Scope: scope, Items: items, Status: LedgerProvisional})

	if result.HasDeficit() {
		deficits := make([]Deficit, len(s.Deficits), len(s.Deficits)+1)
		copy(deficits, s.Deficits)
		next.Deficits = append(deficits, Deficit{
			Scope:     scope,
			ItemName:  itemName,
			Requested: quantity,
			Missing:   result.Deficit,
			RequestID: reqID,
			At:        tx.CreatedAt,
		})
	}
	return next, nil
}

// withItem adopts a server item into its cached ledger, if that ledger is
// loaded. The ledger keeps its status.
func (s State) withItem(r inventoryapp.ItemResponse) State {
	scope := scopeOf(r)
	v, ok := s.Ledgers[scope]
	if !ok {
		return s
	}
	v.Items = upsert(v.Items, itemFromResponse(r), stockItemID)
	return s.withLedger(v)
}

// withTransaction puts a new transaction at the head of the cached page
func (s State) withTransaction(tx inventoryapp.TransactionResponse) State {
	for _, t := range s.Transactions {
		if t.ID == tx.ID {
			return s
		}
	}
	txs := make([]inventoryapp.TransactionResponse, 0, len(s.Transactions)+1)
	txs = append(txs, tx)
	s.Transactions = append(txs, s.Transactions...)
	return s
}

// upsert returns a copy of list with v replacing the element of the same
// id, or appended when there is none
func upsert[T any](list []T, v T, id func(T) int64) []T {
	out := make([]T, 0, len(list)+1)
	replaced := false
	for _, el := range list {
		if id(el) == id(v) {
			out = append(out, v)
			replaced = true
			continue
		}
		out = append(out, el)
	}
	if !replaced {
		out = append(out, v)
	}
	return out
}

// remove returns a copy of list without the element with the given id
func remove[T any](list []T, target int64, id func(T) int64) []T {
	out := make([]T, 0, len(list))
	for _, el := range list {
		if id(el) != target {
			out = append(out, el)
		}
	}
	return out
}

func requestID(r requestapp.RequestResponse) int64                 { return r.ID }
func purchaseRequestID(p requestapp.PurchaseRequestResponse) int64 { return p.ID }
func departmentID(d identityapp.DepartmentResponse) int64          { return d.ID }
func userID(u identityapp.UserResponse) int64                      { return u.ID }
func stockItemID(i inventory.StockItem) int64                      { return i.ID }
