package store

import (
	"testing"
	"time"

	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func int64Ptr(v int64) *int64 {
	return &v
}

// gauze is department 2's item X from the depletion examples
func gauze() inventoryapp.ItemResponse {
	return inventoryapp.ItemResponse{
		ID:           11,
		ItemName:     "Gauze",
		Unit:         "box",
		DepartmentID: int64Ptr(2),
		Quantity:     8,
		Batches: []inventoryapp.BatchResponse{
			{ID: 1, Quantity: 5, ExpiryDate: day("2024-01-01")},
			{ID: 2, Quantity: 3, ExpiryDate: day("2024-06-01")},
		},
	}
}

func requestWith(id int64, status request.Status, quantity int) requestapp.RequestResponse {
	return requestapp.RequestResponse{
		ID:           id,
		ItemName:     "Gauze",
		Quantity:     quantity,
		DepartmentID: 2,
		RequestedBy:  "nurse.kim",
		Status:       status.String(),
	}
}

func checkoutResult(r requestapp.RequestResponse, txID int64) checkoutapp.CompleteResponse {
	done := r
	done.Status = request.StatusCheckedOut.String()
	done.CheckedOutBy = "dr.lee"
	return checkoutapp.CompleteResponse{
		Request: done,
		Item:    gauze(),
		Transaction: inventoryapp.TransactionResponse{
			ID:              txID,
			ItemName:        "Gauze",
			InventoryID:     11,
			DepartmentID:    int64Ptr(2),
			TransactionType: inventory.TransactionTypeCheckout.String(),
			Quantity:        r.Quantity,
			PerformedBy:     "dr.lee",
			CreatedAt:       time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}
}

func seeded(t *testing.T, events ...Event) State {
	t.Helper()
	s := NewState()
	var err error
	for _, ev := range events {
		s, err = Reduce(s, ev)
		require.NoError(t, err)
	}
	return s
}

func quantities(v LedgerView, id int64) []int {
	item, ok := v.Item(id)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(item.Batches))
	for _, b := range item.Batches {
		out = append(out, b.Quantity)
	}
	return out
}

var deptScope = inventory.DepartmentScope(2)

func TestReduce_CheckoutCompleted(t *testing.T) {
	t.Run("approved request depletes first batch first", func(t *testing.T) {
		r := requestWith(7, request.StatusApproved, 6)
		s := seeded(t,
			LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}},
			RequestsFetched{Requests: []requestapp.RequestResponse{r}},
		)

		next, err := Reduce(s, CheckoutCompleted{RequestID: 7, Result: checkoutResult(r, 100)})

		require.NoError(t, err)
		v, _ := next.Ledger(deptScope)
		assert.Equal(t, []int{0, 2}, quantities(v, 11))
		assert.Equal(t, LedgerProvisional, v.Status)
		got, _ := next.Request(7)
		assert.Equal(t, "CheckedOut", got.Status)
		require.Len(t, next.Transactions, 1)
		assert.Equal(t, "Checkout", next.Transactions[0].TransactionType)
		assert.Empty(t, next.Deficits)
	})

	t.Run("stale cache leaves a deficit", func(t *testing.T) {
		r := requestWith(7, request.StatusApproved, 10)
		s := seeded(t,
			LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}},
			RequestsFetched{Requests: []requestapp.RequestResponse{r}},
		)

		next, err := Reduce(s, CheckoutCompleted{RequestID: 7, Result: checkoutResult(r, 100)})

		require.NoError(t, err)
		v, _ := next.Ledger(deptScope)
		assert.Equal(t, []int{0, 0}, quantities(v, 11))
		require.Len(t, next.Deficits, 1)
		assert.Equal(t, 2, next.Deficits[0].Missing)
		assert.Equal(t, int64(7), *next.Deficits[0].RequestID)
	})

	t.Run("pending request is refused and nothing changes", func(t *testing.T) {
		r := requestWith(7, request.StatusPending, 6)
		s := seeded(t,
			LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}},
			RequestsFetched{Requests: []requestapp.RequestResponse{r}},
		)

		next, err := Reduce(s, CheckoutCompleted{RequestID: 7, Result: checkoutResult(r, 100)})

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		v, _ := next.Ledger(deptScope)
		assert.Equal(t, []int{5, 3}, quantities(v, 11))
		got, _ := next.Request(7)
		assert.Equal(t, "Pending", got.Status)
		assert.Empty(t, next.Transactions)
	})

	t.Run("unknown request", func(t *testing.T) {
		r := requestWith(7, request.StatusApproved, 6)

		_, err := Reduce(NewState(), CheckoutCompleted{RequestID: 7, Result: checkoutResult(r, 100)})

		assert.ErrorIs(t, err, ErrUnknownRequest)
	})

	t.Run("provisional ledger refuses a second local depletion", func(t *testing.T) {
		first := requestWith(7, request.StatusApproved, 1)
		second := requestWith(8, request.StatusApproved, 1)
		s := seeded(t,
			LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}},
			RequestsFetched{Requests: []requestapp.RequestResponse{first, second}},
			CheckoutCompleted{RequestID: 7, Result: checkoutResult(first, 100)},
		)

		_, err := Reduce(s, CheckoutCompleted{RequestID: 8, Result: checkoutResult(second, 101)})

		assert.ErrorIs(t, err, ErrProvisionalLedger)
	})

	t.Run("re-fetch confirms the ledger again", func(t *testing.T) {
		r := requestWith(7, request.StatusApproved, 1)
		s := seeded(t,
			LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}},
			RequestsFetched{Requests: []requestapp.RequestResponse{r}},
			CheckoutCompleted{RequestID: 7, Result: checkoutResult(r, 100)},
		)
		require.True(t, s.IsProvisional(deptScope))

		next, err := Reduce(s, LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}})

		require.NoError(t, err)
		assert.False(t, next.IsProvisional(deptScope))
	})
}

func TestReduce_DoesNotModifyInput(t *testing.T) {
	r := requestWith(7, request.StatusApproved, 6)
	before := seeded(t,
		LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}},
		RequestsFetched{Requests: []requestapp.RequestResponse{r}},
	)

	_, err := Reduce(before, CheckoutCompleted{RequestID: 7, Result: checkoutResult(r, 100)})

	require.NoError(t, err)
	v, _ := before.Ledger(deptScope)
	assert.Equal(t, []int{5, 3}, quantities(v, 11))
	assert.Equal(t, LedgerConfirmed, v.Status)
	got, _ := before.Request(7)
	assert.Equal(t, "Approved", got.Status)
	assert.Empty(t, before.Transactions)
}

func TestReduce_DirectCheckout(t *testing.T) {
	s := seeded(t, LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}})

	next, err := Reduce(s, DirectCheckoutCompleted{
		Scope:    deptScope,
		ItemID:   11,
		Quantity: 4,
		Movement: inventoryapp.MovementResponse{
			Item:        gauze(),
			Transaction: inventoryapp.TransactionResponse{ID: 200, TransactionType: "Usage", Quantity: 4},
		},
	})

	require.NoError(t, err)
	v, _ := next.Ledger(deptScope)
	assert.Equal(t, []int{1, 3}, quantities(v, 11))
	require.Len(t, next.Transactions, 1)
	assert.Equal(t, "Usage", next.Transactions[0].TransactionType)
}

func TestReduce_RequestStatusChanged(t *testing.T) {
	t.Run("approval adopts the transfer", func(t *testing.T) {
		main := inventoryapp.ItemResponse{ID: 3, ItemName: "Gauze",
			Batches: []inventoryapp.BatchResponse{{ID: 9, Quantity: 10}}}
		s := seeded(t,
			LedgerFetched{Scope: inventory.MainScope(), Items: []inventoryapp.ItemResponse{main}},
			LedgerFetched{Scope: deptScope},
			RequestsFetched{Requests: []requestapp.RequestResponse{requestWith(7, request.StatusPending, 4)}},
		)
		source := main
		source.Batches = []inventoryapp.BatchResponse{{ID: 9, Quantity: 6}}
		dest := gauze()
		dest.Batches = []inventoryapp.BatchResponse{{ID: 20, Quantity: 4}}

		next, err := Reduce(s, RequestStatusChanged{Change: requestapp.StatusChangeResponse{
			Request: requestWith(7, request.StatusApproved, 4),
			Transfer: &inventoryapp.TransferResponse{
				Source:      source,
				Item:        dest,
				Transaction: inventoryapp.TransactionResponse{ID: 300, TransactionType: "Transfer", Quantity: 4},
			},
		}})

		require.NoError(t, err)
		mainView, _ := next.Ledger(inventory.MainScope())
		assert.Equal(t, []int{6}, quantities(mainView, 3))
		deptView, _ := next.Ledger(deptScope)
		assert.Equal(t, []int{4}, quantities(deptView, 11))
		assert.Equal(t, LedgerConfirmed, deptView.Status)
		require.Len(t, next.Transactions, 1)
	})

	t.Run("procurement adopts the purchase request", func(t *testing.T) {
		s := seeded(t, RequestsFetched{Requests: []requestapp.RequestResponse{requestWith(7, request.StatusPending, 4)}})

		next, err := Reduce(s, RequestStatusChanged{Change: requestapp.StatusChangeResponse{
			Request:         requestWith(7, request.StatusProcurement, 4),
			PurchaseRequest: &requestapp.PurchaseRequestResponse{ID: 50, ItemName: "Gauze", Quantity: 4, Status: "Pending"},
		}})

		require.NoError(t, err)
		require.Len(t, next.PurchaseRequests, 1)
		assert.Equal(t, int64(50), next.PurchaseRequests[0].ID)
	})

	t.Run("terminal request does not move", func(t *testing.T) {
		for _, terminal := range []request.Status{
			request.StatusRejected, request.StatusRestocking, request.StatusProcurement, request.StatusCheckedOut,
		} {
			s := seeded(t, RequestsFetched{Requests: []requestapp.RequestResponse{requestWith(7, terminal, 4)}})

			_, err := Reduce(s, RequestStatusChanged{Change: requestapp.StatusChangeResponse{
				Request: requestWith(7, request.StatusApproved, 4),
			}})

			assert.ErrorIs(t, err, shared.ErrInvalidState, "from %s", terminal)
		}
	})
}

func TestReduce_Restock(t *testing.T) {
	main := inventoryapp.ItemResponse{ID: 3, ItemName: "Saline", Batches: []inventoryapp.BatchResponse{{ID: 1, Quantity: 2}}}
	s := seeded(t, LedgerFetched{Scope: inventory.MainScope(), Items: []inventoryapp.ItemResponse{main}})
	restocked := main
	restocked.Batches = []inventoryapp.BatchResponse{{ID: 1, Quantity: 2}, {ID: 2, Quantity: 10}}

	next, err := Reduce(s, RestockCompleted{Movement: inventoryapp.MovementResponse{
		Item:        restocked,
		Transaction: inventoryapp.TransactionResponse{ID: 400, TransactionType: "Restocking", Quantity: 10},
	}})

	require.NoError(t, err)
	v, _ := next.Ledger(inventory.MainScope())
	assert.Equal(t, []int{2, 10}, quantities(v, 3))
	assert.Equal(t, LedgerConfirmed, v.Status)
}

func TestReduce_Registry(t *testing.T) {
	s := seeded(t,
		DepartmentsFetched{Departments: []identityapp.DepartmentResponse{{ID: 1, Name: "ICU"}, {ID: 2, Name: "ER"}}},
		DepartmentUpserted{Department: identityapp.DepartmentResponse{ID: 2, Name: "Emergency"}},
		DepartmentRemoved{ID: 1},
		UsersFetched{Users: []identityapp.UserResponse{{ID: 5, Username: "nurse.kim"}}},
		UserUpserted{User: identityapp.UserResponse{ID: 6, Username: "dr.lee"}},
		UserRemoved{ID: 5},
	)

	require.Len(t, s.Departments, 1)
	assert.Equal(t, "Emergency", s.Departments[0].Name)
	require.Len(t, s.Users, 1)
	assert.Equal(t, "dr.lee", s.Users[0].Username)
}

func TestReduce_Session(t *testing.T) {
	subject := identity.Subject{
		DepartmentID: int64Ptr(2),
		Permissions: identity.PermissionMap{
			identity.ModuleInventory:   {Read: true, Write: false},
			identity.ModuleDepartments: {Read: true, Write: true},
		},
	}
	catalog := identity.DefaultCatalog().
		Restrict(identity.ModuleInventory, 2).
		Restrict(identity.ModuleDepartments, 3)
	modules := identityapp.ToModuleResponses(identity.ResolveModules(subject, catalog))

	s := seeded(t,
		SessionStarted{Session: Session{Token: "tok", Modules: modules}},
		LedgerFetched{Scope: deptScope, Items: []inventoryapp.ItemResponse{gauze()}},
	)

	t.Run("read-only module is visible without write", func(t *testing.T) {
		require.Len(t, s.Session.Modules, 1)
		assert.Equal(t, "inventory", s.Session.Modules[0].Key)
		assert.True(t, s.Session.Modules[0].ReadOnly)
		assert.False(t, s.Session.CanWrite("inventory"))
	})

	t.Run("module of another department is excluded", func(t *testing.T) {
		assert.False(t, s.Session.CanWrite("departments"))
	})

	t.Run("clearing the session drops cached views", func(t *testing.T) {
		next, err := Reduce(s, SessionCleared{})
		require.NoError(t, err)
		assert.Nil(t, next.Session)
		assert.Empty(t, next.Ledgers)
	})
}
