package console

import (
	"context"

	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	"github.com/hospital-erp/backend/internal/application/store"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/infrastructure/apiclient"
	"go.uber.org/zap"
)

func ledgerCall(scope inventory.Scope, search string) (apiclient.Resource, apiclient.Params) {
	params := apiclient.Params{}.With("search", search)
	if scope.IsMain() {
		return apiclient.ResourceInventory, params
	}
	return apiclient.ResourceDepartmentInventory, params.With("departmentId", formatID(scope.DepartmentID))
}

// FetchLedger loads the full ledger of a scope and caches it as confirmed.
// A response that arrives after a newer fetch of the same scope is dropped.
func (c *Console) FetchLedger(ctx context.Context, scope inventory.Scope) (store.LedgerView, error) {
	gen := c.store.Begin(store.LedgerTarget(scope))
	resource, params := ledgerCall(scope, "")
	resp, err := apiclient.Call[inventoryapp.LedgerResponse](ctx, c.client, resource, apiclient.VerbList, params, nil)
	if err != nil {
		return store.LedgerView{}, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.LedgerFetched{Scope: scope, Items: resp.Inventory}); err != nil {
		return store.LedgerView{}, err
	}
	view, _ := c.store.Snapshot().Ledger(scope)
	return view, nil
}

// SearchLedger returns the items of a scope matching term. The result is
// partial and never cached.
func (c *Console) SearchLedger(ctx context.Context, scope inventory.Scope, term string) ([]inventoryapp.ItemResponse, error) {
	resource, params := ledgerCall(scope, term)
	resp, err := apiclient.Call[inventoryapp.LedgerResponse](ctx, c.client, resource, apiclient.VerbList, params, nil)
	if err != nil {
		return nil, err
	}
	return resp.Inventory, nil
}

// AddItem creates a warehouse item
func (c *Console) AddItem(ctx context.Context, input inventoryapp.AddItemRequest) (*inventoryapp.ItemResponse, error) {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return nil, err
	}
	gen := c.store.Begin(store.LedgerTarget(inventory.MainScope()))
	resp, err := apiclient.Call[inventoryapp.ItemEnvelope](ctx, c.client, apiclient.ResourceInventory, apiclient.VerbCreate, nil, input)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.ItemUpserted{Item: resp.Item}); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// Restock adds batches to a warehouse item
func (c *Console) Restock(ctx context.Context, itemID int64, input inventoryapp.RestockRequest) (*inventoryapp.MovementResponse, error) {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return nil, err
	}
	main := inventory.MainScope()
	gen := c.store.Begin(store.LedgerTarget(main))
	resp, err := apiclient.Call[inventoryapp.MovementResponse](ctx, c.client,
		apiclient.ResourceInventory, apiclient.VerbRestock, apiclient.ID(itemID), input)
	if err != nil {
		return nil, err
	}
	applied, err := c.store.DispatchIfCurrent(ctx, gen, store.RestockCompleted{Movement: resp})
	if err != nil {
		return nil, err
	}
	if applied {
		c.resync(ctx, main)
	}
	return &resp, nil
}

// Transfer moves stock from the warehouse to a department. Both ledgers
// are re-fetched when cached.
func (c *Console) Transfer(ctx context.Context, input inventoryapp.TransferRequest) (*inventoryapp.TransferResponse, error) {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return nil, err
	}
	main, dept := inventory.MainScope(), inventory.DepartmentScope(input.DepartmentID)
	gen := c.store.Begin(store.LedgerTarget(main))
	c.store.Abandon(store.LedgerTarget(dept))
	resp, err := apiclient.Call[inventoryapp.TransferResponse](ctx, c.client,
		apiclient.ResourceInventory, apiclient.VerbTransfer, nil, input)
	if err != nil {
		return nil, err
	}
	applied, err := c.store.DispatchIfCurrent(ctx, gen, store.TransferCompleted{Transfer: resp})
	if err != nil {
		return nil, err
	}
	c.logger.Info("Stock transferred",
		zap.String("item", input.ItemName),
		zap.Int("quantity", input.Quantity),
		zap.Int64("department_id", input.DepartmentID))
	if applied {
		c.resync(ctx, main, dept)
	}
	return &resp, nil
}

// CheckoutDepartmentItem takes stock out of a department ledger
func (c *Console) CheckoutDepartmentItem(ctx context.Context, departmentID, itemID int64, quantity int) (*inventoryapp.MovementResponse, error) {
	return c.directCheckout(ctx, inventory.DepartmentScope(departmentID), itemID, quantity,
		apiclient.ResourceDepartmentInventory, apiclient.VerbCheckout)
}

// CheckoutMainItem takes stock out of the warehouse ledger
func (c *Console) CheckoutMainItem(ctx context.Context, itemID int64, quantity int) (*inventoryapp.MovementResponse, error) {
	return c.directCheckout(ctx, inventory.MainScope(), itemID, quantity,
		apiclient.ResourceInventory, apiclient.VerbCheckoutMain)
}

func (c *Console) directCheckout(
	ctx context.Context,
	scope inventory.Scope,
	itemID int64,
	quantity int,
	resource apiclient.Resource,
	verb apiclient.Verb,
) (*inventoryapp.MovementResponse, error) {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return nil, err
	}
	if err := c.ensureConfirmed(ctx, scope); err != nil {
		return nil, err
	}

	gen := c.store.Begin(store.LedgerTarget(scope))
	params := apiclient.ID(itemID)
	if !scope.IsMain() {
		params = params.With("departmentId", formatID(scope.DepartmentID))
	}
	resp, err := apiclient.Call[inventoryapp.MovementResponse](ctx, c.client,
		resource, verb, params, inventoryapp.CheckoutItemRequest{Quantity: quantity})
	if err != nil {
		return nil, err
	}
	ev := store.DirectCheckoutCompleted{Scope: scope, ItemID: itemID, Quantity: quantity, Movement: resp}
	applied, err := c.store.DispatchIfCurrent(ctx, gen, ev)
	if err != nil {
		// the server already committed; only the cached copy is out of date
		c.logger.Warn("Local depletion refused, re-fetching ledger",
			zap.String("scope", scope.String()), zap.Error(err))
	} else if !applied {
		return &resp, nil
	}
	c.resync(ctx, scope)
	return &resp, nil
}
