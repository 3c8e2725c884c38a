package console

import (
	"context"

	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/application/store"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/infrastructure/apiclient"
	"go.uber.org/zap"
)

// ListRequests loads inventory requests and caches the page
func (c *Console) ListRequests(ctx context.Context, filter requestapp.ListRequestsFilter) (*requestapp.RequestListResponse, error) {
	gen := c.store.Begin(store.TargetRequests)
	params := apiclient.Params{}.
		With("search", filter.Search).
		With("departmentId", formatOptionalID(filter.DepartmentID)).
		With("status", filter.Status).
		With("from", formatDate(filter.From)).
		With("to", formatDate(filter.To)).
		With("page", formatInt(filter.Page)).
		With("limit", formatInt(filter.Limit)).
		With("orderBy", filter.OrderBy).
		With("orderDir", filter.OrderDir)

	resp, err := apiclient.Call[requestapp.RequestListResponse](ctx, c.client, apiclient.ResourceRequests, apiclient.VerbList, params, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.RequestsFetched{Requests: resp.Requests}); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateRequest files a new inventory request
func (c *Console) CreateRequest(ctx context.Context, input requestapp.CreateRequestInput) (*requestapp.RequestResponse, error) {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return nil, err
	}
	gen := c.store.Begin(store.TargetRequests)
	resp, err := apiclient.Call[requestapp.RequestEnvelope](ctx, c.client, apiclient.ResourceRequests, apiclient.VerbCreate, nil, input)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.RequestUpserted{Request: resp.Request}); err != nil {
		return nil, err
	}
	return &resp.Request, nil
}

// UpdateRequestStatus moves a request through approval. A move the cached
// request cannot make is refused before anything is sent. An approval moved
// stock, so the cached warehouse and department ledgers are re-fetched.
func (c *Console) UpdateRequestStatus(ctx context.Context, id int64, input requestapp.UpdateStatusInput) (*requestapp.StatusChangeResponse, error) {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return nil, err
	}
	if cur, ok := c.store.Snapshot().Request(id); ok {
		from, to := request.Status(cur.Status), request.Status(input.Status)
		if !request.CanTransition(from, to) {
			return nil, request.TransitionError(from, to)
		}
	}

	gen := c.store.Begin(store.RequestTarget(id))
	resp, err := apiclient.Call[requestapp.StatusChangeResponse](ctx, c.client,
		apiclient.ResourceRequests, apiclient.VerbUpdateStatus, apiclient.ID(id), input)
	if err != nil {
		return nil, err
	}
	applied, err := c.store.DispatchIfCurrent(ctx, gen, store.RequestStatusChanged{Change: resp})
	if err != nil {
		return nil, err
	}
	c.logger.Info("Request status changed",
		zap.Int64("request_id", id),
		zap.String("status", resp.Request.Status))
	if applied && resp.Transfer != nil {
		c.resync(ctx, inventory.MainScope(), inventory.DepartmentScope(resp.Request.DepartmentID))
	}
	return &resp, nil
}

// DeleteRequest removes an inventory request
func (c *Console) DeleteRequest(ctx context.Context, id int64) error {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return err
	}
	gen := c.store.Begin(store.RequestTarget(id))
	if _, err := c.client.Do(ctx, apiclient.ResourceRequests, apiclient.VerbDelete, apiclient.ID(id), nil); err != nil {
		return err
	}
	_, err := c.store.DispatchIfCurrent(ctx, gen, store.RequestRemoved{ID: id})
	return err
}

// IssueCheckoutToken asks for a fresh QR token for an approved request
func (c *Console) IssueCheckoutToken(ctx context.Context, id int64) (*checkoutapp.TokenResponse, error) {
	return callPtr[checkoutapp.TokenResponse](ctx, c, apiclient.ResourceCheckout, apiclient.VerbIssueToken, apiclient.ID(id), nil)
}

// CompleteCheckout checks out an approved request. The request must be
// cached as Approved; anything else is refused without a call. On success
// the department ledger is depleted locally, then re-fetched.
func (c *Console) CompleteCheckout(ctx context.Context, id int64, input checkoutapp.CompleteInput) (*checkoutapp.CompleteResponse, error) {
	if err := c.requireWrite(identity.ModuleInventory); err != nil {
		return nil, err
	}
	cur, ok := c.store.Snapshot().Request(id)
	if !ok {
		return nil, store.ErrUnknownRequest
	}
	if status := request.Status(cur.Status); status != request.StatusApproved {
		return nil, request.TransitionError(status, request.StatusCheckedOut)
	}

	scope := inventory.DepartmentScope(cur.DepartmentID)
	if err := c.ensureConfirmed(ctx, scope); err != nil {
		return nil, err
	}

	gen := c.store.Begin(store.RequestTarget(id))
	resp, err := apiclient.Call[checkoutapp.CompleteResponse](ctx, c.client,
		apiclient.ResourceCheckout, apiclient.VerbComplete, apiclient.ID(id), input)
	if err != nil {
		return nil, err
	}
	applied, err := c.store.DispatchIfCurrent(ctx, gen, store.CheckoutCompleted{RequestID: id, Result: resp})
	if err != nil {
		c.logger.Warn("Local checkout refused, re-fetching ledger",
			zap.Int64("request_id", id), zap.Error(err))
		if applied, err = c.store.DispatchIfCurrent(ctx, gen, store.RequestUpserted{Request: resp.Request}); err != nil {
			return nil, err
		}
	}
	if applied {
		c.resync(ctx, scope)
	}
	return &resp, nil
}

// ListPurchaseRequests loads purchase requests and caches the page
func (c *Console) ListPurchaseRequests(ctx context.Context, filter requestapp.ListPurchaseRequestsFilter) (*requestapp.PurchaseRequestListResponse, error) {
	gen := c.store.Begin(store.TargetPurchaseRequests)
	params := apiclient.Params{}.
		With("search", filter.Search).
		With("departmentId", formatOptionalID(filter.DepartmentID)).
		With("status", filter.Status).
		With("page", formatInt(filter.Page)).
		With("limit", formatInt(filter.Limit))

	resp, err := apiclient.Call[requestapp.PurchaseRequestListResponse](ctx, c.client,
		apiclient.ResourcePurchaseRequests, apiclient.VerbList, params, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.PurchaseRequestsFetched{PurchaseRequests: resp.Requests}); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePurchaseRequest files a purchase request
func (c *Console) CreatePurchaseRequest(ctx context.Context, input requestapp.CreatePurchaseRequestInput) (*requestapp.PurchaseRequestResponse, error) {
	return c.mutatePurchaseRequest(ctx, apiclient.VerbCreate, nil, input)
}

// SubmitPurchaseRequest sends a pending purchase request to the supplier
func (c *Console) SubmitPurchaseRequest(ctx context.Context, id int64) (*requestapp.PurchaseRequestResponse, error) {
	return c.mutatePurchaseRequest(ctx, apiclient.VerbSubmit, apiclient.ID(id), nil)
}

// UpdatePurchaseRequestStatus approves or rejects a purchase request
func (c *Console) UpdatePurchaseRequestStatus(ctx context.Context, id int64, input requestapp.UpdatePurchaseStatusInput) (*requestapp.PurchaseRequestResponse, error) {
	return c.mutatePurchaseRequest(ctx, apiclient.VerbUpdateStatus, apiclient.ID(id), input)
}

// DeletePurchaseRequest removes a purchase request
func (c *Console) DeletePurchaseRequest(ctx context.Context, id int64) error {
	if err := c.requireWrite(identity.ModuleProcurement); err != nil {
		return err
	}
	gen := c.store.Begin(store.TargetPurchaseRequests)
	if _, err := c.client.Do(ctx, apiclient.ResourcePurchaseRequests, apiclient.VerbDelete, apiclient.ID(id), nil); err != nil {
		return err
	}
	_, err := c.store.DispatchIfCurrent(ctx, gen, store.PurchaseRequestRemoved{ID: id})
	return err
}

func (c *Console) mutatePurchaseRequest(ctx context.Context, verb apiclient.Verb, params apiclient.Params, body any) (*requestapp.PurchaseRequestResponse, error) {
	if err := c.requireWrite(identity.ModuleProcurement); err != nil {
		return nil, err
	}
	gen := c.store.Begin(store.TargetPurchaseRequests)
	resp, err := apiclient.Call[requestapp.PurchaseRequestEnvelope](ctx, c.client, apiclient.ResourcePurchaseRequests, verb, params, body)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.PurchaseRequestUpserted{PurchaseRequest: resp.Request}); err != nil {
		return nil, err
	}
	return &resp.Request, nil
}

func callPtr[Resp any](ctx context.Context, c *Console, resource apiclient.Resource, verb apiclient.Verb, params apiclient.Params, body any) (*Resp, error) {
	resp, err := apiclient.Call[Resp](ctx, c.client, resource, verb, params, body)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

