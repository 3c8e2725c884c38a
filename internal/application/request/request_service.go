package request

import (
	"context"
	"time"

	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultProcurementLeadTime is the deadline offset of a purchase request
// raised by a Procurement hand-off
const DefaultProcurementLeadTime = 14 * 24 * time.Hour

// StockTransferer moves warehouse stock into a department ledger
type StockTransferer interface {
	TransferStock(ctx context.Context, itemName string, quantity int, departmentID int64,
		performedBy string, requestID *int64) (*inventoryapp.TransferResponse, error)
}

// RequestService runs the inventory request state machine and its hand-offs
type RequestService struct {
	requestRepo  request.InventoryRequestRepository
	purchaseRepo request.PurchaseRequestRepository
	stock        StockTransferer
	txManager    shared.TransactionManager
	leadTime     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo request.InventoryRequestRepository,
	purchaseRepo request.PurchaseRequestRepository,
	stock StockTransferer,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requestRepo:  requestRepo,
		purchaseRepo: purchaseRepo,
		stock:        stock,
		txManager:    txManager,
		leadTime:     DefaultProcurementLeadTime,
		logger:       logger,
		now:          time.Now,
	}
}

// SetProcurementLeadTime overrides the deadline offset of hand-off purchase requests
func (s *RequestService) SetProcurementLeadTime(d time.Duration) {
	if d > 0 {
		s.leadTime = d
	}
}

// List returns one page of inventory requests visible to the caller
func (s *RequestService) List(ctx context.Context, filter ListRequestsFilter) (*RequestListResponse, error) {
	repoFilter := request.InventoryRequestFilter{
		Filter:       pageOf(filter.Page, filter.Limit, filter.Search, filter.OrderBy, filter.OrderDir),
		DepartmentID: filter.DepartmentID,
		Range:        shared.DateRange{From: filter.From, To: filter.To},
	}
	if filter.To != nil {
		// the end date is inclusive for callers
		to := filter.To.AddDate(0, 0, 1)
		repoFilter.Range.To = &to
	}
	if filter.Status != "" {
		st, err := request.ParseStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		repoFilter.Status = st
	}

	rows, total, err := s.requestRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	resp := &RequestListResponse{
		Requests:    make([]RequestResponse, 0, len(rows)),
		Total:       total,
		CurrentPage: repoFilter.Page,
		TotalPages:  shared.NewPaginated(rows, total, repoFilter.Page, repoFilter.PageSize).TotalPages,
	}
	for i := range rows {
		resp.Requests = append(resp.Requests, ToRequestResponse(&rows[i]))
	}
	return resp, nil
}

// Get returns one inventory request
func (s *RequestService) Get(ctx context.Context, id int64) (*RequestResponse, error) {
	r, err := s.visible(ctx, s.requestRepo.FindByID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRequestResponse(r)
	return &resp, nil
}

// Create files a pending inventory request for a department
func (s *RequestService) Create(ctx context.Context, input CreateRequestInput, requestedBy string) (*RequestResponse, error) {
	departmentID := input.DepartmentID
	scope := datascope.FromContext(ctx)
	if departmentID == 0 && scope.DepartmentID != nil {
		departmentID = *scope.DepartmentID
	}
	if departmentID != 0 && !scope.Allows(departmentID) {
		return nil, shared.ErrForbidden
	}

	r, err := request.NewInventoryRequest(input.ItemName, input.Quantity, departmentID, requestedBy)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Save(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("Inventory request created",
		zap.Int64("request_id", r.ID),
		zap.String("item_name", r.ItemName),
		zap.Int("quantity", r.Quantity),
		zap.Int64("department_id", r.DepartmentID),
	)
	resp := ToRequestResponse(r)
	return &resp, nil
}

// UpdateStatus applies a status change. Approval transfers the stock into
// the department; a Procurement hand-off raises the linked purchase request.
// Both happen in the same unit of work as the status change, so an
// illegal transition or a failed hand-off leaves nothing behind.
func (s *RequestService) UpdateStatus(ctx context.Context, id int64, input UpdateStatusInput, actor string) (*StatusChangeResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RequestService", "UpdateStatus",
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, id),
		telemetry.WithAttribute(telemetry.SpanAttrStatus, input.Status),
	)
	defer span.End()

	target, err := request.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var resp *StatusChangeResponse
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.visible(ctx, s.requestRepo.FindByIDForUpdate, id)
		if err != nil {
			return err
		}
		if err := r.ApplyStatus(target, input.Notes); err != nil {
			return err
		}
		resp = &StatusChangeResponse{}

		switch target {
		case request.StatusApproved:
			rid := r.ID
			transfer, err := s.stock.TransferStock(ctx, r.ItemName, r.Quantity, r.DepartmentID, actor, &rid)
			if err != nil {
				return err
			}
			resp.Transfer = transfer

		case request.StatusProcurement:
			pr, err := request.NewPurchaseRequestFrom(r, s.now().Add(s.leadTime))
			if err != nil {
				return err
			}
			if err := s.purchaseRepo.Save(ctx, pr); err != nil {
				return err
			}
			if err := r.LinkPurchaseRequest(pr.ID); err != nil {
				return err
			}
			prResp := ToPurchaseRequestResponse(pr, s.now())
			resp.PurchaseRequest = &prResp
		}

		if err := s.requestRepo.Save(ctx, r); err != nil {
			return err
		}
		resp.Request = ToRequestResponse(r)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Inventory request status changed",
		zap.Int64("request_id", id),
		zap.String("status", input.Status),
		zap.String("actor", actor),
	)
	return resp, nil
}

// Delete withdraws a request that is still pending
func (s *RequestService) Delete(ctx context.Context, id int64) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.visible(ctx, s.requestRepo.FindByIDForUpdate, id)
		if err != nil {
			return err
		}
		if !r.CanDelete() {
			return shared.NewDomainErrorf("INVALID_STATE", "Only pending requests can be deleted, request is %s", r.Status)
		}
		return s.requestRepo.Delete(ctx, id)
	})
}

// visible loads a request and hides it from callers outside its department
func (s *RequestService) visible(
	ctx context.Context,
	find func(context.Context, int64) (*request.InventoryRequest, error),
	id int64,
) (*request.InventoryRequest, error) {
	r, err := find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !datascope.FromContext(ctx).Allows(r.DepartmentID) {
		return nil, shared.ErrNotFound
	}
	return r, nil
}
