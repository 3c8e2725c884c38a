package request

import (
	"context"
	"time"

	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"go.uber.org/zap"
)

// PurchaseService manages purchase requests
type PurchaseService struct {
	purchaseRepo request.PurchaseRequestRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(purchaseRepo request.PurchaseRequestRepository, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// List returns one page of purchase requests visible to the caller
func (s *PurchaseService) List(ctx context.Context, filter ListPurchaseRequestsFilter) (*PurchaseRequestListResponse, error) {
	repoFilter := request.PurchaseRequestFilter{
		Filter:       pageOf(filter.Page, filter.Limit, filter.Search, "", ""),
		DepartmentID: filter.DepartmentID,
	}
	if filter.Status != "" {
		st, err := request.ParsePurchaseStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		repoFilter.Status = st
	}

	rows, total, err := s.purchaseRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	resp := &PurchaseRequestListResponse{
		Requests:    make([]PurchaseRequestResponse, 0, len(rows)),
		Total:       total,
		CurrentPage: repoFilter.Page,
		TotalPages:  shared.NewPaginated(rows, total, repoFilter.Page, repoFilter.PageSize).TotalPages,
	}
	for i := range rows {
		resp.Requests = append(resp.Requests, ToPurchaseRequestResponse(&rows[i], now))
	}
	return resp, nil
}

// Create files a pending purchase request. A zero DepartmentID defaults to
// the caller's department.
func (s *PurchaseService) Create(ctx context.Context, input CreatePurchaseRequestInput) (*PurchaseRequestResponse, error) {
	departmentID := input.DepartmentID
	scope := datascope.FromContext(ctx)
	if departmentID == 0 && scope.DepartmentID != nil {
		departmentID = *scope.DepartmentID
	}
	if departmentID != 0 && !scope.Allows(departmentID) {
		return nil, shared.ErrForbidden
	}

	p, err := request.NewPurchaseRequest(input.ItemName, input.Quantity, input.DeadlineDate, departmentID)
	if err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Purchase request created",
		zap.Int64("purchase_request_id", p.ID),
		zap.String("item_name", p.ItemName),
		zap.Time("deadline", p.DeadlineDate),
	)
	resp := ToPurchaseRequestResponse(p, s.now())
	return &resp, nil
}

// Submit sends a pending purchase request for approval
func (s *PurchaseService) Submit(ctx context.Context, id int64) (*PurchaseRequestResponse, error) {
	return s.UpdateStatus(ctx, id, UpdatePurchaseStatusInput{Status: request.PurchaseStatusSubmitted.String()})
}

// UpdateStatus applies a purchase request status change
func (s *PurchaseService) UpdateStatus(ctx context.Context, id int64, input UpdatePurchaseStatusInput) (*PurchaseRequestResponse, error) {
	target, err := request.ParsePurchaseStatus(input.Status)
	if err != nil {
		return nil, err
	}
	p, err := s.visible(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyStatus(target); err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Purchase request status changed",
		zap.Int64("purchase_request_id", id),
		zap.String("status", input.Status),
	)
	resp := ToPurchaseRequestResponse(p, s.now())
	return &resp, nil
}

// Delete removes a purchase request that was not submitted yet
func (s *PurchaseService) Delete(ctx context.Context, id int64) error {
	p, err := s.visible(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanDelete() {
		return shared.NewDomainErrorf("INVALID_STATE", "Only pending purchase requests can be deleted, request is %s", p.Status)
	}
	return s.purchaseRepo.Delete(ctx, id)
}

func (s *PurchaseService) visible(ctx context.Context, id int64) (*request.PurchaseRequest, error) {
	p, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !datascope.FromContext(ctx).Allows(p.DepartmentID) {
		return nil, shared.ErrNotFound
	}
	return p, nil
}
