package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultTokenTTL is how long an issued checkout token stays redeemable
const DefaultTokenTTL = 5 * time.Minute

// RequestLedger depletes the ledger on behalf of a checked out request
type RequestLedger interface {
	ConsumeForRequest(ctx context.Context, scope inventory.Scope, itemName string, quantity int,
		performedBy string, verification inventory.Verification, requestID int64) (*inventoryapp.MovementResponse, error)
}

// CheckoutService completes approved inventory requests, either by
// redeeming a one-time QR token or by a manual operator entry.
type CheckoutService struct {
	requestRepo request.InventoryRequestRepository
	tokens      request.CheckoutTokenStore
	ledger      RequestLedger
	txManager   shared.TransactionManager
	tokenTTL    time.Duration
	metrics     *telemetry.LedgerMetrics
	logger      *zap.Logger
	now         func() time.Time
	newToken    func() string
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	requestRepo request.InventoryRequestRepository,
	tokens request.CheckoutTokenStore,
	ledger RequestLedger,
	txManager shared.TransactionManager,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &CheckoutService{
		requestRepo: requestRepo,
		tokens:      tokens,
		ledger:      ledger,
		txManager:   txManager,
		tokenTTL:    tokenTTL,
		logger:      logger,
		now:         time.Now,
		newToken:    uuid.NewString,
	}
}

// SetLedgerMetrics enables checkout counters
func (s *CheckoutService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// GenerateToken issues a fresh single-use token for an approved request.
// Issuing again replaces the outstanding token.
func (s *CheckoutService) GenerateToken(ctx context.Context, requestID int64) (*TokenResponse, error) {
	r, err := s.approved(ctx, requestID)
	if err != nil {
		return nil, err
	}
	token := s.newToken()
	if err := s.tokens.Issue(ctx, r.ID, token, s.tokenTTL); err != nil {
		return nil, err
	}

	s.logger.Debug("Checkout token issued", zap.Int64("request_id", r.ID))
	return &TokenResponse{
		QRCode:    request.EncodeQR(r.ID, token),
		ExpiresAt: s.now().Add(s.tokenTTL),
	}, nil
}

// Complete checks out an approved request. Stock, request status and token
// redemption change in one unit of work: a refused checkout leaves the
// request Approved and an issued token still redeemable.
func (s *CheckoutService) Complete(ctx context.Context, requestID int64, input CompleteInput, actor string) (*CompleteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CheckoutService", "Complete",
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, requestID),
	)
	defer span.End()

	resp, err := s.complete(ctx, requestID, input, actor)
	if err != nil {
		if errors.Is(err, request.ErrCheckoutTokenInvalid) {
			telemetry.AddEvent(span, "token_rejected", telemetry.SpanAttrRequestID, requestID)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *CheckoutService) complete(ctx context.Context, requestID int64, input CompleteInput, actor string) (*CompleteResponse, error) {
	method, performedBy, verification, err := s.resolvePath(input, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.approved(ctx, requestID); err != nil {
		return nil, err
	}

	var token string
	if method == request.CheckoutMethodToken {
		if token, err = tokenOf(requestID, input.Token); err != nil {
			s.metrics.RecordCheckout(ctx, string(method), false)
			return nil, err
		}
	}

	var resp *CompleteResponse
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.requestRepo.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !request.CanTransition(r.Status, request.StatusCheckedOut) {
			return request.TransitionError(r.Status, request.StatusCheckedOut)
		}
		movement, err := s.ledger.ConsumeForRequest(ctx, inventory.DepartmentScope(r.DepartmentID),
			r.ItemName, r.Quantity, performedBy, verification, r.ID)
		if err != nil {
			return err
		}
		// redeemed last so every earlier refusal keeps the token; the row
		// lock on the request serializes concurrent scans
		if method == request.CheckoutMethodToken {
			ok, err := s.tokens.Redeem(ctx, requestID, token)
			if err != nil {
				return err
			}
			if !ok {
				return request.ErrCheckoutTokenInvalid
			}
		}
		if err := r.CheckOut(performedBy, method); err != nil {
			return err
		}
		if err := s.requestRepo.Save(ctx, r); err != nil {
			return err
		}
		resp = &CompleteResponse{
			Request:     requestapp.ToRequestResponse(r),
			Item:        movement.Item,
			Transaction: movement.Transaction,
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordCheckout(ctx, string(method), false)
		if errors.Is(err, request.ErrCheckoutTokenInvalid) {
			s.logger.Info("Checkout token rejected", zap.Int64("request_id", requestID))
		}
		return nil, err
	}

	s.metrics.RecordCheckout(ctx, string(method), true)
	s.logger.Info("Inventory request checked out",
		zap.Int64("request_id", requestID),
		zap.String("method", string(method)),
		zap.String("performed_by", performedBy),
	)
	return resp, nil
}

// resolvePath picks the checkout path from the input
func (s *CheckoutService) resolvePath(input CompleteInput, actor string) (request.CheckoutMethod, string, inventory.Verification, error) {
	token := strings.TrimSpace(input.Token)
	user := strings.TrimSpace(input.CheckoutUser)
	switch {
	case token != "" && user != "":
		return "", "", "", shared.NewDomainError("INVALID_INPUT", "Provide either a token or a checkout user, not both")
	case token != "":
		return request.CheckoutMethodToken, actor, inventory.VerificationToken, nil
	case user != "":
		return request.CheckoutMethodManual, user, inventory.VerificationManual, nil
	}
	return "", "", "", shared.NewDomainError("INVALID_INPUT", "A token or a checkout user is required")
}

// approved loads a visible request and requires it to be Approved
func (s *CheckoutService) approved(ctx context.Context, requestID int64) (*request.InventoryRequest, error) {
	r, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !datascope.FromContext(ctx).Allows(r.DepartmentID) {
		return nil, shared.ErrNotFound
	}
	if r.Status != request.StatusApproved {
		return nil, request.TransitionError(r.Status, request.StatusCheckedOut)
	}
	return r, nil
}

// tokenOf accepts either the bare token or the full QR payload
func tokenOf(requestID int64, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, request.QRPrefix+":") {
		return raw, nil
	}
	id, token, err := request.DecodeQR(raw)
	if err != nil {
		return "", err
	}
	if id != requestID {
		return "", request.ErrCheckoutTokenInvalid
	}
	return token, nil
}
