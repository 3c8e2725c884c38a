package inventory

import (
	"context"
	"errors"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const serviceName = "InventoryService"

// InventoryService handles the warehouse and department ledgers. Every
// mutation loads the affected items under a row lock, applies the domain
// operation and appends exactly one transaction, all in one unit of work.
type InventoryService struct {
	itemRepo  inventory.StockItemRepository
	txRepo    inventory.TransactionRepository
	txManager shared.TransactionManager
	deptRepo  identity.DepartmentRepository
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	itemRepo inventory.StockItemRepository,
	txRepo inventory.TransactionRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		itemRepo:  itemRepo,
		txRepo:    txRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// SetDepartmentRepository enables department existence checks on transfers
func (s *InventoryService) SetDepartmentRepository(repo identity.DepartmentRepository) {
	s.deptRepo = repo
}

// SetLedgerMetrics sets the ledger metrics recorder (optional)
func (s *InventoryService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// ListMain returns the warehouse ledger
func (s *InventoryService) ListMain(ctx context.Context, search string) ([]ItemResponse, error) {
	items, err := s.itemRepo.List(ctx, inventory.MainScope(), search)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items), nil
}

// ListDepartment returns the ledger of one department
func (s *InventoryService) ListDepartment(ctx context.Context, departmentID int64, search string) ([]ItemResponse, error) {
	if departmentID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department ID is required")
	}
	if !datascope.FromContext(ctx).Allows(departmentID) {
		return nil, shared.ErrForbidden
	}
	items, err := s.itemRepo.List(ctx, inventory.DepartmentScope(departmentID), search)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items), nil
}

// GetMainItem returns one warehouse item
func (s *InventoryService) GetMainItem(ctx context.Context, id int64) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, inventory.MainScope(), id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// AddItem creates a warehouse item. Opening batches are recorded as one
// Restocking transaction.
func (s *InventoryService) AddItem(ctx context.Context, req AddItemRequest, performedBy string) (*ItemResponse, error) {
	item, err := inventory.NewMainItem(req.ItemName, req.Category, req.Unit, req.MinimumStockLevel, req.RestockThreshold, req.Supplier)
	if err != nil {
		return nil, err
	}
	var opening []inventory.Batch
	if len(req.Batches) > 0 {
		if opening, err = ToBatches(req.Batches); err != nil {
			return nil, err
		}
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.itemRepo.FindByName(ctx, inventory.MainScope(), item.ItemName)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			return shared.NewDomainErrorf("ALREADY_EXISTS", "Item %s already exists in the warehouse", item.ItemName)
		}

		if len(opening) > 0 {
			if err := item.Restock(opening...); err != nil {
				return err
			}
		}
		if err := s.itemRepo.Save(ctx, item); err != nil {
			return err
		}
		if len(opening) > 0 {
			_, err := s.record(ctx, inventory.TransactionTypeRestocking, item, inventory.EffectiveQuantity(opening),
				performedBy, inventory.VerificationSession, nil)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Warehouse item added",
		zap.Int64("item_id", item.ID),
		zap.String("item_name", item.ItemName),
		zap.Int("quantity", item.EffectiveQuantity()),
	)
	resp := ToItemResponse(item)
	return &resp, nil
}

// Restock appends new batches to a warehouse item
func (s *InventoryService) Restock(ctx context.Context, id int64, req RestockRequest, performedBy string) (*MovementResponse, error) {
	batches, err := ToBatches(req.Batches)
	if err != nil {
		return nil, err
	}

	var result *MovementResponse
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.itemRepo.FindByIDForUpdate(ctx, inventory.MainScope(), id)
		if err != nil {
			return err
		}
		if err := item.Restock(batches...); err != nil {
			return err
		}
		if err := s.itemRepo.Save(ctx, item); err != nil {
			return err
		}
		tx, err := s.record(ctx, inventory.TransactionTypeRestocking, item, inventory.EffectiveQuantity(batches),
			performedBy, inventory.VerificationSession, nil)
		if err != nil {
			return err
		}
		result = &MovementResponse{Item: ToItemResponse(item), Transaction: ToTransactionResponse(tx)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Transfer moves warehouse stock into a department sub-store
func (s *InventoryService) Transfer(ctx context.Context, req TransferRequest, performedBy string) (*TransferResponse, error) {
	return s.TransferStock(ctx, req.ItemName, req.Quantity, req.DepartmentID, performedBy, nil)
}

// TransferStock moves quantity of the named warehouse item into the
// department, creating the department item on first delivery. It joins the
// caller's transaction when there is one; approval of an inventory request
// uses it that way.
func (s *InventoryService) TransferStock(
	ctx context.Context,
	itemName string,
	quantity int,
	departmentID int64,
	performedBy string,
	requestID *int64,
) (*TransferResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "TransferStock",
		telemetry.WithAttribute(telemetry.SpanAttrItemName, itemName),
		telemetry.WithAttribute(telemetry.SpanAttrDepartmentID, departmentID),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, quantity),
	)
	defer span.End()

	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	if departmentID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department ID is required")
	}

	var result *TransferResponse
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if s.deptRepo != nil {
			if _, err := s.deptRepo.FindByID(ctx, departmentID); err != nil {
				return err
			}
		}

		found, err := s.itemRepo.FindByName(ctx, inventory.MainScope(), itemName)
		if err != nil {
			return err
		}
		source, err := s.itemRepo.FindByIDForUpdate(ctx, inventory.MainScope(), found.ID)
		if err != nil {
			return err
		}

		dest, err := s.departmentItemFor(ctx, source, departmentID)
		if err != nil {
			return err
		}

		consumed, err := inventory.Transfer(source, dest, quantity)
		if err != nil {
			return err
		}
		if err := s.itemRepo.Save(ctx, source); err != nil {
			return err
		}
		if err := s.itemRepo.Save(ctx, dest); err != nil {
			return err
		}

		tx, err := s.record(ctx, inventory.TransactionTypeTransfer, dest, quantity,
			performedBy, inventory.VerificationSession, requestID)
		if err != nil {
			return err
		}
		s.metrics.RecordConsumption(ctx, nil, consumed.Consumed, 0)

		result = &TransferResponse{
			Source:      ToItemResponse(source),
			Item:        ToItemResponse(dest),
			Transaction: ToTransactionResponse(tx),
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Stock transferred to department",
		zap.String("item_name", itemName),
		zap.Int("quantity", quantity),
		zap.Int64("department_id", departmentID),
	)
	return result, nil
}

func (s *InventoryService) departmentItemFor(ctx context.Context, source *inventory.StockItem, departmentID int64) (*inventory.StockItem, error) {
	scope := inventory.DepartmentScope(departmentID)
	found, err := s.itemRepo.FindByName(ctx, scope, source.ItemName)
	if err == nil {
		return s.itemRepo.FindByIDForUpdate(ctx, scope, found.ID)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return inventory.NewDepartmentItem(departmentID, source.ItemName, source.Category, source.Unit, source.Supplier)
}

// CheckoutDepartmentItem records direct usage of department stock
func (s *InventoryService) CheckoutDepartmentItem(ctx context.Context, departmentID, itemID int64, quantity int, performedBy string) (*MovementResponse, error) {
	if !datascope.FromContext(ctx).Allows(departmentID) {
		return nil, shared.ErrForbidden
	}
	return s.checkoutItem(ctx, inventory.DepartmentScope(departmentID), itemID, quantity, performedBy, inventory.TransactionTypeUsage)
}

// CheckoutMainItem takes stock straight out of the warehouse
func (s *InventoryService) CheckoutMainItem(ctx context.Context, itemID int64, quantity int, performedBy string) (*MovementResponse, error) {
	return s.checkoutItem(ctx, inventory.MainScope(), itemID, quantity, performedBy, inventory.TransactionTypeCheckout)
}

func (s *InventoryService) checkoutItem(
	ctx context.Context,
	scope inventory.Scope,
	itemID int64,
	quantity int,
	performedBy string,
	txType inventory.TransactionType,
) (*MovementResponse, error) {
	var result *MovementResponse
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.itemRepo.FindByIDForUpdate(ctx, scope, itemID)
		if err != nil {
			return err
		}
		consumed, err := item.ConsumeStrict(quantity)
		if err != nil {
			return err
		}
		if err := s.itemRepo.Save(ctx, item); err != nil {
			return err
		}
		tx, err := s.record(ctx, txType, item, quantity, performedBy, inventory.VerificationSession, nil)
		if err != nil {
			return err
		}
		s.metrics.RecordConsumption(ctx, tx.DepartmentID, consumed.Consumed, 0)
		result = &MovementResponse{Item: ToItemResponse(item), Transaction: ToTransactionResponse(tx)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConsumeForRequest depletes stock for a checked out inventory request and
// appends its Checkout transaction. A department ledger that no longer holds
// the approved quantity refuses the checkout and nothing is written.
func (s *InventoryService) ConsumeForRequest(
	ctx context.Context,
	scope inventory.Scope,
	itemName string,
	quantity int,
	performedBy string,
	verification inventory.Verification,
	requestID int64,
) (*MovementResponse, error) {
	var result *MovementResponse
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.itemRepo.FindByName(ctx, scope, itemName)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainErrorf("INSUFFICIENT_STOCK", "No %s stock in %s", itemName, scope)
			}
			return err
		}
		item, err := s.itemRepo.FindByIDForUpdate(ctx, scope, found.ID)
		if err != nil {
			return err
		}
		consumed, err := item.ConsumeStrict(quantity)
		if err != nil {
			if errors.Is(err, shared.ErrInsufficientStock) {
				s.logger.Warn("Checkout refused, department stock below approved quantity",
					zap.Int64("request_id", requestID),
					zap.String("item_name", itemName),
					zap.String("scope", scope.String()),
					zap.Int("requested", quantity),
					zap.Int("available", item.EffectiveQuantity()),
				)
			}
			return err
		}
		if err := s.itemRepo.Save(ctx, item); err != nil {
			return err
		}
		rid := requestID
		tx, err := s.record(ctx, inventory.TransactionTypeCheckout, item, quantity, performedBy, verification, &rid)
		if err != nil {
			return err
		}

		s.metrics.RecordConsumption(ctx, tx.DepartmentID, consumed.Consumed, 0)
		result = &MovementResponse{
			Item:        ToItemResponse(item),
			Transaction: ToTransactionResponse(tx),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// record appends one transaction to the ledger
func (s *InventoryService) record(
	ctx context.Context,
	txType inventory.TransactionType,
	item *inventory.StockItem,
	quantity int,
	performedBy string,
	verification inventory.Verification,
	requestID *int64,
) (*inventory.Transaction, error) {
	tx, err := inventory.NewTransaction(txType, item, quantity, performedBy, verification)
	if err != nil {
		return nil, err
	}
	if requestID != nil {
		tx.WithRequest(*requestID)
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.metrics.RecordTransaction(ctx, txType.String(), tx.DepartmentID)
	return tx, nil
}
