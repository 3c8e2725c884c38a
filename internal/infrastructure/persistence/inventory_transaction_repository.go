package persistence

import (
	"context"
	"errors"

	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInventoryTransactionRepository implements inventory.TransactionRepository using GORM
type GormInventoryTransactionRepository struct {
	db *gorm.DB
}

// NewGormInventoryTransactionRepository creates a new GormInventoryTransactionRepository
func NewGormInventoryTransactionRepository(db *gorm.DB) *GormInventoryTransactionRepository {
	return &GormInventoryTransactionRepository{db: db}
}

// Create appends a transaction
func (r *GormInventoryTransactionRepository) Create(ctx context.Context, tx *inventory.Transaction) error {
	if tx.ID != 0 {
		return shared.NewDomainError("IMMUTABLE_TRANSACTION", "Transactions are append-only")
	}
	model := models.InventoryTransactionModelFromDomain(tx)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	tx.ID = model.ID
	tx.CreatedAt = model.CreatedAt
	return nil
}

// FindByID finds a transaction by its ID
func (r *GormInventoryTransactionRepository) FindByID(ctx context.Context, id int64) (*inventory.Transaction, error) {
	var model models.InventoryTransactionModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of transactions and the total match count
func (r *GormInventoryTransactionRepository) List(ctx context.Context, filter inventory.TransactionFilter) ([]inventory.Transaction, int64, error) {
	query := datascope.FromContext(ctx).Apply(conn(ctx, r.db).Model(&models.InventoryTransactionModel{}), "department_id")
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InventoryTransactionModel
	err := paginate(query, filter.Filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, TransactionSortFields, "created_at")).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toTransactions(rows), total, nil
}

// ListInRange returns every transaction inside the half-open date range, oldest first
func (r *GormInventoryTransactionRepository) ListInRange(ctx context.Context, dr shared.DateRange) ([]inventory.Transaction, error) {
	var rows []models.InventoryTransactionModel
	err := applyRange(conn(ctx, r.db), "created_at", dr).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

func (r *GormInventoryTransactionRepository) applyFilter(query *gorm.DB, filter inventory.TransactionFilter) *gorm.DB {
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		query = query.Where("transaction_type IN ?", types)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if term := shared.NormalizeSearch(filter.Search); term != "" {
		query = query.Where("LOWER(item_name) LIKE ? OR LOWER(performed_by) LIKE ?", likePattern(term), likePattern(term))
	}
	return applyRange(query, "created_at", filter.Range)
}

// paginate applies offset and limit; a zero page size returns every row
func paginate(query *gorm.DB, f shared.Filter) *gorm.DB {
	if f.PageSize <= 0 {
		return query
	}
	return query.Offset(f.Offset()).Limit(f.PageSize)
}

func applyRange(query *gorm.DB, column string, dr shared.DateRange) *gorm.DB {
	if dr.From != nil {
		query = query.Where(column+" >= ?", *dr.From)
	}
	if dr.To != nil {
		query = query.Where(column+" < ?", *dr.To)
	}
	return query
}

func toTransactions(rows []models.InventoryTransactionModel) []inventory.Transaction {
	txs := make([]inventory.Transaction, 0, len(rows))
	for i := range rows {
		txs = append(txs, *rows[i].ToDomain())
	}
	return txs
}
