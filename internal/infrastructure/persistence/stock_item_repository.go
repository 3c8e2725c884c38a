package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockItemRepository implements inventory.StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

func (r *GormStockItemRepository) scoped(ctx context.Context, scope inventory.Scope) *gorm.DB {
	return conn(ctx, r.db).
		Preload("Batches", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("department_id = ?", scope.DepartmentID)
}

func (r *GormStockItemRepository) first(query *gorm.DB) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an item by its ID within a scope
func (r *GormStockItemRepository) FindByID(ctx context.Context, scope inventory.Scope, id int64) (*inventory.StockItem, error) {
	return r.first(r.scoped(ctx, scope).Where("id = ?", id))
}

// FindByIDForUpdate finds an item and takes a row lock until the surrounding
// transaction ends
func (r *GormStockItemRepository) FindByIDForUpdate(ctx context.Context, scope inventory.Scope, id int64) (*inventory.StockItem, error) {
	return r.first(r.scoped(ctx, scope).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByName finds an item by exact name within a scope
func (r *GormStockItemRepository) FindByName(ctx context.Context, scope inventory.Scope, itemName string) (*inventory.StockItem, error) {
	return r.first(r.scoped(ctx, scope).Where("item_name = ?", itemName))
}

// List lists the items of a scope ordered by name
func (r *GormStockItemRepository) List(ctx context.Context, scope inventory.Scope, search string) ([]inventory.StockItem, error) {
	query := r.scoped(ctx, scope)
	if term := shared.NormalizeSearch(search); term != "" {
		query = query.Where("LOWER(item_name) LIKE ? OR LOWER(category) LIKE ?", likePattern(term), likePattern(term))
	}

	var rows []models.StockItemModel
	if err := query.Order("item_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]inventory.StockItem, 0, len(rows))
	for i := range rows {
		items = append(items, *rows[i].ToDomain())
	}
	return items, nil
}

// Save creates or updates an item and synchronizes its batch rows with the
// in-memory batch list. Batch order is stored in the position column.
func (r *GormStockItemRepository) Save(ctx context.Context, item *inventory.StockItem) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		model := models.StockItemModelFromDomain(item)
		if item.IsNew() {
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return err
			}
			item.ID = model.ID
			item.CreatedAt = model.CreatedAt
			item.UpdatedAt = model.UpdatedAt
		} else {
			if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
				return err
			}
		}
		return saveBatches(tx, item)
	})
}

func saveBatches(tx *gorm.DB, item *inventory.StockItem) error {
	keep := make([]int64, 0, len(item.Batches))
	for i := range item.Batches {
		b := &item.Batches[i]
		row := models.StockBatchModel{
			ID:         b.ID,
			ItemID:     item.ID,
			Position:   i,
			Quantity:   b.Quantity,
			ExpiryDate: b.ExpiryDate,
			Supplier:   b.Supplier,
			CreatedAt:  b.CreatedAt,
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now()
		}
		if b.ID == 0 {
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			b.ID = row.ID
			b.CreatedAt = row.CreatedAt
		} else {
			err := tx.Model(&models.StockBatchModel{}).
				Where("id = ? AND item_id = ?", b.ID, item.ID).
				Updates(map[string]any{"quantity": b.Quantity, "position": i}).Error
			if err != nil {
				return err
			}
		}
		keep = append(keep, b.ID)
	}

	del := tx.Where("item_id = ?", item.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	return del.Delete(&models.StockBatchModel{}).Error
}
