package persistence

import (
	"context"
	"errors"

	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRequestRepository implements request.InventoryRequestRepository using GORM
type GormInventoryRequestRepository struct {
	db *gorm.DB
}

// NewGormInventoryRequestRepository creates a new GormInventoryRequestRepository
func NewGormInventoryRequestRepository(db *gorm.DB) *GormInventoryRequestRepository {
	return &GormInventoryRequestRepository{db: db}
}

// FindByID finds a request by its ID
func (r *GormInventoryRequestRepository) FindByID(ctx context.Context, id int64) (*request.InventoryRequest, error) {
	return r.first(conn(ctx, r.db), id)
}

// FindByIDForUpdate finds a request and locks its row for the surrounding transaction
func (r *GormInventoryRequestRepository) FindByIDForUpdate(ctx context.Context, id int64) (*request.InventoryRequest, error) {
	return r.first(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormInventoryRequestRepository) first(query *gorm.DB, id int64) (*request.InventoryRequest, error) {
	var model models.InventoryRequestModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of requests and the total match count
func (r *GormInventoryRequestRepository) List(ctx context.Context, filter request.InventoryRequestFilter) ([]request.InventoryRequest, int64, error) {
	query := datascope.FromContext(ctx).Apply(conn(ctx, r.db).Model(&models.InventoryRequestModel{}), "department_id")
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if term := shared.NormalizeSearch(filter.Search); term != "" {
		query = query.Where("LOWER(item_name) LIKE ? OR LOWER(requested_by) LIKE ?", likePattern(term), likePattern(term))
	}
	query = applyRange(query, "created_at", filter.Range)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InventoryRequestModel
	err := paginate(query, filter.Filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, InventoryRequestSortFields, "created_at")).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]request.InventoryRequest, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, total, nil
}

// Save creates or updates a request
func (r *GormInventoryRequestRepository) Save(ctx context.Context, req *request.InventoryRequest) error {
	model := models.InventoryRequestModelFromDomain(req)
	if err := conn(ctx, r.db).Save(model).Error; err != nil {
		return err
	}
	req.ID = model.ID
	req.CreatedAt = model.CreatedAt
	req.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a request
func (r *GormInventoryRequestRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&models.InventoryRequestModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormPurchaseRequestRepository implements request.PurchaseRequestRepository using GORM
type GormPurchaseRequestRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRequestRepository creates a new GormPurchaseRequestRepository
func NewGormPurchaseRequestRepository(db *gorm.DB) *GormPurchaseRequestRepository {
	return &GormPurchaseRequestRepository{db: db}
}

// FindByID finds a purchase request by its ID
func (r *GormPurchaseRequestRepository) FindByID(ctx context.Context, id int64) (*request.PurchaseRequest, error) {
	return r.first(conn(ctx, r.db).Where("id = ?", id))
}

// FindBySourceRequest finds the purchase request raised for an inventory request
func (r *GormPurchaseRequestRepository) FindBySourceRequest(ctx context.Context, sourceRequestID int64) (*request.PurchaseRequest, error) {
	return r.first(conn(ctx, r.db).Where("source_request_id = ?", sourceRequestID))
}

func (r *GormPurchaseRequestRepository) first(query *gorm.DB) (*request.PurchaseRequest, error) {
	var model models.PurchaseRequestModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of purchase requests and the total match count
func (r *GormPurchaseRequestRepository) List(ctx context.Context, filter request.PurchaseRequestFilter) ([]request.PurchaseRequest, int64, error) {
	query := datascope.FromContext(ctx).Apply(conn(ctx, r.db).Model(&models.PurchaseRequestModel{}), "department_id")
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if term := shared.NormalizeSearch(filter.Search); term != "" {
		query = query.Where("LOWER(item_name) LIKE ?", likePattern(term))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PurchaseRequestModel
	err := paginate(query, filter.Filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, PurchaseRequestSortFields, "created_at")).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]request.PurchaseRequest, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, total, nil
}

// Save creates or updates a purchase request
func (r *GormPurchaseRequestRepository) Save(ctx context.Context, p *request.PurchaseRequest) error {
	model := models.PurchaseRequestModelFromDomain(p)
	if err := conn(ctx, r.db).Save(model).Error; err != nil {
		return err
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a purchase request
func (r *GormPurchaseRequestRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&models.PurchaseRequestModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
