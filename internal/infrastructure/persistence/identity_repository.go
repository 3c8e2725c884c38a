package persistence

import (
	"context"
	"errors"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM.
// Soft-deleted users are hidden by gorm's DeletedAt scope.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds an active user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	return r.first(conn(ctx, r.db).Where("id = ?", id))
}

// FindByIDUnscoped finds a user by ID including soft-deleted ones
func (r *GormUserRepository) FindByIDUnscoped(ctx context.Context, id int64) (*identity.User, error) {
	return r.first(conn(ctx, r.db).Unscoped().Where("id = ?", id))
}

// FindByUsername finds an active user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.first(conn(ctx, r.db).Where("username = ?", username))
}

func (r *GormUserRepository) first(query *gorm.DB) (*identity.User, error) {
	var model models.UserModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List lists active users, or only deleted ones when deleted is true
func (r *GormUserRepository) List(ctx context.Context, deleted bool) ([]identity.User, error) {
	query := conn(ctx, r.db)
	if deleted {
		query = query.Unscoped().Where("deleted_at IS NOT NULL")
	}

	var rows []models.UserModel
	if err := query.Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]identity.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].ToDomain())
	}
	return users, nil
}

// ExistsByUsername checks if a username is taken, including deleted users
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Unscoped().Model(&models.UserModel{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a user, including its soft-delete marker
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)
	if err := conn(ctx, r.db).Unscoped().Save(model).Error; err != nil {
		return err
	}
	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

// GormDepartmentRepository implements identity.DepartmentRepository using GORM
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewGormDepartmentRepository creates a new GormDepartmentRepository
func NewGormDepartmentRepository(db *gorm.DB) *GormDepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

// FindByID finds an active department by ID
func (r *GormDepartmentRepository) FindByID(ctx context.Context, id int64) (*identity.Department, error) {
	var model models.DepartmentModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List lists active departments ordered by name
func (r *GormDepartmentRepository) List(ctx context.Context) ([]identity.Department, error) {
	var rows []models.DepartmentModel
	if err := conn(ctx, r.db).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	depts := make([]identity.Department, 0, len(rows))
	for i := range rows {
		depts = append(depts, *rows[i].ToDomain())
	}
	return depts, nil
}

// ExistsByName checks if an active department already uses the name
func (r *GormDepartmentRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.DepartmentModel{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a department, including its soft-delete marker
func (r *GormDepartmentRepository) Save(ctx context.Context, dept *identity.Department) error {
	model := models.DepartmentModelFromDomain(dept)
	if err := conn(ctx, r.db).Unscoped().Save(model).Error; err != nil {
		return err
	}
	dept.ID = model.ID
	dept.CreatedAt = model.CreatedAt
	dept.UpdatedAt = model.UpdatedAt
	return nil
}
