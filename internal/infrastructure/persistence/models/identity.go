package models

import (
	"time"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"gorm.io/gorm"
)

// DepartmentModel is the persistence model for departments
type DepartmentModel struct {
	BaseModel
	Name      string `gorm:"type:varchar(100);not null"`
	HeadID    *int64
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DepartmentModel) TableName() string {
	return "departments"
}

// ToDomain converts the model to a domain department
func (m *DepartmentModel) ToDomain() *identity.Department {
	d := &identity.Department{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		HeadID:     m.HeadID,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		d.DeletedAt = &t
	}
	return d
}

// DepartmentModelFromDomain converts a domain department
func DepartmentModelFromDomain(d *identity.Department) *DepartmentModel {
	m := &DepartmentModel{
		Name:      d.Name,
		HeadID:    d.HeadID,
		DeletedAt: deletedAt(d.DeletedAt),
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// UserModel is the persistence model for users
type UserModel struct {
	BaseModel
	Username     string                          `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash string                          `gorm:"type:varchar(255);not null"`
	Role         string                          `gorm:"type:varchar(20);not null"`
	DepartmentID *int64                          `gorm:"index"`
	IsGlobalRole bool                            `gorm:"not null;default:false"`
	WeComUserID  string                          `gorm:"column:wecom_user_id;type:varchar(100)"`
	Permissions  map[string]identity.AccessLevel `gorm:"type:text;serializer:json"`
	ModuleOrder  []string                        `gorm:"type:text;serializer:json"`
	DeletedAt    gorm.DeletedAt                  `gorm:"index"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain user. Permission keys that are no
// longer in the module catalog are dropped.
func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         identity.Role(m.Role),
		DepartmentID: m.DepartmentID,
		IsGlobalRole: m.IsGlobalRole,
		WeComUserID:  m.WeComUserID,
		Permissions:  make(identity.PermissionMap, len(m.Permissions)),
	}
	for k, v := range m.Permissions {
		if key, err := identity.ParseModuleKey(k); err == nil {
			u.Permissions[key] = v
		}
	}
	for _, k := range m.ModuleOrder {
		if key, err := identity.ParseModuleKey(k); err == nil {
			u.ModuleOrder = append(u.ModuleOrder, key)
		}
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		u.DeletedAt = &t
	}
	return u
}

// UserModelFromDomain converts a domain user
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		DepartmentID: u.DepartmentID,
		IsGlobalRole: u.IsGlobalRole,
		WeComUserID:  u.WeComUserID,
		Permissions:  u.Permissions.Raw(),
		ModuleOrder:  make([]string, 0, len(u.ModuleOrder)),
		DeletedAt:    deletedAt(u.DeletedAt),
	}
	for _, k := range u.ModuleOrder {
		m.ModuleOrder = append(m.ModuleOrder, string(k))
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

func deletedAt(t *time.Time) gorm.DeletedAt {
	if t == nil {
		return gorm.DeletedAt{}
	}
	return gorm.DeletedAt{Time: *t, Valid: true}
}
