package identity

import (
	"strings"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// Department is a hospital department. Its id scopes department ledgers,
// requests and users. Departments are only soft-deleted.
type Department struct {
	shared.BaseEntity
	Name      string
	HeadID    *int64
	DeletedAt *time.Time
}

// NewDepartment creates a new department
func NewDepartment(name string) (*Department, error) {
	if err := validateDepartmentName(name); err != nil {
		return nil, err
	}
	return &Department{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
	}, nil
}

// SetName renames the department
func (d *Department) SetName(name string) error {
	if err := validateDepartmentName(name); err != nil {
		return err
	}
	d.Name = strings.TrimSpace(name)
	d.Touch()
	return nil
}

// AssignHead sets the department head. The head must be a member of the
// department; nil clears the assignment.
func (d *Department) AssignHead(head *User) error {
	if d.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Cannot assign a head to a deleted department")
	}
	if head == nil {
		d.HeadID = nil
		d.Touch()
		return nil
	}
	if head.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Deleted user cannot head a department")
	}
	if head.DepartmentID == nil || *head.DepartmentID != d.ID {
		return shared.NewDomainError("INVALID_INPUT", "Department head must belong to the department")
	}
	id := head.ID
	d.HeadID = &id
	d.Touch()
	return nil
}

// IsDeleted reports whether the department has been soft-deleted
func (d *Department) IsDeleted() bool {
	return d.DeletedAt != nil
}

// SoftDelete marks the department deleted
func (d *Department) SoftDelete() error {
	if d.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Department is already deleted")
	}
	now := time.Now()
	d.DeletedAt = &now
	d.UpdatedAt = now
	return nil
}

func validateDepartmentName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Department name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Department name cannot exceed 100 characters")
	}
	return nil
}
