package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the coarse role of a user
type Role string

const (
	RoleRootAdmin      Role = "RootAdmin"
	RoleAdmin          Role = "Admin"
	RoleDepartmentHead Role = "DepartmentHead"
	RoleStaff          Role = "Staff"
)

// IsValid returns true if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleRootAdmin, RoleAdmin, RoleDepartmentHead, RoleStaff:
		return true
	}
	return false
}

// IsAdministrative reports whether the role manages the whole hospital
func (r Role) IsAdministrative() bool {
	return r == RoleRootAdmin || r == RoleAdmin
}

// ParseRole parses a role name
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.IsValid() {
		return "", shared.NewDomainErrorf("INVALID_ROLE", "Unknown role %q", s)
	}
	return r, nil
}

// Password cost for bcrypt
const bcryptCost = 12

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is an account of the ERP. Users are soft-deleted and can be restored.
type User struct {
	shared.BaseEntity
	Username     string
	PasswordHash string
	Role         Role
	DepartmentID *int64
	IsGlobalRole bool
	WeComUserID  string
	Permissions  PermissionMap
	ModuleOrder  []ModuleKey
	DeletedAt    *time.Time
}

// NewUser creates a new user with a hashed password
func NewUser(username, password string, role Role, departmentID *int64) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Invalid role")
	}
	if role == RoleDepartmentHead && departmentID == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department head must belong to a department")
	}

	u := &User{
		BaseEntity:   shared.NewBaseEntity(),
		Username:     strings.TrimSpace(username),
		Role:         role,
		DepartmentID: departmentID,
		Permissions:  make(PermissionMap),
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// Subject returns the data the permission resolver works on
func (u *User) Subject() Subject {
	return Subject{
		IsGlobalRole: u.IsGlobalRole,
		DepartmentID: u.DepartmentID,
		Permissions:  u.Permissions,
		ModuleOrder:  u.ModuleOrder,
	}
}

// VisibleModules resolves the user's ordered module list
func (u *User) VisibleModules(catalog Catalog) []VisibleModule {
	return ResolveModules(u.Subject(), catalog)
}

// SetRole changes the user's role
func (u *User) SetRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Invalid role")
	}
	u.Role = role
	u.Touch()
	return nil
}

// SetDepartment moves the user to a department, or out of all with nil
func (u *User) SetDepartment(departmentID *int64) {
	u.DepartmentID = departmentID
	u.Touch()
}

// SetGlobalRole toggles hospital-wide visibility
func (u *User) SetGlobalRole(global bool) {
	u.IsGlobalRole = global
	u.Touch()
}

// SetPermissions replaces the module permission map
func (u *User) SetPermissions(p PermissionMap) {
	u.Permissions = p.Clone()
	if u.Permissions == nil {
		u.Permissions = make(PermissionMap)
	}
	u.Touch()
}

// SetModuleOrder stores the user's preferred module ordering
func (u *User) SetModuleOrder(order []ModuleKey) error {
	for _, k := range order {
		if !k.IsValid() {
			return shared.NewDomainErrorf(ErrUnknownModule.Code, "Unknown module key %q", k)
		}
	}
	u.ModuleOrder = append([]ModuleKey(nil), order...)
	u.Touch()
	return nil
}

// SetPassword validates and hashes a new password
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsDeleted reports whether the user has been soft-deleted
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// SoftDelete marks the user deleted
func (u *User) SoftDelete() error {
	if u.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "User is already deleted")
	}
	now := time.Now()
	u.DeletedAt = &now
	u.UpdatedAt = now
	return nil
}

// Restore brings a soft-deleted user back
func (u *User) Restore() error {
	if !u.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "User is not deleted")
	}
	u.DeletedAt = nil
	u.Touch()
	return nil
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}
