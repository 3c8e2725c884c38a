// Package datascope provides department-level row filtering for GORM queries.
//
// Administrators and global-role users see every department. Everyone else
// is limited to rows of their own department; a user without a department
// sees no department rows at all.
//
// Usage:
//
//	ctx = datascope.WithScope(ctx, datascope.ForUser(user))
//	db.Scopes(datascope.Department(ctx, "department_id")).Find(&requests)
package datascope

import (
	"context"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"gorm.io/gorm"
)

type contextKey struct{}

// Scope describes which departments a caller may read
type Scope struct {
	All          bool
	DepartmentID *int64
}

// Unrestricted is the scope of administrators and background jobs
var Unrestricted = Scope{All: true}

// ForUser derives the data scope of a user
func ForUser(u *identity.User) Scope {
	if u == nil {
		return Scope{}
	}
	return ForSubject(u.Role, u.IsGlobalRole, u.DepartmentID)
}

// ForSubject derives a data scope from role, global flag and department
func ForSubject(role identity.Role, isGlobal bool, departmentID *int64) Scope {
	if isGlobal || role.IsAdministrative() {
		return Unrestricted
	}
	if departmentID == nil {
		return Scope{}
	}
	id := *departmentID
	return Scope{DepartmentID: &id}
}

// Allows reports whether rows of the department are visible
func (s Scope) Allows(departmentID int64) bool {
	if s.All {
		return true
	}
	return s.DepartmentID != nil && *s.DepartmentID == departmentID
}

// Apply restricts the query on the given department column
func (s Scope) Apply(db *gorm.DB, column string) *gorm.DB {
	if s.All {
		return db
	}
	if s.DepartmentID == nil {
		return db.Where("1 = 0")
	}
	if !allowedScopeFields[column] {
		return db.Where("1 = 0")
	}
	return db.Where(column+" = ?", *s.DepartmentID)
}

// WithScope stores the scope in the context
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the scope stored in ctx. Contexts without a scope are
// internal callers and get Unrestricted.
func FromContext(ctx context.Context) Scope {
	if s, ok := ctx.Value(contextKey{}).(Scope); ok {
		return s
	}
	return Unrestricted
}

// Department returns a GORM scope function filtering by the context's scope
func Department(ctx context.Context, column string) func(*gorm.DB) *gorm.DB {
	s := FromContext(ctx)
	return func(db *gorm.DB) *gorm.DB {
		return s.Apply(db, column)
	}
}

// allowedScopeFields is the whitelist of columns a scope may filter on
var allowedScopeFields = map[string]bool{
	"department_id": true,
}
