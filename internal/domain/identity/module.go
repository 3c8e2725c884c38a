package identity

import (
	"sort"
	"strings"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// ModuleKey identifies one navigable module of the application. The set is
// closed: keys outside it are rejected when parsed.
type ModuleKey string

const (
	ModuleDashboard      ModuleKey = "dashboard"
	ModuleInventory      ModuleKey = "inventory"
	ModuleProcurement    ModuleKey = "procurement"
	ModuleDepartments    ModuleKey = "departments"
	ModuleUserManagement ModuleKey = "user-management"
)

// AllModuleKeys returns every module key in default order
func AllModuleKeys() []ModuleKey {
	return []ModuleKey{
		ModuleDashboard,
		ModuleInventory,
		ModuleProcurement,
		ModuleDepartments,
		ModuleUserManagement,
	}
}

// String returns the string representation of ModuleKey
func (k ModuleKey) String() string {
	return string(k)
}

// IsValid returns true if the key belongs to the catalog
func (k ModuleKey) IsValid() bool {
	switch k {
	case ModuleDashboard, ModuleInventory, ModuleProcurement, ModuleDepartments, ModuleUserManagement:
		return true
	}
	return false
}

// ErrUnknownModule is returned for a module key outside the catalog
var ErrUnknownModule = shared.NewDomainError("UNKNOWN_MODULE", "Unknown module key")

// ParseModuleKey parses a module key
func ParseModuleKey(s string) (ModuleKey, error) {
	k := ModuleKey(strings.TrimSpace(s))
	if !k.IsValid() {
		return "", shared.NewDomainErrorf(ErrUnknownModule.Code, "Unknown module key %q", s)
	}
	return k, nil
}

// Module describes a catalog entry
type Module struct {
	Key                  ModuleKey
	Label                string
	Path                 string
	DefaultOrder         int
	DepartmentRestricted bool
	AllowedDepartments   []int64
}

// AllowsDepartment reports whether a user in departmentID may see a
// department-restricted module. A user without a department never can.
func (m Module) AllowsDepartment(departmentID *int64) bool {
	if !m.DepartmentRestricted {
		return true
	}
	if departmentID == nil {
		return false
	}
	for _, id := range m.AllowedDepartments {
		if id == *departmentID {
			return true
		}
	}
	return false
}

// Catalog is the full ordered list of modules
type Catalog []Module

// DefaultCatalog returns the standard module catalog with no department
// restrictions
func DefaultCatalog() Catalog {
	return Catalog{
		{Key: ModuleDashboard, Label: "Dashboard", Path: "/dashboard", DefaultOrder: 10},
		{Key: ModuleInventory, Label: "Inventory", Path: "/inventory", DefaultOrder: 20},
		{Key: ModuleProcurement, Label: "Procurement", Path: "/procurement", DefaultOrder: 30},
		{Key: ModuleDepartments, Label: "Department Management", Path: "/departments", DefaultOrder: 40},
		{Key: ModuleUserManagement, Label: "User Management", Path: "/user-management", DefaultOrder: 50},
	}
}

// Restrict returns a copy of the catalog where key is visible only to the
// given departments
func (c Catalog) Restrict(key ModuleKey, departmentIDs ...int64) Catalog {
	out := make(Catalog, len(c))
	for i, m := range c {
		out[i] = m
		out[i].AllowedDepartments = append([]int64(nil), m.AllowedDepartments...)
		if m.Key == key {
			out[i].DepartmentRestricted = true
			out[i].AllowedDepartments = append([]int64(nil), departmentIDs...)
		}
	}
	return out
}

// Find returns the catalog entry for key
func (c Catalog) Find(key ModuleKey) (Module, bool) {
	for _, m := range c {
		if m.Key == key {
			return m, true
		}
	}
	return Module{}, false
}

// sorted returns the catalog ordered by DefaultOrder, stable on ties
func (c Catalog) sorted() Catalog {
	out := append(Catalog(nil), c...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DefaultOrder < out[j].DefaultOrder
	})
	return out
}
