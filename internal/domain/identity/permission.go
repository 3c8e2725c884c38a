package identity

import (
	"sort"
)

// AccessLevel is the per-module grant of a user
type AccessLevel struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

// FullAccess grants read and write
var FullAccess = AccessLevel{Read: true, Write: true}

// PermissionMap maps catalog modules to access levels
type PermissionMap map[ModuleKey]AccessLevel

// ParsePermissionMap converts a free-form map into a PermissionMap,
// rejecting any key outside the module catalog.
func ParsePermissionMap(raw map[string]AccessLevel) (PermissionMap, error) {
	out := make(PermissionMap, len(raw))
	for k, v := range raw {
		key, err := ParseModuleKey(k)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// Raw converts the map back to string keys for serialization
func (p PermissionMap) Raw() map[string]AccessLevel {
	out := make(map[string]AccessLevel, len(p))
	for k, v := range p {
		out[string(k)] = v
	}
	return out
}

// Clone returns a copy of the map
func (p PermissionMap) Clone() PermissionMap {
	if p == nil {
		return nil
	}
	out := make(PermissionMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Subject is the slice of user data the resolver needs
type Subject struct {
	IsGlobalRole bool
	DepartmentID *int64
	Permissions  PermissionMap
	// ModuleOrder is the user's preferred ordering; modules not listed fall
	// back to their default order after the listed ones.
	ModuleOrder []ModuleKey
}

// VisibleModule is one module the user may open
type VisibleModule struct {
	Module
	Access AccessLevel
}

// ReadOnly reports whether mutating actions must be disabled
func (v VisibleModule) ReadOnly() bool {
	return !v.Access.Write
}

// ResolveModules computes the ordered modules visible to the subject.
// Global users see the whole catalog with write access. Others see a module
// only when they hold read on it and, for a department-restricted module,
// belong to one of its departments. An empty result is a valid "no access"
// state.
func ResolveModules(subject Subject, catalog Catalog) []VisibleModule {
	visible := make([]VisibleModule, 0, len(catalog))
	for _, m := range catalog.sorted() {
		if subject.IsGlobalRole {
			visible = append(visible, VisibleModule{Module: m, Access: FullAccess})
			continue
		}
		access, ok := subject.Permissions[m.Key]
		if !ok || !access.Read {
			continue
		}
		if !m.AllowsDepartment(subject.DepartmentID) {
			continue
		}
		visible = append(visible, VisibleModule{
			Module: m,
			Access: AccessLevel{Read: true, Write: access.Write},
		})
	}
	return orderByPreference(visible, subject.ModuleOrder)
}

// orderByPreference puts preferred modules first in preference order and
// keeps the rest in default order.
func orderByPreference(modules []VisibleModule, preference []ModuleKey) []VisibleModule {
	if len(preference) == 0 {
		return modules
	}
	rank := make(map[ModuleKey]int, len(preference))
	for i, k := range preference {
		if _, seen := rank[k]; !seen {
			rank[k] = i
		}
	}
	sort.SliceStable(modules, func(i, j int) bool {
		ri, iok := rank[modules[i].Key]
		rj, jok := rank[modules[j].Key]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		default:
			return false
		}
	})
	return modules
}

// CheckAccess reports the access level the subject holds on key, using the
// same rules as ResolveModules.
func CheckAccess(subject Subject, catalog Catalog, key ModuleKey) (AccessLevel, bool) {
	for _, v := range ResolveModules(subject, catalog) {
		if v.Key == key {
			return v.Access, true
		}
	}
	return AccessLevel{}, false
}
