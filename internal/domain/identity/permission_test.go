package identity

import (
	"errors"
	"testing"

	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func keys(modules []VisibleModule) []ModuleKey {
	out := make([]ModuleKey, 0, len(modules))
	for _, m := range modules {
		out = append(out, m.Key)
	}
	return out
}

func TestResolveModules(t *testing.T) {
	t.Run("global user sees everything with write", func(t *testing.T) {
		subject := Subject{
			IsGlobalRole: true,
			Permissions:  PermissionMap{ModuleInventory: {Read: false, Write: false}},
		}
		catalog := DefaultCatalog().Restrict(ModuleDepartments, 99)

		visible := ResolveModules(subject, catalog)

		assert.Equal(t, AllModuleKeys(), keys(visible))
		for _, m := range visible {
			assert.Equal(t, FullAccess, m.Access)
			assert.False(t, m.ReadOnly())
		}
	})

	t.Run("no permissions means no modules", func(t *testing.T) {
		visible := ResolveModules(Subject{DepartmentID: int64Ptr(1)}, DefaultCatalog())

		assert.NotNil(t, visible)
		assert.Empty(t, visible)
	})

	t.Run("module without a permission entry is excluded", func(t *testing.T) {
		subject := Subject{
			DepartmentID: int64Ptr(2),
			Permissions:  PermissionMap{ModuleProcurement: {Read: true}},
		}

		visible := ResolveModules(subject, DefaultCatalog())

		assert.Equal(t, []ModuleKey{ModuleProcurement}, keys(visible))
	})

	t.Run("write without read is not visible", func(t *testing.T) {
		subject := Subject{Permissions: PermissionMap{ModuleInventory: {Write: true}}}

		assert.Empty(t, ResolveModules(subject, DefaultCatalog()))
	})

	t.Run("restricted module visible read only for allowed department", func(t *testing.T) {
		subject := Subject{
			DepartmentID: int64Ptr(2),
			Permissions:  PermissionMap{ModuleInventory: {Read: true, Write: false}},
		}
		catalog := DefaultCatalog().Restrict(ModuleInventory, 2)

		visible := ResolveModules(subject, catalog)

		require.Len(t, visible, 1)
		assert.Equal(t, ModuleInventory, visible[0].Key)
		assert.True(t, visible[0].ReadOnly())
	})

	t.Run("restricted module excluded for other department", func(t *testing.T) {
		subject := Subject{
			DepartmentID: int64Ptr(2),
			Permissions: PermissionMap{
				ModuleInventory:   {Read: true},
				ModuleDepartments: {Read: true, Write: true},
			},
		}
		catalog := DefaultCatalog().Restrict(ModuleDepartments, 3)

		visible := ResolveModules(subject, catalog)

		assert.Equal(t, []ModuleKey{ModuleInventory}, keys(visible))
	})

	t.Run("restricted module excluded for user without department", func(t *testing.T) {
		subject := Subject{Permissions: PermissionMap{ModuleInventory: {Read: true, Write: true}}}
		catalog := DefaultCatalog().Restrict(ModuleInventory, 1, 2, 3)

		assert.Empty(t, ResolveModules(subject, catalog))
	})

	t.Run("preference order wins over default order", func(t *testing.T) {
		subject := Subject{
			IsGlobalRole: true,
			ModuleOrder:  []ModuleKey{ModuleUserManagement, ModuleInventory},
		}

		visible := ResolveModules(subject, DefaultCatalog())

		assert.Equal(t, []ModuleKey{
			ModuleUserManagement,
			ModuleInventory,
			ModuleDashboard,
			ModuleProcurement,
			ModuleDepartments,
		}, keys(visible))
	})

	t.Run("preference for invisible module is ignored", func(t *testing.T) {
		subject := Subject{
			Permissions: PermissionMap{ModuleDashboard: {Read: true}, ModuleProcurement: {Read: true}},
			ModuleOrder: []ModuleKey{ModuleUserManagement, ModuleProcurement},
		}

		visible := ResolveModules(subject, DefaultCatalog())

		assert.Equal(t, []ModuleKey{ModuleProcurement, ModuleDashboard}, keys(visible))
	})
}

func TestCheckAccess(t *testing.T) {
	subject := Subject{Permissions: PermissionMap{ModuleInventory: {Read: true}}}

	access, ok := CheckAccess(subject, DefaultCatalog(), ModuleInventory)
	assert.True(t, ok)
	assert.False(t, access.Write)

	_, ok = CheckAccess(subject, DefaultCatalog(), ModuleDepartments)
	assert.False(t, ok)
}

func TestParsePermissionMap(t *testing.T) {
	t.Run("accepts catalog keys", func(t *testing.T) {
		p, err := ParsePermissionMap(map[string]AccessLevel{"inventory": {Read: true}})

		require.NoError(t, err)
		assert.Equal(t, AccessLevel{Read: true}, p[ModuleInventory])
		assert.Equal(t, map[string]AccessLevel{"inventory": {Read: true}}, p.Raw())
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := ParsePermissionMap(map[string]AccessLevel{"billing": {Read: true}})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "UNKNOWN_MODULE", domainErr.Code)
		assert.ErrorIs(t, err, ErrUnknownModule)
	})
}
