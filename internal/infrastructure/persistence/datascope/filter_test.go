package datascope

import (
	"context"
	"testing"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestForSubject(t *testing.T) {
	t.Run("administrators see everything", func(t *testing.T) {
		assert.True(t, ForSubject(identity.RoleAdmin, false, nil).All)
		assert.True(t, ForSubject(identity.RoleRootAdmin, false, int64Ptr(2)).All)
	})

	t.Run("global role overrides department", func(t *testing.T) {
		assert.True(t, ForSubject(identity.RoleStaff, true, int64Ptr(2)).All)
	})

	t.Run("staff limited to own department", func(t *testing.T) {
		s := ForSubject(identity.RoleStaff, false, int64Ptr(2))
		assert.False(t, s.All)
		assert.True(t, s.Allows(2))
		assert.False(t, s.Allows(3))
	})

	t.Run("staff without department sees nothing", func(t *testing.T) {
		s := ForSubject(identity.RoleDepartmentHead, false, nil)
		assert.False(t, s.Allows(1))
	})

	t.Run("nil user is empty scope", func(t *testing.T) {
		assert.False(t, ForUser(nil).Allows(1))
	})
}

func TestFromContext(t *testing.T) {
	t.Run("missing scope is unrestricted", func(t *testing.T) {
		assert.Equal(t, Unrestricted, FromContext(context.Background()))
	})

	t.Run("round trips stored scope", func(t *testing.T) {
		s := Scope{DepartmentID: int64Ptr(4)}
		ctx := WithScope(context.Background(), s)
		assert.Equal(t, s, FromContext(ctx))
	})
}

type row struct {
	ID           int64
	DepartmentID int64
}

func TestDepartment(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create(&[]row{{DepartmentID: 1}, {DepartmentID: 2}, {DepartmentID: 2}}).Error)

	count := func(ctx context.Context, column string) int64 {
		var n int64
		require.NoError(t, db.Model(&row{}).Scopes(Department(ctx, column)).Count(&n).Error)
		return n
	}

	t.Run("unrestricted counts all rows", func(t *testing.T) {
		assert.Equal(t, int64(3), count(context.Background(), "department_id"))
	})

	t.Run("department scope filters rows", func(t *testing.T) {
		ctx := WithScope(context.Background(), Scope{DepartmentID: int64Ptr(2)})
		assert.Equal(t, int64(2), count(ctx, "department_id"))
	})

	t.Run("unknown column matches nothing", func(t *testing.T) {
		ctx := WithScope(context.Background(), Scope{DepartmentID: int64Ptr(2)})
		assert.Equal(t, int64(0), count(ctx, "id; DROP TABLE rows"))
	})
}
