package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDepartment(t *testing.T) {
	t.Run("creates department", func(t *testing.T) {
		dept, err := NewDepartment("  Cardiology ")

		require.NoError(t, err)
		assert.Equal(t, "Cardiology", dept.Name)
		assert.Nil(t, dept.HeadID)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewDepartment(" ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name")
	})
}

func TestDepartment_AssignHead(t *testing.T) {
	dept := &Department{Name: "Cardiology"}
	dept.ID = 5

	t.Run("assigns a member", func(t *testing.T) {
		head := &User{Username: "head.wang", DepartmentID: int64Ptr(5)}
		head.ID = 8

		require.NoError(t, dept.AssignHead(head))
		require.NotNil(t, dept.HeadID)
		assert.Equal(t, int64(8), *dept.HeadID)
	})

	t.Run("rejects a user of another department", func(t *testing.T) {
		other := &User{Username: "x", DepartmentID: int64Ptr(6)}

		assert.Error(t, dept.AssignHead(other))
		assert.Error(t, dept.AssignHead(&User{Username: "y"}))
	})

	t.Run("clears with nil", func(t *testing.T) {
		require.NoError(t, dept.AssignHead(nil))
		assert.Nil(t, dept.HeadID)
	})

	t.Run("deleted department cannot get a head", func(t *testing.T) {
		d := &Department{Name: "Old"}
		require.NoError(t, d.SoftDelete())
		assert.Error(t, d.AssignHead(nil))
		assert.Error(t, d.SoftDelete())
	})
}
