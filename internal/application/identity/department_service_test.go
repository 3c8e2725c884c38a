package identity

import (
	"context"
	"testing"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func department(id int64, name string) *identity.Department {
	d := &identity.Department{Name: name}
	d.ID = id
	return d
}

func TestDepartmentService_Create(t *testing.T) {
	t.Run("unique name", func(t *testing.T) {
		depts := new(MockDepartmentRepository)
		svc := NewDepartmentService(depts, new(MockUserRepository), nil)
		depts.On("ExistsByName", mock.Anything, "Radiology").Return(false, nil)
		depts.On("Save", mock.Anything, mock.AnythingOfType("*identity.Department")).Run(func(args mock.Arguments) {
			args.Get(1).(*identity.Department).ID = 5
		}).Return(nil)

		resp, err := svc.Create(context.Background(), CreateDepartmentInput{Name: " Radiology "})

		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.ID)
		assert.Equal(t, "Radiology", resp.Name)
	})

	t.Run("duplicate name", func(t *testing.T) {
		depts := new(MockDepartmentRepository)
		svc := NewDepartmentService(depts, new(MockUserRepository), nil)
		depts.On("ExistsByName", mock.Anything, "ICU").Return(true, nil)

		_, err := svc.Create(context.Background(), CreateDepartmentInput{Name: "ICU"})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestDepartmentService_Update(t *testing.T) {
	t.Run("case-only rename skips the uniqueness check", func(t *testing.T) {
		depts := new(MockDepartmentRepository)
		svc := NewDepartmentService(depts, new(MockUserRepository), nil)
		d := department(2, "icu")
		depts.On("FindByID", mock.Anything, int64(2)).Return(d, nil)
		depts.On("Save", mock.Anything, d).Return(nil)

		resp, err := svc.Update(context.Background(), 2, UpdateDepartmentInput{Name: "ICU"})

		require.NoError(t, err)
		assert.Equal(t, "ICU", resp.Name)
		depts.AssertNotCalled(t, "ExistsByName", mock.Anything, mock.Anything)
	})
}

func TestDepartmentService_Delete(t *testing.T) {
	depts := new(MockDepartmentRepository)
	svc := NewDepartmentService(depts, new(MockUserRepository), nil)
	d := department(2, "ICU")
	depts.On("FindByID", mock.Anything, int64(2)).Return(d, nil)
	depts.On("Save", mock.Anything, d).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), 2))
	assert.True(t, d.IsDeleted())
}

func TestDepartmentService_AssignHead(t *testing.T) {
	t.Run("member becomes head", func(t *testing.T) {
		depts := new(MockDepartmentRepository)
		users := new(MockUserRepository)
		svc := NewDepartmentService(depts, users, nil)
		d := department(2, "ICU")
		head := &identity.User{Username: "dr.lee", Role: identity.RoleDepartmentHead, DepartmentID: int64Ptr(2)}
		head.ID = 9
		depts.On("FindByID", mock.Anything, int64(2)).Return(d, nil)
		users.On("FindByID", mock.Anything, int64(9)).Return(head, nil)
		depts.On("Save", mock.Anything, d).Return(nil)

		resp, err := svc.AssignHead(context.Background(), AssignHeadInput{DepartmentID: 2, HeadID: int64Ptr(9)})

		require.NoError(t, err)
		require.NotNil(t, resp.HeadID)
		assert.Equal(t, int64(9), *resp.HeadID)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		depts := new(MockDepartmentRepository)
		users := new(MockUserRepository)
		svc := NewDepartmentService(depts, users, nil)
		outsider := &identity.User{Username: "dr.park", Role: identity.RoleStaff, DepartmentID: int64Ptr(3)}
		outsider.ID = 10
		depts.On("FindByID", mock.Anything, int64(2)).Return(department(2, "ICU"), nil)
		users.On("FindByID", mock.Anything, int64(10)).Return(outsider, nil)

		_, err := svc.AssignHead(context.Background(), AssignHeadInput{DepartmentID: 2, HeadID: int64Ptr(10)})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		depts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("nil head clears the assignment", func(t *testing.T) {
		depts := new(MockDepartmentRepository)
		svc := NewDepartmentService(depts, new(MockUserRepository), nil)
		d := department(2, "ICU")
		d.HeadID = int64Ptr(9)
		depts.On("FindByID", mock.Anything, int64(2)).Return(d, nil)
		depts.On("Save", mock.Anything, d).Return(nil)

		resp, err := svc.AssignHead(context.Background(), AssignHeadInput{DepartmentID: 2})

		require.NoError(t, err)
		assert.Nil(t, resp.HeadID)
	})
}
