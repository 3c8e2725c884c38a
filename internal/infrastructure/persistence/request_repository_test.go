package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInventoryRequestRepository(t *testing.T) {
	repo := NewGormInventoryRequestRepository(newTestDB(t))

	create := func(t *testing.T, item string, dept int64, by string) *request.InventoryRequest {
		t.Helper()
		r, err := request.NewInventoryRequest(item, 3, dept, by)
		require.NoError(t, err)
		require.NoError(t, repo.Save(bg, r))
		return r
	}

	gauze := create(t, "Gauze", 1, "nurse.kim")
	create(t, "Saline", 1, "nurse.lee")
	create(t, "Gauze", 2, "dr.park")

	t.Run("save assigns id and timestamps", func(t *testing.T) {
		assert.NotZero(t, gauze.ID)
		assert.False(t, gauze.CreatedAt.IsZero())
	})

	t.Run("status change round-trips", func(t *testing.T) {
		require.NoError(t, gauze.Approve("ok"))
		require.NoError(t, repo.Save(bg, gauze))

		found, err := repo.FindByID(bg, gauze.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusApproved, found.Status)
		assert.Equal(t, "ok", found.Notes)
	})

	t.Run("list filters by department status and search", func(t *testing.T) {
		filter := request.InventoryRequestFilter{Filter: shared.DefaultFilter(), DepartmentID: int64Ptr(1)}
		rows, total, err := repo.List(bg, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, rows, 2)

		filter.Status = request.StatusPending
		rows, total, err = repo.List(bg, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Saline", rows[0].ItemName)

		filter = request.InventoryRequestFilter{Filter: shared.DefaultFilter()}
		filter.Search = "PARK"
		rows, _, err = repo.List(bg, filter)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(2), rows[0].DepartmentID)
	})

	t.Run("list respects date range", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		filter := request.InventoryRequestFilter{Filter: shared.DefaultFilter(), Range: shared.DateRange{From: &future}}
		rows, total, err := repo.List(bg, filter)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, rows)
	})

	t.Run("department data scope in context limits rows", func(t *testing.T) {
		ctx := datascope.WithScope(bg, datascope.Scope{DepartmentID: int64Ptr(2)})
		rows, total, err := repo.List(ctx, request.InventoryRequestFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "dr.park", rows[0].RequestedBy)
	})

	t.Run("delete missing returns not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(bg, 9999), shared.ErrNotFound)
	})
}

func TestGormPurchaseRequestRepository(t *testing.T) {
	repo := NewGormPurchaseRequestRepository(newTestDB(t))

	source, err := request.NewInventoryRequest("Masks", 50, 4, "head.choi")
	require.NoError(t, err)
	source.ID = 77
	require.NoError(t, source.MarkProcurement(""))

	p, err := request.NewPurchaseRequestFrom(source, time.Now().Add(14*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(bg, p))

	t.Run("finds by source request", func(t *testing.T) {
		found, err := repo.FindBySourceRequest(bg, 77)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
		assert.Equal(t, request.PurchaseStatusPending, found.Status)
	})

	t.Run("second purchase request for the same source is rejected", func(t *testing.T) {
		dup, err := request.NewPurchaseRequestFrom(source, time.Now())
		require.NoError(t, err)
		assert.Error(t, repo.Save(bg, dup))
	})

	t.Run("delete removes row", func(t *testing.T) {
		require.NoError(t, repo.Delete(bg, p.ID))
		_, err := repo.FindByID(bg, p.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTxManager(t *testing.T) {
	db := newTestDB(t)
	tm := NewTxManager(db)
	repo := NewGormInventoryRequestRepository(db)

	t.Run("rolls back every write when fn fails", func(t *testing.T) {
		boom := errors.New("boom")
		err := tm.WithinTransaction(bg, func(ctx context.Context) error {
			r, err := request.NewInventoryRequest("Tape", 1, 1, "a")
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, r))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, total, err := repo.List(bg, request.InventoryRequestFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		err := tm.WithinTransaction(bg, func(ctx context.Context) error {
			return tm.WithinTransaction(ctx, func(inner context.Context) error {
				r, err := request.NewInventoryRequest("Tape", 1, 1, "a")
				require.NoError(t, err)
				return repo.Save(inner, r)
			})
		})
		require.NoError(t, err)

		_, total, err := repo.List(bg, request.InventoryRequestFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}
