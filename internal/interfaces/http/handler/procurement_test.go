package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcurementHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, env.nurse, http.MethodPost, "/procurement-requests", requestapp.CreatePurchaseRequestInput{
		ItemName:     "Infusion pump",
		Quantity:     2,
		DeadlineDate: time.Now().Add(14 * 24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[requestapp.PurchaseRequestEnvelope](t, w).Request
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, env.ward.ID, created.DepartmentID)
	assert.False(t, created.Overdue)

	t.Run("approval needs a submitted request", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPatch, fmt.Sprintf("/procurement-requests/%d/status", created.ID),
			requestapp.UpdatePurchaseStatusInput{Status: "Approved"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))
	})

	t.Run("submit", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodPost, fmt.Sprintf("/procurement-requests/%d/submit", created.ID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Submitted", decodeData[requestapp.PurchaseRequestEnvelope](t, w).Request.Status)
	})

	t.Run("submitted requests cannot be deleted", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodDelete, fmt.Sprintf("/procurement-requests/%d", created.ID), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("approve", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPatch, fmt.Sprintf("/procurement-requests/%d/status", created.ID),
			requestapp.UpdatePurchaseStatusInput{Status: "Approved"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Approved", decodeData[requestapp.PurchaseRequestEnvelope](t, w).Request.Status)
	})

	t.Run("pending is not a target status", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPatch, fmt.Sprintf("/procurement-requests/%d/status", created.ID),
			requestapp.UpdatePurchaseStatusInput{Status: "Pending"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("filter by status", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodGet, "/procurement-requests?status=Approved", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decodeData[requestapp.PurchaseRequestListResponse](t, w)
		require.Len(t, list.Requests, 1)
		assert.Equal(t, created.ID, list.Requests[0].ID)

		w = env.do(t, env.admin, http.MethodGet, "/procurement-requests?status=Pending", nil)
		assert.Empty(t, decodeData[requestapp.PurchaseRequestListResponse](t, w).Requests)
	})
}

func TestProcurementHandler_Delete(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, env.admin, http.MethodPost, "/procurement-requests", requestapp.CreatePurchaseRequestInput{
		ItemName:     "Suture kit",
		Quantity:     40,
		DeadlineDate: time.Now().Add(-24 * time.Hour),
		DepartmentID: env.icu.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[requestapp.PurchaseRequestEnvelope](t, w).Request
	assert.True(t, created.Overdue)

	t.Run("hidden from other departments", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodDelete, fmt.Sprintf("/procurement-requests/%d", created.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("staff cannot file for another department", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodPost, "/procurement-requests", requestapp.CreatePurchaseRequestInput{
			ItemName:     "Suture kit",
			Quantity:     1,
			DeadlineDate: time.Now(),
			DepartmentID: env.icu.ID,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("pending request is deleted", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodDelete, fmt.Sprintf("/procurement-requests/%d", created.ID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, env.admin, http.MethodDelete, fmt.Sprintf("/procurement-requests/%d", created.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
