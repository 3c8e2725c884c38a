package handler

import (
	"fmt"
	"net/http"
	"testing"

	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	"github.com/hospital-erp/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryHandler_AddAndList(t *testing.T) {
	env := newTestEnv(t)

	t.Run("added item appears in the warehouse ledger", func(t *testing.T) {
		item := env.addItem(t, "Gauze", 10)
		assert.Equal(t, "Gauze", item.ItemName)
		assert.Equal(t, 10, item.Quantity)
		assert.Nil(t, item.DepartmentID)

		w := env.do(t, env.admin, http.MethodGet, "/inventory/main", nil)
		require.Equal(t, http.StatusOK, w.Code)
		ledger := decodeData[inventoryapp.LedgerResponse](t, w)
		require.Len(t, ledger.Inventory, 1)
		assert.Equal(t, item.ID, ledger.Inventory[0].ID)
		assert.Len(t, ledger.Inventory[0].Batches, 1)
	})

	t.Run("search filters by name", func(t *testing.T) {
		env.addItem(t, "Syringe 5ml", 3)

		w := env.do(t, env.admin, http.MethodGet, "/inventory/main?search=syr", nil)
		require.Equal(t, http.StatusOK, w.Code)
		ledger := decodeData[inventoryapp.LedgerResponse](t, w)
		require.Len(t, ledger.Inventory, 1)
		assert.Equal(t, "Syringe 5ml", ledger.Inventory[0].ItemName)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, "/inventory/add", inventoryapp.AddItemRequest{ItemName: "Gauze"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(t, w))
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, "/inventory/add", `{"category":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})

	t.Run("malformed json", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, "/inventory/add", `{"itemname":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInventoryHandler_Restock(t *testing.T) {
	env := newTestEnv(t)
	item := env.addItem(t, "Gloves", 5)

	t.Run("appends a batch", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, fmt.Sprintf("/inventory/restock/%d", item.ID), inventoryapp.RestockRequest{
			Batches: []inventoryapp.BatchInput{{Quantity: 7, Supplier: "MedSupply"}},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		movement := decodeData[inventoryapp.MovementResponse](t, w)
		assert.Equal(t, 12, movement.Item.Quantity)
		assert.Len(t, movement.Item.Batches, 2)
		assert.Equal(t, "Restocking", movement.Transaction.TransactionType)
		assert.Equal(t, 7, movement.Transaction.Quantity)
		assert.Equal(t, "admin", movement.Transaction.PerformedBy)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, "/inventory/restock/abc", inventoryapp.RestockRequest{
			Batches: []inventoryapp.BatchInput{{Quantity: 1}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown item", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, "/inventory/restock/9999", inventoryapp.RestockRequest{
			Batches: []inventoryapp.BatchInput{{Quantity: 1}},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty batches are rejected", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, fmt.Sprintf("/inventory/restock/%d", item.ID), inventoryapp.RestockRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInventoryHandler_TransferAndDepartmentLedger(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "Saline", 10)

	w := env.do(t, env.admin, http.MethodPost, "/inventory/transfer", inventoryapp.TransferRequest{
		ItemName:     "Saline",
		Quantity:     4,
		DepartmentID: env.ward.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	transfer := decodeData[inventoryapp.TransferResponse](t, w)
	assert.Equal(t, 6, transfer.Source.Quantity)
	assert.Equal(t, 4, transfer.Item.Quantity)
	require.NotNil(t, transfer.Item.DepartmentID)
	assert.Equal(t, env.ward.ID, *transfer.Item.DepartmentID)

	t.Run("staff see their own department by default", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodGet, "/inventory/department", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ledger := decodeData[inventoryapp.LedgerResponse](t, w)
		require.Len(t, ledger.Inventory, 1)
		assert.Equal(t, "Saline", ledger.Inventory[0].ItemName)
		assert.Equal(t, 4, ledger.Inventory[0].Quantity)
	})

	t.Run("staff cannot read another department", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodGet, fmt.Sprintf("/inventory/department?departmentId=%d", env.icu.ID), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
	})

	t.Run("admin without a department must name one", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodGet, "/inventory/department", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad department id", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodGet, "/inventory/department?departmentId=x", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("transfer beyond stock is refused", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, "/inventory/transfer", inventoryapp.TransferRequest{
			ItemName:     "Saline",
			Quantity:     50,
			DepartmentID: env.ward.ID,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInsufficientStock, errorCode(t, w))
	})

	t.Run("department checkout uses department stock", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodPost, fmt.Sprintf("/inventory/%d/checkout", transfer.Item.ID),
			inventoryapp.CheckoutItemRequest{Quantity: 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		movement := decodeData[inventoryapp.MovementResponse](t, w)
		assert.Equal(t, 3, movement.Item.Quantity)
		assert.Equal(t, "nurse.kim", movement.Transaction.PerformedBy)
	})

	t.Run("department checkout beyond stock is refused", func(t *testing.T) {
		w := env.do(t, env.nurse, http.MethodPost, fmt.Sprintf("/inventory/%d/checkout", transfer.Item.ID),
			inventoryapp.CheckoutItemRequest{Quantity: 30})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestInventoryHandler_CheckoutMainItem(t *testing.T) {
	env := newTestEnv(t)
	item := env.addItem(t, "Bandage", 8)

	t.Run("takes stock from the warehouse", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, fmt.Sprintf("/inventory/main/%d/checkout", item.ID),
			inventoryapp.CheckoutItemRequest{Quantity: 3})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 5, decodeData[inventoryapp.MovementResponse](t, w).Item.Quantity)
	})

	t.Run("over-draw leaves stock untouched", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, fmt.Sprintf("/inventory/main/%d/checkout", item.ID),
			inventoryapp.CheckoutItemRequest{Quantity: 6})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = env.do(t, env.admin, http.MethodGet, "/inventory/main", nil)
		ledger := decodeData[inventoryapp.LedgerResponse](t, w)
		require.Len(t, ledger.Inventory, 1)
		assert.Equal(t, 5, ledger.Inventory[0].Quantity)
	})

	t.Run("zero quantity is a validation error", func(t *testing.T) {
		w := env.do(t, env.admin, http.MethodPost, fmt.Sprintf("/inventory/main/%d/checkout", item.ID),
			inventoryapp.CheckoutItemRequest{Quantity: 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
