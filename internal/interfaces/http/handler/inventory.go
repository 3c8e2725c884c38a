package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	"github.com/hospital-erp/backend/internal/interfaces/http/middleware"
)

// InventoryHandler serves the warehouse and department ledgers
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// ListMain godoc
// @Summary      Warehouse ledger
// @Description  List warehouse items with their batches, optionally filtered by name
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Item name search"
// @Success      200 {object} APIResponse[inventoryapp.LedgerResponse]
// @Failure      403 {object} ErrorResponse
// @Router       /inventory/main [get]
func (h *InventoryHandler) ListMain(c *gin.Context) {
	items, err := h.inventoryService.ListMain(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inventoryapp.LedgerResponse{Inventory: items})
}

// ListDepartment godoc
// @Summary      Department ledger
// @Description  List the items of one department. Without departmentId the caller's own department is used.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        departmentId query int false "Department ID"
// @Param        search query string false "Item name search"
// @Success      200 {object} APIResponse[inventoryapp.LedgerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /inventory/department [get]
func (h *InventoryHandler) ListDepartment(c *gin.Context) {
	departmentID, ok := h.departmentParam(c)
	if !ok {
		return
	}

	items, err := h.inventoryService.ListDepartment(c.Request.Context(), departmentID, c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inventoryapp.LedgerResponse{Inventory: items})
}

// AddItem godoc
// @Summary      Add warehouse item
// @Description  Create a warehouse item, optionally with opening batches
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body inventoryapp.AddItemRequest true "Item"
// @Success      201 {object} APIResponse[inventoryapp.ItemEnvelope]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /inventory/add [post]
func (h *InventoryHandler) AddItem(c *gin.Context) {
	var req inventoryapp.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.inventoryService.AddItem(c.Request.Context(), req, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inventoryapp.ItemEnvelope{Item: *item})
}

// Restock godoc
// @Summary      Restock warehouse item
// @Description  Append delivered batches to a warehouse item and record a Restocking transaction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Param        request body inventoryapp.RestockRequest true "Batches"
// @Success      200 {object} APIResponse[inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/restock/{id} [post]
func (h *InventoryHandler) Restock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}
	var req inventoryapp.RestockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.inventoryService.Restock(c.Request.Context(), id, req, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Transfer godoc
// @Summary      Transfer stock to a department
// @Description  Move warehouse stock into a department ledger, oldest batches first
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body inventoryapp.TransferRequest true "Transfer"
// @Success      200 {object} APIResponse[inventoryapp.TransferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req inventoryapp.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.inventoryService.Transfer(c.Request.Context(), req, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CheckoutDepartmentItem godoc
// @Summary      Use department stock
// @Description  Take stock out of a department item without a request. Refused when stock is short.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Param        departmentId query int false "Department ID, defaults to the caller's department"
// @Param        request body inventoryapp.CheckoutItemRequest true "Quantity"
// @Success      200 {object} APIResponse[inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/{id}/checkout [post]
func (h *InventoryHandler) CheckoutDepartmentItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}
	departmentID, ok := h.departmentParam(c)
	if !ok {
		return
	}
	var req inventoryapp.CheckoutItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.inventoryService.CheckoutDepartmentItem(c.Request.Context(), departmentID, id, req.Quantity, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CheckoutMainItem godoc
// @Summary      Check out warehouse stock
// @Description  Take stock straight out of a warehouse item. Refused when stock is short.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Param        request body inventoryapp.CheckoutItemRequest true "Quantity"
// @Success      200 {object} APIResponse[inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/main/{id}/checkout [post]
func (h *InventoryHandler) CheckoutMainItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}
	var req inventoryapp.CheckoutItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.inventoryService.CheckoutMainItem(c.Request.Context(), id, req.Quantity, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// departmentParam reads departmentId from the query, falling back to the
// caller's own department
func (h *InventoryHandler) departmentParam(c *gin.Context) (int64, bool) {
	if raw := c.Query("departmentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.BadRequest(c, "Invalid department ID format")
			return 0, false
		}
		return id, true
	}
	if u := middleware.GetCurrentUser(c); u != nil && u.DepartmentID != nil {
		return *u.DepartmentID, true
	}
	h.BadRequest(c, "Department ID is required")
	return 0, false
}
