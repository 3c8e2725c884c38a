package handler

import (
	"github.com/gin-gonic/gin"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
)

// ProcurementHandler serves purchase requests
type ProcurementHandler struct {
	BaseHandler
	purchaseService *requestapp.PurchaseService
}

// NewProcurementHandler creates a new ProcurementHandler
func NewProcurementHandler(purchaseService *requestapp.PurchaseService) *ProcurementHandler {
	return &ProcurementHandler{purchaseService: purchaseService}
}

// List godoc
// @Summary      List purchase requests
// @Tags         procurement
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Item name search"
// @Param        departmentId query int false "Department ID"
// @Param        status query string false "Status" Enums(Pending, Submitted, Approved, Rejected)
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200 {object} APIResponse[requestapp.PurchaseRequestListResponse]
// @Router       /procurement-requests [get]
func (h *ProcurementHandler) List(c *gin.Context) {
	var filter requestapp.ListPurchaseRequestsFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	result, err := h.purchaseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Create godoc
// @Summary      Create purchase request
// @Tags         procurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body requestapp.CreatePurchaseRequestInput true "Purchase request"
// @Success      201 {object} APIResponse[requestapp.PurchaseRequestEnvelope]
// @Failure      400 {object} ErrorResponse
// @Router       /procurement-requests [post]
func (h *ProcurementHandler) Create(c *gin.Context) {
	var req requestapp.CreatePurchaseRequestInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.purchaseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, requestapp.PurchaseRequestEnvelope{Request: *result})
}

// Submit godoc
// @Summary      Submit purchase request
// @Tags         procurement
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Purchase request ID"
// @Success      200 {object} APIResponse[requestapp.PurchaseRequestEnvelope]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement-requests/{id}/submit [post]
func (h *ProcurementHandler) Submit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase request ID format")
		return
	}

	result, err := h.purchaseService.Submit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requestapp.PurchaseRequestEnvelope{Request: *result})
}

// UpdateStatus godoc
// @Summary      Change purchase request status
// @Tags         procurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Purchase request ID"
// @Param        request body requestapp.UpdatePurchaseStatusInput true "New status"
// @Success      200 {object} APIResponse[requestapp.PurchaseRequestEnvelope]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement-requests/{id}/status [patch]
func (h *ProcurementHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase request ID format")
		return
	}
	var req requestapp.UpdatePurchaseStatusInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.purchaseService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requestapp.PurchaseRequestEnvelope{Request: *result})
}

// Delete godoc
// @Summary      Delete purchase request
// @Tags         procurement
// @Security     BearerAuth
// @Param        id path int true "Purchase request ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /procurement-requests/{id} [delete]
func (h *ProcurementHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase request ID format")
		return
	}

	if err := h.purchaseService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
