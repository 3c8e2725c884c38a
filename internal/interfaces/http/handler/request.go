package handler

import (
	"github.com/gin-gonic/gin"
	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
)

// RequestHandler serves inventory requests and their checkout
type RequestHandler struct {
	BaseHandler
	requestService  *requestapp.RequestService
	checkoutService *checkoutapp.CheckoutService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(requestService *requestapp.RequestService, checkoutService *checkoutapp.CheckoutService) *RequestHandler {
	return &RequestHandler{
		requestService:  requestService,
		checkoutService: checkoutService,
	}
}

// List godoc
// @Summary      List inventory requests
// @Description  Page through inventory requests visible to the caller
// @Tags         inventory-requests
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Item name or requester search"
// @Param        departmentId query int false "Department ID"
// @Param        status query string false "Status" Enums(Pending, Approved, Rejected, Restocking, Procurement, CheckedOut)
// @Param        from query string false "Created on or after (YYYY-MM-DD)"
// @Param        to query string false "Created on or before (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Param        orderBy query string false "Sort field"
// @Param        orderDir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[requestapp.RequestListResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory-requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var filter requestapp.ListRequestsFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	result, err := h.requestService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Create godoc
// @Summary      Create inventory request
// @Description  Ask the warehouse for stock on behalf of a department
// @Tags         inventory-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body requestapp.CreateRequestInput true "Request"
// @Success      201 {object} APIResponse[requestapp.RequestEnvelope]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /inventory-requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req requestapp.CreateRequestInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.requestService.Create(c.Request.Context(), req, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, requestapp.RequestEnvelope{Request: *result})
}

// UpdateStatus godoc
// @Summary      Change inventory request status
// @Description  Move a request along its state machine. Approval transfers the stock; Procurement raises a purchase request.
// @Tags         inventory-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Request ID"
// @Param        request body requestapp.UpdateStatusInput true "New status"
// @Success      200 {object} APIResponse[requestapp.StatusChangeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory-requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid request ID format")
		return
	}
	var req requestapp.UpdateStatusInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.requestService.UpdateStatus(c.Request.Context(), id, req, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @Summary      Delete inventory request
// @Tags         inventory-requests
// @Security     BearerAuth
// @Param        id path int true "Request ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /inventory-requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid request ID format")
		return
	}

	if err := h.requestService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// IssueCheckoutToken godoc
// @Summary      Issue checkout token
// @Description  Issue a one-time QR token for an approved request. A new token replaces the previous one.
// @Tags         checkout
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Request ID"
// @Success      200 {object} APIResponse[checkoutapp.TokenResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory-requests/{id}/checkout [get]
func (h *RequestHandler) IssueCheckoutToken(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid request ID format")
		return
	}

	result, err := h.checkoutService.GenerateToken(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CompleteCheckout godoc
// @Summary      Complete checkout
// @Description  Check out an approved request by QR token or manual entry. A shortfall is reported as deficit.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Request ID"
// @Param        request body checkoutapp.CompleteInput true "Token or operator"
// @Success      200 {object} APIResponse[checkoutapp.CompleteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory-requests/{id}/checkout [post]
func (h *RequestHandler) CompleteCheckout(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid request ID format")
		return
	}
	var req checkoutapp.CompleteInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.checkoutService.Complete(c.Request.Context(), id, req, actorName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
