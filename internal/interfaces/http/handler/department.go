package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
)

// DepartmentHandler handles the department registry
type DepartmentHandler struct {
	BaseHandler
	departmentService *identityapp.DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(departmentService *identityapp.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// List godoc
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[identityapp.DepartmentListResponse]
// @Router       /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.DepartmentListResponse{Departments: departments})
}

// Create godoc
// @Summary      Create department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identityapp.CreateDepartmentInput true "Department"
// @Success      201 {object} APIResponse[identityapp.DepartmentEnvelope]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /departments/create [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req identityapp.CreateDepartmentInput
	if !h.BindJSON(c, &req) {
		return
	}

	dept, err := h.departmentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, identityapp.DepartmentEnvelope{Department: *dept})
}

// Update godoc
// @Summary      Rename department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Department ID"
// @Param        request body identityapp.UpdateDepartmentInput true "Department"
// @Success      200 {object} APIResponse[identityapp.DepartmentEnvelope]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /departments/{id} [patch]
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid department ID format")
		return
	}
	var req identityapp.UpdateDepartmentInput
	if !h.BindJSON(c, &req) {
		return
	}

	dept, err := h.departmentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.DepartmentEnvelope{Department: *dept})
}

// Delete godoc
// @Summary      Delete department
// @Description  Refused while users are still assigned to the department
// @Tags         departments
// @Security     BearerAuth
// @Param        id path int true "Department ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid department ID format")
		return
	}

	if err := h.departmentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AssignHead godoc
// @Summary      Assign department head
// @Description  Set or clear the head of a department. The head must be a DepartmentHead of that department.
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identityapp.AssignHeadInput true "Assignment"
// @Success      200 {object} APIResponse[identityapp.DepartmentEnvelope]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /departments/assign-head [patch]
func (h *DepartmentHandler) AssignHead(c *gin.Context) {
	var req identityapp.AssignHeadInput
	if !h.BindJSON(c, &req) {
		return
	}

	dept, err := h.departmentService.AssignHead(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.DepartmentEnvelope{Department: *dept})
}
