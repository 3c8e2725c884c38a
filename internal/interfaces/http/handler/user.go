package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
)

// UserHandler handles user management requests
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[identityapp.UserListResponse]
// @Failure      403 {object} ErrorResponse
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	h.list(c, false)
}

// ListDeleted godoc
// @Summary      List deleted users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[identityapp.UserListResponse]
// @Failure      403 {object} ErrorResponse
// @Router       /users/deleted [get]
func (h *UserHandler) ListDeleted(c *gin.Context) {
	h.list(c, true)
}

func (h *UserHandler) list(c *gin.Context, deleted bool) {
	users, err := h.userService.List(c.Request.Context(), deleted)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.UserListResponse{Users: users})
}

// Create godoc
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identityapp.CreateUserInput true "User"
// @Success      201 {object} APIResponse[identityapp.UserEnvelope]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /users/create [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req identityapp.CreateUserInput
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, identityapp.UserEnvelope{User: *user})
}

// Update godoc
// @Summary      Update user
// @Description  Change role, department, password or module permissions. Omitted fields are kept.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Param        request body identityapp.UpdateUserInput true "Changes"
// @Success      200 {object} APIResponse[identityapp.UserEnvelope]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid user ID format")
		return
	}
	var req identityapp.UpdateUserInput
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.UserEnvelope{User: *user})
}

// Delete godoc
// @Summary      Delete user
// @Description  Soft-delete a user and revoke their tokens. Users cannot delete themselves.
// @Tags         users
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid user ID format")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id, actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Restore godoc
// @Summary      Restore user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} APIResponse[identityapp.UserEnvelope]
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id}/restore [patch]
func (h *UserHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	user, err := h.userService.Restore(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.UserEnvelope{User: *user})
}
