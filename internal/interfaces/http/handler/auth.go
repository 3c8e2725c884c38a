package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	"github.com/hospital-erp/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with username and password and receive an access token and the visible modules
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginInput true "Login credentials"
// @Success      200 {object} APIResponse[identityapp.LoginResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @Summary      User logout
// @Description  Revoke the presented access token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[MessageData]
// @Failure      401 {object} ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	err := h.authService.Logout(c.Request.Context(), identityapp.LogoutInput{
		UserID:    claims.UserID,
		TokenJTI:  claims.ID,
		ExpiresIn: claims.GetRemainingTTL(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Logged out"})
}

// Me godoc
// @Summary      Current user
// @Description  Return the caller's user record and visible modules, resolved from storage
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[identityapp.CurrentUserResult]
// @Failure      401 {object} ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
