package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ModuleAuthorizer resolves a user's access level on a module
type ModuleAuthorizer interface {
	Authorize(ctx context.Context, userID int64, key identity.ModuleKey) (identity.AccessLevel, error)
}

// AccessKey holds the access level granted by RequireModule
const AccessKey = "module_access"

// RequireModule gates a route group on a module. Reads need read access;
// any other method needs write access.
func RequireModule(authz ModuleAuthorizer, key identity.ModuleKey, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		userID := GetJWTUserID(c)
		if userID == 0 {
			abortForbidden(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		access, err := authz.Authorize(c.Request.Context(), userID, key)
		if err != nil {
			logger.Warn("Module authorization failed",
				zap.Int64("user_id", userID),
				zap.String("module", key.String()),
				zap.Error(err))
			abortForbidden(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		allowed := access.Read
		if !isReadMethod(c.Request.Method) {
			allowed = access.Write
		}
		if !allowed {
			logger.Info("Module access denied",
				zap.Int64("user_id", userID),
				zap.String("module", key.String()),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path))
			abortForbidden(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access denied: insufficient permissions")
			return
		}

		c.Set(AccessKey, access)
		c.Next()
	}
}

// RequireWrite gates a single read route that still mutates state, such as
// issuing a checkout token
func RequireWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get(AccessKey); ok {
			if access, ok := v.(identity.AccessLevel); ok && access.Write {
				c.Next()
				return
			}
		}
		abortForbidden(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access denied: insufficient permissions")
	}
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func abortForbidden(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
