package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// CurrentUserKey holds the caller's stored user record
const CurrentUserKey = "current_user"

// UserLookup loads the stored user behind a token
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*identity.User, error)
}

// DataScope loads the caller's user record and puts the department scope
// derived from it on the request context. It runs after the JWT middleware.
// The scope is read from storage, not from the token, so a moved or
// demoted user loses access on the next request. A deleted user is
// rejected with 401; a lookup failure leaves the request with an empty
// scope so nothing department-bound is visible.
func DataScope(users UserLookup, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		userID := GetJWTUserID(c)
		if userID == 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		user, err := users.FindByID(ctx, userID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeTokenRevoked, "User no longer exists", getRequestID(c)))
			return
		case err != nil:
			logger.Error("Failed to load user for data scope",
				zap.Int64("user_id", userID),
				zap.Error(err))
			c.Request = c.Request.WithContext(datascope.WithScope(ctx, datascope.Scope{}))
			c.Next()
			return
		}

		c.Set(CurrentUserKey, user)
		c.Request = c.Request.WithContext(datascope.WithScope(ctx, datascope.ForUser(user)))
		c.Next()
	}
}

// GetCurrentUser returns the user loaded by DataScope, or nil
func GetCurrentUser(c *gin.Context) *identity.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if u, ok := v.(*identity.User); ok {
			return u
		}
	}
	return nil
}
