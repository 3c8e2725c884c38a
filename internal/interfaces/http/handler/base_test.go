package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/interfaces/http/dto"
	"github.com/hospital-erp/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set("X-Request-ID", "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-id")
				c.Request.Header.Set("X-Request-ID", "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/")
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestActorName(t *testing.T) {
	t.Run("uses the token username", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		c.Set(middleware.JWTUsernameKey, "nurse.kim")
		assert.Equal(t, "nurse.kim", actorName(c))
	})

	t.Run("falls back to system", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		assert.Equal(t, "system", actorName(c))
	})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw    string
		wantID int64
		wantOK bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("raw %q", tt.raw), func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/")
			c.Params = gin.Params{{Key: "id", Value: tt.raw}}
			id, ok := parseID(c, "id")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestBaseHandlerResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("success wraps data", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.Success(c, MessageData{Message: "ok"})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, "ok", resp.Data.(map[string]any)["message"])
	})

	t.Run("created", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/")
		h.Created(c, MessageData{Message: "made"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("no content", func(t *testing.T) {
		c, w := newTestContext(http.MethodDelete, "/")
		h.NoContent(c)
		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("error carries request id", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Set(RequestIDKey, "req-7")
		h.Forbidden(c, "nope")

		assert.Equal(t, http.StatusForbidden, w.Code)
		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
		assert.Equal(t, "nope", resp.Error.Message)
		assert.Equal(t, "req-7", resp.Error.RequestID)
	})

	t.Run("error code decides status", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.ErrorWithCode(c, dto.ErrCodeInsufficientStock, "short")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
		{"insufficient stock", shared.NewDomainError("INSUFFICIENT_STOCK", "short"), http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"invalid state", shared.NewDomainError("INVALID_STATE", "bad"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"already exists", shared.NewDomainError("ALREADY_EXISTS", "dup"), http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"wrapped domain error", fmt.Errorf("loading: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/")
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("internal errors are not leaked", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.HandleError(c, errors.New("pq: password authentication failed"))

		assert.NotContains(t, w.Body.String(), "password")
		assert.Len(t, c.Errors, 1)
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	h := &BaseHandler{}

	t.Run("valid body", func(t *testing.T) {
		c, _ := newTestContext(http.MethodPost, "/")
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":3}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var p payload
		require.True(t, h.BindJSON(c, &p))
		assert.Equal(t, 3, p.Quantity)
	})

	t.Run("invalid body answers with field details", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/")
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var p payload
		assert.False(t, h.BindJSON(c, &p))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "quantity", resp.Error.Details[0].Field)
	})
}
