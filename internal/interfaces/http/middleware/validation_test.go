package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hospital-erp/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors(t *testing.T) {
	type restockInput struct {
		Quantity   int    `json:"quantity" binding:"required,gt=0"`
		ExpiryDate string `json:"expiryDate" binding:"required,len=10"`
	}

	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req restockInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("returns field details for invalid input", func(t *testing.T) {
		body := strings.NewReader(`{"quantity": -3, "expiryDate": "soon"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "quantity", resp.Error.Details[0].Field)
		assert.Equal(t, "gt", resp.Error.Details[0].Tag)
		assert.Equal(t, "Must be greater than 0", resp.Error.Details[0].Message)
		assert.Equal(t, "expiryDate", resp.Error.Details[1].Field)
	})

	t.Run("returns success for valid input", func(t *testing.T) {
		body := strings.NewReader(`{"quantity": 5, "expiryDate": "2027-01-31"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Max      string `validate:"max=3"`
		Len      string `validate:"len=5"`
		OneOf    string `validate:"oneof=Pending Approved"`
		GTE      int    `validate:"gte=10"`
		LTE      int    `validate:"lte=1"`
		GT       int    `validate:"gt=0"`
	}

	v := validator.New()
	err := v.Struct(sample{Max: "long", Len: "ab", OneOf: "Lost", LTE: 5})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be at most 3 characters", got["Max"])
	assert.Equal(t, "Must be exactly 5 characters", got["Len"])
	assert.Equal(t, "Must be one of: Pending Approved", got["OneOf"])
	assert.Equal(t, "Must be greater than or equal to 10", got["GTE"])
	assert.Equal(t, "Must be less than or equal to 1", got["LTE"])
	assert.Equal(t, "Must be greater than 0", got["GT"])
}

func TestHandleValidationError(t *testing.T) {
	t.Run("non validator errors still produce a validation response", func(t *testing.T) {
		type input struct {
			Name string `json:"name" binding:"required"`
		}

		router := gin.New()
		router.POST("/test", func(c *gin.Context) {
			var in input
			if err := c.ShouldBindJSON(&in); err != nil {
				HandleValidationError(c, err)
				return
			}
		})

		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{not json`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
	})
}
