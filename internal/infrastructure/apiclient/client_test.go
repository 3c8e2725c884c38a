package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}))
}

func writeError(t *testing.T, w http.ResponseWriter, status int, code, message string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message, "request_id": "req-1"},
	}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(config.ClientConfig{BaseURL: srv.URL + "/api/v1", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c, srv
}

func TestCall_DecodesEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/inventory/department", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("departmentId"))
		assert.Equal(t, "gauze", r.URL.Query().Get("search"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeEnvelope(t, w, http.StatusOK, inventoryapp.LedgerResponse{
			Inventory: []inventoryapp.ItemResponse{{ID: 11, ItemName: "Gauze", Quantity: 8}},
		})
	})
	c.SetToken("tok-1")

	resp, err := Call[inventoryapp.LedgerResponse](context.Background(), c,
		ResourceDepartmentInventory, VerbList, Params{"departmentId": "2", "search": "gauze"}, nil)

	require.NoError(t, err)
	require.Len(t, resp.Inventory, 1)
	assert.Equal(t, "Gauze", resp.Inventory[0].ItemName)
}

func TestCall_FillsPathParameters(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/inventory-requests/7/status", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		var body requestapp.UpdateStatusInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Approved", body.Status)
		writeEnvelope(t, w, http.StatusOK, requestapp.StatusChangeResponse{
			Request: requestapp.RequestResponse{ID: 7, Status: "Approved"},
		})
	})

	resp, err := Call[requestapp.StatusChangeResponse](context.Background(), c,
		ResourceRequests, VerbUpdateStatus, ID(7), requestapp.UpdateStatusInput{Status: "Approved"})

	require.NoError(t, err)
	assert.Equal(t, "Approved", resp.Request.Status)
}

func TestCall_ValidationBlocksTheCall(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := Call[requestapp.RequestEnvelope](context.Background(), c,
			ResourceRequests, VerbCreate, nil, requestapp.CreateRequestInput{ItemName: "Gauze", Quantity: 0})

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("checkout without token or user", func(t *testing.T) {
		_, err := Call[checkoutapp.CompleteResponse](context.Background(), c,
			ResourceCheckout, VerbComplete, ID(7), checkoutapp.CompleteInput{})

		assert.Equal(t, KindValidation, KindOf(err))
	})

	assert.Zero(t, hits.Load())
}

func TestCall_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		kind   Kind
	}{
		{"bad request", http.StatusBadRequest, "ERR_INVALID_QUANTITY", KindValidation},
		{"forbidden", http.StatusForbidden, "ERR_FORBIDDEN", KindAuthorization},
		{"not found", http.StatusNotFound, "ERR_NOT_FOUND", KindNotFound},
		{"token replay", http.StatusConflict, "ERR_CHECKOUT_TOKEN_INVALID", KindConflict},
		{"wrong state", http.StatusUnprocessableEntity, "ERR_INVALID_STATE", KindConflict},
		{"server fault", http.StatusInternalServerError, "ERR_INTERNAL", KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeError(t, w, tt.status, tt.code, "nope")
			})

			_, err := Call[requestapp.RequestEnvelope](context.Background(), c, ResourceRequests, VerbDelete, ID(7), nil)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, "req-1", apiErr.RequestID)
		})
	}

	t.Run("is matches kind and code", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(t, w, http.StatusConflict, "ERR_CHECKOUT_TOKEN_INVALID", "used")
		})

		_, err := Call[checkoutapp.CompleteResponse](context.Background(), c,
			ResourceCheckout, VerbComplete, ID(7), checkoutapp.CompleteInput{Token: "t"})

		assert.ErrorIs(t, err, ErrConflict)
		assert.ErrorIs(t, err, &Error{Kind: KindConflict, Code: "ERR_CHECKOUT_TOKEN_INVALID"})
		assert.NotErrorIs(t, err, &Error{Kind: KindConflict, Code: "ERR_INVALID_STATE"})
	})
}

func TestCall_SessionExpiry(t *testing.T) {
	t.Run("401 with a session clears it", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(t, w, http.StatusUnauthorized, "ERR_TOKEN_EXPIRED", "expired")
		})
		c.SetToken("stale")
		var notified atomic.Bool
		c.OnSessionExpired(func() { notified.Store(true) })

		_, err := Call[inventoryapp.LedgerResponse](context.Background(), c, ResourceInventory, VerbList, nil, nil)

		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.ErrorIs(t, err, ErrAuthorization)
		assert.Empty(t, c.Token())
		assert.True(t, notified.Load())
	})

	t.Run("401 at login is a plain authorization failure", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(t, w, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS", "bad credentials")
		})

		_, err := Call[json.RawMessage](context.Background(), c, ResourceAuth, VerbLogin, nil,
			map[string]string{"username": "nurse.kim", "password": "x"})

		assert.ErrorIs(t, err, ErrAuthorization)
		assert.NotErrorIs(t, err, ErrSessionExpired)
	})
}

func TestDo_NetworkFailure(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Do(context.Background(), ResourceHealth, VerbGet, nil, nil)

	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestDo_Attachment(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions-20240301-090000.csv"`)
		_, _ = w.Write([]byte("id,itemname\n1,Gauze\n"))
	})

	raw, err := c.Do(context.Background(), ResourceTransactions, VerbExportCSV, nil, nil)

	require.NoError(t, err)
	assert.False(t, raw.IsJSON())
	assert.Equal(t, "transactions-20240301-090000.csv", raw.FileName)
	assert.Contains(t, string(raw.Body), "Gauze")
}

func TestEndpoints(t *testing.T) {
	t.Run("missing path parameter", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := c.Do(context.Background(), ResourceUsers, VerbRestore, nil, nil)

		assert.ErrorContains(t, err, `missing path parameter "id"`)
	})

	t.Run("unknown verb", func(t *testing.T) {
		_, ok := Lookup(ResourceHealth, VerbDelete)
		assert.False(t, ok)
	})

	t.Run("with skips empty values", func(t *testing.T) {
		p := ID(3).With("search", "").With("status", "Pending")
		assert.Equal(t, Params{"id": "3", "status": "Pending"}, p)
	})
}
