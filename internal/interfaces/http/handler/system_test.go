package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping() error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		status   int
		health   string
		database string
	}{
		{"database reachable", fakePinger{}, http.StatusOK, "healthy", "ok"},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unhealthy", "error"},
		{"no database", nil, http.StatusOK, "healthy", "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler(tt.db, "")
			c, w := newTestContext(http.MethodGet, "/health")

			h.Health(c)

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Success bool           `json:"success"`
				Data    HealthResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.status == http.StatusOK, body.Success)
			assert.Equal(t, tt.health, body.Data.Status)
			assert.Equal(t, tt.database, body.Data.Database)
			assert.Equal(t, "dev", body.Data.Version)
			assert.NotEmpty(t, body.Data.GoVersion)
		})
	}
}
