package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMapping(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOpaque bool
	}{
		{"validation", Validationf("query is too long"), http.StatusBadRequest, false},
		{"not found", fmt.Errorf("session x: %w", ErrNotFound), http.StatusNotFound, false},
		{"conflict", fmt.Errorf("username alice: %w", ErrConflict), http.StatusConflict, false},
		{"internal", errors.New("pool exhausted"), http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, log, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body["error"])
			if tt.wantOpaque {
				// Internal detail must not leak to the caller.
				assert.NotContains(t, body["error"], "pool exhausted")
			} else {
				assert.Equal(t, tt.err.Error(), body["error"])
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5", nil)
	v, err := QueryInt(r, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = QueryInt(r, "offset", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	r = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	_, err = QueryInt(r, "limit", 10)
	assert.Error(t, err)
}

func TestQueryBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?is_active=true", nil)
	v, err := QueryBool(r, "is_active")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, *v)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err = QueryBool(r, "is_active")
	require.NoError(t, err)
	assert.Nil(t, v)

	r = httptest.NewRequest(http.MethodGet, "/?is_active=banana", nil)
	_, err = QueryBool(r, "is_active")
	assert.Error(t, err)
}
