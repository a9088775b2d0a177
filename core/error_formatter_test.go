package core_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/environment"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func TestCallTypeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, core.CallTypeQuery, core.CallTypeOf(httptest.NewRequest(http.MethodGet, "/x", nil)))
	assert.Equal(t, core.CallTypeMutation, core.CallTypeOf(httptest.NewRequest(http.MethodPost, "/x", nil)))
	assert.Equal(t, core.CallTypeMutation, core.CallTypeOf(httptest.NewRequest(http.MethodDelete, "/x", nil)))
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	t.Run("tenant required maps to 403", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/projects", nil)
		resp := core.Translate(req, fmt.Errorf("store: %w", tenant.ErrTenantRequired))

		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.Equal(t, "tenant_required", resp.Code)
		assert.Equal(t, "/projects", resp.Path)
		assert.Equal(t, core.CallTypeMutation, resp.CallType)
		assert.False(t, resp.Timestamp.IsZero())
	})

	t.Run("http error passes through", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/tenants", nil)
		resp := core.Translate(req, core.ErrUnauthorized)

		assert.Equal(t, http.StatusUnauthorized, resp.Status)
		assert.Equal(t, "unauthorized", resp.Code)
	})

	t.Run("unknown error is opaque outside development", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		resp := core.Translate(req, fmt.Errorf("pq: connection reset by peer"))

		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, "internal_error", resp.Code)
		assert.Equal(t, "internal server error", resp.Message)
	})

	t.Run("unknown error message exposed in development", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		req = req.WithContext(environment.WithContext(req.Context(), string(environment.Development)))
		resp := core.Translate(req, fmt.Errorf("boom: details"))

		assert.Equal(t, "boom: details", resp.Message)
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/projects", nil)
	w := httptest.NewRecorder()
	core.WriteError(w, req, tenant.ErrTenantRequired)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var resp core.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tenant_required", resp.Code)
	assert.Equal(t, http.StatusForbidden, resp.Status)
}
