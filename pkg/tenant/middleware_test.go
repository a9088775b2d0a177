package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/scope"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// mockProvider matches tenants by exact origin, the way real stores do.
type mockProvider struct {
	mu      sync.Mutex
	tenants []*tenant.Tenant
	err     error
}

func (p *mockProvider) add(t *tenant.Tenant) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tenants = append(p.tenants, t)
}

func (p *mockProvider) GetByOrigin(_ context.Context, origin string) (*tenant.Tenant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	for _, t := range p.tenants {
		for _, allowed := range t.AllowedOrigins {
			if allowed == origin {
				return t, nil
			}
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func newTestTenant(slug string, origins ...string) *tenant.Tenant {
	return &tenant.Tenant{
		ID:             uuid.New(),
		Name:           slug,
		Slug:           slug,
		AllowedOrigins: origins,
		Active:         true,
		CreatedAt:      time.Now(),
	}
}

func resolveChain(provider tenant.Provider, next http.Handler, opts ...tenant.Option) http.Handler {
	return scope.Middleware()(tenant.ResolveMiddleware(provider, opts...)(next))
}

func TestResolveMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("exact origin match resolves tenant", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		acme := newTestTenant("acme", "a.example.com")
		provider.add(acme)

		handler := resolveChain(provider, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := tenant.FromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, acme.ID, got.ID)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "A.Example.Com:8443"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("subdomain of allowed origin does not match", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		provider.add(newTestTenant("acme", "a.example.com"))

		handler := resolveChain(provider, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := tenant.FromContext(r.Context())
			assert.False(t, ok)
		}))

		for _, host := range []string{"sub.a.example.com", "a.example.com.evil.com"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = host
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}
	})

	t.Run("page origin header takes precedence over host", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		b := newTestTenant("bravo", "b.example.com")
		provider.add(b)
		provider.add(newTestTenant("proxy", "proxy.internal"))

		handler := resolveChain(provider, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := tenant.FromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, b.ID, got.ID)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "proxy.internal"
		req.Header.Set(tenant.HeaderPageOrigin, "https://b.example.com")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	})

	t.Run("inactive tenant does not resolve by default", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		inactive := newTestTenant("gone", "gone.example.com")
		inactive.Active = false
		provider.add(inactive)

		handler := resolveChain(provider, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := tenant.FromContext(r.Context())
			assert.False(t, ok)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "gone.example.com"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	})

	t.Run("provider failure returns 500", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{err: assert.AnError}

		handler := resolveChain(provider, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "a.example.com"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	t.Run("rejects unresolved tenant with 403", func(t *testing.T) {
		t.Parallel()

		var handlerCalled bool
		gate := tenant.RequireTenant()
		handler := scope.Middleware()(gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, handlerCalled, "no downstream handler may run without a tenant")
	})

	t.Run("allow-listed paths pass without tenant", func(t *testing.T) {
		t.Parallel()

		gate := tenant.RequireTenant(tenant.WithAllowPaths("/auth", "/healthz"))
		handler := scope.Middleware()(gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

		for _, path := range []string{"/auth", "/auth/login", "/healthz"} {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})

	t.Run("allow-list matches whole segments only", func(t *testing.T) {
		t.Parallel()

		gate := tenant.RequireTenant(tenant.WithAllowPaths("/auth"))
		handler := scope.Middleware()(gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

		for _, path := range []string{"/authors", "/authenticate", "/auth2/login"} {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusForbidden, w.Code, path)
		}
	})

	t.Run("resolved tenant passes", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		provider.add(newTestTenant("acme", "a.example.com"))

		gate := tenant.RequireTenant()
		handler := resolveChain(provider, gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		req.Host = "a.example.com"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
