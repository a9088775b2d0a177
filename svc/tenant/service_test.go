package tenant_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tenantpkg "github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
	"github.com/dmitrymomot/tenantkit/svc/tenant"
)

type noopTx struct{}

func (noopTx) Commit(context.Context) error   { return nil }
func (noopTx) Rollback(context.Context) error { return nil }

type noopBeginner struct{}

func (noopBeginner) Begin(context.Context) (txn.Tx, error) { return noopTx{}, nil }

// memStore is an in-memory Storer for service-level tests.
type memStore struct {
	mu          sync.Mutex
	tenants     map[uuid.UUID]tenant.Tenant
	memberships map[uuid.UUID][]tenant.Membership
}

func newMemStore() *memStore {
	return &memStore{
		tenants:     make(map[uuid.UUID]tenant.Tenant),
		memberships: make(map[uuid.UUID][]tenant.Membership),
	}
}

func (s *memStore) CreateTenant(_ context.Context, t tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
	return nil
}

func (s *memStore) UpdateTenant(_ context.Context, t tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; !ok {
		return tenantpkg.ErrTenantNotFound
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *memStore) DeleteTenant(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[id]; !ok {
		return tenantpkg.ErrTenantNotFound
	}
	delete(s.tenants, id)
	delete(s.memberships, id)
	return nil
}

func (s *memStore) GetTenantByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, tenantpkg.ErrTenantNotFound
	}
	return &t, nil
}

func (s *memStore) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, tenantpkg.ErrTenantNotFound
}

func (s *memStore) GetTenantByOrigin(_ context.Context, origin string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		for _, o := range t.AllowedOrigins {
			if o == origin {
				return &t, nil
			}
		}
	}
	return nil, tenantpkg.ErrTenantNotFound
}

func (s *memStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (s *memStore) ListTenantsByMember(_ context.Context, email string) ([]tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tenant.Tenant
	for id, members := range s.memberships {
		for _, m := range members {
			if m.Email == email {
				out = append(out, s.tenants[id])
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) CreateMembership(_ context.Context, m tenant.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[m.TenantID] = append(s.memberships[m.TenantID], m)
	return nil
}

func (s *memStore) DeleteMembership(_ context.Context, tenantID uuid.UUID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.memberships[tenantID]
	for i, m := range members {
		if m.Email == email {
			s.memberships[tenantID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return tenant.ErrMembershipNotFound
}

func (s *memStore) GetMembership(_ context.Context, tenantID uuid.UUID, email string) (*tenant.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships[tenantID] {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, tenant.ErrMembershipNotFound
}

func (s *memStore) ListMemberships(_ context.Context, tenantID uuid.UUID) ([]tenant.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tenant.Membership(nil), s.memberships[tenantID]...), nil
}

func newTestService(t *testing.T) (*tenant.Service, *memStore) {
	t.Helper()
	store := newMemStore()
	mgr := txn.NewManager("test", noopBeginner{})
	return tenant.NewService(store, mgr), store
}

func TestCreateTenant(t *testing.T) {
	t.Parallel()

	t.Run("derives slug and normalizes origins", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		created, err := svc.CreateTenant(context.Background(), tenant.CreateTenantParams{
			Name:           "Acme Corp",
			AllowedOrigins: []string{"https://App.Acme.com/dash", "app.acme.com:443"},
			OwnerEmail:     "Owner@Acme.com",
		})
		require.NoError(t, err)

		assert.Equal(t, "acme-corp", created.Slug)
		assert.Equal(t, []string{"app.acme.com"}, created.AllowedOrigins)
		assert.True(t, created.Active)

		m, err := svc.GetMember(context.Background(), created.ID, "owner@acme.com")
		require.NoError(t, err)
		assert.Equal(t, tenant.RoleTenantAdmin, m.Role)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		_, err := svc.CreateTenant(context.Background(), tenant.CreateTenantParams{Name: "   "})
		assert.ErrorIs(t, err, tenant.ErrNameRequired)
	})

	t.Run("rejects malformed slug", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		_, err := svc.CreateTenant(context.Background(), tenant.CreateTenantParams{
			Name: "Acme", Slug: "Not A Slug",
		})
		assert.ErrorIs(t, err, tenant.ErrInvalidSlug)
	})

	t.Run("rejects empty origin entries", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		_, err := svc.CreateTenant(context.Background(), tenant.CreateTenantParams{
			Name: "Acme", AllowedOrigins: []string{"   "},
		})
		assert.ErrorIs(t, err, tenant.ErrInvalidOrigin)
	})
}

func TestUpdateTenant(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	created, err := svc.CreateTenant(context.Background(), tenant.CreateTenantParams{
		Name: "Acme", AllowedOrigins: []string{"app.acme.com"},
	})
	require.NoError(t, err)

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		name := "Acme Inc"
		updated, err := svc.UpdateTenant(context.Background(), tenant.UpdateTenantParams{
			ID: created.ID, Name: &name,
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme Inc", updated.Name)
		assert.Equal(t, []string{"app.acme.com"}, updated.AllowedOrigins)
		assert.True(t, updated.Active)
	})

	t.Run("deactivation", func(t *testing.T) {
		inactive := false
		updated, err := svc.UpdateTenant(context.Background(), tenant.UpdateTenantParams{
			ID: created.ID, Active: &inactive,
		})
		require.NoError(t, err)
		assert.False(t, updated.Active)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := svc.UpdateTenant(context.Background(), tenant.UpdateTenantParams{ID: uuid.New()})
		assert.ErrorIs(t, err, tenantpkg.ErrTenantNotFound)
	})
}

func TestMemberships(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	created, err := svc.CreateTenant(context.Background(), tenant.CreateTenantParams{
		Name: "Acme", OwnerEmail: "owner@acme.com",
	})
	require.NoError(t, err)

	t.Run("add defaults to member role", func(t *testing.T) {
		m, err := svc.AddMember(context.Background(), tenant.AddMemberParams{
			TenantID: created.ID, Email: "Dev@Acme.com",
		})
		require.NoError(t, err)
		assert.Equal(t, tenant.RoleMember, m.Role)
		assert.Equal(t, "dev@acme.com", m.Email)
	})

	t.Run("add rejects unknown role", func(t *testing.T) {
		_, err := svc.AddMember(context.Background(), tenant.AddMemberParams{
			TenantID: created.ID, Email: "x@acme.com", Role: "SUPERUSER",
		})
		assert.ErrorIs(t, err, tenant.ErrInvalidRole)
	})

	t.Run("add rejects unknown tenant", func(t *testing.T) {
		_, err := svc.AddMember(context.Background(), tenant.AddMemberParams{
			TenantID: uuid.New(), Email: "x@acme.com",
		})
		assert.ErrorIs(t, err, tenantpkg.ErrTenantNotFound)
	})

	t.Run("remove last admin is rejected", func(t *testing.T) {
		err := svc.RemoveMember(context.Background(), tenant.RemoveMemberParams{
			TenantID: created.ID, Email: "owner@acme.com",
		})
		assert.ErrorIs(t, err, tenant.ErrLastAdmin)
	})

	t.Run("remove member", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(context.Background(), tenant.RemoveMemberParams{
			TenantID: created.ID, Email: "dev@acme.com",
		}))
		_, err := svc.GetMember(context.Background(), created.ID, "dev@acme.com")
		assert.ErrorIs(t, err, tenant.ErrMembershipNotFound)
	})

	t.Run("remove unknown member", func(t *testing.T) {
		err := svc.RemoveMember(context.Background(), tenant.RemoveMemberParams{
			TenantID: created.ID, Email: "ghost@acme.com",
		})
		assert.ErrorIs(t, err, tenant.ErrMembershipNotFound)
	})
}

func TestServiceReport(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	report := svc.Report()
	byName := make(map[string]txn.MethodReport, len(report))
	for _, m := range report {
		byName[m.Name] = m
	}

	assert.True(t, byName["CreateTenant"].Wrapped)
	assert.True(t, byName["RemoveMember"].Wrapped)
	assert.False(t, byName["GetByOrigin"].Wrapped)
	assert.NotEmpty(t, byName["GetByOrigin"].Reason)
	assert.NotEmpty(t, byName["ListTenants"].Reason)
}

func TestProviderContract(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	created, err := svc.CreateTenant(context.Background(), tenant.CreateTenantParams{
		Name: "Acme", AllowedOrigins: []string{"app.acme.com"},
	})
	require.NoError(t, err)

	var provider tenantpkg.Provider = svc

	got, err := provider.GetByOrigin(context.Background(), "app.acme.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = provider.GetByOrigin(context.Background(), "other.example.com")
	assert.ErrorIs(t, err, tenantpkg.ErrTenantNotFound)
}
