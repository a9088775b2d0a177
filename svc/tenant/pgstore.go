package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	tenantpkg "github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// PostgresStore persists tenants and memberships in Postgres. Every call
// resolves its executor through the transaction manager, so operations join
// whatever transaction the calling method opened.
type PostgresStore struct {
	pool *pgxpool.Pool
	mgr  *txn.Manager
}

// NewPostgresStore creates a tenant store over the given pool and manager.
func NewPostgresStore(pool *pgxpool.Pool, mgr *txn.Manager) *PostgresStore {
	return &PostgresStore{pool: pool, mgr: mgr}
}

func (s *PostgresStore) db(ctx context.Context) pg.DBTX {
	return pg.Querier(ctx, s.mgr, s.pool)
}

const tenantColumns = "id, name, slug, allowed_origins, active, created_at"

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.AllowedOrigins, &t.Active, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tenantpkg.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTenant(ctx context.Context, t Tenant) error {
	_, err := s.db(ctx).Exec(ctx,
		`INSERT INTO tenants (id, name, slug, allowed_origins, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Slug, t.AllowedOrigins, t.Active, t.CreatedAt)
	return err
}

func (s *PostgresStore) UpdateTenant(ctx context.Context, t Tenant) error {
	tag, err := s.db(ctx).Exec(ctx,
		`UPDATE tenants SET name = $2, allowed_origins = $3, active = $4 WHERE id = $1`,
		t.ID, t.Name, t.AllowedOrigins, t.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenantpkg.ErrTenantNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenantpkg.ErrTenantNotFound
	}
	return nil
}

func (s *PostgresStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return scanTenant(s.db(ctx).QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

func (s *PostgresStore) GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return scanTenant(s.db(ctx).QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
}

func (s *PostgresStore) GetTenantByOrigin(ctx context.Context, origin string) (*Tenant, error) {
	return scanTenant(s.db(ctx).QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE $1 = ANY(allowed_origins)`, origin))
}

func (s *PostgresStore) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := s.db(ctx).Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collectTenants(rows)
}

func (s *PostgresStore) ListTenantsByMember(ctx context.Context, email string) ([]Tenant, error) {
	rows, err := s.db(ctx).Query(ctx,
		`SELECT t.id, t.name, t.slug, t.allowed_origins, t.active, t.created_at
		 FROM tenants t
		 JOIN tenant_memberships m ON m.tenant_id = t.id
		 WHERE m.email = $1
		 ORDER BY t.created_at, t.id`, email)
	if err != nil {
		return nil, err
	}
	return collectTenants(rows)
}

func collectTenants(rows pgx.Rows) ([]Tenant, error) {
	defer rows.Close()
	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.AllowedOrigins, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateMembership(ctx context.Context, m Membership) error {
	_, err := s.db(ctx).Exec(ctx,
		`INSERT INTO tenant_memberships (id, tenant_id, email, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.TenantID, m.Email, m.Role, m.CreatedAt)
	return err
}

func (s *PostgresStore) DeleteMembership(ctx context.Context, tenantID uuid.UUID, email string) error {
	tag, err := s.db(ctx).Exec(ctx,
		`DELETE FROM tenant_memberships WHERE tenant_id = $1 AND email = $2`,
		tenantID, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (s *PostgresStore) GetMembership(ctx context.Context, tenantID uuid.UUID, email string) (*Membership, error) {
	var m Membership
	err := s.db(ctx).QueryRow(ctx,
		`SELECT id, tenant_id, email, role, created_at
		 FROM tenant_memberships WHERE tenant_id = $1 AND email = $2`,
		tenantID, email).Scan(&m.ID, &m.TenantID, &m.Email, &m.Role, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]Membership, error) {
	rows, err := s.db(ctx).Query(ctx,
		`SELECT id, tenant_id, email, role, created_at
		 FROM tenant_memberships WHERE tenant_id = $1 ORDER BY created_at, id`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Email, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
