package project

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// PostgresStore persists projects in Postgres. The tenant filter is derived
// from the request context on every call and overrides whatever the payload
// carries; there is no way to address another tenant's rows through this
// store.
type PostgresStore struct {
	pool *pgxpool.Pool
	mgr  *txn.Manager
}

// NewPostgresStore creates a project store over the given pool and manager.
func NewPostgresStore(pool *pgxpool.Pool, mgr *txn.Manager) *PostgresStore {
	return &PostgresStore{pool: pool, mgr: mgr}
}

func (s *PostgresStore) db(ctx context.Context) pg.DBTX {
	return pg.Querier(ctx, s.mgr, s.pool)
}

func (s *PostgresStore) CreateProject(ctx context.Context, p Project) (*Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}
	p.TenantID = tid

	_, err = s.db(ctx).Exec(ctx,
		`INSERT INTO projects (id, tenant_id, name, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.TenantID, p.Name, p.Description, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p Project) (*Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}
	p.TenantID = tid

	tag, err := s.db(ctx).Exec(ctx,
		`UPDATE projects SET name = $3, description = $4, status = $5, updated_at = $6
		 WHERE id = $1 AND tenant_id = $2`,
		p.ID, p.TenantID, p.Name, p.Description, p.Status, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProjectNotFound
	}
	return &p, nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return err
	}

	tag, err := s.db(ctx).Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND tenant_id = $2`, id, tid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}

	var p Project
	err = s.db(ctx).QueryRow(ctx,
		`SELECT id, tenant_id, name, description, status, created_at, updated_at
		 FROM projects WHERE id = $1 AND tenant_id = $2`, id, tid).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db(ctx).Query(ctx,
		`SELECT id, tenant_id, name, description, status, created_at, updated_at
		 FROM projects WHERE tenant_id = $1 ORDER BY created_at, id`, tid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
