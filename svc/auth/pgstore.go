package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// PostgresStore persists user accounts in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
	mgr  *txn.Manager
}

// NewPostgresStore creates a user store over the given pool and manager.
func NewPostgresStore(pool *pgxpool.Pool, mgr *txn.Manager) *PostgresStore {
	return &PostgresStore{pool: pool, mgr: mgr}
}

func (s *PostgresStore) db(ctx context.Context) pg.DBTX {
	return pg.Querier(ctx, s.mgr, s.pool)
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db(ctx).Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db(ctx).QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
