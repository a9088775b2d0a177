package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// DBTX is the subset of pgx operations stores use. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so store code is identical inside and outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx adapts a pgx transaction to the txn.Tx contract while keeping the
// underlying querier reachable for stores.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Querier exposes the transaction for query execution.
func (t *Tx) Querier() DBTX { return t.tx }

// TxBeginner opens pgx transactions for the txn manager.
type TxBeginner struct {
	pool *pgxpool.Pool
}

// NewTxBeginner wraps a pool as a txn.Beginner.
func NewTxBeginner(pool *pgxpool.Pool) *TxBeginner {
	return &TxBeginner{pool: pool}
}

func (b *TxBeginner) Begin(ctx context.Context) (txn.Tx, error) {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Querier returns the executor for the current call: the transaction the
// manager holds in scope when one is active, the pool otherwise. Stores call
// this per operation rather than capturing an executor at construction.
func Querier(ctx context.Context, m *txn.Manager, pool *pgxpool.Pool) DBTX {
	if m != nil {
		if h, ok := m.Current(ctx); ok {
			if t, ok := h.(*Tx); ok {
				return t.Querier()
			}
		}
	}
	return pool
}
