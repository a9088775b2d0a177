package txn_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/scope"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// fakeTx records its lifecycle so tests can assert who committed what.
type fakeTx struct {
	id         int
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

type fakeBeginner struct {
	mu       sync.Mutex
	txs      []*fakeTx
	beginErr error
}

func (b *fakeBeginner) Begin(context.Context) (txn.Tx, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	tx := &fakeTx{id: len(b.txs) + 1}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func TestManagerRequired(t *testing.T) {
	t.Parallel()

	t.Run("opens and commits on success", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(ctx context.Context) error {
			current, ok := m.Current(ctx)
			require.True(t, ok, "handle must be in scope during the method body")
			assert.Same(t, b.txs[0], current)
			return nil
		})
		require.NoError(t, err)

		require.Len(t, b.txs, 1)
		assert.True(t, b.txs[0].committed)
		assert.False(t, b.txs[0].rolledBack)
	})

	t.Run("rolls back on error and propagates it unchanged", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(ctx context.Context) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		require.Len(t, b.txs, 1)
		assert.True(t, b.txs[0].rolledBack)
		assert.False(t, b.txs[0].committed)
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		assert.Panics(t, func() {
			_ = m.Run(context.Background(), txn.Required, func(ctx context.Context) error {
				panic("boom")
			})
		})

		require.Len(t, b.txs, 1)
		assert.True(t, b.txs[0].rolledBack)
	})

	t.Run("nested call joins the open transaction", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(outer context.Context) error {
			return m.Run(outer, txn.Required, func(inner context.Context) error {
				current, ok := m.Current(inner)
				require.True(t, ok)
				assert.Same(t, b.txs[0], current, "joined call must share the outer transaction")
				return nil
			})
		})
		require.NoError(t, err)

		require.Len(t, b.txs, 1, "join must not open a second transaction")
		assert.True(t, b.txs[0].committed)
	})

	t.Run("inner failure rolls back the shared transaction", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(outer context.Context) error {
			// Work already done by the outer call is part of the same
			// transaction and must be undone with it.
			return m.Run(outer, txn.Required, func(inner context.Context) error {
				return assert.AnError
			})
		})
		assert.ErrorIs(t, err, assert.AnError)

		require.Len(t, b.txs, 1)
		assert.True(t, b.txs[0].rolledBack)
		assert.False(t, b.txs[0].committed, "joined failure must not leave a partial commit")
	})

	t.Run("handle does not outlive its invocation", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		ctx := scope.WithScope(context.Background(), scope.New())
		err := m.Run(ctx, txn.Required, func(ctx context.Context) error { return nil })
		require.NoError(t, err)

		_, ok := m.Current(ctx)
		assert.False(t, ok)
	})

	t.Run("begin failure is wrapped", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{beginErr: assert.AnError}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(ctx context.Context) error {
			t.Error("body must not run when begin fails")
			return nil
		})
		assert.ErrorIs(t, err, txn.ErrBeginFailed)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestManagerRequiresNew(t *testing.T) {
	t.Parallel()

	t.Run("stacks an independent transaction", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(outer context.Context) error {
			return m.Run(outer, txn.RequiresNew, func(inner context.Context) error {
				current, ok := m.Current(inner)
				require.True(t, ok)
				assert.Same(t, b.txs[1], current, "RequiresNew must open its own transaction")
				return nil
			})
		})
		require.NoError(t, err)

		require.Len(t, b.txs, 2)
		assert.True(t, b.txs[0].committed)
		assert.True(t, b.txs[1].committed)
	})

	t.Run("restores the previous handle after the inner call", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(outer context.Context) error {
			_ = m.Run(outer, txn.RequiresNew, func(context.Context) error { return nil })

			current, ok := m.Current(outer)
			require.True(t, ok)
			assert.Same(t, b.txs[0], current)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("inner rollback leaves the outer transaction alive", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(outer context.Context) error {
			_ = m.Run(outer, txn.RequiresNew, func(context.Context) error { return assert.AnError })
			return nil
		})
		require.NoError(t, err)

		require.Len(t, b.txs, 2)
		assert.True(t, b.txs[0].committed)
		assert.True(t, b.txs[1].rolledBack)
	})
}

func TestManagerSuppress(t *testing.T) {
	t.Parallel()

	t.Run("hides the active handle", func(t *testing.T) {
		t.Parallel()

		b := &fakeBeginner{}
		m := txn.NewManager("primary", b)

		err := m.Run(context.Background(), txn.Required, func(outer context.Context) error {
			err := m.Run(outer, txn.Suppress, func(inner context.Context) error {
				_, ok := m.Current(inner)
				assert.False(t, ok, "no transaction may be visible inside a suppressed call")
				return nil
			})
			require.NoError(t, err)

			current, ok := m.Current(outer)
			require.True(t, ok, "handle must be restored after the suppressed call")
			assert.Same(t, b.txs[0], current)
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, b.txs, 1)
	})

	t.Run("no-op without an active transaction", func(t *testing.T) {
		t.Parallel()

		m := txn.NewManager("primary", &fakeBeginner{})
		err := m.Run(context.Background(), txn.Suppress, func(ctx context.Context) error {
			_, ok := m.Current(ctx)
			assert.False(t, ok)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestManagerIsolation(t *testing.T) {
	t.Parallel()

	// Two managers on different connections keep separate handles in the
	// same scope.
	b1 := &fakeBeginner{}
	b2 := &fakeBeginner{}
	m1 := txn.NewManager("pg", b1)
	m2 := txn.NewManager("mongo", b2)

	err := m1.Run(context.Background(), txn.Required, func(ctx context.Context) error {
		_, ok := m2.Current(ctx)
		assert.False(t, ok, "managers must not see each other's handles")
		return m2.Run(ctx, txn.Required, func(ctx context.Context) error {
			_, ok := m1.Current(ctx)
			assert.True(t, ok)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Len(t, b1.txs, 1)
	assert.Len(t, b2.txs, 1)
}

func TestNewManagerValidation(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { txn.NewManager("", &fakeBeginner{}) })
	assert.Panics(t, func() { txn.NewManager("primary", nil) })
}
