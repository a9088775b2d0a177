package txn

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/tenantkit/pkg/scope"
)

// Tx is an open database transaction. Concrete adapters (pgx, mongo
// sessions) satisfy it; business code never sees the driver type.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner opens transactions on a logical connection.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// Propagation governs whether a call joins an existing transaction, starts
// its own, or runs transaction-free.
type Propagation int

const (
	// Required joins the transaction already in scope for this connection,
	// or opens a new one. The default for write methods.
	Required Propagation = iota
	// RequiresNew always opens its own transaction, stacking on top of any
	// active one; the previous handle is restored afterwards.
	RequiresNew
	// Suppress hides any active transaction for the duration of the call.
	Suppress
)

func (p Propagation) String() string {
	switch p {
	case Required:
		return "required"
	case RequiresNew:
		return "requires_new"
	case Suppress:
		return "suppress"
	default:
		return "unknown"
	}
}

// Manager owns transaction boundaries for one named connection. The active
// handle lives in the request scope under a per-connection key, so two
// managers on different connections never collide.
type Manager struct {
	name     string
	key      string
	beginner Beginner
	log      *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used for rollback diagnostics.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a transaction manager for the named connection.
// Panics on an empty name or nil beginner: that is a wiring bug and must
// stop startup.
func NewManager(name string, beginner Beginner, opts ...ManagerOption) *Manager {
	if name == "" {
		panic("txn: manager requires a connection name")
	}
	if beginner == nil {
		panic("txn: manager requires a beginner for connection " + name)
	}
	m := &Manager{
		name:     name,
		key:      "txn." + name,
		beginner: beginner,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the connection name.
func (m *Manager) Name() string { return m.name }

// Current returns the transaction handle active in scope for this
// connection, if any.
func (m *Manager) Current(ctx context.Context) (Tx, bool) {
	v, ok := scope.Get(ctx, m.key)
	if !ok {
		return nil, false
	}
	tx, ok := v.(Tx)
	return tx, ok && tx != nil
}

// Run executes fn under the given propagation policy. When Run opens a
// transaction it alone decides its fate: commit on success, rollback on error
// or panic. A joined call never commits or rolls back; its error propagates
// unchanged to the owning invocation, which then rolls everything back.
func (m *Manager) Run(ctx context.Context, p Propagation, fn func(ctx context.Context) error) error {
	switch p {
	case Required:
		if _, ok := m.Current(ctx); ok {
			return fn(ctx)
		}
		return m.runOwned(ctx, fn)
	case RequiresNew:
		return m.runOwned(ctx, fn)
	case Suppress:
		return m.runSuppressed(ctx, fn)
	default:
		return ErrUnknownPropagation
	}
}

// runOwned opens a transaction, exposes it in scope, and releases it when fn
// returns. The previous handle (RequiresNew stacking) is restored on exit so
// the handle never outlives its owning invocation.
func (m *Manager) runOwned(ctx context.Context, fn func(ctx context.Context) error) error {
	if !scope.Active(ctx) {
		ctx = scope.WithScope(ctx, scope.New())
	}

	tx, err := m.beginner.Begin(ctx)
	if err != nil {
		return errors.Join(ErrBeginFailed, err)
	}

	prev, hadPrev := scope.Get(ctx, m.key)
	scope.Set(ctx, m.key, tx)

	committed := false
	defer func() {
		if hadPrev {
			scope.Set(ctx, m.key, prev)
		} else {
			scope.Delete(ctx, m.key)
		}
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				m.log.WarnContext(ctx, "transaction rollback failed",
					slog.String("connection", m.name), slog.Any("error", rbErr))
			}
		}
	}()

	if err := fn(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrCommitFailed, err)
	}
	committed = true
	return nil
}

// runSuppressed hides the active handle for the duration of fn.
func (m *Manager) runSuppressed(ctx context.Context, fn func(ctx context.Context) error) error {
	prev, had := scope.Get(ctx, m.key)
	if !had {
		return fn(ctx)
	}
	scope.Delete(ctx, m.key)
	defer scope.Set(ctx, m.key, prev)
	return fn(ctx)
}
