package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// Tx adapts a Mongo session transaction to the txn.Tx contract. The session
// ends when the transaction is released either way, so the handle never
// outlives its owning invocation.
type Tx struct {
	session *mongo.Session
}

func (t *Tx) Commit(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	return t.session.CommitTransaction(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	return t.session.AbortTransaction(ctx)
}

// Session exposes the underlying session for context binding.
func (t *Tx) Session() *mongo.Session { return t.session }

// TxBeginner opens session transactions for the txn manager.
type TxBeginner struct {
	client *mongo.Client
}

// NewTxBeginner wraps a client as a txn.Beginner.
func NewTxBeginner(client *mongo.Client) *TxBeginner {
	return &TxBeginner{client: client}
}

func (b *TxBeginner) Begin(ctx context.Context) (txn.Tx, error) {
	session, err := b.client.StartSession()
	if err != nil {
		return nil, err
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Tx{session: session}, nil
}

// ContextWithTx binds ctx to the session the manager holds in scope so that
// collection operations join the open transaction. Without an active
// transaction the context passes through unchanged. Stores call this per
// operation rather than capturing a session at construction.
func ContextWithTx(ctx context.Context, m *txn.Manager) context.Context {
	if m != nil {
		if h, ok := m.Current(ctx); ok {
			if t, ok := h.(*Tx); ok {
				return mongo.NewSessionContext(ctx, t.session)
			}
		}
	}
	return ctx
}
