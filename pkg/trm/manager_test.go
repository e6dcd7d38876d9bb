package trm

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx counts lifecycle calls and refuses to commit or roll back twice,
// the way a real pgx transaction does.
type fakeTx struct {
	commits   int
	rollbacks int
	closed    bool
}

func (t *fakeTx) Commit(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.rollbacks++
	return nil
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                         { return nil }

type fakeDB struct {
	last        *fakeTx
	begins      int
	lastOptions *pgx.TxOptions
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	db.begins++
	db.last = &fakeTx{}
	return db.last, nil
}

func (db *fakeDB) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	db.begins++
	db.lastOptions = &opts
	db.last = &fakeTx{}
	return db.last, nil
}

func TestDoNestedSharesOneTransaction(t *testing.T) {
	db := &fakeDB{}
	m := &Manager{db: db}

	var outerTx, innerTx any

	err := m.Do(context.Background(), func(ctx context.Context) error {
		outerTx = ctx.Value(TxKey)

		if err := m.Do(ctx, func(ctx context.Context) error {
			innerTx = ctx.Value(TxKey)
			return nil
		}); err != nil {
			return err
		}

		// the inner call must not have committed the shared transaction
		if db.last.commits != 0 || db.last.closed {
			t.Fatalf("inner Do closed the transaction: commits=%d", db.last.commits)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if db.begins != 1 {
		t.Errorf("transactions started = %d, want 1", db.begins)
	}
	if outerTx == nil || outerTx != innerTx {
		t.Error("nested Do did not run on the enclosing transaction")
	}
	if db.last.commits != 1 {
		t.Errorf("commits = %d, want 1", db.last.commits)
	}
	if db.last.rollbacks != 0 {
		t.Errorf("rollbacks = %d, want 0", db.last.rollbacks)
	}
}

func TestDoNestedErrorRollsBackWholeTransaction(t *testing.T) {
	db := &fakeDB{}
	m := &Manager{db: db}

	errBoom := errors.New("boom")

	err := m.Do(context.Background(), func(ctx context.Context) error {
		return m.Do(ctx, func(ctx context.Context) error {
			return errBoom
		})
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want %v", err, errBoom)
	}

	if db.last.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", db.last.rollbacks)
	}
	if db.last.commits != 0 {
		t.Errorf("commits = %d, want 0", db.last.commits)
	}
}

func TestDoJoinsTransactionFromContext(t *testing.T) {
	m := &Manager{db: &fakeDB{}}

	tx := &fakeTx{}
	ctx := context.WithValue(context.Background(), TxKey, pgx.Tx(tx))

	ran := false
	err := m.Do(ctx, func(ctx context.Context) error {
		ran = true
		if ctx.Value(TxKey) != pgx.Tx(tx) {
			t.Error("fn did not receive the context transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if !ran {
		t.Fatal("fn was not called")
	}
	// whoever began the transaction owns commit and rollback
	if tx.commits != 0 || tx.rollbacks != 0 {
		t.Errorf("joined transaction was closed: commits=%d rollbacks=%d", tx.commits, tx.rollbacks)
	}
}

func TestDoPanicRollsBack(t *testing.T) {
	db := &fakeDB{}
	m := &Manager{db: db}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic was swallowed")
			}
		}()
		_ = m.Do(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	}()

	if db.last.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", db.last.rollbacks)
	}
	if db.last.commits != 0 {
		t.Errorf("commits = %d, want 0", db.last.commits)
	}
}

func TestDoReadOnlyPassesOptions(t *testing.T) {
	db := &fakeDB{}
	m := &Manager{db: db}

	err := m.DoReadOnly(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("DoReadOnly: %v", err)
	}

	if db.lastOptions == nil || db.lastOptions.AccessMode != pgx.ReadOnly {
		t.Error("transaction was not started read-only")
	}
}
