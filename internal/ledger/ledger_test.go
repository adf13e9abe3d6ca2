package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		l, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		l.Close()
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer l.Close()

	for _, table := range []string{"slots", "invocations"} {
		var name string
		err := l.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_Pragmas(t *testing.T) {
	l := createTestLedger(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"user_version": "1",
	}
	for name, want := range checks {
		if err := l.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_MigrationCreatesCallerIndex(t *testing.T) {
	l := createTestLedger(t)

	var name string
	err := l.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_invocations_caller'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("caller index missing: %v", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	l := &Ledger{db: nil}
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	l := createTestLedger(t, WithIDGenerator(NewFixedGenerator("inv-1")))
	ctx := context.Background()
	boom := errors.New("boom")

	err := l.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.AppendInvocation(ctx, Invocation{Caller: "alice", Operation: "read", Status: StatusOK}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	invs, err := l.ReadInvocations(ctx)
	if err != nil {
		t.Fatalf("ReadInvocations() failed: %v", err)
	}
	if len(invs) != 0 {
		t.Errorf("expected rollback, found %d invocations", len(invs))
	}
}
