package sqlitex

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

const testSchema = `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE widgets (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE);
`

func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestOpenAppliesPragmas(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}
}

func TestEnsureSchemaCreatesAndVerifies(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	if err := EnsureSchema(ctx, db, testSchema, 1, "reset it"); err != nil {
		t.Fatalf("EnsureSchema create: %v", err)
	}
	if err := EnsureSchema(ctx, db, testSchema, 1, "reset it"); err != nil {
		t.Fatalf("EnsureSchema verify: %v", err)
	}
	err := EnsureSchema(ctx, db, testSchema, 2, "reset it")
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRetryOnBusyRetriesOnlyBusy(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := RetryOnBusy(ctx, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got err=%v calls=%d", err, calls)
	}

	calls = 0
	boom := errors.New("constraint failed")
	if err := RetryOnBusy(ctx, func() error { calls++; return boom }); !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single attempt for non-busy errors, got err=%v calls=%d", err, calls)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()
	if err := EnsureSchema(ctx, db, testSchema, 1, ""); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	boom := errors.New("boom")
	err := InTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO widgets (name) VALUES ('a')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM widgets").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestHelpers(t *testing.T) {
	if Placeholders(3) != "?,?,?" || Placeholders(0) != "" {
		t.Fatalf("unexpected placeholders %q", Placeholders(3))
	}
	if NullableString("") != nil || NullableString("x") != "x" {
		t.Fatal("unexpected NullableString")
	}
	blank := "  "
	if NullableStringPtr(&blank) != nil || NullableStringPtr(nil) != nil {
		t.Fatal("blank pointers must map to NULL")
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	parsed, err := ParseTime(Timestamp(now))
	if err != nil || !parsed.Equal(now) {
		t.Fatalf("ParseTime round trip = %v, %v", parsed, err)
	}
	if TimePtr(sql.NullString{}) != nil {
		t.Fatal("expected nil time for NULL")
	}
}

func TestTimestampsSortAsText(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	whole := Timestamp(base)
	fraction := Timestamp(base.Add(100 * time.Millisecond))
	if !(whole < fraction) {
		t.Fatalf("expected %q < %q", whole, fraction)
	}
}
