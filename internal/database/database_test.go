package database

import (
	"path/filepath"
	"testing"
)

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"staff", "sessions", "members", "payments", "activity_logs", "daily_reports", "backups"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing: %v", table, err)
		}
	}
}

func TestOpenFileEnablesForeignKeys(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "academy.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestActivityLogIsAppendOnly(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO activity_logs (event_type, description) VALUES ('created', 'Ana foi cadastrado')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.Exec(`UPDATE activity_logs SET description = 'changed'`); err == nil {
		t.Error("expected update to be rejected")
	}
	if _, err := db.Exec(`DELETE FROM activity_logs`); err == nil {
		t.Error("expected delete to be rejected")
	}
}
