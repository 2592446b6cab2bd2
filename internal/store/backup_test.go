package store

import (
	"testing"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
)

func TestBackupLifecycle(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	b, err := bs.Create("academy-2026.db", "backups/academy-2026.db")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}

	if err := bs.UpdateStatus(b.ID, model.BackupStatusFailed, "boom"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusFailed || got.ErrorMessage != "boom" {
		t.Errorf("backup = %+v, want failed/boom", got)
	}

	if err := bs.UpdateCompleted(b.ID, 2048); err != nil {
		t.Fatalf("update completed: %v", err)
	}
	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest == nil || latest.SizeBytes != 2048 || latest.CompletedAt == nil {
		t.Errorf("latest = %+v, want completed 2048 bytes", latest)
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	bs := NewBackupStore(db)

	old, _ := bs.Create("old.db", "backups/old.db")
	bs.Create("new.db", "backups/new.db")
	if _, err := db.Exec(`UPDATE backups SET created_at = ? WHERE id = ?`, formatTime(time.Now().AddDate(0, 0, -40)), old.ID); err != nil {
		t.Fatalf("age backup: %v", err)
	}

	keys, err := bs.DeleteOlderThan(time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("delete older: %v", err)
	}
	if len(keys) != 1 || keys[0] != "backups/old.db" {
		t.Errorf("keys = %v, want [backups/old.db]", keys)
	}
	list, _ := bs.List(10)
	if len(list) != 1 {
		t.Errorf("remaining = %d, want 1", len(list))
	}
}
