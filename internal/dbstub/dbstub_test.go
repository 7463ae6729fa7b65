package dbstub

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEventStartAssignsRowID(t *testing.T) {
	db := openTestDB(t)
	started := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	id, err := db.EventStart("cam0", 1, started)
	if err != nil {
		t.Fatalf("EventStart: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected a positive row id, got %d", id)
	}
}

func TestEventEndOnlyClosesOpenEvent(t *testing.T) {
	db := openTestDB(t)
	started := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	if _, err := db.EventStart("cam0", 1, started); err != nil {
		t.Fatalf("EventStart: %v", err)
	}

	ended := started.Add(10 * time.Second)
	if err := db.EventEnd("cam0", 1, ended, 42); err != nil {
		t.Fatalf("EventEnd: %v", err)
	}
	// A second EventEnd for the same (already-closed) event should be a
	// no-op, not an error, since the WHERE clause matches no rows.
	if err := db.EventEnd("cam0", 1, ended, 99); err != nil {
		t.Fatalf("second EventEnd: %v", err)
	}
}

func TestFilelistAdd(t *testing.T) {
	db := openTestDB(t)
	rec := FileRecord{
		CameraName: "cam0",
		EventNbr:   1,
		Path:       "/tmp/cam0-1.jpg",
		Kind:       "picture",
		Created:    time.Now(),
	}
	if err := db.FilelistAdd(rec); err != nil {
		t.Fatalf("FilelistAdd: %v", err)
	}
}
