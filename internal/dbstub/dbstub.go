// Package dbstub persists event and file-list records to SQLite, a thin
// external-interface database adapter.
package dbstub

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// EventRecord is one row of the events table.
type EventRecord struct {
	CameraName string
	EventNbr   int
	Started    time.Time
	Ended      time.Time
	Diffs      int
}

// FileRecord is one row of the filelist table (picture/movie/timelapse
// files produced while an event was open).
type FileRecord struct {
	CameraName string
	EventNbr   int
	Path       string
	Kind       string // "picture", "movie", "timelapse"
	Created    time.Time
}

// DB wraps a SQLite connection via modernc.org/sqlite's pure-Go driver,
// following a database.go convention of a single struct wrapping *sql.DB
// with narrow, named methods rather than a generic query surface.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dbstub: open %s: %w", path, err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	camera_name TEXT NOT NULL,
	event_nbr INTEGER NOT NULL,
	started DATETIME NOT NULL,
	ended DATETIME,
	diffs INTEGER
);
CREATE TABLE IF NOT EXISTS filelist (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	camera_name TEXT NOT NULL,
	event_nbr INTEGER NOT NULL,
	path TEXT NOT NULL,
	kind TEXT NOT NULL,
	created DATETIME NOT NULL
);
`
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("dbstub: migrate: %w", err)
	}
	return nil
}

// EventStart inserts a new open event row and returns its row id.
func (db *DB) EventStart(camera string, eventNbr int, started time.Time) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO events (camera_name, event_nbr, started) VALUES (?, ?, ?)`,
		camera, eventNbr, started,
	)
	if err != nil {
		return 0, fmt.Errorf("dbstub: event start: %w", err)
	}
	return res.LastInsertId()
}

// EventEnd closes the most recent open event row for camera/eventNbr.
func (db *DB) EventEnd(camera string, eventNbr int, ended time.Time, diffs int) error {
	_, err := db.conn.Exec(
		`UPDATE events SET ended = ?, diffs = ? WHERE camera_name = ? AND event_nbr = ? AND ended IS NULL`,
		ended, diffs, camera, eventNbr,
	)
	if err != nil {
		return fmt.Errorf("dbstub: event end: %w", err)
	}
	return nil
}

// FilelistAdd records one produced file against its owning event.
func (db *DB) FilelistAdd(rec FileRecord) error {
	_, err := db.conn.Exec(
		`INSERT INTO filelist (camera_name, event_nbr, path, kind, created) VALUES (?, ?, ?, ?, ?)`,
		rec.CameraName, rec.EventNbr, rec.Path, rec.Kind, rec.Created,
	)
	if err != nil {
		return fmt.Errorf("dbstub: filelist add: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }
