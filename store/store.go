// Package store keeps a SQLite ledger of tracker announces and handshake
// attempts so later runs can echo tracker ids and respect announce
// intervals.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS announces (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	info_hash    TEXT NOT NULL,
	tracker      TEXT NOT NULL,
	time         INTEGER NOT NULL,
	event        TEXT NOT NULL,
	interval     INTEGER,
	min_interval INTEGER,
	tracker_id   TEXT NOT NULL,
	peers        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS announces_torrent ON announces(info_hash, tracker, time);

CREATE TABLE IF NOT EXISTS attempts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	info_hash   TEXT NOT NULL,
	addr        TEXT NOT NULL,
	time        INTEGER NOT NULL,
	peer_id     BLOB,
	error       TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS attempts_torrent ON attempts(info_hash, time);
`

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables in %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func unixTime(t time.Time) int64 {
	return t.UTC().Unix()
}
