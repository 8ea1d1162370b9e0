// Package snapshot persists analysis snapshots in a per-repository SQLite
// database. One row per repository; a save replaces the previous snapshot
// atomically.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/repolens/repolens/internal/model"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS snapshots (
    repo_id      TEXT PRIMARY KEY,
    run_id       TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    payload      BLOB NOT NULL
)`

// Store is a SQLite-backed snapshot store. It satisfies the analyzer's
// SnapshotStore interface.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database %s: %w", dbPath, err)
	}

	if _, err := db.Exec(createSnapshotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored snapshot for a repository, or (nil, nil) when none
// has been saved yet.
func (s *Store) Load(repoID string) (*model.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM snapshots WHERE repo_id = ?", repoID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", repoID, err)
	}

	snap := &model.Snapshot{}
	if err := json.Unmarshal(payload, snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %s: %w", repoID, err)
	}
	return snap, nil
}

// Save stores the snapshot, replacing any previous one for the repository.
func (s *Store) Save(repoID string, snap *model.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot save nil snapshot for %s", repoID)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", repoID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (repo_id, run_id, generated_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			run_id = excluded.run_id,
			generated_at = excluded.generated_at,
			payload = excluded.payload`,
		repoID, snap.RunID, snap.GeneratedAt.Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", repoID, err)
	}
	return nil
}

// List returns the repository ids with a stored snapshot, with run metadata.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT repo_id, run_id, generated_at FROM snapshots ORDER BY repo_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var generated string
		if err := rows.Scan(&e.RepoID, &e.RunID, &generated); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, generated); err == nil {
			e.GeneratedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the stored snapshot for a repository.
func (s *Store) Delete(repoID string) error {
	if _, err := s.db.Exec("DELETE FROM snapshots WHERE repo_id = ?", repoID); err != nil {
		return fmt.Errorf("failed to delete snapshot for %s: %w", repoID, err)
	}
	return nil
}

// Entry describes one stored snapshot without its payload.
type Entry struct {
	RepoID      string
	RunID       string
	GeneratedAt time.Time
}
