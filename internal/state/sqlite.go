package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daxhub/dax/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
    name           TEXT PRIMARY KEY,
    version        TEXT NOT NULL,
    url            TEXT NOT NULL,
    path           TEXT NOT NULL,
    file_list_path TEXT NOT NULL DEFAULT '',
    pulled_at      TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'pulled'
);
`

type SQLiteState struct {
	mu           sync.RWMutex
	db           *sql.DB
	dbPath       string
	manifestPath string
}

func NewSQLite(dbPath, manifestPath string) (*SQLiteState, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteState{
		db:           db,
		dbPath:       dbPath,
		manifestPath: manifestPath,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	if err := s.recover(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to recover: %w", err)
	}

	return s, nil
}

func (s *SQLiteState) Close() error {
	return s.db.Close()
}

// migrate imports the legacy JSON manifest into an empty database, then
// moves the manifest aside so the import runs once.
func (s *SQLiteState) migrate() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if s.manifestPath == "" {
		return nil
	}
	if _, err := os.Stat(s.manifestPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ds := range manifest.Datasets {
		if err := s.insertDataset(tx, ds, "pulled"); err != nil {
			return fmt.Errorf("failed to insert %s: %w", ds.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	backupPath := s.manifestPath + ".bak"
	if err := os.Rename(s.manifestPath, backupPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to backup manifest: %v\n", err)
	}

	return nil
}

// recover cleans up rows left by an interrupted pull.
func (s *SQLiteState) recover() error {
	rows, err := s.db.Query("SELECT name, path FROM datasets WHERE status = 'pending'")
	if err != nil {
		return err
	}
	defer rows.Close()

	var pending []struct {
		name string
		path string
	}

	for rows.Next() {
		var p struct {
			name string
			path string
		}
		if err := rows.Scan(&p.name, &p.path); err != nil {
			return err
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range pending {
		fmt.Fprintf(os.Stderr, "recovering from interrupted pull: %s\n", p.name)
		os.RemoveAll(p.path)

		if _, err := s.db.Exec("DELETE FROM datasets WHERE name = ?", p.name); err != nil {
			return fmt.Errorf("failed to delete pending dataset %s: %w", p.name, err)
		}
	}

	return nil
}

func (s *SQLiteState) insertDataset(tx *sql.Tx, ds *domain.PulledDataset, status string) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO datasets
		(name, version, url, path, file_list_path, pulled_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ds.Name, ds.Version, ds.URL, ds.Path, ds.FileListPath,
		ds.PulledAt.Format(time.RFC3339), status)
	return err
}

func (s *SQLiteState) IsPulled(name string) (bool, *domain.PulledDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, err := s.getDataset(name)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, ds, nil
}

func (s *SQLiteState) getDataset(name string) (*domain.PulledDataset, error) {
	var ds domain.PulledDataset
	var pulledAt string

	err := s.db.QueryRow(`
		SELECT name, version, url, path, file_list_path, pulled_at
		FROM datasets WHERE name = ? AND status = 'pulled'`, name).Scan(
		&ds.Name, &ds.Version, &ds.URL, &ds.Path, &ds.FileListPath, &pulledAt)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, pulledAt); err == nil {
		ds.PulledAt = t
	}
	return &ds, nil
}

// BeginPull records a pending row before extraction starts. If the
// process dies mid-pull, recover() finds the row on the next open and
// cleans up the partial data. Add promotes the row to pulled.
func (s *SQLiteState) BeginPull(ds *domain.PulledDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.insertDataset(tx, ds, "pending"); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteState) Add(ds *domain.PulledDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.insertDataset(tx, ds, "pulled"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteState) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM datasets WHERE name = ?", name)
	return err
}

func (s *SQLiteState) ListPulled() (map[string]*domain.PulledDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT name, version, url, path, file_list_path, pulled_at
		FROM datasets WHERE status = 'pulled'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*domain.PulledDataset)
	for rows.Next() {
		var ds domain.PulledDataset
		var pulledAt string
		if err := rows.Scan(&ds.Name, &ds.Version, &ds.URL, &ds.Path, &ds.FileListPath, &pulledAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, pulledAt); err == nil {
			ds.PulledAt = t
		}
		out[ds.Name] = &ds
	}
	return out, rows.Err()
}

// Reconcile drops rows whose extracted data no longer exists on disk and
// returns their names.
func (s *SQLiteState) Reconcile() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name, path FROM datasets WHERE status = 'pulled'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gone []string
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			gone = append(gone, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, name := range gone {
		if _, err := s.db.Exec("DELETE FROM datasets WHERE name = ?", name); err != nil {
			return nil, err
		}
	}
	return gone, nil
}
