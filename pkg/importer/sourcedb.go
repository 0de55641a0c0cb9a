package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnknownSource is returned when an adapter has no row in roster_sources.
var ErrUnknownSource = errors.New("unknown import source")

// Source is one row of the roster_sources table.
type Source struct {
	AdapterID   string  `json:"adapter_id"`
	RosterID    string  `json:"roster_id"`
	Description string  `json:"description"`
	SourceURL   string  `json:"source_url"`
	License     string  `json:"license"`
	LastCheck   *int64  `json:"last_check,omitempty"`
	LastStatus  *int    `json:"last_status,omitempty"`
	LastError   *string `json:"last_error,omitempty"`
	LastImport  *int64  `json:"last_import,omitempty"`
	Entries     *int    `json:"entries,omitempty"`
	UpdatedAt   int64   `json:"updated_at"`
}

// Healthy reports whether the last availability check got a 2xx or 3xx.
func (s *Source) Healthy() bool {
	return s.LastStatus != nil && *s.LastStatus >= 200 && *s.LastStatus < 400
}

// SourceDB tracks where each roster is downloaded from, whether that URL
// still answers, and when it was last imported.
type SourceDB struct {
	db *sql.DB
}

// OpenSourceDB opens (or creates) the SQLite database at path and ensures the
// roster_sources table exists.
func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS roster_sources (
		adapter_id    TEXT PRIMARY KEY,
		roster_id     TEXT NOT NULL,
		description   TEXT NOT NULL,
		source_url    TEXT NOT NULL,
		license       TEXT NOT NULL DEFAULT '',
		last_check    INTEGER,
		last_status   INTEGER,
		last_error    TEXT,
		last_import   INTEGER,
		entries       INTEGER,
		updated_at    INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create roster_sources table: %w", err)
	}

	return &SourceDB{db: db}, nil
}

// Close closes the database.
func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed inserts a default row per adapter. Existing rows are left alone so
// URL overrides survive restarts.
func (s *SourceDB) Seed(adapters []Adapter) error {
	const q = `INSERT OR IGNORE INTO roster_sources
		(adapter_id, roster_id, description, source_url, license, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, a := range adapters {
		if _, err := s.db.Exec(q, a.ID(), a.RosterID(), a.Description(), a.DefaultURL(), a.License(), now); err != nil {
			return fmt.Errorf("seed %s: %w", a.ID(), err)
		}
	}
	return nil
}

// GetURL returns the current source URL for a given adapter ID.
func (s *SourceDB) GetURL(adapterID string) (string, error) {
	var url string
	err := s.db.QueryRow(`SELECT source_url FROM roster_sources WHERE adapter_id = ?`, adapterID).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, adapterID)
	}
	if err != nil {
		return "", fmt.Errorf("get url for %s: %w", adapterID, err)
	}
	return url, nil
}

// SetURL updates the source URL for a given adapter and records the change timestamp.
func (s *SourceDB) SetURL(adapterID, url string) error {
	res, err := s.db.Exec(
		`UPDATE roster_sources SET source_url = ?, updated_at = ? WHERE adapter_id = ?`,
		url, time.Now().Unix(), adapterID,
	)
	if err != nil {
		return fmt.Errorf("set url for %s: %w", adapterID, err)
	}
	return mustAffect(res, adapterID)
}

// UpdateCheck persists the result of an availability check.
func (s *SourceDB) UpdateCheck(adapterID string, status int, checkErr string) error {
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	_, err := s.db.Exec(
		`UPDATE roster_sources SET last_check = ?, last_status = ?, last_error = ? WHERE adapter_id = ?`,
		time.Now().Unix(), status, errPtr, adapterID,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", adapterID, err)
	}
	return nil
}

// RecordImport stores the time and entry count of a successful import.
func (s *SourceDB) RecordImport(adapterID string, entries int) error {
	res, err := s.db.Exec(
		`UPDATE roster_sources SET last_import = ?, entries = ? WHERE adapter_id = ?`,
		time.Now().Unix(), entries, adapterID,
	)
	if err != nil {
		return fmt.Errorf("record import for %s: %w", adapterID, err)
	}
	return mustAffect(res, adapterID)
}

const sourceColumns = `adapter_id, roster_id, description, source_url, license,
	last_check, last_status, last_error, last_import, entries, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (Source, error) {
	var src Source
	err := row.Scan(&src.AdapterID, &src.RosterID, &src.Description, &src.SourceURL, &src.License,
		&src.LastCheck, &src.LastStatus, &src.LastError, &src.LastImport, &src.Entries, &src.UpdatedAt)
	return src, err
}

// GetSource returns one row.
func (s *SourceDB) GetSource(adapterID string) (*Source, error) {
	src, err := scanSource(s.db.QueryRow(`SELECT `+sourceColumns+` FROM roster_sources WHERE adapter_id = ?`, adapterID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, adapterID)
	}
	if err != nil {
		return nil, fmt.Errorf("get source %s: %w", adapterID, err)
	}
	return &src, nil
}

// ListSources returns all rows ordered by adapter_id.
func (s *SourceDB) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT ` + sourceColumns + ` FROM roster_sources ORDER BY adapter_id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func mustAffect(res sql.Result, adapterID string) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSource, adapterID)
	}
	return nil
}
