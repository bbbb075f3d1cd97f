package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dyreby/helm/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (voyage, artifacts, derivations, slate, logbook,
//     bearing_observations)
const currentSchemaVersion = 1

// Store is the voyage-store root: a directory holding one SQLite database
// per voyage.
type Store struct {
	root string
}

// New creates a store rooted at the given directory, creating it if
// needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// VoyagePath returns the database path for a voyage id.
func (s *Store) VoyagePath(id uuid.UUID) string {
	return filepath.Join(s.root, id.String()+".sqlite")
}

// CreateVoyage initializes a fresh database for the voyage: schema,
// pragmas, version marker, and the voyage row. Fails with VoyageExists if
// the voyage's database file is already present.
func (s *Store) CreateVoyage(ctx context.Context, voyage model.Voyage) (*VoyageStore, error) {
	path := s.VoyagePath(voyage.ID)
	if _, err := os.Stat(path); err == nil {
		return nil, newError(CodeVoyageExists, "voyage already exists: %s", voyage.ID)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, mapSQLiteError("apply schema", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		db.Close()
		return nil, mapSQLiteError("set schema version", err)
	}

	vs := &VoyageStore{db: db, id: voyage.ID}
	if err := vs.insertVoyage(ctx, voyage); err != nil {
		db.Close()
		return nil, err
	}
	return vs, nil
}

// OpenVoyage attaches to an existing voyage database, verifying its schema
// version marker. Fails with NotFound if the database file is absent and
// SchemaVersionMismatch if the marker differs from this build's version.
func (s *Store) OpenVoyage(ctx context.Context, id uuid.UUID) (*VoyageStore, error) {
	path := s.VoyagePath(id)
	if _, err := os.Stat(path); err != nil {
		return nil, newError(CodeNotFound, "voyage not found: %s", id)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, mapSQLiteError("read schema version", err)
	}
	if version != currentSchemaVersion {
		db.Close()
		return nil, newError(CodeSchemaVersionMismatch,
			"voyage %s has schema version %d, this build expects %d", id, version, currentSchemaVersion)
	}

	return &VoyageStore{db: db, id: id}, nil
}

// ListVoyages loads metadata for every voyage database under the root,
// sorted by creation time. Files that are not named by a UUID are skipped.
func (s *Store) ListVoyages(ctx context.Context) ([]model.Voyage, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store root: %w", err)
	}

	var voyages []model.Voyage
	for _, entry := range entries {
		name := entry.Name()
		stem, ok := strings.CutSuffix(name, ".sqlite")
		if !ok {
			continue
		}
		id, err := uuid.Parse(stem)
		if err != nil {
			continue
		}

		vs, err := s.OpenVoyage(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("open voyage %s: %w", id, err)
		}
		voyage, err := vs.Voyage(ctx)
		vs.Close()
		if err != nil {
			return nil, fmt.Errorf("load voyage %s: %w", id, err)
		}
		voyages = append(voyages, voyage)
	}

	sort.Slice(voyages, func(i, j int) bool {
		return voyages[i].CreatedAt.Before(voyages[j].CreatedAt)
	})
	return voyages, nil
}

// VoyageStore is the handle to one voyage's database. All artifact, slate,
// logbook, and seal operations run against it.
type VoyageStore struct {
	db *sql.DB
	id uuid.UUID
}

// ID returns the voyage id this store belongs to.
func (vs *VoyageStore) ID() uuid.UUID {
	return vs.id
}

// Close closes the database connection.
func (vs *VoyageStore) Close() error {
	if vs.db == nil {
		return nil
	}
	return vs.db.Close()
}

// openDB opens a SQLite database and applies the required pragmas.
//
// SQLite supports one writer at a time, so the pool is capped at a single
// connection; this keeps SQLITE_BUSY out of ordinary single-process use.
// Cross-process contention waits up to the busy timeout and then surfaces
// as a Contention error.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Timestamps are stored as RFC 3339 text in UTC, matching SQLite's
// lexicographic ordering to chronological ordering.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, wrapError(CodeSerialization, "parse stored timestamp", err)
	}
	return t, nil
}
