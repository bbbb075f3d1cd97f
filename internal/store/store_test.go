package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/dyreby/helm/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return s
}

func newTestVoyage(t *testing.T) (*Store, *VoyageStore) {
	t.Helper()
	s := newTestStore(t)
	vs, err := s.CreateVoyage(context.Background(), model.NewVoyage("Fix the widget"))
	if err != nil {
		t.Fatalf("CreateVoyage() failed: %v", err)
	}
	t.Cleanup(func() { vs.Close() })
	return s, vs
}

func TestCreateVoyage_InitializesSchema(t *testing.T) {
	_, vs := newTestVoyage(t)

	tables := []string{"voyage", "artifacts", "artifact_derivations", "slate", "logbook", "bearing_observations"}
	for _, table := range tables {
		var name string
		err := vs.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}

	var version int
	if err := vs.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestCreateVoyage_AppliesPragmas(t *testing.T) {
	_, vs := newTestVoyage(t)

	var fk int
	if err := vs.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Error("foreign_keys is not enabled")
	}

	var journal string
	if err := vs.db.QueryRow("PRAGMA journal_mode").Scan(&journal); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if journal != "wal" {
		t.Errorf("journal_mode = %q, want wal", journal)
	}
}

func TestCreateVoyage_DuplicateFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	voyage := model.NewVoyage("First crossing")

	vs, err := s.CreateVoyage(ctx, voyage)
	if err != nil {
		t.Fatalf("CreateVoyage() failed: %v", err)
	}
	vs.Close()

	_, err = s.CreateVoyage(ctx, voyage)
	if !IsVoyageExists(err) {
		t.Errorf("duplicate CreateVoyage() = %v, want VoyageExists", err)
	}
}

func TestOpenVoyage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	voyage := model.NewVoyage("Chart the reef")

	vs, err := s.CreateVoyage(ctx, voyage)
	if err != nil {
		t.Fatalf("CreateVoyage() failed: %v", err)
	}
	vs.Close()

	reopened, err := s.OpenVoyage(ctx, voyage.ID)
	if err != nil {
		t.Fatalf("OpenVoyage() failed: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Voyage(ctx)
	if err != nil {
		t.Fatalf("Voyage() failed: %v", err)
	}
	if loaded.ID != voyage.ID {
		t.Errorf("loaded id = %s, want %s", loaded.ID, voyage.ID)
	}
	if loaded.Intent != voyage.Intent {
		t.Errorf("loaded intent = %q, want %q", loaded.Intent, voyage.Intent)
	}
	if loaded.Status != model.VoyageActive {
		t.Errorf("loaded status = %q, want active", loaded.Status)
	}
}

func TestOpenVoyage_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.OpenVoyage(context.Background(), uuid.New())
	if !IsNotFound(err) {
		t.Errorf("OpenVoyage() = %v, want NotFound", err)
	}
}

func TestOpenVoyage_SchemaVersionMismatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	voyage := model.NewVoyage("Old charts")

	vs, err := s.CreateVoyage(ctx, voyage)
	if err != nil {
		t.Fatalf("CreateVoyage() failed: %v", err)
	}
	vs.Close()

	// Stamp a future version onto the existing database.
	db, err := openDB(s.VoyagePath(voyage.ID))
	if err != nil {
		t.Fatalf("openDB() failed: %v", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion+1)); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	db.Close()

	_, err = s.OpenVoyage(ctx, voyage.ID)
	if !IsSchemaVersionMismatch(err) {
		t.Errorf("OpenVoyage() = %v, want SchemaVersionMismatch", err)
	}
}

func TestListVoyages_Empty(t *testing.T) {
	s := newTestStore(t)
	voyages, err := s.ListVoyages(context.Background())
	if err != nil {
		t.Fatalf("ListVoyages() failed: %v", err)
	}
	if len(voyages) != 0 {
		t.Errorf("ListVoyages() returned %d voyages, want 0", len(voyages))
	}
}

func TestListVoyages_SortedByCreation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := model.NewVoyage("First")
	second := model.NewVoyage("Second")
	second.CreatedAt = first.CreatedAt.Add(1)

	// Create in reverse order to verify sorting.
	for _, v := range []model.Voyage{second, first} {
		vs, err := s.CreateVoyage(ctx, v)
		if err != nil {
			t.Fatalf("CreateVoyage(%q) failed: %v", v.Intent, err)
		}
		vs.Close()
	}

	voyages, err := s.ListVoyages(ctx)
	if err != nil {
		t.Fatalf("ListVoyages() failed: %v", err)
	}
	if len(voyages) != 2 {
		t.Fatalf("ListVoyages() returned %d voyages, want 2", len(voyages))
	}
	if voyages[0].Intent != "First" || voyages[1].Intent != "Second" {
		t.Errorf("voyages out of order: %q, %q", voyages[0].Intent, voyages[1].Intent)
	}
}

func TestClose_NilDB(t *testing.T) {
	vs := &VoyageStore{db: nil}
	if err := vs.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}
