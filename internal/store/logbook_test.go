package store

import (
	"context"
	"testing"
	"time"

	"github.com/dyreby/helm/internal/model"
)

func TestAppendEntry_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, vs := newTestVoyage(t)

	loggedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id, err := vs.AppendEntry(ctx, Entry{
		LoggedAt: loggedAt,
		Identity: "bob",
		Action:   model.Steer{Op: model.SteerCloseIssue, Number: 12},
		Summary:  "closed #12",
		Role:     model.RoleAgent,
		Method:   model.MethodModel,
	}, nil)
	if err != nil {
		t.Fatalf("AppendEntry() failed: %v", err)
	}

	entries, err := vs.Logbook(ctx)
	if err != nil {
		t.Fatalf("Logbook() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("logbook has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != id {
		t.Errorf("id = %d, want %d", e.ID, id)
	}
	if !e.LoggedAt.Equal(loggedAt) {
		t.Errorf("logged_at = %v, want %v", e.LoggedAt, loggedAt)
	}
	if e.Identity != "bob" || e.Summary != "closed #12" {
		t.Errorf("entry = %+v", e)
	}
	if e.Role != model.RoleAgent || e.Method != model.MethodModel {
		t.Errorf("provenance = %s/%s", e.Role, e.Method)
	}
}

func TestAppendEntry_InvalidRole(t *testing.T) {
	_, vs := newTestVoyage(t)
	_, err := vs.AppendEntry(context.Background(), Entry{
		Identity: "bob",
		Action:   model.Log{Note: "n"},
		Role:     model.Role("robot"),
		Method:   model.MethodManual,
	}, nil)
	if !IsSerialization(err) {
		t.Errorf("AppendEntry(bad role) = %v, want Serialization", err)
	}
}

func TestAppendEntry_MissingArtifactRollsBack(t *testing.T) {
	ctx := context.Background()
	_, vs := newTestVoyage(t)

	// A bearing row naming a hash the artifact store never saw must fail
	// the foreign key and take the entry down with it.
	_, err := vs.AppendEntry(ctx, Entry{
		Identity: "bob",
		Action:   model.Log{Note: "n"},
		Role:     model.RoleHuman,
		Method:   model.MethodManual,
	}, []SlateRow{{
		Target:       model.GitHubIssue{Number: 1},
		ArtifactHash: "deadbeef",
		ObservedAt:   time.Now(),
	}})
	if !IsIntegrityViolation(err) {
		t.Fatalf("AppendEntry(dangling hash) = %v, want IntegrityViolation", err)
	}

	entries, err := vs.Logbook(ctx)
	if err != nil {
		t.Fatalf("Logbook() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("logbook has %d entries after rollback, want 0", len(entries))
	}
}

func TestLogbook_AppendOrder(t *testing.T) {
	ctx := context.Background()
	_, vs := newTestVoyage(t)

	notes := []string{"first", "second", "third"}
	for _, note := range notes {
		if _, err := vs.AppendEntry(ctx, Entry{
			Identity: "bob",
			Action:   model.Log{Note: note},
			Summary:  note,
			Role:     model.RoleHuman,
			Method:   model.MethodManual,
		}, nil); err != nil {
			t.Fatalf("AppendEntry(%q) failed: %v", note, err)
		}
	}

	entries, err := vs.Logbook(ctx)
	if err != nil {
		t.Fatalf("Logbook() failed: %v", err)
	}
	if len(entries) != len(notes) {
		t.Fatalf("logbook has %d entries, want %d", len(entries), len(notes))
	}
	for i, note := range notes {
		if entries[i].Summary != note {
			t.Errorf("entry %d summary = %q, want %q", i, entries[i].Summary, note)
		}
	}
}

func TestBearing_UnknownEntry(t *testing.T) {
	_, vs := newTestVoyage(t)
	_, err := vs.Bearing(context.Background(), 404)
	if !IsNotFound(err) {
		t.Errorf("Bearing(404) = %v, want NotFound", err)
	}
}
