package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/dyreby/helm/internal/model"
)

// Entry is one immutable logbook record: who acted, what was done, and the
// provenance tags under which it was done.
type Entry struct {
	ID       int64
	LoggedAt time.Time
	Identity string
	Action   model.Action
	Summary  string
	Role     model.Role
	Method   model.Method
}

// AppendEntry inserts a logbook entry and its bearing rows atomically.
// Every bearing row references the new entry's id; if any referenced
// artifact hash is missing the foreign key fires and the whole append
// rolls back — rows are never silently dropped. Returns the new entry id.
//
// Callers sealing the slate should use Seal, which also clears the slate
// in the same transaction.
func (vs *VoyageStore) AppendEntry(ctx context.Context, entry Entry, bearing []SlateRow) (int64, error) {
	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, mapSQLiteError("append entry: begin tx", err)
	}
	defer tx.Rollback()

	id, err := insertEntry(ctx, tx, entry, bearing)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, mapSQLiteError("append entry: commit", err)
	}
	return id, nil
}

// insertEntry writes the logbook row and its bearing rows inside an open
// transaction. Shared by AppendEntry and Seal.
func insertEntry(ctx context.Context, tx *sql.Tx, entry Entry, bearing []SlateRow) (int64, error) {
	if !entry.Role.Valid() {
		return 0, newError(CodeSerialization, "unknown role %q", entry.Role)
	}
	if !entry.Method.Valid() {
		return 0, newError(CodeSerialization, "unknown method %q", entry.Method)
	}
	actionJSON, err := model.MarshalAction(entry.Action)
	if err != nil {
		return 0, wrapError(CodeSerialization, "serialize action", err)
	}

	loggedAt := entry.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now()
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO logbook (logged_at, identity, action, summary, role, method)
		VALUES (?, ?, ?, ?, ?, ?)
	`, formatTime(loggedAt), entry.Identity, actionJSON, entry.Summary,
		string(entry.Role), string(entry.Method))
	if err != nil {
		return 0, mapSQLiteError("insert logbook entry", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, mapSQLiteError("insert logbook entry: last insert id", err)
	}

	for _, row := range bearing {
		key, err := model.CanonicalKey(row.Target)
		if err != nil {
			return 0, wrapError(CodeSerialization, "serialize bearing target", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bearing_observations (logbook_id, target, artifact_hash, observed_at)
			VALUES (?, ?, ?, ?)
		`, id, key, row.ArtifactHash, formatTime(row.ObservedAt))
		if err != nil {
			return 0, mapSQLiteError("insert bearing observation", err)
		}
	}

	return id, nil
}

// Logbook returns every entry in append order.
func (vs *VoyageStore) Logbook(ctx context.Context) ([]Entry, error) {
	rows, err := vs.db.QueryContext(ctx, `
		SELECT id, logged_at, identity, action, summary, role, method
		FROM logbook
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, mapSQLiteError("list logbook", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var loggedAt, actionJSON, role, method string
		if err := rows.Scan(&e.ID, &loggedAt, &e.Identity, &actionJSON, &e.Summary, &role, &method); err != nil {
			return nil, mapSQLiteError("scan logbook entry", err)
		}
		if e.LoggedAt, err = parseTime(loggedAt); err != nil {
			return nil, err
		}
		if e.Action, err = model.UnmarshalAction(actionJSON); err != nil {
			return nil, wrapError(CodeSerialization, "decode logbook action", err)
		}
		e.Role = model.Role(role)
		e.Method = model.Method(method)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError("list logbook", err)
	}
	return entries, nil
}

// Bearing returns the observations sealed with a logbook entry, ordered by
// target key. Fails with NotFound if the entry does not exist.
func (vs *VoyageStore) Bearing(ctx context.Context, entryID int64) ([]SlateRow, error) {
	var exists int
	err := vs.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM logbook WHERE id = ?
	`, entryID).Scan(&exists)
	if err != nil {
		return nil, mapSQLiteError("load entry", err)
	}
	if exists == 0 {
		return nil, newError(CodeNotFound, "logbook entry not found: %d", entryID)
	}

	rows, err := vs.db.QueryContext(ctx, `
		SELECT target, artifact_hash, observed_at
		FROM bearing_observations
		WHERE logbook_id = ?
		ORDER BY target
	`, entryID)
	if err != nil {
		return nil, mapSQLiteError("list bearing", err)
	}
	defer rows.Close()

	var bearing []SlateRow
	for rows.Next() {
		var key, hash, observedAt string
		if err := rows.Scan(&key, &hash, &observedAt); err != nil {
			return nil, mapSQLiteError("scan bearing row", err)
		}
		target, err := model.ParseTargetKey(key)
		if err != nil {
			return nil, wrapError(CodeSerialization, "decode bearing target", err)
		}
		at, err := parseTime(observedAt)
		if err != nil {
			return nil, err
		}
		bearing = append(bearing, SlateRow{Target: target, ArtifactHash: hash, ObservedAt: at})
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError("list bearing", err)
	}
	return bearing, nil
}
