package store

import (
	"context"
	"time"

	"github.com/dyreby/helm/internal/model"
)

// Seal commits the current slate as a bearing under one new logbook entry
// and empties the slate, all in a single transaction. Sealing an empty
// slate is valid and produces an entry with no bearing rows.
//
// This is the only operation that mutates slate, logbook, and
// bearing_observations together. On any failure before commit nothing is
// visible: no cleared slate without its entry, no entry with a
// half-copied bearing. Returns the new entry id and the number of
// observations sealed.
func (vs *VoyageStore) Seal(ctx context.Context, identity string, action model.Action, summary string, role model.Role, method model.Method) (int64, int, error) {
	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, mapSQLiteError("seal: begin tx", err)
	}
	defer tx.Rollback()

	// Snapshot the slate inside the transaction so the bearing records
	// exactly what a sealer saw, even with another writer waiting.
	rows, err := tx.QueryContext(ctx, `
		SELECT target, artifact_hash, observed_at
		FROM slate
		ORDER BY target
	`)
	if err != nil {
		return 0, 0, mapSQLiteError("seal: read slate", err)
	}

	type rawRow struct {
		key        string
		hash       string
		observedAt string
	}
	var slate []rawRow
	for rows.Next() {
		var r rawRow
		if err := rows.Scan(&r.key, &r.hash, &r.observedAt); err != nil {
			rows.Close()
			return 0, 0, mapSQLiteError("seal: scan slate row", err)
		}
		slate = append(slate, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, 0, mapSQLiteError("seal: read slate", err)
	}
	rows.Close()

	entry := Entry{
		LoggedAt: time.Now(),
		Identity: identity,
		Action:   action,
		Summary:  summary,
		Role:     role,
		Method:   method,
	}
	entryID, err := insertEntry(ctx, tx, entry, nil)
	if err != nil {
		return 0, 0, err
	}

	// Copy the snapshot verbatim — keys and timestamps as stored, no
	// re-serialization that could drift from what the slate held.
	for _, r := range slate {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bearing_observations (logbook_id, target, artifact_hash, observed_at)
			VALUES (?, ?, ?, ?)
		`, entryID, r.key, r.hash, r.observedAt)
		if err != nil {
			return 0, 0, mapSQLiteError("seal: copy slate row", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM slate`); err != nil {
		return 0, 0, mapSQLiteError("seal: clear slate", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, mapSQLiteError("seal: commit", err)
	}
	return entryID, len(slate), nil
}
