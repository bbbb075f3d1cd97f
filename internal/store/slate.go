package store

import (
	"context"
	"time"

	"github.com/dyreby/helm/internal/model"
)

// SlateRow is one pending observation: a target, the artifact holding what
// was seen, and when it was seen.
type SlateRow struct {
	Target       model.Target
	ArtifactHash string
	ObservedAt   time.Time
}

// UpsertSlate records a pending observation. The slate holds exactly one
// row per canonical target key: observing a target that is already on the
// slate replaces its artifact and timestamp in place (last write wins),
// never appends a duplicate. Writes nothing to the logbook.
func (vs *VoyageStore) UpsertSlate(ctx context.Context, target model.Target, artifactHash string, observedAt time.Time) error {
	key, err := model.CanonicalKey(target)
	if err != nil {
		return wrapError(CodeSerialization, "serialize target", err)
	}

	_, err = vs.db.ExecContext(ctx, `
		INSERT INTO slate (target, artifact_hash, observed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET
			artifact_hash = excluded.artifact_hash,
			observed_at = excluded.observed_at
	`, key, artifactHash, formatTime(observedAt))
	return mapSQLiteError("upsert slate", err)
}

// Observe stores the payload as an artifact and puts the observation on
// the slate in one call. The artifact write is idempotent, so a crash
// between the two statements leaves at worst an unreferenced artifact —
// the same state an overwritten slate row leaves behind.
//
// If the payload's hash was previously jettisoned, the slate row points
// at the discarded shell: the observation is recorded but its bytes are
// gone for good. Jettison is a deliberate, per-voyage discard, so the
// store does not second-guess it here.
func (vs *VoyageStore) Observe(ctx context.Context, target model.Target, payload []byte, observedAt time.Time) (string, error) {
	hash, err := vs.PutArtifact(ctx, payload)
	if err != nil {
		return "", err
	}
	if err := vs.UpsertSlate(ctx, target, hash, observedAt); err != nil {
		return "", err
	}
	return hash, nil
}

// Slate lists the pending observations, ordered by target key.
func (vs *VoyageStore) Slate(ctx context.Context) ([]SlateRow, error) {
	rows, err := vs.db.QueryContext(ctx, `
		SELECT target, artifact_hash, observed_at
		FROM slate
		ORDER BY target
	`)
	if err != nil {
		return nil, mapSQLiteError("list slate", err)
	}
	defer rows.Close()

	var slate []SlateRow
	for rows.Next() {
		var key, hash, observedAt string
		if err := rows.Scan(&key, &hash, &observedAt); err != nil {
			return nil, mapSQLiteError("scan slate row", err)
		}

		target, err := model.ParseTargetKey(key)
		if err != nil {
			return nil, wrapError(CodeSerialization, "decode slate target", err)
		}
		at, err := parseTime(observedAt)
		if err != nil {
			return nil, err
		}
		slate = append(slate, SlateRow{Target: target, ArtifactHash: hash, ObservedAt: at})
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError("list slate", err)
	}
	return slate, nil
}

// EraseSlate removes the slate row for a target. Erasing a target that is
// not on the slate is a no-op, not an error.
func (vs *VoyageStore) EraseSlate(ctx context.Context, target model.Target) error {
	key, err := model.CanonicalKey(target)
	if err != nil {
		return wrapError(CodeSerialization, "serialize target", err)
	}

	_, err = vs.db.ExecContext(ctx, `DELETE FROM slate WHERE target = ?`, key)
	return mapSQLiteError("erase slate", err)
}

// ClearSlate removes every slate row. Artifacts are untouched — they may
// still be referenced by past bearings.
func (vs *VoyageStore) ClearSlate(ctx context.Context) error {
	_, err := vs.db.ExecContext(ctx, `DELETE FROM slate`)
	return mapSQLiteError("clear slate", err)
}
