package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dyreby/helm/internal/model"
)

// ArtifactStatus is an artifact's place in the compaction lifecycle.
// Transitions are one-way: stowed → reduced, stowed → jettisoned,
// reduced → jettisoned. There is no way back.
type ArtifactStatus string

const (
	// ArtifactStowed means the full compressed payload is present and
	// the hash is verifiable against it.
	ArtifactStowed ArtifactStatus = "stowed"

	// ArtifactReduced means the payload was replaced by a derived
	// summary artifact; the original bytes are discarded.
	ArtifactReduced ArtifactStatus = "reduced"

	// ArtifactJettisoned means the payload is discarded with no summary
	// retained — only the identity shell remains.
	ArtifactJettisoned ArtifactStatus = "jettisoned"
)

// HashPayload computes the content address of a payload: SHA-256 over the
// canonical uncompressed bytes, hex encoded.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// PutArtifact stores a payload, content-addressed and compressed. Identical
// payload bytes always resolve to the same row no matter how many times or
// under which target they are observed; repeat puts are no-ops. Returns the
// hash in all cases.
//
// Lifecycle transitions are one-way, and that includes re-puts: putting
// bytes whose hash was already reduced or jettisoned does not resurrect
// the payload. The hash stays a valid reference, but GetArtifact keeps
// failing with NotFound until the bytes arrive under a different identity.
func (vs *VoyageStore) PutArtifact(ctx context.Context, payload []byte) (string, error) {
	hash := HashPayload(payload)

	_, err := vs.db.ExecContext(ctx, `
		INSERT INTO artifacts (hash, payload, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, compress(payload), string(ArtifactStowed), formatTime(time.Now()))
	if err != nil {
		return "", mapSQLiteError("put artifact", err)
	}

	return hash, nil
}

// GetArtifact returns the uncompressed payload for a stowed artifact.
// Fails with NotFound if the hash is absent or the payload has been
// discarded (reduced or jettisoned), and with IntegrityViolation if the
// stored bytes fail decompression or no longer match the hash.
func (vs *VoyageStore) GetArtifact(ctx context.Context, hash string) ([]byte, error) {
	var compressed []byte
	var status string
	err := vs.db.QueryRowContext(ctx, `
		SELECT payload, status FROM artifacts WHERE hash = ?
	`, hash).Scan(&compressed, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeNotFound, "artifact not found: %s", hash)
	}
	if err != nil {
		return nil, mapSQLiteError("get artifact", err)
	}

	if ArtifactStatus(status) != ArtifactStowed {
		return nil, newError(CodeNotFound, "artifact %s payload discarded (status %s)", hash, status)
	}

	payload, err := decompress(compressed)
	if err != nil {
		return nil, wrapError(CodeIntegrityViolation, "artifact "+hash, err)
	}
	if HashPayload(payload) != hash {
		return nil, newError(CodeIntegrityViolation, "artifact %s content does not match its hash", hash)
	}
	return payload, nil
}

// ArtifactStatusOf returns the lifecycle status for a hash.
func (vs *VoyageStore) ArtifactStatusOf(ctx context.Context, hash string) (ArtifactStatus, error) {
	var status string
	err := vs.db.QueryRowContext(ctx, `
		SELECT status FROM artifacts WHERE hash = ?
	`, hash).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", newError(CodeNotFound, "artifact not found: %s", hash)
	}
	if err != nil {
		return "", mapSQLiteError("artifact status", err)
	}
	return ArtifactStatus(status), nil
}

// ReduceArtifact stores summary as a new artifact, records a derivation
// edge tagged with the method that produced it, and marks the source as
// reduced, discarding its payload. Fails with NotFound if the source is
// absent and with IntegrityViolation if it is already jettisoned.
func (vs *VoyageStore) ReduceArtifact(ctx context.Context, hash string, summary []byte, method model.Method) (string, error) {
	if !method.Valid() {
		return "", newError(CodeSerialization, "unknown derivation method %q", method)
	}

	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return "", mapSQLiteError("reduce artifact: begin tx", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM artifacts WHERE hash = ?
	`, hash).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", newError(CodeNotFound, "artifact not found: %s", hash)
	}
	if err != nil {
		return "", mapSQLiteError("reduce artifact: load source", err)
	}
	if ArtifactStatus(status) == ArtifactJettisoned {
		return "", newError(CodeIntegrityViolation, "artifact %s is jettisoned; nothing left to reduce", hash)
	}

	now := formatTime(time.Now())
	summaryHash := HashPayload(summary)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO artifacts (hash, payload, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, summaryHash, compress(summary), string(ArtifactStowed), now)
	if err != nil {
		return "", mapSQLiteError("reduce artifact: store summary", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO artifact_derivations (source_hash, derived_hash, method, derived_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_hash, derived_hash) DO NOTHING
	`, hash, summaryHash, string(method), now)
	if err != nil {
		return "", mapSQLiteError("reduce artifact: record derivation", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE artifacts SET payload = NULL, status = ? WHERE hash = ?
	`, string(ArtifactReduced), hash)
	if err != nil {
		return "", mapSQLiteError("reduce artifact: mark source", err)
	}

	if err := tx.Commit(); err != nil {
		return "", mapSQLiteError("reduce artifact: commit", err)
	}
	return summaryHash, nil
}

// JettisonArtifact discards an artifact's payload, leaving only the
// identity shell. While the slate or any bearing still references the hash
// and no derived summary exists, jettisoning fails with
// IntegrityViolation — a referenced observation must stay reachable either
// in full or through its summary. Jettisoning an already jettisoned
// artifact is a no-op.
func (vs *VoyageStore) JettisonArtifact(ctx context.Context, hash string) error {
	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteError("jettison artifact: begin tx", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM artifacts WHERE hash = ?
	`, hash).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return newError(CodeNotFound, "artifact not found: %s", hash)
	}
	if err != nil {
		return mapSQLiteError("jettison artifact: load", err)
	}
	if ArtifactStatus(status) == ArtifactJettisoned {
		return tx.Commit()
	}

	var references int
	err = tx.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM slate WHERE artifact_hash = ?)
		     + (SELECT COUNT(*) FROM bearing_observations WHERE artifact_hash = ?)
	`, hash, hash).Scan(&references)
	if err != nil {
		return mapSQLiteError("jettison artifact: count references", err)
	}

	var derivations int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM artifact_derivations WHERE source_hash = ?
	`, hash).Scan(&derivations)
	if err != nil {
		return mapSQLiteError("jettison artifact: count derivations", err)
	}

	if references > 0 && derivations == 0 {
		return newError(CodeIntegrityViolation,
			"artifact %s is referenced by %d row(s) and has no derived summary", hash, references)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE artifacts SET payload = NULL, status = ? WHERE hash = ?
	`, string(ArtifactJettisoned), hash)
	if err != nil {
		return mapSQLiteError("jettison artifact: mark", err)
	}

	return mapSQLiteError("jettison artifact: commit", tx.Commit())
}

// Derivation is one recorded edge from a source artifact to a summary
// derived from it.
type Derivation struct {
	SourceHash  string
	DerivedHash string
	Method      model.Method
	DerivedAt   time.Time
}

// Derivations returns the derivation edges originating at the given hash.
func (vs *VoyageStore) Derivations(ctx context.Context, hash string) ([]Derivation, error) {
	rows, err := vs.db.QueryContext(ctx, `
		SELECT source_hash, derived_hash, method, derived_at
		FROM artifact_derivations
		WHERE source_hash = ?
		ORDER BY derived_hash
	`, hash)
	if err != nil {
		return nil, mapSQLiteError("list derivations", err)
	}
	defer rows.Close()

	var derivations []Derivation
	for rows.Next() {
		var d Derivation
		var method, derivedAt string
		if err := rows.Scan(&d.SourceHash, &d.DerivedHash, &method, &derivedAt); err != nil {
			return nil, mapSQLiteError("scan derivation", err)
		}
		d.Method = model.Method(method)
		if d.DerivedAt, err = parseTime(derivedAt); err != nil {
			return nil, err
		}
		derivations = append(derivations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError("list derivations", err)
	}
	return derivations, nil
}
