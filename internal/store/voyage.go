package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dyreby/helm/internal/model"
)

// insertVoyage writes the voyage metadata row into a fresh database.
func (vs *VoyageStore) insertVoyage(ctx context.Context, voyage model.Voyage) error {
	status, endedAt, endedStatus := encodeStatus(voyage)
	_, err := vs.db.ExecContext(ctx, `
		INSERT INTO voyage (id, intent, created_at, status, ended_at, ended_status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, voyage.ID.String(), voyage.Intent, formatTime(voyage.CreatedAt), status, endedAt, endedStatus)
	return mapSQLiteError("insert voyage", err)
}

// Voyage loads the voyage's metadata.
func (vs *VoyageStore) Voyage(ctx context.Context) (model.Voyage, error) {
	var idStr, intent, createdAt, status string
	var endedAt, endedStatus sql.NullString
	err := vs.db.QueryRowContext(ctx, `
		SELECT id, intent, created_at, status, ended_at, ended_status
		FROM voyage LIMIT 1
	`).Scan(&idStr, &intent, &createdAt, &status, &endedAt, &endedStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Voyage{}, newError(CodeNotFound, "voyage row missing in %s", vs.id)
	}
	if err != nil {
		return model.Voyage{}, mapSQLiteError("load voyage", err)
	}

	return decodeVoyage(idStr, intent, createdAt, status, endedAt, endedStatus)
}

// End transitions the voyage from active to ended, recording the end time
// and an optional freeform status. The transition happens exactly once:
// ending an already ended voyage fails with IntegrityViolation.
func (vs *VoyageStore) End(ctx context.Context, statusText string) error {
	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteError("end voyage: begin tx", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM voyage LIMIT 1`).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return newError(CodeNotFound, "voyage row missing in %s", vs.id)
	}
	if err != nil {
		return mapSQLiteError("end voyage: load status", err)
	}
	if model.VoyageStatus(status) == model.VoyageEnded {
		return newError(CodeIntegrityViolation, "voyage %s already ended", vs.id)
	}

	var ended sql.NullString
	if statusText != "" {
		ended = sql.NullString{String: statusText, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE voyage SET status = ?, ended_at = ?, ended_status = ?
	`, string(model.VoyageEnded), formatTime(time.Now()), ended)
	if err != nil {
		return mapSQLiteError("end voyage: update", err)
	}

	return mapSQLiteError("end voyage: commit", tx.Commit())
}

func encodeStatus(voyage model.Voyage) (string, sql.NullString, sql.NullString) {
	if voyage.Status != model.VoyageEnded {
		return string(model.VoyageActive), sql.NullString{}, sql.NullString{}
	}
	endedAt := sql.NullString{String: formatTime(voyage.EndedAt), Valid: true}
	endedStatus := sql.NullString{}
	if voyage.EndedStatus != "" {
		endedStatus = sql.NullString{String: voyage.EndedStatus, Valid: true}
	}
	return string(model.VoyageEnded), endedAt, endedStatus
}

func decodeVoyage(idStr, intent, createdAt, status string, endedAt, endedStatus sql.NullString) (model.Voyage, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return model.Voyage{}, wrapError(CodeSerialization, "parse voyage id", err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return model.Voyage{}, err
	}

	voyage := model.Voyage{
		ID:        id,
		Intent:    intent,
		CreatedAt: created,
		Status:    model.VoyageStatus(status),
	}

	switch voyage.Status {
	case model.VoyageActive:
	case model.VoyageEnded:
		if !endedAt.Valid {
			return model.Voyage{}, newError(CodeSerialization, "ended voyage %s has no ended_at", idStr)
		}
		if voyage.EndedAt, err = parseTime(endedAt.String); err != nil {
			return model.Voyage{}, err
		}
		voyage.EndedStatus = endedStatus.String
	default:
		return model.Voyage{}, newError(CodeSerialization, "unknown voyage status %q", status)
	}

	return voyage, nil
}
