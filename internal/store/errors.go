package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorCode categorizes store errors so callers can react without string
// matching.
type ErrorCode string

const (
	// CodeIntegrityViolation means a referential or lifecycle constraint
	// would be broken. Always fatal to the attempted operation; the
	// transaction rolls back and nothing is silently repaired.
	CodeIntegrityViolation ErrorCode = "INTEGRITY_VIOLATION"

	// CodeNotFound means a voyage, artifact, or slate entry lookup
	// missed. Recoverable by the caller.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeVoyageExists means voyage creation hit an existing store file.
	CodeVoyageExists ErrorCode = "VOYAGE_EXISTS"

	// CodeContention means the write lock could not be acquired within
	// the busy timeout. The caller may retry; the store does not.
	CodeContention ErrorCode = "CONTENTION"

	// CodeSchemaVersionMismatch means an existing store's version marker
	// does not match this build. Fatal; no implicit migration.
	CodeSchemaVersionMismatch ErrorCode = "SCHEMA_VERSION_MISMATCH"

	// CodeSerialization means a target or action could not be encoded to
	// its canonical form, or stored data failed to decode.
	CodeSerialization ErrorCode = "SERIALIZATION"
)

// StoreError is the structured error surfaced by every store operation.
type StoreError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, format string, args ...any) *StoreError {
	return &StoreError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, message string, err error) *StoreError {
	return &StoreError{Code: code, Message: message, Err: err}
}

// IsNotFound reports whether err is a NotFound store error.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsIntegrityViolation reports whether err is an IntegrityViolation store error.
func IsIntegrityViolation(err error) bool { return hasCode(err, CodeIntegrityViolation) }

// IsContention reports whether err is a Contention store error.
func IsContention(err error) bool { return hasCode(err, CodeContention) }

// IsSchemaVersionMismatch reports whether err is a SchemaVersionMismatch store error.
func IsSchemaVersionMismatch(err error) bool { return hasCode(err, CodeSchemaVersionMismatch) }

// IsSerialization reports whether err is a Serialization store error.
func IsSerialization(err error) bool { return hasCode(err, CodeSerialization) }

// IsVoyageExists reports whether err is a VoyageExists store error.
func IsVoyageExists(err error) bool { return hasCode(err, CodeVoyageExists) }

func hasCode(err error, code ErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// mapSQLiteError classifies driver errors: BUSY/LOCKED become Contention,
// constraint violations become IntegrityViolation, anything else is wrapped
// unclassified so the caller still sees the cause.
func mapSQLiteError(message string, err error) error {
	if err == nil {
		return nil
	}

	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return wrapError(CodeContention, message, err)
		case sqlite3.ErrConstraint:
			return wrapError(CodeIntegrityViolation, message, err)
		}
	}

	return fmt.Errorf("%s: %w", message, err)
}
