package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dyreby/helm/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Store-level failure (not found, contention, integrity)
	ExitCommandError = 2 // Command error (bad arguments, config problems)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`           // e.g. "not_found", "contention"
	Message string `json:"message"`        // human-readable message
	Hint    string `json:"hint,omitempty"` // recovery suggestion
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message, hint string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Hint:    hint,
			},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if hint != "" {
		fmt.Fprintf(f.Writer, "Hint: %s\n", hint)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled. When
// format is JSON, verbose logs go to ErrWriter to avoid corrupting the
// JSON stream.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// failStore prints a store error and converts it into an ExitError with
// the right exit code. Contention carries a retry hint since a waiting
// writer just needs another attempt.
func failStore(formatter *OutputFormatter, err error) error {
	code := "store_error"
	hint := ""
	exit := ExitFailure
	switch {
	case store.IsNotFound(err):
		code = "not_found"
	case store.IsVoyageExists(err):
		code = "voyage_exists"
	case store.IsContention(err):
		code = "contention"
		hint = "another helm process holds the voyage database; retry in a moment"
	case store.IsIntegrityViolation(err):
		code = "integrity_violation"
	case store.IsSchemaVersionMismatch(err):
		code = "schema_version_mismatch"
		hint = "this voyage was written by a different helm version"
	case store.IsSerialization(err):
		code = "serialization"
	}
	_ = formatter.Error(code, err.Error(), hint)
	return WrapExitError(exit, code, err)
}

// failCommand prints a command-level error (bad input, config trouble)
// and returns exit code 2.
func failCommand(formatter *OutputFormatter, message string) error {
	_ = formatter.Error("command_error", message, "")
	return NewExitError(ExitCommandError, message)
}
