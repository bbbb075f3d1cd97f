package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyreby/helm/internal/model"
)

// runHelm executes the CLI against a store root and returns its output.
func runHelm(t *testing.T, storeRoot string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	// Point config at a missing file so the user's real one is never read.
	base := []string{"--root", storeRoot, "--config", filepath.Join(storeRoot, "no-config.yaml"), "--as", "alice"}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a --format json response.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestVoyageNewAndList(t *testing.T) {
	root := t.TempDir()

	out, err := runHelm(t, root, "--format", "json", "voyage", "new", "Fix the widget")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "Fix the widget", data["intent"])

	out, err = runHelm(t, root, "voyage", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Fix the widget")
}

func TestObserveLogFlow(t *testing.T) {
	root := t.TempDir()
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "notes.md"), []byte("hello"), 0o600))

	_, err := runHelm(t, root, "voyage", "new", "Take notes")
	require.NoError(t, err)

	out, err := runHelm(t, root, "observe", "--dir", work, "files", "notes.md")
	require.NoError(t, err)
	assert.Contains(t, out, "Observed")

	out, err = runHelm(t, root, "slate")
	require.NoError(t, err)
	assert.Contains(t, out, "notes.md")

	out, err = runHelm(t, root, "--format", "json", "log", "captured the notes")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["sealed"])

	out, err = runHelm(t, root, "slate")
	require.NoError(t, err)
	assert.Contains(t, out, "Slate is clean")

	out, err = runHelm(t, root, "logbook")
	require.NoError(t, err)
	assert.Contains(t, out, "captured the notes")
	assert.Contains(t, out, "alice")
}

// fakePerformer stands in for the gh/git executor.
type fakePerformer struct {
	calls []model.Steer
	err   error
}

func (p *fakePerformer) Perform(_ context.Context, s model.Steer, _ string) error {
	p.calls = append(p.calls, s)
	return p.err
}

func stubPerformer(t *testing.T, p performer) {
	t.Helper()
	orig := newPerformer
	newPerformer = func(*SteerOptions) performer { return p }
	t.Cleanup(func() { newPerformer = orig })
}

func TestSteerPerformsThenSealsSlate(t *testing.T) {
	root := t.TempDir()
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "a.txt"), []byte("x"), 0o600))
	fake := &fakePerformer{}
	stubPerformer(t, fake)

	_, err := runHelm(t, root, "voyage", "new", "Close out the issue")
	require.NoError(t, err)
	_, err = runHelm(t, root, "observe", "--dir", work, "files", "a.txt")
	require.NoError(t, err)

	out, err := runHelm(t, root, "--format", "json",
		"steer", "close-issue", "42", "closed as fixed", "--role", "agent", "--method", "model")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)

	// The external op ran exactly once, before the entry was written.
	require.Len(t, fake.calls, 1)
	assert.Equal(t, model.SteerCloseIssue, fake.calls[0].Op)
	assert.Equal(t, uint64(42), fake.calls[0].Number)

	out, err = runHelm(t, root, "logbook", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "agent/model")
	assert.Contains(t, out, "closed as fixed")
	assert.Contains(t, out, "files [a.txt]")
}

func TestSteerFailedOpRecordsNothing(t *testing.T) {
	root := t.TempDir()
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "a.txt"), []byte("x"), 0o600))
	stubPerformer(t, &fakePerformer{err: errors.New("merge conflict")})

	_, err := runHelm(t, root, "voyage", "new", "Land the fix")
	require.NoError(t, err)
	_, err = runHelm(t, root, "observe", "--dir", work, "files", "a.txt")
	require.NoError(t, err)

	out, err := runHelm(t, root, "steer", "merge-pr", "42", "merged the fix")
	require.Error(t, err)
	assert.Contains(t, out, "merge conflict")

	// No entry, and the slate survives for the retry.
	out, err = runHelm(t, root, "logbook")
	require.NoError(t, err)
	assert.Contains(t, out, "Logbook is empty")
	out, err = runHelm(t, root, "slate")
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
}

func TestSteerWithoutToolsRecordsNothing(t *testing.T) {
	root := t.TempDir()
	_, err := runHelm(t, root, "voyage", "new", "Land the fix")
	require.NoError(t, err)

	// With no gh on PATH the merge cannot run, so nothing may be logged.
	t.Setenv("PATH", t.TempDir())

	_, err = runHelm(t, root, "steer", "merge-pr", "42", "merged the fix")
	require.Error(t, err)

	out, err := runHelm(t, root, "logbook")
	require.NoError(t, err)
	assert.Contains(t, out, "Logbook is empty")
}

func TestSteerCommentRouting(t *testing.T) {
	root := t.TempDir()
	fake := &fakePerformer{}
	stubPerformer(t, fake)

	_, err := runHelm(t, root, "voyage", "new", "Answer review feedback")
	require.NoError(t, err)

	_, err = runHelm(t, root, "steer", "comment", "310442", "replied to the review", "--on", "review", "--body", "Fixed.")
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	assert.Equal(t, model.CommentOnReview, fake.calls[0].On)

	_, err = runHelm(t, root, "steer", "comment", "1", "x", "--on", "gist")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSteerUnknownOp(t *testing.T) {
	root := t.TempDir()
	_, err := runHelm(t, root, "voyage", "new", "v")
	require.NoError(t, err)

	_, err = runHelm(t, root, "steer", "teleport", "1", "zap")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNoCurrentVoyage(t *testing.T) {
	root := t.TempDir()
	out, err := runHelm(t, root, "slate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no current voyage")
}

func TestVoyageEndTwice(t *testing.T) {
	root := t.TempDir()
	_, err := runHelm(t, root, "voyage", "new", "Short trip")
	require.NoError(t, err)

	_, err = runHelm(t, root, "voyage", "end", "--status", "shipped")
	require.NoError(t, err)

	out, err := runHelm(t, root, "voyage", "end")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "integrity_violation")
}

func TestInvalidFormat(t *testing.T) {
	root := t.TempDir()
	_, err := runHelm(t, root, "--format", "xml", "voyage", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
