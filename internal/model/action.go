package model

import (
	"encoding/json"
	"fmt"
)

// Role tags who was at the helm when a logbook entry was written.
type Role string

const (
	// RoleHuman marks an entry authored directly by a person.
	RoleHuman Role = "human"

	// RoleAgent marks an entry authored by an agent acting on a
	// person's behalf.
	RoleAgent Role = "agent"
)

// Valid reports whether the role is a known tag.
func (r Role) Valid() bool {
	return r == RoleHuman || r == RoleAgent
}

// Method tags how the entry's reasoning was produced.
type Method string

const (
	// MethodManual marks reasoning worked out by hand.
	MethodManual Method = "manual"

	// MethodModel marks reasoning produced by a language model.
	MethodModel Method = "model"
)

// Valid reports whether the method is a known tag.
func (m Method) Valid() bool {
	return m == MethodManual || m == MethodModel
}

// Action describes what a logbook entry did: either a steer that mutated
// external collaborative state, or a log that recorded a state without
// touching anything.
type Action interface {
	isAction()
}

// SteerOp names the mutation a steer performed. The set is closed — each
// op is a deterministic flow with a known shape.
type SteerOp string

const (
	SteerComment           SteerOp = "comment"
	SteerCreateIssue       SteerOp = "createIssue"
	SteerEditIssue         SteerOp = "editIssue"
	SteerCloseIssue        SteerOp = "closeIssue"
	SteerCreatePullRequest SteerOp = "createPullRequest"
	SteerEditPullRequest   SteerOp = "editPullRequest"
	SteerClosePullRequest  SteerOp = "closePullRequest"
	SteerRequestReview     SteerOp = "requestReview"
	SteerMergePullRequest  SteerOp = "mergePullRequest"
	SteerCommit            SteerOp = "commit"
	SteerPush              SteerOp = "push"
)

// Valid reports whether the op is a known steer operation.
func (op SteerOp) Valid() bool {
	switch op {
	case SteerComment, SteerCreateIssue, SteerEditIssue, SteerCloseIssue,
		SteerCreatePullRequest, SteerEditPullRequest, SteerClosePullRequest,
		SteerRequestReview, SteerMergePullRequest, SteerCommit, SteerPush:
		return true
	}
	return false
}

// CommentOn routes a comment op: the same body lands somewhere different
// depending on whether it answers an issue, a pull request, or an inline
// review thread, and a review reply is a distinct signal in the logbook.
type CommentOn string

const (
	CommentOnIssue       CommentOn = "issue"
	CommentOnPullRequest CommentOn = "pullRequest"

	// CommentOnReview replies to an inline review comment. Number is the
	// review comment id being replied to, not an issue or PR number.
	CommentOnReview CommentOn = "review"
)

// Valid reports whether the routing tag is known.
func (on CommentOn) Valid() bool {
	return on == CommentOnIssue || on == CommentOnPullRequest || on == CommentOnReview
}

// Steer records a mutation of external collaborative state.
type Steer struct {
	// Op is what was done.
	Op SteerOp

	// On routes a comment op; empty for every other op.
	On CommentOn

	// Number is the issue or pull request acted on; 0 when the op
	// created one (the number did not exist before the action) or when
	// the op has no number (commit, push).
	Number uint64

	// Body carries op detail: a comment body, a commit message,
	// requested reviewers, etc.
	Body string
}

func (Steer) isAction() {}

// Log records a state with no external mutation.
type Log struct {
	// Note is what there was to say.
	Note string
}

func (Log) isAction() {}

// MarshalAction serializes an action to tagged canonical JSON for the
// logbook's action column.
func MarshalAction(a Action) (string, error) {
	var obj map[string]any

	switch v := a.(type) {
	case Steer:
		if !v.Op.Valid() {
			return "", fmt.Errorf("marshal action: unknown steer op %q", v.Op)
		}
		obj = map[string]any{
			"kind":   "steer",
			"op":     string(v.Op),
			"number": v.Number,
			"body":   v.Body,
		}
		if v.Op == SteerComment {
			if !v.On.Valid() {
				return "", fmt.Errorf("marshal action: comment needs a routing tag, got %q", v.On)
			}
			obj["on"] = string(v.On)
		} else if v.On != "" {
			return "", fmt.Errorf("marshal action: op %q does not take a routing tag", v.Op)
		}
	case Log:
		obj = map[string]any{
			"kind": "log",
			"note": v.Note,
		}
	default:
		return "", fmt.Errorf("marshal action: unknown action type %T", a)
	}

	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal action: %w", err)
	}
	return string(data), nil
}

// UnmarshalAction decodes the logbook's action column back into an Action.
func UnmarshalAction(data string) (Action, error) {
	var raw struct {
		Kind   string    `json:"kind"`
		Op     SteerOp   `json:"op"`
		On     CommentOn `json:"on"`
		Number uint64    `json:"number"`
		Body   string    `json:"body"`
		Note   string    `json:"note"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}

	switch raw.Kind {
	case "steer":
		if !raw.Op.Valid() {
			return nil, fmt.Errorf("unmarshal action: unknown steer op %q", raw.Op)
		}
		if raw.Op == SteerComment && !raw.On.Valid() {
			return nil, fmt.Errorf("unmarshal action: comment has routing tag %q", raw.On)
		}
		return Steer{Op: raw.Op, On: raw.On, Number: raw.Number, Body: raw.Body}, nil
	case "log":
		return Log{Note: raw.Note}, nil
	default:
		return nil, fmt.Errorf("unmarshal action: unknown kind %q", raw.Kind)
	}
}
