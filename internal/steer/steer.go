// Package steer performs the external mutations that steer logbook
// entries record. The logbook captures what happened, not what was
// attempted, so callers run Perform first and seal the entry only when it
// succeeds.
package steer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dyreby/helm/internal/model"
)

// Runner executes one external tool invocation and returns its stdout.
// The gh runner lives in the observe package; GitCLIRunner covers git.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// GitCLIRunner runs the real git binary against a working tree.
type GitCLIRunner struct {
	Dir string
}

func (r GitCLIRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("git %s: %s: %w", args[0], msg, err)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// Executor performs steer operations. GitHub ops go through gh, commit
// and push through git.
type Executor struct {
	GitHub Runner
	Git    Runner
}

// Perform executes the operation the steer describes. Title is used by
// the create ops, which need one beyond the action's own fields. A
// non-nil error means nothing should be recorded.
func (e *Executor) Perform(ctx context.Context, s model.Steer, title string) error {
	switch s.Op {
	case model.SteerComment:
		return e.performComment(ctx, s)
	case model.SteerCreateIssue:
		return e.runGitHub(ctx, "issue", "create", "--title", title, "--body", s.Body)
	case model.SteerEditIssue:
		return e.runGitHub(ctx, "issue", "edit", fmt.Sprint(s.Number), "--body", s.Body)
	case model.SteerCloseIssue:
		args := []string{"issue", "close", fmt.Sprint(s.Number)}
		if s.Body != "" {
			args = append(args, "--comment", s.Body)
		}
		return e.runGitHub(ctx, args...)
	case model.SteerCreatePullRequest:
		return e.runGitHub(ctx, "pr", "create", "--title", title, "--body", s.Body)
	case model.SteerEditPullRequest:
		return e.runGitHub(ctx, "pr", "edit", fmt.Sprint(s.Number), "--body", s.Body)
	case model.SteerClosePullRequest:
		args := []string{"pr", "close", fmt.Sprint(s.Number)}
		if s.Body != "" {
			args = append(args, "--comment", s.Body)
		}
		return e.runGitHub(ctx, args...)
	case model.SteerRequestReview:
		return e.runGitHub(ctx, "pr", "edit", fmt.Sprint(s.Number), "--add-reviewer", s.Body)
	case model.SteerMergePullRequest:
		return e.runGitHub(ctx, "pr", "merge", fmt.Sprint(s.Number))
	case model.SteerCommit:
		return e.runGit(ctx, "commit", "-m", s.Body)
	case model.SteerPush:
		return e.runGit(ctx, "push")
	default:
		return fmt.Errorf("no executor for steer op %q", s.Op)
	}
}

// performComment routes a comment to where it belongs: the issue thread,
// the PR thread, or an inline review thread reply.
func (e *Executor) performComment(ctx context.Context, s model.Steer) error {
	switch s.On {
	case model.CommentOnIssue:
		return e.runGitHub(ctx, "issue", "comment", fmt.Sprint(s.Number), "--body", s.Body)
	case model.CommentOnPullRequest:
		return e.runGitHub(ctx, "pr", "comment", fmt.Sprint(s.Number), "--body", s.Body)
	case model.CommentOnReview:
		// Number is the review comment id being replied to.
		return e.runGitHub(ctx, "api", "--method", "POST",
			fmt.Sprintf("repos/{owner}/{repo}/pulls/comments/%d/replies", s.Number),
			"-f", "body="+s.Body)
	default:
		return fmt.Errorf("comment has no routing tag")
	}
}

func (e *Executor) runGitHub(ctx context.Context, args ...string) error {
	if e.GitHub == nil {
		return fmt.Errorf("no GitHub runner configured")
	}
	_, err := e.GitHub.Run(ctx, args...)
	return err
}

func (e *Executor) runGit(ctx context.Context, args ...string) error {
	if e.Git == nil {
		return fmt.Errorf("no git runner configured")
	}
	_, err := e.Git.Run(ctx, args...)
	return err
}
