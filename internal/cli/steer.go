package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
	"github.com/dyreby/helm/internal/observe"
	"github.com/dyreby/helm/internal/steer"
)

// SteerOptions holds flags for the steer command.
type SteerOptions struct {
	*RootOptions
	Body        string
	On          string // comment routing: issue|pr|review
	Role        string
	Method      string
	Dir         string // working tree for git ops
	GHConfigDir string // GH_CONFIG_DIR for gh invocations
}

// steerOps maps CLI op names to the recorded operation. Create ops and
// the git ops take no number; everything else acts on an existing issue,
// PR, or review comment.
var steerOps = map[string]struct {
	op        model.SteerOp
	hasNumber bool
}{
	"comment":        {model.SteerComment, true},
	"create-issue":   {model.SteerCreateIssue, false},
	"edit-issue":     {model.SteerEditIssue, true},
	"close-issue":    {model.SteerCloseIssue, true},
	"create-pr":      {model.SteerCreatePullRequest, false},
	"edit-pr":        {model.SteerEditPullRequest, true},
	"close-pr":       {model.SteerClosePullRequest, true},
	"request-review": {model.SteerRequestReview, true},
	"merge-pr":       {model.SteerMergePullRequest, true},
	"commit":         {model.SteerCommit, false},
	"push":           {model.SteerPush, false},
}

// commentRouting maps the --on flag to the recorded routing tag.
var commentRouting = map[string]model.CommentOn{
	"issue":  model.CommentOnIssue,
	"pr":     model.CommentOnPullRequest,
	"review": model.CommentOnReview,
}

// performer executes the external side of a steer. Swapped out in tests.
type performer interface {
	Perform(ctx context.Context, s model.Steer, title string) error
}

var newPerformer = func(opts *SteerOptions) performer {
	return &steer.Executor{
		GitHub: observe.CLIRunner{ConfigDir: opts.GHConfigDir},
		Git:    steer.GitCLIRunner{Dir: opts.Dir},
	}
}

// NewSteerCommand creates the steer command. Steering performs the
// external operation, then seals the slate under the new entry: the
// logbook captures what happened, not what was attempted.
func NewSteerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SteerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "steer <op> [number] <summary>",
		Short: "Perform a collaborative-state mutation and seal the slate",
		Long: `Perform a mutation of collaborative state (post a comment, close an
issue, merge a PR, commit, push) and, once it succeeds, record it in the
logbook with the current slate sealed as the entry's bearing. If the
operation fails nothing is recorded.

Ops: comment (--on issue|pr|review), create-issue, edit-issue,
close-issue, create-pr, edit-pr, close-pr, request-review, merge-pr,
commit, push.`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteer(opts, args, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Body, "body", "", "op detail (comment body, commit message, reviewers, etc.)")
	cmd.Flags().StringVar(&opts.On, "on", "issue", "where a comment lands (issue|pr|review)")
	cmd.Flags().StringVar(&opts.Role, "role", string(model.RoleHuman), "who acted (human|agent)")
	cmd.Flags().StringVar(&opts.Method, "method", string(model.MethodManual), "how the reasoning was produced (manual|model)")
	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "working tree for commit and push")
	cmd.Flags().StringVar(&opts.GHConfigDir, "gh-config-dir", "", "GH_CONFIG_DIR for gh invocations")

	return cmd
}

func runSteer(opts *SteerOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	spec, ok := steerOps[args[0]]
	if !ok {
		return failCommand(formatter, fmt.Sprintf("unknown steer op %q", args[0]))
	}

	action := model.Steer{Op: spec.op, Body: opts.Body}
	var summary string
	if spec.hasNumber {
		if len(args) != 3 {
			return failCommand(formatter, fmt.Sprintf("op %q needs a number and a summary", args[0]))
		}
		n, err := parseNumber(args[1])
		if err != nil {
			return failCommand(formatter, err.Error())
		}
		action.Number = n
		summary = args[2]
	} else {
		if len(args) != 2 {
			return failCommand(formatter, fmt.Sprintf("op %q takes only a summary", args[0]))
		}
		summary = args[1]
	}

	if spec.op == model.SteerComment {
		on, ok := commentRouting[opts.On]
		if !ok {
			return failCommand(formatter, fmt.Sprintf("unknown comment routing %q (issue|pr|review)", opts.On))
		}
		action.On = on
	}
	// A commit without an explicit message commits under the summary.
	if spec.op == model.SteerCommit && action.Body == "" {
		action.Body = summary
	}

	// Make sure the entry can be recorded before mutating anything
	// external: the voyage must open and the identity must resolve.
	ctx := cmd.Context()
	vs, cfg, err := opts.openVoyage(ctx)
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	who, err := opts.resolveIdentity(cfg)
	if err != nil {
		return failCommand(formatter, err.Error())
	}

	if err := newPerformer(opts).Perform(ctx, action, summary); err != nil {
		return failCommand(formatter, fmt.Sprintf("perform %s: %v", args[0], err))
	}

	entryID, sealed, err := vs.Seal(ctx, who, action, summary, model.Role(opts.Role), model.Method(opts.Method))
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"entry":  entryID,
			"sealed": sealed,
		})
	}
	fmt.Fprintf(formatter.Writer, "Entry %d logged, %d observation(s) sealed\n", entryID, sealed)
	return nil
}

// sealEntry resolves identity, seals the slate under a new logbook entry,
// and reports the result. Shared by steer and log.
func sealEntry(opts *RootOptions, action model.Action, summary, role, method string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	vs, cfg, err := opts.openVoyage(ctx)
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	who, err := opts.resolveIdentity(cfg)
	if err != nil {
		return failCommand(formatter, err.Error())
	}

	entryID, sealed, err := vs.Seal(ctx, who, action, summary, model.Role(role), model.Method(method))
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"entry":  entryID,
			"sealed": sealed,
		})
	}
	fmt.Fprintf(formatter.Writer, "Entry %d logged, %d observation(s) sealed\n", entryID, sealed)
	return nil
}
