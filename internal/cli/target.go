package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
)

// addTargetCommands registers one subcommand per target kind under
// parent. Observe and slate-erase share the same target grammar, so both
// build their subtrees through this.
func addTargetCommands(parent *cobra.Command, run func(cmd *cobra.Command, target model.Target) error) {
	filesCmd := &cobra.Command{
		Use:           "files <path>...",
		Short:         "Target the contents of specific files",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, model.NewFiles(args))
		},
	}
	parent.AddCommand(filesCmd)

	var skip []string
	var maxDepth uint32
	treeCmd := &cobra.Command{
		Use:           "tree <root>",
		Short:         "Target a directory tree listing",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, model.NewDirectoryTree(args[0], skip, maxDepth))
		},
	}
	treeCmd.Flags().StringSliceVar(&skip, "skip", nil, "directory names to prune")
	treeCmd.Flags().Uint32Var(&maxDepth, "max-depth", 0, "depth limit (0 = unlimited)")
	parent.AddCommand(treeCmd)

	parent.AddCommand(&cobra.Command{
		Use:           "project",
		Short:         "Target the working tree's project orientation",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, model.GoProject{})
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:           "issue <number>",
		Short:         "Target a GitHub issue",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return run(cmd, model.GitHubIssue{Number: n})
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:           "pr <number>",
		Short:         "Target a GitHub pull request",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return run(cmd, model.GitHubPullRequest{Number: n})
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:           "repo",
		Short:         "Target the GitHub repository itself",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, model.GitHubRepository{})
		},
	})
}

func parseNumber(arg string) (uint64, error) {
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid number %q", arg)
	}
	return n, nil
}

// describeTarget renders a target for human-readable output.
func describeTarget(t model.Target) string {
	switch t := t.(type) {
	case model.Files:
		return fmt.Sprintf("files %v", t.Paths)
	case model.DirectoryTree:
		return fmt.Sprintf("tree %s (depth %d)", t.Root, t.MaxDepth)
	case model.GoProject:
		return "project"
	case model.GitHubIssue:
		return fmt.Sprintf("issue #%d", t.Number)
	case model.GitHubPullRequest:
		return fmt.Sprintf("pr #%d", t.Number)
	case model.GitHubRepository:
		return "repo"
	default:
		return t.Kind()
	}
}
