package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
)

// NewSlateCommand creates the slate command group.
func NewSlateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "slate",
		Short:         "Show or edit the pending observations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlateShow(rootOpts, cmd)
		},
	}

	eraseCmd := &cobra.Command{
		Use:   "erase",
		Short: "Remove one target's pending observation",
	}
	addTargetCommands(eraseCmd, func(cmd *cobra.Command, target model.Target) error {
		return runSlateErase(rootOpts, target, cmd)
	})
	cmd.AddCommand(eraseCmd)

	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Discard every pending observation",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlateClear(rootOpts, cmd)
		},
	})

	return cmd
}

func runSlateShow(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	slate, err := vs.Slate(cmd.Context())
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		type rowJSON struct {
			Target     string `json:"target"`
			Hash       string `json:"hash"`
			ObservedAt string `json:"observed_at"`
		}
		out := make([]rowJSON, 0, len(slate))
		for _, row := range slate {
			key, err := model.CanonicalKey(row.Target)
			if err != nil {
				return failStore(formatter, err)
			}
			out = append(out, rowJSON{
				Target:     key,
				Hash:       row.ArtifactHash,
				ObservedAt: row.ObservedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		return formatter.Success(out)
	}

	if len(slate) == 0 {
		fmt.Fprintln(formatter.Writer, "Slate is clean")
		return nil
	}
	for _, row := range slate {
		fmt.Fprintf(formatter.Writer, "%s  %s  %s\n",
			row.ObservedAt.UTC().Format("15:04:05"), row.ArtifactHash[:12], describeTarget(row.Target))
	}
	return nil
}

func runSlateErase(opts *RootOptions, target model.Target, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	if err := vs.EraseSlate(cmd.Context(), target); err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		key, err := model.CanonicalKey(target)
		if err != nil {
			return failStore(formatter, err)
		}
		return formatter.Success(map[string]any{"erased": key})
	}
	fmt.Fprintf(formatter.Writer, "Erased %s\n", describeTarget(target))
	return nil
}

func runSlateClear(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	if err := vs.ClearSlate(cmd.Context()); err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"cleared": true})
	}
	fmt.Fprintln(formatter.Writer, "Slate cleared")
	return nil
}
