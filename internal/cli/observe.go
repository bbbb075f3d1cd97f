package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
	"github.com/dyreby/helm/internal/observe"
)

// ObserveOptions holds flags for the observe command.
type ObserveOptions struct {
	*RootOptions
	Dir         string // base directory for file and tree targets
	GHConfigDir string // GH_CONFIG_DIR for gh invocations
}

// NewObserveCommand creates the observe command group. Each subcommand
// materializes one target kind and puts it on the slate.
func NewObserveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ObserveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Fetch a target and record it on the slate",
		Long: `Fetch a target's current state, stow it as a content-addressed
artifact, and record the observation on the slate. Observing a target
already on the slate replaces its pending observation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", ".", "base directory for file and tree targets")
	cmd.PersistentFlags().StringVar(&opts.GHConfigDir, "gh-config-dir", "", "GH_CONFIG_DIR for gh invocations")

	addTargetCommands(cmd, func(cmd *cobra.Command, target model.Target) error {
		return runObserve(opts, target, cmd)
	})
	return cmd
}

func runObserve(opts *ObserveOptions, target model.Target, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	fetcher := &observe.Fetcher{
		Dir:    opts.Dir,
		GitHub: observe.CLIRunner{ConfigDir: opts.GHConfigDir},
	}
	payload, err := fetcher.Fetch(ctx, target)
	if err != nil {
		return failCommand(formatter, fmt.Sprintf("fetch %s: %v", describeTarget(target), err))
	}
	slog.Debug("fetched target", "target", describeTarget(target), "bytes", len(payload))

	vs, _, err := opts.openVoyage(ctx)
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	hash, err := vs.Observe(ctx, target, payload, time.Now())
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		key, err := model.CanonicalKey(target)
		if err != nil {
			return failStore(formatter, err)
		}
		return formatter.Success(map[string]any{
			"target": key,
			"hash":   hash,
			"bytes":  len(payload),
		})
	}
	fmt.Fprintf(formatter.Writer, "Observed %s (%d bytes) as %s\n", describeTarget(target), len(payload), hash[:12])
	return nil
}
