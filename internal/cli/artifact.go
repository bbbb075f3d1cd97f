package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
)

// ArtifactOptions holds flags for the artifact subcommands.
type ArtifactOptions struct {
	*RootOptions
	Summary     string // inline summary text for reduce
	SummaryFile string // file holding the summary for reduce
	Method      string // how the summary was produced
}

// NewArtifactCommand creates the artifact command group.
func NewArtifactCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArtifactOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Inspect and manage stored artifacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show <hash>",
		Short:         "Print an artifact's payload",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactShow(opts, args[0], cmd)
		},
	})

	reduceCmd := &cobra.Command{
		Use:           "reduce <hash>",
		Short:         "Replace an artifact's payload with a summary",
		Long:          "Store a summary as a new artifact, link it as a derivation, and drop the source payload. The source hash remains as identity.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactReduce(opts, args[0], cmd)
		},
	}
	reduceCmd.Flags().StringVar(&opts.Summary, "summary", "", "summary text")
	reduceCmd.Flags().StringVar(&opts.SummaryFile, "summary-file", "", "file containing the summary")
	reduceCmd.Flags().StringVar(&opts.Method, "method", string(model.MethodModel), "how the summary was produced (manual|model)")
	cmd.AddCommand(reduceCmd)

	cmd.AddCommand(&cobra.Command{
		Use:           "jettison <hash>",
		Short:         "Drop an artifact's payload for good",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactJettison(opts, args[0], cmd)
		},
	})

	return cmd
}

func runArtifactShow(opts *ArtifactOptions, hash string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	payload, err := vs.GetArtifact(cmd.Context(), hash)
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"hash":    hash,
			"payload": string(payload),
		})
	}
	_, err = formatter.Writer.Write(payload)
	return err
}

func runArtifactReduce(opts *ArtifactOptions, hash string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	summary := []byte(opts.Summary)
	switch {
	case opts.Summary != "" && opts.SummaryFile != "":
		return failCommand(formatter, "pass --summary or --summary-file, not both")
	case opts.SummaryFile != "":
		var err error
		if summary, err = os.ReadFile(opts.SummaryFile); err != nil {
			return failCommand(formatter, fmt.Sprintf("read summary: %v", err))
		}
	case opts.Summary == "":
		return failCommand(formatter, "a summary is required (--summary or --summary-file)")
	}

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	summaryHash, err := vs.ReduceArtifact(cmd.Context(), hash, summary, model.Method(opts.Method))
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"reduced": hash,
			"summary": summaryHash,
		})
	}
	fmt.Fprintf(formatter.Writer, "Reduced %s to summary %s\n", hash[:12], summaryHash[:12])
	return nil
}

func runArtifactJettison(opts *ArtifactOptions, hash string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	if err := vs.JettisonArtifact(cmd.Context(), hash); err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"jettisoned": hash})
	}
	fmt.Fprintf(formatter.Writer, "Jettisoned %s\n", hash[:12])
	return nil
}
