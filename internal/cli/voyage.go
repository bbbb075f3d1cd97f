package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
	"github.com/dyreby/helm/internal/store"
)

// VoyageOptions holds flags for the voyage subcommands.
type VoyageOptions struct {
	*RootOptions
	Status string // freeform outcome recorded by voyage end
}

// NewVoyageCommand creates the voyage command group.
func NewVoyageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VoyageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "voyage",
		Short: "Create, end, and list voyages",
	}

	newCmd := &cobra.Command{
		Use:           "new <intent>",
		Short:         "Start a new voyage",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoyageNew(opts, args[0], cmd)
		},
	}
	cmd.AddCommand(newCmd)

	endCmd := &cobra.Command{
		Use:           "end",
		Short:         "End the current voyage",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoyageEnd(opts, cmd)
		},
	}
	endCmd.Flags().StringVar(&opts.Status, "status", "", "outcome to record (e.g. shipped, abandoned)")
	cmd.AddCommand(endCmd)

	useCmd := &cobra.Command{
		Use:           "use <id>",
		Short:         "Make a voyage the current one",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoyageUse(opts, args[0], cmd)
		},
	}
	cmd.AddCommand(useCmd)

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List voyages in the store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoyageList(opts, cmd)
		},
	}
	cmd.AddCommand(listCmd)

	return cmd
}

func runVoyageNew(opts *VoyageOptions, intent string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if strings.TrimSpace(intent) == "" {
		return failCommand(formatter, "intent must not be empty")
	}

	s, _, err := opts.openStore()
	if err != nil {
		return failCommand(formatter, err.Error())
	}

	voyage := model.NewVoyage(intent)
	vs, err := s.CreateVoyage(cmd.Context(), voyage)
	if err != nil {
		return failStore(formatter, err)
	}
	defer vs.Close()

	if err := setCurrentVoyage(s, voyage.ID); err != nil {
		return failCommand(formatter, fmt.Sprintf("record current voyage: %v", err))
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"id":     voyage.ID.String(),
			"intent": voyage.Intent,
		})
	}
	fmt.Fprintf(formatter.Writer, "Voyage %s underway: %s\n", voyage.ID, voyage.Intent)
	return nil
}

func runVoyageEnd(opts *VoyageOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	if err := vs.End(cmd.Context(), opts.Status); err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"id": vs.ID().String(), "status": opts.Status})
	}
	fmt.Fprintf(formatter.Writer, "Voyage %s ended\n", vs.ID())
	return nil
}

func runVoyageUse(opts *VoyageOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	id, err := uuid.Parse(arg)
	if err != nil {
		return failCommand(formatter, fmt.Sprintf("invalid voyage id %q", arg))
	}

	s, _, err := opts.openStore()
	if err != nil {
		return failCommand(formatter, err.Error())
	}

	// Open to confirm it exists and is readable before remembering it.
	vs, err := s.OpenVoyage(cmd.Context(), id)
	if err != nil {
		return failStore(formatter, err)
	}
	vs.Close()

	if err := setCurrentVoyage(s, id); err != nil {
		return failCommand(formatter, fmt.Sprintf("record current voyage: %v", err))
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"id": id.String()})
	}
	fmt.Fprintf(formatter.Writer, "Current voyage is now %s\n", id)
	return nil
}

func runVoyageList(opts *VoyageOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, _, err := opts.openStore()
	if err != nil {
		return failCommand(formatter, err.Error())
	}

	voyages, err := s.ListVoyages(cmd.Context())
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		type voyageJSON struct {
			ID        string `json:"id"`
			Intent    string `json:"intent"`
			CreatedAt string `json:"created_at"`
			Status    string `json:"status"`
		}
		out := make([]voyageJSON, 0, len(voyages))
		for _, v := range voyages {
			out = append(out, voyageJSON{
				ID:        v.ID.String(),
				Intent:    v.Intent,
				CreatedAt: v.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
				Status:    string(v.Status),
			})
		}
		return formatter.Success(out)
	}

	if len(voyages) == 0 {
		fmt.Fprintln(formatter.Writer, "No voyages")
		return nil
	}
	for _, v := range voyages {
		marker := " "
		if v.Status == model.VoyageEnded {
			marker = "✓"
		}
		fmt.Fprintf(formatter.Writer, "%s %s  %s  %s\n",
			marker, v.ID, v.CreatedAt.UTC().Format("2006-01-02 15:04"), v.Intent)
	}
	return nil
}

// failOpen classifies an open-voyage failure: store errors keep their
// codes, everything else (config, CURRENT file) is a command error.
func failOpen(formatter *OutputFormatter, err error) error {
	var se *store.StoreError
	if errors.As(err, &se) {
		return failStore(formatter, err)
	}
	return failCommand(formatter, err.Error())
}
