package cli

import (
	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Role   string
	Method string
}

// NewLogCommand creates the log command. Logging records a note with no
// external mutation and seals the slate, same transaction as steer.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "log <note>",
		Short:         "Record a note and seal the slate",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sealEntry(opts.RootOptions, model.Log{Note: args[0]}, args[0], opts.Role, opts.Method, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Role, "role", string(model.RoleHuman), "who acted (human|agent)")
	cmd.Flags().StringVar(&opts.Method, "method", string(model.MethodManual), "how the reasoning was produced (manual|model)")

	return cmd
}
