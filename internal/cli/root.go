// Package cli implements the helm command surface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/config"
	"github.com/dyreby/helm/internal/identity"
	"github.com/dyreby/helm/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file path override
	Root    string // voyage store root override
	Voyage  string // voyage id override
	As      string // identity override
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the helm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "helm",
		Short: "helm - voyage record keeping",
		Long: `Record-keeping for structured work sessions.

A voyage is one session of work. Observations of files, trees, and
GitHub state accumulate on a slate; steering and logging seal the slate
into the voyage's logbook as an immutable bearing.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ~/.helm/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "voyage store root (default ~/.helm/voyages)")
	cmd.PersistentFlags().StringVar(&opts.Voyage, "voyage", "", "voyage id (default: the current voyage)")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "identity to record (default: $HELM_IDENTITY, then config)")

	cmd.AddCommand(NewVoyageCommand(opts))
	cmd.AddCommand(NewObserveCommand(opts))
	cmd.AddCommand(NewSlateCommand(opts))
	cmd.AddCommand(NewSteerCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewArtifactCommand(opts))
	cmd.AddCommand(NewLogbookCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) loadConfig() (config.Config, error) {
	path := o.Config
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(path)
}

// openStore resolves the store root (flag, config, default) and opens it.
func (o *RootOptions) openStore() (*store.Store, config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	root, err := config.ResolveStoreRoot(o.Root, cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	s, err := store.New(root)
	if err != nil {
		return nil, config.Config{}, err
	}
	return s, cfg, nil
}

// currentVoyagePath is where the id of the most recently created voyage
// is remembered, so commands can default to it.
func currentVoyagePath(s *store.Store) string {
	return filepath.Join(s.Root(), "CURRENT")
}

func setCurrentVoyage(s *store.Store, id uuid.UUID) error {
	return os.WriteFile(currentVoyagePath(s), []byte(id.String()+"\n"), 0o644)
}

// voyageID resolves which voyage a command operates on: the --voyage flag
// if given, otherwise the remembered current voyage.
func (o *RootOptions) voyageID(s *store.Store) (uuid.UUID, error) {
	if o.Voyage != "" {
		id, err := uuid.Parse(o.Voyage)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid voyage id %q: %w", o.Voyage, err)
		}
		return id, nil
	}
	data, err := os.ReadFile(currentVoyagePath(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("no current voyage: run 'helm voyage new' or pass --voyage")
	}
	id, err := uuid.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt CURRENT file in %s: %w", s.Root(), err)
	}
	return id, nil
}

// openVoyage opens the selected voyage's database. The caller must Close it.
func (o *RootOptions) openVoyage(ctx context.Context) (*store.VoyageStore, config.Config, error) {
	s, cfg, err := o.openStore()
	if err != nil {
		return nil, config.Config{}, err
	}
	id, err := o.voyageID(s)
	if err != nil {
		return nil, config.Config{}, err
	}
	vs, err := s.OpenVoyage(ctx, id)
	if err != nil {
		return nil, config.Config{}, err
	}
	return vs, cfg, nil
}

// resolveIdentity picks the identity for logbook entries.
func (o *RootOptions) resolveIdentity(cfg config.Config) (string, error) {
	return identity.Resolve(o.As, cfg.Identity)
}
