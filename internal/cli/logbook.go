package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dyreby/helm/internal/model"
	"github.com/dyreby/helm/internal/store"
)

// NewLogbookCommand creates the logbook command group.
func NewLogbookCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "logbook",
		Short:         "Show the voyage's history",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogbookList(rootOpts, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show <entry>",
		Short:         "Show one entry and its bearing",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogbookShow(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runLogbookList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	entries, err := vs.Logbook(cmd.Context())
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		out := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			out = append(out, entryJSON(e))
		}
		return formatter.Success(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "Logbook is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s/%s  %s  %s\n",
			e.ID, e.LoggedAt.UTC().Format("2006-01-02 15:04"),
			e.Role, e.Method, e.Identity, e.Summary)
	}
	return nil
}

func runLogbookShow(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	entryID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return failCommand(formatter, fmt.Sprintf("invalid entry id %q", arg))
	}

	vs, _, err := opts.openVoyage(cmd.Context())
	if err != nil {
		return failOpen(formatter, err)
	}
	defer vs.Close()

	entries, err := vs.Logbook(cmd.Context())
	if err != nil {
		return failStore(formatter, err)
	}
	var entry *store.Entry
	for i := range entries {
		if entries[i].ID == entryID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return failCommand(formatter, fmt.Sprintf("no logbook entry %d", entryID))
	}

	bearing, err := vs.Bearing(cmd.Context(), entryID)
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Format == "json" {
		out := entryJSON(*entry)
		rows := make([]map[string]any, 0, len(bearing))
		for _, row := range bearing {
			key, err := model.CanonicalKey(row.Target)
			if err != nil {
				return failStore(formatter, err)
			}
			rows = append(rows, map[string]any{
				"target":      key,
				"hash":        row.ArtifactHash,
				"observed_at": row.ObservedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		out["bearing"] = rows
		return formatter.Success(out)
	}

	fmt.Fprintf(formatter.Writer, "Entry %d  %s  %s/%s  %s\n",
		entry.ID, entry.LoggedAt.UTC().Format("2006-01-02 15:04:05"),
		entry.Role, entry.Method, entry.Identity)
	fmt.Fprintf(formatter.Writer, "Summary: %s\n", entry.Summary)
	if len(bearing) == 0 {
		fmt.Fprintln(formatter.Writer, "Bearing: none")
		return nil
	}
	fmt.Fprintln(formatter.Writer, "Bearing:")
	for _, row := range bearing {
		fmt.Fprintf(formatter.Writer, "  %s  %s  %s\n",
			row.ObservedAt.UTC().Format("15:04:05"), row.ArtifactHash[:12], describeTarget(row.Target))
	}
	return nil
}

func entryJSON(e store.Entry) map[string]any {
	kind := "log"
	detail := map[string]any{}
	switch a := e.Action.(type) {
	case model.Steer:
		kind = "steer"
		detail["op"] = string(a.Op)
		detail["number"] = a.Number
		detail["body"] = a.Body
		if a.On != "" {
			detail["on"] = string(a.On)
		}
	case model.Log:
		detail["note"] = a.Note
	}
	return map[string]any{
		"id":        e.ID,
		"logged_at": e.LoggedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		"identity":  e.Identity,
		"role":      string(e.Role),
		"method":    string(e.Method),
		"summary":   e.Summary,
		"action":    kind,
		"detail":    detail,
	}
}
