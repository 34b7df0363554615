package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cropflow/internal/registry"
)

type registryStats struct {
	Path    string                `json:"path"`
	Backend string                `json:"backend"`
	Entries int                   `json:"entries"`
	MaxID   int                   `json:"max_id"`
	Passes  []registry.PassRecord `json:"passes,omitempty"`
}

func newRegistryCommand(ctx *commandContext) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the identity registry",
	}

	registryCmd.AddCommand(newRegistryShowCommand(ctx))
	registryCmd.AddCommand(newRegistryGetCommand(ctx))
	registryCmd.AddCommand(newRegistryStatsCommand(ctx))

	return registryCmd
}

func newRegistryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List registered objects in registry order",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, path, err := loadRegistry(cmd, ctx)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if snapshot == nil {
					snapshot = registry.Snapshot{}
				}
				return writeJSON(cmd, snapshot)
			}
			out := cmd.OutOrStdout()
			if len(snapshot) == 0 {
				fmt.Fprintf(out, "Registry %s is empty\n", path)
				return nil
			}
			fmt.Fprintln(out, entriesTable(snapshot).render())
			return nil
		},
	}
}

func newRegistryGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one registered object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 0 {
				return fmt.Errorf("invalid object id %q", args[0])
			}
			snapshot, path, err := loadRegistry(cmd, ctx)
			if err != nil {
				return err
			}
			entry, ok := snapshot.Lookup(id)
			if !ok {
				return fmt.Errorf("object %d not found in %s", id, path)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entry)
			}
			fmt.Fprintln(cmd.OutOrStdout(), entriesTable(registry.Snapshot{entry}).render())
			return nil
		},
	}
}

func newRegistryStatsCommand(ctx *commandContext) *cobra.Command {
	var passLimit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the registry and recent detection passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, _, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			snapshot, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			stats := registryStats{
				Path:    store.Path(),
				Backend: cfg.Registry.Backend,
				Entries: len(snapshot),
				MaxID:   snapshot.MaxID(),
			}
			if sqlite, ok := store.(*registry.SQLiteStore); ok && passLimit > 0 {
				if stats.Passes, err = sqlite.Passes(cmd.Context(), passLimit); err != nil {
					return err
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, stats)
			}
			printRegistryStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&passLimit, "passes", 10, "Recent detection passes to list (sqlite backend only)")
	return cmd
}

func loadRegistry(cmd *cobra.Command, ctx *commandContext) (registry.Snapshot, string, error) {
	store, _, err := ctx.openRegistry()
	if err != nil {
		return nil, "", err
	}
	defer store.Close()

	snapshot, err := store.Load(cmd.Context())
	if err != nil {
		if errors.Is(err, registry.ErrInvalidSnapshot) {
			return nil, "", fmt.Errorf("registry %s is corrupt: %w", store.Path(), err)
		}
		return nil, "", err
	}
	return snapshot, store.Path(), nil
}

func entriesTable(snapshot registry.Snapshot) tableView {
	rows := make([][]string, 0, len(snapshot))
	for _, e := range snapshot {
		rows = append(rows, []string{
			strconv.Itoa(e.ID),
			formatPoint(e.Position[0], e.Position[1]),
			formatFloat(e.Size),
			formatRect(e.RectCoords),
		})
	}
	return tableView{
		headers: []string{"ID", "Position", "Size", "Box"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
		rows:    rows,
		footer:  []string{formatCount(len(snapshot)), "objects", "", ""},
	}
}

func printRegistryStats(cmd *cobra.Command, stats registryStats) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Registry", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Path", statusInfo, stats.Path, colorize))
	fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, stats.Backend, colorize))
	entriesKind := statusOK
	if stats.Entries == 0 {
		entriesKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Objects", entriesKind, formatCount(stats.Entries), colorize))
	maxID := "none"
	if stats.MaxID >= 0 {
		maxID = strconv.Itoa(stats.MaxID)
	}
	fmt.Fprintln(out, renderStatusLine("Max id", statusInfo, maxID, colorize))

	if len(stats.Passes) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(stats.Passes))
	for _, p := range stats.Passes {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.CreatedAt.Local().Format(time.DateTime),
			p.RunID,
			formatCount(p.EntriesAdded),
			strconv.Itoa(p.MaxID),
		})
	}
	view := tableView{
		headers: []string{"Pass", "Time", "Run", "Added", "Max id"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
		rows:    rows,
	}
	fmt.Fprintln(out, view.render())
}
