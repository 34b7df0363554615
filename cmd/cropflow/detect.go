package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cropflow/internal/config"
	"cropflow/internal/export"
	"cropflow/internal/identity"
	"cropflow/internal/logging"
	"cropflow/internal/preflight"
	"cropflow/internal/registry"
)

type detectionReport struct {
	RunID    string            `json:"run_id"`
	Registry string            `json:"registry"`
	DryRun   bool              `json:"dry_run,omitempty"`
	Summary  identity.Summary  `json:"summary"`
	Objects  []detectionObject `json:"objects"`
}

type detectionObject struct {
	registry.Entry
	Reused bool `json:"reused"`
}

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "detect <candidates.json>",
		Short: "Assign stable identities to detected crop objects",
		Long: "Resolve each candidate against the identity registry. Candidates within\n" +
			"half their box diagonal of a registered object reuse its id; the rest are\n" +
			"minted new ids and appended to the registry.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			candidates, err := identity.LoadCandidates(args[0])
			if err != nil {
				if errors.Is(err, identity.ErrNoCandidates) {
					return fmt.Errorf("%w; run the extractor first or check the path", err)
				}
				return err
			}

			if check := preflight.CheckRegistry(cfg.RegistryPath()); !check.Passed {
				return fmt.Errorf("%s: %s", check.Name, check.Detail)
			}

			store, logger, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			var results []identity.Result
			var updated registry.Snapshot
			if dryRun {
				snapshot, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				results, updated = identity.Pass(snapshot, candidates)
			} else {
				updated, err = registry.Update(cmd.Context(), store, func(snapshot registry.Snapshot) (registry.Snapshot, error) {
					var next registry.Snapshot
					results, next = identity.Pass(snapshot, candidates)
					return next, nil
				})
				if err != nil {
					if errors.Is(err, registry.ErrLocked) {
						logging.WarnWithContext(logger, "registry busy", "registry_locked",
							logging.String(logging.FieldPath, store.Path()),
							logging.String(logging.FieldErrorHint, "another detection pass is running"),
							logging.Error(err),
						)
					}
					return fmt.Errorf("update registry: %w", err)
				}
			}

			summary := identity.Summarize(results, updated)
			logger.Info("detection pass complete",
				logging.String(logging.FieldEventType, "detection_pass"),
				logging.Int("candidates", summary.Candidates),
				logging.Int("reused", summary.Reused),
				logging.Int("minted", summary.Minted),
				logging.Int(logging.FieldEntryCount, len(updated)),
				logging.Bool("dry_run", dryRun),
			)

			if path := strings.TrimSpace(outputPath); path != "" {
				expanded, err := config.ExpandPath(path)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
				if err := export.WriteDetection(expanded, results); err != nil {
					return err
				}
				logger.Info("detection written", logging.String(logging.FieldPath, expanded))
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, newDetectionReport(ctx.runID, store.Path(), dryRun, summary, results))
			}
			printDetection(cmd, store.Path(), dryRun, summary, results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the resolved objects to this JSON file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve identities without updating the registry")
	return cmd
}

func newDetectionReport(runID, path string, dryRun bool, summary identity.Summary, results []identity.Result) detectionReport {
	objects := make([]detectionObject, len(results))
	for i, r := range results {
		objects[i] = detectionObject{Entry: r.Entry(), Reused: r.Reused}
	}
	return detectionReport{
		RunID:    runID,
		Registry: path,
		DryRun:   dryRun,
		Summary:  summary,
		Objects:  objects,
	}
}

func printDetection(cmd *cobra.Command, path string, dryRun bool, summary identity.Summary, results []identity.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		kind, label := statusOK, "reused"
		if !r.Reused {
			kind, label = statusInfo, "new"
		}
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			formatPoint(r.Candidate.Position.X, r.Candidate.Position.Y),
			formatFloat(r.Candidate.Size),
			formatRect(r.Candidate.Rect.Array()),
			paint(label, kind, colorize),
		})
	}
	view := tableView{
		headers: []string{"ID", "Position", "Size", "Box", "Status"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
		rows:    rows,
	}
	fmt.Fprintln(out, view.render())

	verb := "Registry"
	if dryRun {
		verb = "Registry (dry run)"
	}
	fmt.Fprintf(out, "%s %s: %s candidates, %s reused, %s new, max id %d\n",
		verb, path,
		formatCount(summary.Candidates),
		formatCount(summary.Reused),
		formatCount(summary.Minted),
		summary.MaxID,
	)
}
