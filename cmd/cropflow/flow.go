package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cropflow/internal/config"
	"cropflow/internal/export"
	"cropflow/internal/flow"
	"cropflow/internal/logging"
	"cropflow/internal/nodules"
)

type flowReport struct {
	RunID       string           `json:"run_id"`
	Input       string           `json:"input"`
	OutputDir   string           `json:"output_dir,omitempty"`
	Transitions []flowTransition `json:"transitions"`
}

type flowTransition struct {
	CurrentDate  string         `json:"cd"`
	NextDate     string         `json:"nd"`
	CurrentCount int            `json:"current_count"`
	NextCount    int            `json:"next_count"`
	Matched      int            `json:"matched"`
	MeanDistance float64        `json:"mean_distance"`
	IDMap        flow.IDMapping `json:"id_map"`
	File         string         `json:"file,omitempty"`
}

func newFlowCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var workers int
	var noWrite bool

	cmd := &cobra.Command{
		Use:   "flow <nodule-info.json>",
		Short: "Match nodules across consecutive imaging dates",
		Long: "Map every nodule of each date to its nearest nodule on the following date\n" +
			"and write one transition_data_<cd>_<nd>.json file per date pair.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input: %w", err)
			}
			info, err := nodules.Load(input)
			if err != nil {
				if errors.Is(err, nodules.ErrNoData) {
					logging.WarnWithContext(logger, "no nodule data", "no_data",
						logging.String(logging.FieldPath, input),
						logging.String(logging.FieldImpact, "no transitions produced"),
					)
				}
				return err
			}

			if !cmd.Flags().Changed("workers") {
				workers = cfg.Flow.Workers
			}
			if workers < 0 {
				return fmt.Errorf("--workers must not be negative, got %d", workers)
			}

			transitions, err := flow.NewAnalyzer(workers, logger).Analyze(cmd.Context(), info)
			if err != nil {
				return fmt.Errorf("analyze nodules: %w", err)
			}

			dir := ""
			var files []string
			if !noWrite {
				dir = strings.TrimSpace(outputDir)
				if dir == "" {
					dir = cfg.OutputDirFor(input)
				} else if dir, err = config.ExpandPath(dir); err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
				files, err = export.WriteTransitions(dir, transitions)
				if err != nil {
					return err
				}
				logger.Info("transitions written",
					logging.String(logging.FieldEventType, "transitions_written"),
					logging.String(logging.FieldPath, dir),
					logging.Int(logging.FieldEntryCount, len(files)),
				)
			}

			report := newFlowReport(ctx.runID, input, dir, transitions, files)
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			printFlow(cmd, report, len(info))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for transition files (default: configured output dir or <input>-output)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Date pairs matched concurrently (default: flow.workers)")
	cmd.Flags().BoolVar(&noWrite, "no-write", false, "Report matches without writing transition files")
	return cmd
}

func newFlowReport(runID, input, dir string, transitions []flow.Transition, files []string) flowReport {
	report := flowReport{
		RunID:       runID,
		Input:       input,
		OutputDir:   dir,
		Transitions: make([]flowTransition, len(transitions)),
	}
	for i, t := range transitions {
		mapping := t.Mapping
		if mapping == nil {
			mapping = flow.IDMapping{}
		}
		entry := flowTransition{
			CurrentDate:  t.CurrentDate,
			NextDate:     t.NextDate,
			CurrentCount: len(t.Current),
			NextCount:    len(t.Next),
			Matched:      len(mapping),
			MeanDistance: export.Round(t.MeanDistance(), 2),
			IDMap:        mapping,
		}
		if i < len(files) {
			entry.File = files[i]
		}
		report.Transitions[i] = entry
	}
	return report
}

func printFlow(cmd *cobra.Command, report flowReport, dates int) {
	out := cmd.OutOrStdout()
	if len(report.Transitions) == 0 {
		fmt.Fprintf(out, "%s has %d date(s); at least two are needed to build transitions\n", report.Input, dates)
		return
	}

	rows := make([][]string, 0, len(report.Transitions))
	matched := 0
	for _, t := range report.Transitions {
		file := "-"
		if t.File != "" {
			file = filepath.Base(t.File)
		}
		rows = append(rows, []string{
			t.CurrentDate,
			t.NextDate,
			formatCount(t.CurrentCount),
			formatCount(t.NextCount),
			formatCount(t.Matched),
			strconv.FormatFloat(t.MeanDistance, 'f', 2, 64),
			file,
		})
		matched += t.Matched
	}
	view := tableView{
		headers: []string{"Current", "Next", "Nodules", "Next nodules", "Matched", "Mean move", "File"},
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
		rows:    rows,
		footer:  []string{"Total", "", "", "", formatCount(matched), "", ""},
	}
	fmt.Fprintln(out, view.render())
	if report.OutputDir != "" {
		fmt.Fprintf(out, "Wrote %s transition file(s) to %s\n", formatCount(len(report.Transitions)), report.OutputDir)
	}
}
