package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cropflow/internal/config"
	"cropflow/internal/export"
	"cropflow/internal/fileutil"
	"cropflow/internal/flow"
	"cropflow/internal/logging"
	"cropflow/internal/nodules"
)

type ingestReport struct {
	RunID     string              `json:"run_id"`
	Input     string              `json:"input"`
	OutputDir string              `json:"output_dir"`
	MinArea   float64             `json:"min_area"`
	Stats     nodules.IngestStats `json:"stats"`
	Crops     []ingestCrop        `json:"crops"`
}

type ingestCrop struct {
	Crop        string `json:"crop"`
	Dates       int    `json:"dates"`
	Nodules     int    `json:"nodules"`
	File        string `json:"file"`
	Transitions int    `json:"transitions,omitempty"`
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var minArea float64
	var analyze bool

	cmd := &cobra.Command{
		Use:   "ingest <rootpainter.csv>",
		Short: "Convert RootPainter measurements into per-crop nodule files",
		Long: "Group RootPainter CSV rows by crop and date and write one crop<N>.json\n" +
			"nodule file per crop. With --analyze each crop is also run through flow\n" +
			"matching and its transitions are written to a crop<N> subdirectory.",
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
			if !cmd.Flags().Changed("min-area") {
				minArea = cfg.Ingest.MinArea
			}
			if minArea < 0 {
				return fmt.Errorf("--min-area must not be negative, got %g", minArea)
			}

			crops, stats, err := nodules.IngestFile(input, nodules.IngestOptions{MinArea: minArea})
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.OutputDirFor(input)
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("resolve output dir: %w", err)
			}
			files, err := nodules.WriteCropFiles(dir, crops)
			if err != nil {
				return err
			}
			logger.Info("rootpainter csv ingested",
				logging.String(logging.FieldEventType, "csv_ingested"),
				logging.String(logging.FieldPath, input),
				logging.Int("rows", stats.Rows),
				logging.Int("kept", stats.Kept),
				logging.Int("skipped", stats.Skipped),
				logging.Int("crops", stats.Crops),
			)

			report := ingestReport{
				RunID:     ctx.runID,
				Input:     input,
				OutputDir: dir,
				MinArea:   minArea,
				Stats:     stats,
				Crops:     make([]ingestCrop, 0, len(files)),
			}
			analyzer := flow.NewAnalyzer(cfg.Flow.Workers, logger)
			for i, crop := range crops.Numbers() {
				info := crops[crop]
				entry := ingestCrop{Crop: crop, Dates: len(info), Nodules: info.Count(), File: files[i]}
				if analyze {
					transitions, err := analyzer.Analyze(cmd.Context(), info)
					if err != nil {
						return fmt.Errorf("analyze crop %s: %w", crop, err)
					}
					written, err := export.WriteTransitions(filepath.Join(dir, "crop"+fileutil.SafeSegment(crop)), transitions)
					if err != nil {
						return err
					}
					entry.Transitions = len(written)
				}
				report.Crops = append(report.Crops, entry)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			printIngest(cmd, report, analyze)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for crop files (default: configured output dir or <input>-output)")
	cmd.Flags().Float64Var(&minArea, "min-area", nodules.DefaultMinArea, "Skip rows with area at or below this value (default: ingest.min_area)")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Run flow matching on every crop after ingesting")
	return cmd
}

func printIngest(cmd *cobra.Command, report ingestReport, analyze bool) {
	out := cmd.OutOrStdout()

	headers := []string{"Crop", "Dates", "Nodules", "File"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignLeft}
	if analyze {
		headers = append(headers, "Transitions")
		aligns = append(aligns, alignRight)
	}
	rows := make([][]string, 0, len(report.Crops))
	for _, c := range report.Crops {
		row := []string{c.Crop, formatCount(c.Dates), formatCount(c.Nodules), filepath.Base(c.File)}
		if analyze {
			row = append(row, formatCount(c.Transitions))
		}
		rows = append(rows, row)
	}
	view := tableView{headers: headers, aligns: aligns, rows: rows}
	fmt.Fprintln(out, view.render())
	fmt.Fprintf(out, "Read %s rows: %s kept, %s skipped (area <= %g); wrote %s crop file(s) to %s\n",
		formatCount(report.Stats.Rows),
		formatCount(report.Stats.Kept),
		formatCount(report.Stats.Skipped),
		report.MinArea,
		formatCount(len(report.Crops)),
		report.OutputDir,
	)
}
