package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/pipeline"
	"github.com/ppiankov/refmatch/internal/rank"
	"github.com/ppiankov/refmatch/internal/table"
)

var (
	canonicalPath string
	sourcePath    string
	reconcileOut  string
	canonicalSht  string
	threshold     int
	matchWorkers  int
	stripTitles   bool
	summaryFormat string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match referring physicians against the canonical doctor list",
	Long: `Reconcile normalizes the referring physician names from the first sheet of
the source workbook, fuzzy matches each one against the canonical doctor
names and writes a workbook with two sheets:

- Doctor_Matching: matched rows joined with the canonical attributes,
  followed by the unmatched rows
- Procedure_Prioritization: the second source sheet, unchanged

A row is matched when its score is strictly greater than --threshold.

Example:
  refmatch reconcile --canonical Doctors.xlsx --source Referrals.xlsx
  refmatch reconcile --canonical Doctors.xlsx --source Referrals.xlsx --out out.xlsx --threshold 90
  refmatch reconcile --canonical Doctors.xlsx --source Referrals.xlsx --strip-titles`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&canonicalPath, "canonical", "", "canonical doctor workbook")
	reconcileCmd.Flags().StringVar(&sourcePath, "source", "", "referral source workbook (physicians sheet first, procedures second)")
	reconcileCmd.Flags().StringVar(&reconcileOut, "out", model.DefaultOutputPath, "output workbook")
	reconcileCmd.Flags().StringVar(&canonicalSht, "sheet", model.SheetCanonical, "canonical sheet name")
	reconcileCmd.Flags().IntVar(&threshold, "threshold", model.DefaultMatchThreshold, "score a match must exceed")
	reconcileCmd.Flags().IntVar(&matchWorkers, "workers", 0, "matching workers (default: number of CPUs)")
	reconcileCmd.Flags().BoolVar(&stripTitles, "strip-titles", false, "drop periods and a leading \"dr\" before matching")
	reconcileCmd.Flags().StringVarP(&summaryFormat, "output", "o", "table", "summary format (table, json, yaml)")

	_ = reconcileCmd.MarkFlagRequired("canonical")
	_ = reconcileCmd.MarkFlagRequired("source")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	format, err := rank.ParseFormat(summaryFormat)
	if err != nil {
		return err
	}

	cfg := *config
	flags := cmd.Flags()
	if flags.Changed("sheet") {
		cfg.Input.CanonicalSheet = canonicalSht
	}
	if flags.Changed("threshold") {
		cfg.Matching.Threshold = threshold
	}
	if flags.Changed("workers") {
		cfg.Matching.Workers = matchWorkers
	}
	if flags.Changed("strip-titles") {
		cfg.Matching.StripTitles = stripTitles
	}
	if flags.Changed("out") || cfg.Output.Path == "" {
		cfg.Output.Path = reconcileOut
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	logger.Debug().
		Str("canonical", canonicalPath).
		Str("source", sourcePath).
		Str("out", cfg.Output.Path).
		Int("threshold", cfg.Matching.Threshold).
		Bool("strip_titles", cfg.Matching.StripTitles).
		Msg("Starting reconcile")

	p := pipeline.NewPipeline(&cfg, logger)
	ds, err := p.Run(ctx, canonicalPath, sourcePath, cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	if format != rank.FormatTable {
		return rank.RenderValue(cmd.OutOrStdout(), ds.Summary, format)
	}
	return rank.Render(cmd.OutOrStdout(), summaryTable(ds.Summary, cfg.Output.Path), format)
}

func summaryTable(s model.RunSummary, out string) *table.Table {
	rows := [][]string{
		{"Run ID", s.RunID},
		{"Output", out},
		{"Threshold", strconv.Itoa(s.Threshold)},
		{"Source rows", strconv.Itoa(s.SourceRows)},
		{"Canonical rows", strconv.Itoa(s.CanonicalRows)},
		{"Matched", strconv.Itoa(s.MatchedRows)},
		{"Unmatched", strconv.Itoa(s.UnmatchedRows)},
		{"Joined rows", strconv.Itoa(s.JoinedRows)},
		{"Key collisions", strconv.Itoa(s.Collisions)},
		{"Degraded rows", strconv.Itoa(s.DegradedRows)},
	}
	for _, stage := range []pipeline.Stage{
		pipeline.StageLoaded, pipeline.StageNormalized, pipeline.StageMatched,
		pipeline.StagePartitioned, pipeline.StageJoined, pipeline.StageWritten,
	} {
		if d, ok := s.StageDurations[stage.String()]; ok {
			rows = append(rows, []string{"Stage " + stage.String(), d.String()})
		}
	}
	return table.New("Reconcile Summary", []string{"Field", "Value"}, rows)
}
