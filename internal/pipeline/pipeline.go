// Package pipeline reconciles referral-source physicians against a
// canonical doctor table.
//
// A run moves through Loaded, Normalized, Matched, Partitioned, Joined and
// Written. Only missing inputs abort; a bad row degrades to an empty key and
// lands in the unmatched partition.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/match"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/normalize"
	"github.com/ppiankov/refmatch/internal/table"
	"github.com/ppiankov/refmatch/internal/workbook"
	"github.com/ppiankov/refmatch/internal/worker"
)

// Inputs are the tables read in the Loaded stage
type Inputs struct {
	CanonicalPath string
	SourcePath    string

	Canonical  *table.Table
	Source     *table.Table
	Procedures *table.Table
}

// Pipeline runs reconciliation with a fixed configuration
type Pipeline struct {
	config     *model.Config
	normalizer normalize.Options
	logger     zerolog.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(cfg *model.Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		config:     cfg,
		normalizer: normalize.Options{StripTitles: cfg.Matching.StripTitles},
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// Load reads the canonical sheet and the first two source sheets. Both
// workbooks are read concurrently.
func (p *Pipeline) Load(ctx context.Context, canonicalPath, sourcePath string) (*Inputs, error) {
	in := &Inputs{CanonicalPath: canonicalPath, SourcePath: sourcePath}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := workbook.ReadSheet(canonicalPath, p.config.Input.CanonicalSheet)
		if err != nil {
			return err
		}
		in.Canonical = t
		return nil
	})
	g.Go(func() error {
		wb, err := workbook.Open(sourcePath)
		if err != nil {
			return err
		}
		defer func() { _ = wb.Close() }()

		if in.Source, err = wb.SheetAt(0); err != nil {
			return err
		}
		in.Procedures, err = wb.SheetAt(1)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("canonical", canonicalPath).
		Int("canonical_rows", in.Canonical.Len()).
		Str("source", sourcePath).
		Int("source_rows", in.Source.Len()).
		Int("procedure_rows", in.Procedures.Len()).
		Msg("Inputs loaded")

	return in, nil
}

// Reconcile runs the Normalized through Joined stages over loaded inputs.
func (p *Pipeline) Reconcile(ctx context.Context, in *Inputs) (*model.ReconciledDataset, error) {
	threshold := p.config.Matching.Threshold
	summary := model.NewRunSummary(threshold)
	summary.SourceRows = in.Source.Len()
	summary.CanonicalRows = in.Canonical.Len()
	log := p.logger.With().Str("run_id", summary.RunID).Logger()

	// Normalized
	start := time.Now()
	canonical, _, err := NormalizeColumn(in.Canonical, in.CanonicalPath,
		p.config.Input.CanonicalColumn, model.ColumnStandardizedName, p.normalizer)
	if err != nil {
		return nil, err
	}
	source, degraded, err := NormalizeColumn(in.Source, in.SourcePath,
		p.config.Input.SourceColumn, model.ColumnStandardizedRef, p.normalizer)
	if err != nil {
		return nil, err
	}
	for _, row := range degraded {
		log.Debug().Err(errors.NewDegradedRowError(row, "name is not text")).Msg("Empty name key")
	}
	summary.DegradedRows = len(degraded)
	summary.StageDurations[StageNormalized.String()] = time.Since(start)

	// Matched
	start = time.Now()
	matcher := match.NewMatcher(canonical.Column(model.ColumnStandardizedName))
	batch := worker.NewBatchProcessor(p.config.Matching.Workers)
	results := MatchRows(ctx, batch, matcher, source.Column(model.ColumnStandardizedRef), p.progress(log, source.Len()))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("matching: %w", err)
	}
	source = AttachMatches(source, results)
	summary.StageDurations[StageMatched.String()] = time.Since(start)
	log.Info().Int("rows", len(results)).Int("workers", batch.Concurrency()).
		Dur("duration", summary.StageDurations[StageMatched.String()]).Msg("Matching complete")

	// Partitioned
	start = time.Now()
	matchedRows, unmatchedRows := Partition(results, threshold)
	summary.MatchedRows = len(matchedRows)
	summary.UnmatchedRows = len(unmatchedRows)
	summary.StageDurations[StagePartitioned.String()] = time.Since(start)

	// Joined
	start = time.Now()
	joined, collisions := Join(p.config.Output.MatchingSheet,
		source.Select(matchedRows), model.ColumnMatchedDoctor,
		canonical, model.ColumnStandardizedName)
	for _, c := range collisions {
		log.Warn().Str("key", c.Key).Int("canonical_rows", c.Rows).Msg("Canonical key collision, rows multiplied")
	}
	unmatched := source.Select(unmatchedRows)
	combined := table.Concat(p.config.Output.MatchingSheet, joined, unmatched)
	summary.JoinedRows = joined.Len()
	summary.Collisions = len(collisions)
	summary.StageDurations[StageJoined.String()] = time.Since(start)

	log.Info().
		Int("matched", summary.MatchedRows).
		Int("unmatched", summary.UnmatchedRows).
		Int("joined", summary.JoinedRows).
		Int("collisions", summary.Collisions).
		Int("threshold", threshold).
		Msg("Reconciliation complete")

	return &model.ReconciledDataset{
		Matched:    joined,
		Unmatched:  unmatched,
		Combined:   combined,
		Procedures: in.Procedures.Clone(p.config.Output.ProceduresSheet),
		Summary:    summary,
	}, nil
}

func (p *Pipeline) progress(log zerolog.Logger, total int) func() {
	every := int64(p.config.Matching.ProgressEvery)
	if every <= 0 {
		return nil
	}
	var done atomic.Int64
	return func() {
		if n := done.Add(1); n%every == 0 {
			log.Info().Int64("done", n).Int("total", total).Msg("Matching progress")
		}
	}
}

// Write saves the matching sheet followed by the procedures sheet
func (p *Pipeline) Write(ds *model.ReconciledDataset, outPath string) error {
	start := time.Now()
	if err := workbook.Save(outPath, ds.Combined, ds.Procedures); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	ds.Summary.StageDurations[StageWritten.String()] = time.Since(start)

	p.logger.Info().
		Str("run_id", ds.Summary.RunID).
		Str("path", outPath).
		Int("rows", ds.Combined.Len()).
		Msg("Output written")
	return nil
}

// Run loads, reconciles and writes. Nothing is written when loading or
// reconciling fails.
func (p *Pipeline) Run(ctx context.Context, canonicalPath, sourcePath, outPath string) (*model.ReconciledDataset, error) {
	start := time.Now()
	in, err := p.Load(ctx, canonicalPath, sourcePath)
	if err != nil {
		return nil, err
	}
	loaded := time.Since(start)

	ds, err := p.Reconcile(ctx, in)
	if err != nil {
		return nil, err
	}
	ds.Summary.StageDurations[StageLoaded.String()] = loaded

	if err := p.Write(ds, outPath); err != nil {
		return nil, err
	}
	return ds, nil
}
