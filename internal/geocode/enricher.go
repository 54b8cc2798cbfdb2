package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/table"
	"github.com/ppiankov/refmatch/internal/workbook"
	"github.com/ppiankov/refmatch/internal/worker"
)

// Stats summarizes one enrichment run
type Stats struct {
	Rows     int
	Resolved int
	Failed   int
	Blank    int
	Duration time.Duration
}

// Enricher adds Latitude and Longitude columns for an address column
type Enricher struct {
	geocoder Geocoder
	batch    *worker.BatchProcessor
	column   string
	logger   zerolog.Logger
}

// NewEnricher creates an enricher. Addresses are looked up cfg.ChunkSize at
// a time on cfg.Workers goroutines with cfg.ChunkDelay between chunks.
func NewEnricher(g Geocoder, cfg model.GeocodeConfig, logger zerolog.Logger, opts ...worker.BatchOption) *Enricher {
	logger = logger.With().Str("component", "enricher").Logger()

	all := []worker.BatchOption{
		worker.WithChunks(cfg.ChunkSize, cfg.ChunkDelay),
		worker.WithProgress(func(done, total int) {
			logger.Info().Int("done", done).Int("total", total).Msg("Chunk complete")
		}),
	}
	all = append(all, opts...)

	column := cfg.AddressColumn
	if column == "" {
		column = model.ColumnAddress
	}

	return &Enricher{
		geocoder: g,
		batch:    worker.NewBatchProcessor(cfg.Workers, all...),
		column:   column,
		logger:   logger,
	}
}

// Enrich returns a copy of t with coordinate columns filled in row order.
// Unresolved rows get blank cells. A missing address column is fatal.
func (e *Enricher) Enrich(ctx context.Context, t *table.Table) (*table.Table, Stats, error) {
	start := time.Now()
	stats := Stats{Rows: t.Len()}

	if _, ok := t.Col(e.column); !ok {
		return nil, stats, errors.NewMissingColumnError("", t.Name, e.column)
	}

	addresses := t.Column(e.column)
	results := worker.Run(ctx, e.batch, len(addresses), func(ctx context.Context, i int) (*Coordinates, error) {
		c, ok := e.geocoder.Geocode(ctx, addresses[i])
		if !ok {
			return nil, nil
		}
		return &c, nil
	})

	lats := make([]string, len(addresses))
	lngs := make([]string, len(addresses))
	for i, r := range results {
		switch {
		case addresses[i] == "":
			stats.Blank++
		case r.Err != nil || r.Value == nil:
			stats.Failed++
		default:
			lats[i], lngs[i] = r.Value.Cells()
			stats.Resolved++
		}
	}

	out := t.WithColumn(model.ColumnLatitude, lats).WithColumn(model.ColumnLongitude, lngs)
	stats.Duration = time.Since(start)

	e.logger.Info().
		Int("rows", stats.Rows).
		Int("resolved", stats.Resolved).
		Int("failed", stats.Failed).
		Int("blank", stats.Blank).
		Dur("duration", stats.Duration).
		Msg("Geocoding complete")

	return out, stats, nil
}

// EnrichFile reads inPath, enriches the named sheet and writes every sheet
// to outPath with the enriched one in place.
func (e *Enricher) EnrichFile(ctx context.Context, inPath, outPath, sheet string) (Stats, error) {
	wb, err := workbook.Open(inPath)
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = wb.Close() }()

	target, err := wb.Sheet(sheet)
	if err != nil {
		return Stats{}, err
	}

	enriched, stats, err := e.Enrich(ctx, target)
	if err != nil {
		var fe *errors.FatalInputError
		if errors.As(err, &fe) {
			fe.Path = inPath
		}
		return stats, err
	}

	var sheets []*table.Table
	for _, name := range wb.SheetNames() {
		if name == sheet {
			sheets = append(sheets, enriched)
			continue
		}
		other, err := wb.Sheet(name)
		if err != nil {
			return stats, err
		}
		sheets = append(sheets, other)
	}

	if err := workbook.Save(outPath, sheets...); err != nil {
		return stats, fmt.Errorf("write enriched workbook: %w", err)
	}
	return stats, nil
}
