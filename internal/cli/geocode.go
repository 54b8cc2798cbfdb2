package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/refmatch/internal/cache"
	"github.com/ppiankov/refmatch/internal/geocode"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/rank"
	"github.com/ppiankov/refmatch/internal/table"
)

var (
	geocodeIn      string
	geocodeOut     string
	geocodeSheet   string
	addressColumn  string
	geocodeWorkers int
	chunkSize      int
	chunkDelay     time.Duration
	noCache        bool
	httpProxy      string
	httpsProxy     string
)

// geocodeCmd represents the geocode command
var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Add Latitude and Longitude columns to a reconciled workbook",
	Long: `Geocode looks up every address of the matching sheet with the Google
Geocoding API and writes Latitude and Longitude columns next to it. Rows
that cannot be resolved get blank coordinates; the run never fails on a
single address.

Addresses are processed in chunks with a pause between chunks. Results are
cached in memory and on disk unless --no-cache is set.

The API key is read from GOOGLE_MAPS_API_KEY (environment or .env) or
geocode.api_key in the config file.

Example:
  refmatch geocode --in Doctor_Matching_With_Procedures_Separate_Sheets.xlsx
  refmatch geocode --in matched.xlsx --out located.xlsx --workers 5 --chunk-delay 2s`,
	Args: cobra.NoArgs,
	RunE: runGeocode,
}

func init() {
	rootCmd.AddCommand(geocodeCmd)

	geocodeCmd.Flags().StringVar(&geocodeIn, "in", model.DefaultOutputPath, "reconciled workbook")
	geocodeCmd.Flags().StringVar(&geocodeOut, "out", model.DefaultGeocodeOutput, "output workbook")
	geocodeCmd.Flags().StringVar(&geocodeSheet, "sheet", model.SheetDoctorMatching, "sheet to enrich")
	geocodeCmd.Flags().StringVar(&addressColumn, "column", model.ColumnAddress, "address column")
	geocodeCmd.Flags().IntVar(&geocodeWorkers, "workers", 3, "concurrent lookups per chunk")
	geocodeCmd.Flags().IntVar(&chunkSize, "chunk-size", 10, "addresses per chunk")
	geocodeCmd.Flags().DurationVar(&chunkDelay, "chunk-delay", time.Second, "pause between chunks")
	geocodeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh lookups)")
	geocodeCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	geocodeCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runGeocode(cmd *cobra.Command, args []string) error {
	cfg := *config
	flags := cmd.Flags()
	if flags.Changed("column") {
		cfg.Geocode.AddressColumn = addressColumn
	}
	if flags.Changed("workers") {
		cfg.Geocode.Workers = geocodeWorkers
	}
	if flags.Changed("chunk-size") {
		cfg.Geocode.ChunkSize = chunkSize
	}
	if flags.Changed("chunk-delay") {
		cfg.Geocode.ChunkDelay = chunkDelay
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}

	if cfg.Geocode.APIKey == "" {
		return fmt.Errorf("%s environment variable not set", EnvAPIKey)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var opts []geocode.Option
	var layered *cache.LayeredCache
	if cfg.Cache.Enabled {
		layered = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		opts = append(opts, geocode.WithCache(layered, cfg.Cache.DiskTTL))
	}

	g := geocode.NewGoogleGeocoder(&cfg, logger, opts...)
	enricher := geocode.NewEnricher(g, cfg.Geocode, logger)

	logger.Info().
		Str("in", geocodeIn).
		Str("out", geocodeOut).
		Int("workers", cfg.Geocode.Workers).
		Int("chunk_size", cfg.Geocode.ChunkSize).
		Dur("chunk_delay", cfg.Geocode.ChunkDelay).
		Bool("cache", cfg.Cache.Enabled).
		Msg("Starting geocode")

	stats, err := enricher.EnrichFile(ctx, geocodeIn, geocodeOut, geocodeSheet)
	if err != nil {
		return fmt.Errorf("geocode failed: %w", err)
	}

	rows := [][]string{
		{"Output", geocodeOut},
		{"Rows", strconv.Itoa(stats.Rows)},
		{"Resolved", strconv.Itoa(stats.Resolved)},
		{"Failed", strconv.Itoa(stats.Failed)},
		{"Blank address", strconv.Itoa(stats.Blank)},
		{"Duration", stats.Duration.Round(time.Millisecond).String()},
	}
	if layered != nil {
		hits, misses := layered.Stats()
		rows = append(rows,
			[]string{"Cache hits", strconv.FormatInt(hits, 10)},
			[]string{"Cache misses", strconv.FormatInt(misses, 10)})
	}
	return rank.Render(cmd.OutOrStdout(), table.New("Geocode Summary", []string{"Field", "Value"}, rows), rank.FormatTable)
}
