package model

import (
	"runtime"
	"time"

	"github.com/ppiankov/refmatch/internal/logging"
)

// DefaultMatchThreshold is the score a row must strictly exceed to count as matched.
const DefaultMatchThreshold = 85

// Column and sheet names shared by the reconcile, geocode and rank commands.
const (
	ColumnDoctorName        = "Doctor Name"
	ColumnStandardizedName  = "Standardized Doctor Name"
	ColumnReferringName     = "Referring Physician"
	ColumnStandardizedRef   = "Standardized Referring Physician"
	ColumnMatchedDoctor     = "Matched Doctor"
	ColumnScore             = "Score"
	ColumnAddress           = "Address"
	ColumnLatitude          = "Latitude"
	ColumnLongitude         = "Longitude"
	SheetCanonical          = "Main"
	SheetDoctorMatching     = "Doctor_Matching"
	SheetProcedurePriority  = "Procedure_Prioritization"
	DefaultOutputPath       = "Doctor_Matching_With_Procedures_Separate_Sheets.xlsx"
	DefaultGeocodeOutput    = "Doctor_Matching_With_Lat_Lon.xlsx"
	DefaultGeocodeBaseURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	DefaultGeocodeUserAgent = "refmatch/0.1 (+https://github.com/ppiankov/refmatch)"
)

// Config is the complete refmatch configuration
type Config struct {
	Input        InputConfig     `yaml:"input" mapstructure:"input"`
	Matching     MatchingConfig  `yaml:"matching" mapstructure:"matching"`
	Output       OutputConfig    `yaml:"output" mapstructure:"output"`
	Geocode      GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	HTTP         HTTPConfig      `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig     `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Log          logging.Config  `yaml:"log" mapstructure:"log"`
}

// InputConfig names the sheets and columns read from the input workbooks
type InputConfig struct {
	CanonicalSheet  string `yaml:"canonical_sheet" mapstructure:"canonical_sheet"`
	CanonicalColumn string `yaml:"canonical_column" mapstructure:"canonical_column"`
	SourceColumn    string `yaml:"source_column" mapstructure:"source_column"`
}

// MatchingConfig controls normalization and fuzzy matching
type MatchingConfig struct {
	Threshold     int  `yaml:"threshold" mapstructure:"threshold"`
	Workers       int  `yaml:"workers" mapstructure:"workers"`
	ProgressEvery int  `yaml:"progress_every" mapstructure:"progress_every"`
	StripTitles   bool `yaml:"strip_titles" mapstructure:"strip_titles"`
}

// OutputConfig names the output workbook and its sheets
type OutputConfig struct {
	Path            string `yaml:"path" mapstructure:"path"`
	MatchingSheet   string `yaml:"matching_sheet" mapstructure:"matching_sheet"`
	ProceduresSheet string `yaml:"procedures_sheet" mapstructure:"procedures_sheet"`
}

// GeocodeConfig controls the address enrichment collaborator
type GeocodeConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey        string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	AddressColumn string        `yaml:"address_column" mapstructure:"address_column"`
	Workers       int           `yaml:"workers" mapstructure:"workers"`
	ChunkSize     int           `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkDelay    time.Duration `yaml:"chunk_delay" mapstructure:"chunk_delay"`
}

// HTTPConfig holds HTTP client settings for the geocoder
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the geocode result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig bounds requests against the maps API
type RateLimitConfig struct {
	RequestsPerSecond float64    `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int        `yaml:"burst_size" mapstructure:"burst_size"`
	HostRates         []HostRate `yaml:"host_rates,omitempty" mapstructure:"host_rates"`
}

// HostRate overrides requests_per_second for one host (host[:port]). Hosts are
// listed rather than keyed because viper splits map keys on dots.
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size,omitempty" mapstructure:"burst_size"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			CanonicalSheet:  SheetCanonical,
			CanonicalColumn: ColumnDoctorName,
			SourceColumn:    ColumnReferringName,
		},
		Matching: MatchingConfig{
			Threshold:     DefaultMatchThreshold,
			Workers:       runtime.NumCPU(),
			ProgressEvery: 500,
		},
		Output: OutputConfig{
			Path:            DefaultOutputPath,
			MatchingSheet:   SheetDoctorMatching,
			ProceduresSheet: SheetProcedurePriority,
		},
		Geocode: GeocodeConfig{
			BaseURL:       DefaultGeocodeBaseURL,
			AddressColumn: ColumnAddress,
			Workers:       3,
			ChunkSize:     10,
			ChunkDelay:    time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: DefaultGeocodeUserAgent,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".refmatch-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Log: logging.DefaultConfig(),
	}
}
