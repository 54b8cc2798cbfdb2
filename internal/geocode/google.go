package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/refmatch/internal/cache"
	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/util"
	"github.com/ppiankov/refmatch/internal/worker"
)

const (
	cacheNamespace = "geocode"
	maxBodyBytes   = 1 << 20

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// GoogleGeocoder calls the Google Maps Geocoding JSON API. Each address gets
// a single attempt.
type GoogleGeocoder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// Option configures a GoogleGeocoder
type Option func(*GoogleGeocoder)

// WithCache stores definitive answers in c
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(g *GoogleGeocoder) {
		g.cache = c
		g.cacheTTL = ttl
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *GoogleGeocoder) {
		g.httpClient = c
	}
}

// WithLimiter replaces the rate limiter
func WithLimiter(l *worker.Limiter) Option {
	return func(g *GoogleGeocoder) {
		g.limiter = l
	}
}

// NewGoogleGeocoder builds a geocoder from configuration
func NewGoogleGeocoder(cfg *model.Config, logger zerolog.Logger, opts ...Option) *GoogleGeocoder {
	g := &GoogleGeocoder{
		httpClient: util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		baseURL:    cfg.Geocode.BaseURL,
		apiKey:     cfg.Geocode.APIKey,
		userAgent:  cfg.HTTP.UserAgent,
		limiter:    worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		logger:     logger.With().Str("component", "geocoder").Logger(),
	}
	for _, hr := range cfg.RateLimiting.HostRates {
		g.limiter.SetHostRate(hr.Host, hr.RequestsPerSecond, hr.BurstSize)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type apiResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type cachedAnswer struct {
	Coordinates
	Found bool `json:"found"`
}

// Geocode implements Geocoder
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (Coordinates, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Coordinates{}, false
	}

	key := cache.Key(cacheNamespace, NormalizeAddress(address))
	if g.cache != nil {
		if data, hit := g.cache.Get(key); hit {
			var ans cachedAnswer
			if err := json.Unmarshal(data, &ans); err == nil {
				g.logger.Debug().Str("address", address).Bool("found", ans.Found).Msg("Cache hit")
				return ans.Coordinates, ans.Found
			}
		}
	}

	coords, found, err := g.lookup(ctx, address)
	if err != nil {
		g.logger.Warn().Err(err).Str("address", address).Msg("Geocode failed")
		return Coordinates{}, false
	}

	if found {
		g.logger.Debug().Str("address", address).Float64("lat", coords.Lat).Float64("lng", coords.Lng).Msg("Geocoded")
	} else {
		g.logger.Info().Str("address", address).Msg("No results")
	}

	if g.cache != nil {
		data, _ := json.Marshal(cachedAnswer{Coordinates: coords, Found: found})
		if err := g.cache.Set(key, data, g.cacheTTL); err != nil {
			g.logger.Debug().Err(err).Msg("Cache write failed")
		}
	}
	return coords, found
}

// lookup makes the API call. ZERO_RESULTS is a definitive "not found" and
// returns no error; anything else unexpected is an ExternalLookupError.
func (g *GoogleGeocoder) lookup(ctx context.Context, address string) (Coordinates, bool, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return Coordinates{}, false, errors.NewExternalLookupError(address, "", fmt.Errorf("parse base url: %w", err))
	}
	q := u.Query()
	q.Set("address", address)
	if g.apiKey != "" {
		q.Set("key", g.apiKey)
	}
	u.RawQuery = q.Encode()

	if g.limiter != nil && !g.limiter.Allow(u.String()) {
		g.logger.Debug().Str("host", u.Host).Msg("Rate limited, waiting")
		if err := g.limiter.Wait(ctx, u.String()); err != nil {
			return Coordinates{}, false, errors.NewExternalLookupError(address, "", fmt.Errorf("rate limit: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Coordinates{}, false, errors.NewExternalLookupError(address, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, false, errors.NewExternalLookupError(address, "", fmt.Errorf("fetch: %w", redactURL(err)))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Coordinates{}, false, errors.NewExternalLookupError(address, resp.Status, nil)
	}

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return Coordinates{}, false, errors.NewExternalLookupError(address, "", fmt.Errorf("decode: %w", err))
	}

	switch body.Status {
	case statusOK:
		if len(body.Results) == 0 {
			return Coordinates{}, false, nil
		}
		return body.Results[0].Geometry.Location, true, nil
	case statusZeroResults:
		return Coordinates{}, false, nil
	default:
		var detail error
		if body.ErrorMessage != "" {
			detail = errors.New(body.ErrorMessage)
		}
		return Coordinates{}, false, errors.NewExternalLookupError(address, body.Status, detail)
	}
}

// redactURL drops the query string, which carries the API key, from the URL
// that net/http puts into transport errors.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	redacted := *ue
	redacted.URL, _, _ = strings.Cut(ue.URL, "?")
	return &redacted
}
