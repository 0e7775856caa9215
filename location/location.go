// Package location resolves weather, timezone and city for a coordinate
// pair, with a short-lived cache to bound external call volume.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/agrivaani/agrivaani"
)

const (
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	defaultGeocodeURL  = "https://nominatim.openstreetmap.org/reverse"
	defaultTTL         = 5 * time.Minute
)

// weatherDescriptions maps WMO weather codes to short descriptions.
// Unrecognized codes read as "Unknown".
var weatherDescriptions = map[int]string{
	0:  "Clear",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	61: "Rain",
	80: "Showers",
}

type cacheEntry struct {
	snapshot    agrivaani.Snapshot
	lastUpdated time.Time
}

// Enricher resolves location snapshots with a TTL cache. A failed lookup is
// cached like a success so retries are spaced by the TTL rather than
// hammering the providers.
type Enricher struct {
	client      *http.Client
	forecastURL string
	geocodeURL  string
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// Option configures the enricher.
type Option func(*Enricher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Enricher) { e.client = c }
}

// WithForecastURL overrides the weather provider endpoint.
func WithForecastURL(u string) Option {
	return func(e *Enricher) { e.forecastURL = u }
}

// WithGeocodeURL overrides the reverse-geocoding endpoint.
func WithGeocodeURL(u string) Option {
	return func(e *Enricher) { e.geocodeURL = u }
}

// WithTTL overrides the snapshot freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(e *Enricher) { e.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) { e.now = now }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// NewEnricher creates a location enricher.
func NewEnricher(opts ...Option) *Enricher {
	e := &Enricher{
		client:      &http.Client{Timeout: 10 * time.Second},
		forecastURL: defaultForecastURL,
		geocodeURL:  defaultGeocodeURL,
		ttl:         defaultTTL,
		logger:      slog.Default(),
		now:         time.Now,
		cache:       make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns the snapshot for lat/lon, from cache when fresh. On any
// provider failure it returns the zero snapshot {"", "UTC", "Unknown"} and
// caches that too. Enrich never fails; concurrent refreshes for the same key
// race last-write-wins.
func (e *Enricher) Enrich(ctx context.Context, lat, lon float64) agrivaani.Snapshot {
	key := fmt.Sprintf("%v,%v", lat, lon)

	e.mu.RLock()
	entry, ok := e.cache[key]
	e.mu.RUnlock()
	if ok && e.now().Sub(entry.lastUpdated) < e.ttl {
		return entry.snapshot
	}

	snapshot := e.lookup(ctx, lat, lon)

	e.mu.Lock()
	e.cache[key] = cacheEntry{snapshot: snapshot, lastUpdated: e.now()}
	e.mu.Unlock()

	return snapshot
}

func (e *Enricher) lookup(ctx context.Context, lat, lon float64) agrivaani.Snapshot {
	fallback := agrivaani.Snapshot{Timezone: "UTC", City: "Unknown"}

	weatherText, timezone, err := e.fetchWeather(ctx, lat, lon)
	if err != nil {
		e.logger.Warn("weather lookup failed", "error", err)
		return fallback
	}

	city, err := e.fetchCity(ctx, lat, lon)
	if err != nil {
		e.logger.Warn("reverse geocoding failed", "error", err)
		return fallback
	}

	return agrivaani.Snapshot{WeatherText: weatherText, Timezone: timezone, City: city}
}

type forecastResponse struct {
	Timezone       string `json:"timezone"`
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (e *Enricher) fetchWeather(ctx context.Context, lat, lon float64) (weatherText, timezone string, err error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("current_weather", "true")
	q.Set("timezone", "auto")

	var resp forecastResponse
	if err := e.getJSON(ctx, e.forecastURL+"?"+q.Encode(), &resp); err != nil {
		return "", "", err
	}

	timezone = resp.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if resp.CurrentWeather != nil {
		desc, ok := weatherDescriptions[resp.CurrentWeather.WeatherCode]
		if !ok {
			desc = "Unknown"
		}
		weatherText = fmt.Sprintf("Temp: %g°C, %s", resp.CurrentWeather.Temperature, desc)
	}
	return weatherText, timezone, nil
}

type geocodeResponse struct {
	Address struct {
		City  string `json:"city"`
		Town  string `json:"town"`
		State string `json:"state"`
	} `json:"address"`
}

func (e *Enricher) fetchCity(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("format", "json")

	var resp geocodeResponse
	if err := e.getJSON(ctx, e.geocodeURL+"?"+q.Encode(), &resp); err != nil {
		return "", err
	}

	switch {
	case resp.Address.City != "":
		return resp.Address.City, nil
	case resp.Address.Town != "":
		return resp.Address.Town, nil
	case resp.Address.State != "":
		return resp.Address.State, nil
	}
	return "Unknown", nil
}

func (e *Enricher) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", "agrivaani/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
