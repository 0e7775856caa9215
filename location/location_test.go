package location

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type providerFixture struct {
	forecast      *httptest.Server
	geocode       *httptest.Server
	forecastCalls int
	geocodeCalls  int
}

func newProviderFixture(t *testing.T) *providerFixture {
	t.Helper()
	f := &providerFixture{}
	f.forecast = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.forecastCalls++
		if got := r.URL.Query().Get("current_weather"); got != "true" {
			t.Errorf("current_weather = %q, want true", got)
		}
		fmt.Fprint(w, `{"timezone":"Asia/Kolkata","current_weather":{"temperature":28.5,"weathercode":2}}`)
	}))
	t.Cleanup(f.forecast.Close)
	f.geocode = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.geocodeCalls++
		fmt.Fprint(w, `{"address":{"town":"Wardha","state":"Maharashtra"}}`)
	}))
	t.Cleanup(f.geocode.Close)
	return f
}

func newTestEnricher(f *providerFixture, clock *fakeClock) *Enricher {
	return NewEnricher(
		WithForecastURL(f.forecast.URL),
		WithGeocodeURL(f.geocode.URL),
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestEnrichCombinesProviders(t *testing.T) {
	f := newProviderFixture(t)
	clock := &fakeClock{now: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	e := newTestEnricher(f, clock)

	snap := e.Enrich(context.Background(), 20.74, 78.6)
	if snap.WeatherText != "Temp: 28.5°C, Partly cloudy" {
		t.Errorf("WeatherText = %q", snap.WeatherText)
	}
	if snap.Timezone != "Asia/Kolkata" {
		t.Errorf("Timezone = %q", snap.Timezone)
	}
	// No city in the response; town is next in priority.
	if snap.City != "Wardha" {
		t.Errorf("City = %q, want Wardha", snap.City)
	}
}

func TestEnrichCachesWithinTTL(t *testing.T) {
	f := newProviderFixture(t)
	clock := &fakeClock{now: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	e := newTestEnricher(f, clock)

	ctx := context.Background()
	first := e.Enrich(ctx, 20.74, 78.6)
	clock.Advance(4 * time.Minute)
	second := e.Enrich(ctx, 20.74, 78.6)

	if first != second {
		t.Errorf("cached snapshot differs: %+v vs %+v", first, second)
	}
	if f.forecastCalls != 1 || f.geocodeCalls != 1 {
		t.Errorf("providers called %d/%d times, want 1/1", f.forecastCalls, f.geocodeCalls)
	}

	// Distinct coordinates are a distinct cache key.
	e.Enrich(ctx, 19.07, 72.87)
	if f.forecastCalls != 2 {
		t.Errorf("new coordinates should trigger a fresh lookup, calls = %d", f.forecastCalls)
	}
}

func TestEnrichRefreshesAfterTTL(t *testing.T) {
	f := newProviderFixture(t)
	clock := &fakeClock{now: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	e := newTestEnricher(f, clock)

	ctx := context.Background()
	e.Enrich(ctx, 20.74, 78.6)
	clock.Advance(5*time.Minute + time.Second)
	e.Enrich(ctx, 20.74, 78.6)

	if f.forecastCalls != 2 || f.geocodeCalls != 2 {
		t.Errorf("providers called %d/%d times, want 2/2", f.forecastCalls, f.geocodeCalls)
	}
}

func TestEnrichFallsBackAndCachesFailure(t *testing.T) {
	calls := 0
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer broken.Close()

	f := newProviderFixture(t)
	clock := &fakeClock{now: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	e := NewEnricher(
		WithForecastURL(broken.URL),
		WithGeocodeURL(f.geocode.URL),
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx := context.Background()
	snap := e.Enrich(ctx, 20.74, 78.6)
	want := struct{ w, tz, city string }{"", "UTC", "Unknown"}
	if snap.WeatherText != want.w || snap.Timezone != want.tz || snap.City != want.city {
		t.Errorf("fallback snapshot = %+v", snap)
	}

	// The failure is cached: no retry storm inside the TTL window.
	clock.Advance(time.Minute)
	e.Enrich(ctx, 20.74, 78.6)
	if calls != 1 {
		t.Errorf("failed lookup retried within TTL, calls = %d", calls)
	}

	clock.Advance(5 * time.Minute)
	e.Enrich(ctx, 20.74, 78.6)
	if calls != 2 {
		t.Errorf("failed lookup not retried after TTL, calls = %d", calls)
	}
}

func TestWeatherCodeUnknown(t *testing.T) {
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"timezone":"UTC","current_weather":{"temperature":30,"weathercode":99}}`)
	}))
	defer forecast.Close()
	f := newProviderFixture(t)
	clock := &fakeClock{now: time.Now()}
	e := NewEnricher(
		WithForecastURL(forecast.URL),
		WithGeocodeURL(f.geocode.URL),
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	snap := e.Enrich(context.Background(), 1, 2)
	if snap.WeatherText != "Temp: 30°C, Unknown" {
		t.Errorf("WeatherText = %q", snap.WeatherText)
	}
}
