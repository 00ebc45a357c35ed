package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Sentinel errors returned by Geocode.
var (
	// ErrNotFound means the service answered but knows no such place.
	ErrNotFound = errors.New("location not found")
	// ErrCircuitOpen means the breaker is rejecting calls; callers should
	// fall back to text-only handling rather than wait.
	ErrCircuitOpen = errors.New("geocoder circuit open")
)

// Result is a successful geocoding answer.
type Result struct {
	DisplayName string
	Lat         float64
	Lon         float64
	OSMID       string
}

// Geocoder resolves a free-text location into coordinates.
//
// Implementations must honor the context and are expected to be safe for
// concurrent use.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (*Result, error)
}

// NominatimClient is the production Geocoder backed by OpenStreetMap
// Nominatim. It rate-limits itself to the policy-mandated 1 req/s, retries
// transient failures with exponential backoff, and reports every outcome to
// the injected circuit breaker.
type NominatimClient struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
	Breaker   *Breaker

	// MaxRetries counts retries after the first attempt.
	MaxRetries int
	// BaseDelay seeds the exponential backoff (doubled per attempt,
	// capped at MaxDelay, jittered ±25%).
	BaseDelay time.Duration
	MaxDelay  time.Duration

	limiter *rate.Limiter
}

// NewNominatimClient constructs a client with the default public endpoint,
// user agent, timeouts, and retry posture. The breaker must not be nil.
func NewNominatimClient(breaker *Breaker) *NominatimClient {
	return &NominatimClient{
		BaseURL:    "https://nominatim.openstreetmap.org/search",
		UserAgent:  "CatAtlas/1.0 (cat-sighting-tracker)",
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		Breaker:    breaker,
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
}

// Geocode resolves location via Nominatim. It returns ErrCircuitOpen when
// the breaker rejects the call, ErrNotFound when the service has no answer,
// and a wrapped transport error after retries are exhausted.
func (c *NominatimClient) Geocode(ctx context.Context, location string) (*Result, error) {
	if c.Breaker != nil && !c.Breaker.CanExecute() {
		return nil, ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, c.backoffDelay(attempt-1)); err != nil {
				break
			}
		}

		res, err := c.query(ctx, location)
		if err == nil {
			if c.Breaker != nil {
				// A definitive "no such place" still proves the service works.
				c.Breaker.RecordSuccess()
			}
			if res == nil {
				return nil, ErrNotFound
			}
			return res, nil
		}
		lastErr = err
	}

	if c.Breaker != nil {
		c.Breaker.RecordFailure()
	}
	return nil, fmt.Errorf("geocode %q: %w", location, lastErr)
}

// nominatimPlace mirrors the relevant slice of the Nominatim JSON schema.
// Coordinates arrive as strings; osm_id as a number.
type nominatimPlace struct {
	DisplayName string      `json:"display_name"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	OSMID       json.Number `json:"osm_id"`
}

// query performs one rate-limited HTTP round trip. A (nil, nil) return
// means the service answered with zero results.
func (c *NominatimClient) query(ctx context.Context, location string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim lon %q: %w", p.Lon, err)
	}

	return &Result{
		DisplayName: p.DisplayName,
		Lat:         lat,
		Lon:         lon,
		OSMID:       p.OSMID.String(),
	}, nil
}

// backoffDelay computes the jittered exponential delay for a retry attempt.
func (c *NominatimClient) backoffDelay(attempt int) time.Duration {
	d := c.BaseDelay << uint(attempt)
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	// ±25% jitter to avoid thundering-herd retries.
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}

// sleepBackoff waits for d or until the context is done.
func sleepBackoff(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
