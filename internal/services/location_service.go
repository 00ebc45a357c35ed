// Package services – LocationService
//
// This file implements LocationService, which normalizes free-text sighting
// locations into canonical names and coordinates via the Nominatim geocoder.
// The upstream is rate-limited and fails in practice, so every outcome is
// reported as an explicit status instead of an error: a sighting without a
// location, an already-normalized sighting, a location the geocoder does not
// know, and an upstream failure are all ordinary results.
//
// When the geocoder is unavailable, a best-effort fallback reuses the
// coordinates of a previously normalized sighting whose location text is
// sufficiently similar.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/geo"
	"github.com/florianhoeppner/catatlas-backend/internal/match"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Normalization statuses reported by NormalizeLocation.
const (
	StatusSuccess           = "success"
	StatusNotFound          = "not_found"
	StatusAlreadyNormalized = "already_normalized"
	StatusNoLocation        = "no_location"
	StatusError             = "error"
)

// Similarity floor for reusing a cached geocode when the upstream is down.
const cachedLocationMinSimilarity = 0.5

// NormalizeResult reports the outcome of one normalization attempt.
type NormalizeResult struct {
	Status     string   `json:"status"`
	EntryID    int64    `json:"entry_id"`
	Normalized *string  `json:"location_normalized,omitempty"`
	Lat        *float64 `json:"location_lat,omitempty"`
	Lon        *float64 `json:"location_lon,omitempty"`
	// Source is "geocoder" or "cache" on success.
	Source string `json:"source,omitempty"`
	// Message carries a short explanation for error statuses.
	Message string `json:"message,omitempty"`
}

// LocationService normalizes sighting locations via an external geocoder.
type LocationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Geocoder resolves free-text locations to coordinates.
	Geocoder geo.Geocoder
	// CacheScanLimit caps how many normalized sightings the fallback scans.
	CacheScanLimit int
}

// NewLocationService constructs a LocationService around the given geocoder.
func NewLocationService(db *gorm.DB, geocoder geo.Geocoder) *LocationService {
	return &LocationService{
		DB:             db,
		Geocoder:       geocoder,
		CacheScanLimit: 100,
	}
}

// Normalize resolves the entry's raw location text via the geocoder and
// stores the result on the entry. force retries an already-normalized entry.
func (s *LocationService) Normalize(ctx context.Context, entryID int64, force bool) (*NormalizeResult, error) {
	tr := otel.Tracer("services/LocationService")
	ctx, span := tr.Start(ctx, "Normalize",
		trace.WithAttributes(
			attribute.Int64("entry.id", entryID),
			attribute.Bool("force", force),
		),
	)
	defer span.End()

	entry, err := repo.GetEntry(ctx, s.DB, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	if entry.Location == nil || strings.TrimSpace(*entry.Location) == "" {
		return &NormalizeResult{Status: StatusNoLocation, EntryID: entryID}, nil
	}
	if entry.LocationNormalized != nil && !force {
		return &NormalizeResult{
			Status:     StatusAlreadyNormalized,
			EntryID:    entryID,
			Normalized: entry.LocationNormalized,
			Lat:        entry.LocationLat,
			Lon:        entry.LocationLon,
		}, nil
	}

	location := strings.TrimSpace(*entry.Location)

	res, err := s.Geocoder.Geocode(ctx, location)
	switch {
	case err == nil:
		if uerr := repo.UpdateLocationNormalization(ctx, s.DB, entryID, res.DisplayName, res.Lat, res.Lon, res.OSMID); uerr != nil {
			return nil, uerr
		}
		span.SetAttributes(attribute.String("geocode.source", "geocoder"))
		return &NormalizeResult{
			Status:     StatusSuccess,
			EntryID:    entryID,
			Normalized: &res.DisplayName,
			Lat:        &res.Lat,
			Lon:        &res.Lon,
			Source:     "geocoder",
		}, nil

	case errors.Is(err, geo.ErrNotFound):
		return &NormalizeResult{
			Status:  StatusNotFound,
			EntryID: entryID,
			Message: "geocoder returned no result for this location",
		}, nil

	default:
		// Upstream failure or open circuit: try reusing a similar cached geocode.
		if cached := s.similarCached(ctx, entryID, location); cached != nil {
			if uerr := repo.UpdateLocationNormalization(ctx, s.DB, entryID,
				*cached.LocationNormalized, *cached.LocationLat, *cached.LocationLon, derefOr(cached.LocationOSMID, "")); uerr != nil {
				return nil, uerr
			}
			span.SetAttributes(attribute.String("geocode.source", "cache"))
			return &NormalizeResult{
				Status:     StatusSuccess,
				EntryID:    entryID,
				Normalized: cached.LocationNormalized,
				Lat:        cached.LocationLat,
				Lon:        cached.LocationLon,
				Source:     "cache",
			}, nil
		}
		span.RecordError(err)
		return &NormalizeResult{
			Status:  StatusError,
			EntryID: entryID,
			Message: err.Error(),
		}, nil
	}
}

// similarCached scans recently normalized sightings for one whose raw
// location text overlaps the query enough to reuse its coordinates.
// Returns nil when nothing qualifies.
func (s *LocationService) similarCached(ctx context.Context, excludeID int64, location string) *domain.Entry {
	cached, err := repo.ListNormalizedLocations(ctx, s.DB, s.CacheScanLimit)
	if err != nil {
		return nil
	}

	var best *domain.Entry
	bestScore := cachedLocationMinSimilarity
	for i := range cached {
		c := &cached[i]
		if c.ID == excludeID || c.Location == nil {
			continue
		}
		sim := match.LocationSimilarity(location, *c.Location)
		if sim > bestScore {
			bestScore = sim
			best = c
		}
	}
	return best
}

func derefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
