// Package services – MatchService
//
// This file implements MatchService, the component that answers "is this the
// same cat?" questions. It wraps the deterministic scoring core in
// internal/match with candidate retrieval, threshold filtering, ranking, and
// request parameter clamping, so handlers can pass user input through
// unchecked.
//
// Two queries are offered: FindMatches ranks all other sightings by a blended
// text/location/distance score, and FindNearby ranks geocoded sightings by
// raw haversine distance around an already-geocoded base entry.
package services

import (
	"context"
	"errors"
	"sort"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/match"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMatchTopK = 5
	maxMatchTopK     = 20

	defaultNearbyTopK   = 10
	maxNearbyTopK       = 50
	defaultNearbyRadius = 500.0
	maxNearbyRadius     = 5000.0

	previewRunes = 100
)

// MatchCandidate is one scored candidate sighting.
type MatchCandidate struct {
	EntryID   int64    `json:"entry_id"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
	Nickname  *string  `json:"nickname,omitempty"`
	Location  *string  `json:"location,omitempty"`
	Preview   string   `json:"preview"`
	CatID     *int64   `json:"cat_id,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// NearbyEntry is one sighting within the nearby radius. Besides the raw
// distance it carries the blended match score so callers can see why a hit
// is (or is not) a plausible re-sighting.
type NearbyEntry struct {
	EntryID        int64    `json:"entry_id"`
	DistanceMeters float64  `json:"distance_meters"`
	Score          float64  `json:"score"`
	Reasons        []string `json:"reasons"`
	Location       *string  `json:"location,omitempty"`
	Preview        string   `json:"preview"`
	CatID          *int64   `json:"cat_id,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

// MatchService scores sightings against each other.
type MatchService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Scorer holds the blend weights and the distance decay horizon.
	Scorer match.Scorer
	// MinScore is the default candidate threshold applied when the caller
	// does not override it.
	MinScore float64
	// DefaultRadiusMeters is the nearby search radius applied when the
	// caller does not override it.
	DefaultRadiusMeters float64
}

// NewMatchService constructs a MatchService with the default scoring posture.
func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{
		DB:                  db,
		Scorer:              match.NewScorer(),
		MinScore:            0.15,
		DefaultRadiusMeters: defaultNearbyRadius,
	}
}

// FindMatches scores every other sighting against entryID and returns the
// top candidates at or above the score threshold, best first. topK is
// clamped to [1, 20] with a default of 5; minScore <= 0 falls back to the
// service default. Ties keep candidate-scan order, which is newest insert
// first.
func (s *MatchService) FindMatches(ctx context.Context, entryID int64, topK int, minScore float64) ([]MatchCandidate, error) {
	tr := otel.Tracer("services/MatchService")
	ctx, span := tr.Start(ctx, "FindMatches",
		trace.WithAttributes(
			attribute.Int64("entry.id", entryID),
			attribute.Int("top_k", topK),
		),
	)
	defer span.End()

	if topK <= 0 {
		topK = defaultMatchTopK
	}
	if topK > maxMatchTopK {
		topK = maxMatchTopK
	}
	if minScore <= 0 {
		minScore = s.MinScore
	}
	if minScore > 1 {
		minScore = 1
	}

	base, err := repo.GetEntry(ctx, s.DB, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	candidates, err := repo.ListOtherEntries(ctx, s.DB, entryID)
	if err != nil {
		return nil, err
	}

	baseInput := scoreInput(base)
	out := make([]MatchCandidate, 0, topK)
	for i := range candidates {
		c := &candidates[i]
		score, reasons := s.Scorer.Score(baseInput, scoreInput(c))
		if score < minScore {
			continue
		}
		out = append(out, MatchCandidate{
			EntryID:   c.ID,
			Score:     score,
			Reasons:   reasons,
			Nickname:  c.Nickname,
			Location:  c.Location,
			Preview:   preview(c.Text),
			CatID:     c.CatID,
			CreatedAt: c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	span.SetAttributes(attribute.Int("candidates", len(out)))
	return out, nil
}

// FindNearby returns geocoded sightings within radiusMeters of entryID,
// closest first. The base entry must already carry coordinates, otherwise
// ErrNoCoordinates is returned. radiusMeters is clamped to [1, 5000] with a
// default of 500; topK to [1, 50] with a default of 10. When includeAssigned
// is false, sightings already assigned to a cat are skipped.
func (s *MatchService) FindNearby(ctx context.Context, entryID int64, radiusMeters float64, topK int, includeAssigned bool) ([]NearbyEntry, error) {
	tr := otel.Tracer("services/MatchService")
	ctx, span := tr.Start(ctx, "FindNearby",
		trace.WithAttributes(
			attribute.Int64("entry.id", entryID),
			attribute.Float64("radius_m", radiusMeters),
		),
	)
	defer span.End()

	if radiusMeters <= 0 {
		radiusMeters = s.DefaultRadiusMeters
	}
	if radiusMeters > maxNearbyRadius {
		radiusMeters = maxNearbyRadius
	}
	if topK <= 0 {
		topK = defaultNearbyTopK
	}
	if topK > maxNearbyTopK {
		topK = maxNearbyTopK
	}

	base, err := repo.GetEntry(ctx, s.DB, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if !base.HasCoords() {
		return nil, ErrNoCoordinates
	}

	candidates, err := repo.ListGeocodedEntries(ctx, s.DB, entryID, includeAssigned)
	if err != nil {
		return nil, err
	}

	baseInput := scoreInput(base)
	out := make([]NearbyEntry, 0, topK)
	for i := range candidates {
		c := &candidates[i]
		d := match.Haversine(*base.LocationLat, *base.LocationLon, *c.LocationLat, *c.LocationLon)
		if d > radiusMeters {
			continue
		}
		score, reasons := s.Scorer.Score(baseInput, scoreInput(c))
		out = append(out, NearbyEntry{
			EntryID:        c.ID,
			DistanceMeters: d,
			Score:          score,
			Reasons:        reasons,
			Location:       c.Location,
			Preview:        preview(c.Text),
			CatID:          c.CatID,
			CreatedAt:      c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	if len(out) > topK {
		out = out[:topK]
	}
	span.SetAttributes(attribute.Int("nearby", len(out)))
	return out, nil
}

// scoreInput adapts a persisted entry into scoring input. Scoring sees the
// location text as the reporter wrote it; the normalized form only feeds the
// coordinate fields.
func scoreInput(e *domain.Entry) match.Input {
	in := match.Input{Text: e.Text, Lat: e.LocationLat, Lon: e.LocationLon}
	if e.Location != nil {
		in.Location = *e.Location
	}
	return in
}

// preview clips a note to the first 100 runes for list payloads.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}
