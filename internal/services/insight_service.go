// Package services – InsightService
//
// This file implements InsightService, which produces mode-specific insight
// cards for a cat from its assigned sightings. Generation is deterministic
// and pure (see insight.TemplateGenerator), so the service's real job is the
// cache: results are stored keyed by (cat, mode, prompt version, context
// hash), where the context hash fingerprints the exact sightings that fed
// the generator. Any change to that set produces a new hash and therefore a
// fresh generation; unchanged inputs are answered from the stored row.
//
// A caller-supplied question is passed through to the generator and echoed
// in the output, but deliberately kept out of the cache key.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/analyze"
	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/insight"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// insightContextSightings caps how many recent sightings feed one insight.
const insightContextSightings = 10

// InsightResult is the generated insight together with its cache provenance.
type InsightResult struct {
	Insight *insight.Insight
	// Cached reports whether the insight was served from the store.
	Cached bool
	// ContextHash is the fingerprint of the sightings that fed generation.
	ContextHash string
}

// InsightService generates and caches per-cat insight cards.
type InsightService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Generator produces the insight payload from sightings.
	Generator insight.Generator
}

// NewInsightService constructs an InsightService with the template generator.
func NewInsightService(db *gorm.DB) *InsightService {
	return &InsightService{
		DB:        db,
		Generator: insight.NewTemplateGenerator(),
	}
}

// Generate returns the insight for a cat in the given mode, serving a cached
// row when the cat's recent sightings are unchanged. Mode is matched
// case-insensitively after trimming whitespace. The question, if any, flavors
// the generated summary but never affects cache identity.
func (s *InsightService) Generate(ctx context.Context, catID int64, mode, question string) (*InsightResult, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))

	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.Int64("cat.id", catID),
			attribute.String("mode", mode),
		),
	)
	defer span.End()

	if !insight.ValidMode(mode) {
		return nil, ErrInvalidMode
	}
	if _, err := repo.GetCat(ctx, s.DB, catID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatNotFound
		}
		return nil, err
	}

	sightings, err := repo.ListCatSightings(ctx, s.DB, catID, insightContextSightings)
	if err != nil {
		return nil, err
	}
	if len(sightings) == 0 {
		return nil, ErrNoSightings
	}

	contextHash := analyze.ContextHash(contextParts(sightings))
	span.SetAttributes(attribute.String("context.hash", contextHash))

	if rec, err := repo.GetCatInsight(ctx, s.DB, catID, mode, insight.PromptVersion, contextHash); err == nil {
		var cached insight.Insight
		if jsonErr := json.Unmarshal(rec.InsightJSON, &cached); jsonErr == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &InsightResult{Insight: &cached, Cached: true, ContextHash: contextHash}, nil
		}
		// Unreadable stored payload falls through to regeneration.
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	generated := s.Generator.Generate(catID, mode, sightings, question)
	payload, err := json.Marshal(&generated)
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateCatInsight(ctx, s.DB, &domain.CatInsight{
		CatID:         catID,
		Mode:          mode,
		PromptVersion: insight.PromptVersion,
		ContextHash:   contextHash,
		InsightJSON:   payload,
	}); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	return &InsightResult{Insight: &generated, Cached: false, ContextHash: contextHash}, nil
}

// contextParts renders the sightings into the canonical per-entry lines the
// context hash is computed over. Order matters: newest first, as listed.
// Only reporter-written fields participate; geocoding an entry later must
// not invalidate cached insights.
func contextParts(sightings []domain.Entry) []string {
	parts := make([]string, 0, len(sightings))
	for i := range sightings {
		e := &sightings[i]
		loc := ""
		if e.Location != nil {
			loc = *e.Location
		}
		parts = append(parts, fmt.Sprintf("id=%d createdAt=%s location=%s\ntext=%s",
			e.ID, e.CreatedAt.UTC().Format(time.RFC3339), loc, e.Text))
	}
	return parts
}
