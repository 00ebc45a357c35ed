// Package services – AnalysisService
//
// This file implements AnalysisService, which maintains the cached baseline
// analysis of each sighting (summary, tags, sentiment). Results are keyed by
// a hash of the normalized note text: a repeat request for unchanged text is
// answered from the cache without recomputation, and an edit invalidates the
// row lazily on the next analyze call.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/analyze"
	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnalysisResult is the analysis payload together with its cache provenance.
type AnalysisResult struct {
	Analysis *domain.Analysis
	// Cached reports whether the result was served from the cache without
	// recomputation.
	Cached bool
}

// AnalysisService computes and caches per-sighting analyses.
type AnalysisService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// SummaryMaxRunes caps generated summaries.
	SummaryMaxRunes int
	// TagCount is the number of tags kept per analysis.
	TagCount int
}

// NewAnalysisService constructs an AnalysisService with default output sizes.
func NewAnalysisService(db *gorm.DB) *AnalysisService {
	return &AnalysisService{
		DB:              db,
		SummaryMaxRunes: analyze.DefaultSummaryLen,
		TagCount:        analyze.DefaultTagCount,
	}
}

// Analyze returns the analysis for a sighting, computing and persisting it
// only when no cached row exists or the note text has changed since the
// cached row was written. A cache hit leaves the stored row untouched.
func (s *AnalysisService) Analyze(ctx context.Context, entryID int64) (*AnalysisResult, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Analyze",
		trace.WithAttributes(attribute.Int64("entry.id", entryID)),
	)
	defer span.End()

	entry, err := repo.GetEntry(ctx, s.DB, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	hash := analyze.TextHash(entry.Text)

	cached, err := repo.GetAnalysis(ctx, s.DB, entryID)
	if err == nil && cached.TextHash == hash {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &AnalysisResult{Analysis: cached, Cached: true}, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	a := &domain.Analysis{
		EntryID:   entryID,
		TextHash:  hash,
		Summary:   analyze.Summary(entry.Text, s.SummaryMaxRunes),
		Sentiment: analyze.Sentiment(entry.Text),
	}
	a.SetTags(analyze.Tags(entry.Text, s.TagCount))
	if cached != nil {
		a.CreatedAt = cached.CreatedAt
	}

	if err := repo.UpsertAnalysis(ctx, s.DB, a); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	return &AnalysisResult{Analysis: a, Cached: false}, nil
}

// Get returns the cached analysis without recomputation, or
// ErrAnalysisNotFound when none has been produced yet. The row may be stale
// relative to the current note text; use Analyze to refresh.
func (s *AnalysisService) Get(ctx context.Context, entryID int64) (*domain.Analysis, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("entry.id", entryID)),
	)
	defer span.End()

	if _, err := repo.GetEntry(ctx, s.DB, entryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	a, err := repo.GetAnalysis(ctx, s.DB, entryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnalysisNotFound
	}
	return a, err
}
