package services

import (
	"context"
	"testing"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/insight"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"
)

func TestInsightGenerate_ValidatesModeAndCat(t *testing.T) {
	db := newServiceDB(t)
	s := NewInsightService(db)
	ctx := context.Background()

	if _, err := s.Generate(ctx, 1, "horoscope", ""); err != ErrInvalidMode {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if _, err := s.Generate(ctx, 4040, insight.ModeProfile, ""); err != ErrCatNotFound {
		t.Fatalf("expected ErrCatNotFound, got %v", err)
	}
}

func TestInsightGenerate_NoSightings(t *testing.T) {
	db := newServiceDB(t)
	s := NewInsightService(db)
	ctx := context.Background()

	cat, _ := repo.CreateCat(ctx, db, nil)
	if _, err := s.Generate(ctx, cat.ID, insight.ModeProfile, ""); err != ErrNoSightings {
		t.Fatalf("expected ErrNoSightings, got %v", err)
	}
}

func TestInsightGenerate_CachesPerContext(t *testing.T) {
	db := newServiceDB(t)
	s := NewInsightService(db)
	ctx := context.Background()

	cat, _ := repo.CreateCat(ctx, db, nil)
	e := seedEntry(t, db, "friendly orange tabby purrs at everyone", nil)
	if err := repo.AssignCat(ctx, db, e.ID, &cat.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	first, err := s.Generate(ctx, cat.ID, insight.ModeProfile, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.Cached {
		t.Fatalf("first generation must not be cached")
	}
	if first.Insight.PromptVersion != insight.PromptVersion || first.Insight.Mode != insight.ModeProfile {
		t.Fatalf("unexpected insight identity: %+v", first.Insight)
	}

	second, err := s.Generate(ctx, cat.ID, insight.ModeProfile, "")
	if err != nil {
		t.Fatalf("Generate (repeat): %v", err)
	}
	if !second.Cached || second.ContextHash != first.ContextHash {
		t.Fatalf("unchanged sightings must hit the cache: %+v", second)
	}

	// A different mode is a different cache row.
	care, err := s.Generate(ctx, cat.ID, insight.ModeCare, "")
	if err != nil || care.Cached {
		t.Fatalf("new mode must generate fresh: %+v, %v", care, err)
	}

	// A new sighting changes the context hash and regenerates.
	e2 := seedEntry(t, db, "seen limping near the old mill", nil)
	if err := repo.AssignCat(ctx, db, e2.ID, &cat.ID); err != nil {
		t.Fatalf("assign 2: %v", err)
	}
	third, err := s.Generate(ctx, cat.ID, insight.ModeProfile, "")
	if err != nil {
		t.Fatalf("Generate after new sighting: %v", err)
	}
	if third.Cached || third.ContextHash == first.ContextHash {
		t.Fatalf("new sighting must invalidate the cache: %+v", third)
	}
	found := false
	for _, f := range third.Insight.Flags {
		if f == "possible injury (limping mentioned)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("limp mention should raise the injury flag: %+v", third.Insight.Flags)
	}
}

func TestInsightGenerate_QuestionOutsideCacheKey(t *testing.T) {
	db := newServiceDB(t)
	s := NewInsightService(db)
	ctx := context.Background()

	cat, _ := repo.CreateCat(ctx, db, nil)
	e := seedEntry(t, db, "calico naps on the warm bench", nil)
	if err := repo.AssignCat(ctx, db, e.ID, &cat.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	first, err := s.Generate(ctx, cat.ID, insight.ModeUpdate, "is she ok?")
	if err != nil || first.Cached {
		t.Fatalf("first generation: %+v, %v", first, err)
	}

	// A different question still hits the same cached row.
	second, err := s.Generate(ctx, cat.ID, insight.ModeUpdate, "completely different question")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !second.Cached {
		t.Fatalf("question must not be part of the cache key")
	}

	var count int64
	if err := db.Model(&domain.CatInsight{}).Where("cat_id = ?", cat.ID).Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("expected one stored insight, got %d (%v)", count, err)
	}
}

func TestInsightGenerate_ModeCaseAndWhitespaceInsensitive(t *testing.T) {
	db := newServiceDB(t)
	s := NewInsightService(db)
	ctx := context.Background()

	cat, _ := repo.CreateCat(ctx, db, nil)
	e := seedEntry(t, db, "tuxedo cat waits by the ferry dock", nil)
	if err := repo.AssignCat(ctx, db, e.ID, &cat.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	first, err := s.Generate(ctx, cat.ID, "  PROFILE ", "")
	if err != nil {
		t.Fatalf("uppercase mode should normalize: %v", err)
	}
	if first.Insight.Mode != insight.ModeProfile {
		t.Fatalf("mode = %q", first.Insight.Mode)
	}

	// The normalized spelling shares the cache row.
	second, err := s.Generate(ctx, cat.ID, insight.ModeProfile, "")
	if err != nil || !second.Cached {
		t.Fatalf("normalized mode should replay the cached row: %+v, %v", second, err)
	}

	if _, err := s.Generate(ctx, cat.ID, "Horoscope", ""); err != ErrInvalidMode {
		t.Fatalf("unknown mode should still be rejected, got %v", err)
	}
}

func TestInsightGenerate_GeocodingDoesNotInvalidateCache(t *testing.T) {
	db := newServiceDB(t)
	s := NewInsightService(db)
	ctx := context.Background()

	cat, _ := repo.CreateCat(ctx, db, nil)
	e := seedEntry(t, db, "black cat under the pier", loc("harbor lane"))
	if err := repo.AssignCat(ctx, db, e.ID, &cat.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	first, err := s.Generate(ctx, cat.ID, insight.ModeProfile, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Resolving the location afterwards changes only derived fields; the
	// reported sighting context is unchanged.
	if err := repo.UpdateLocationNormalization(ctx, db, e.ID, "Harbor Lane, Springfield", 52.5, 13.4, "osm"); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	second, err := s.Generate(ctx, cat.ID, insight.ModeProfile, "")
	if err != nil {
		t.Fatalf("Generate after geocode: %v", err)
	}
	if !second.Cached || second.ContextHash != first.ContextHash {
		t.Fatalf("geocoding should not change the context hash: %+v", second)
	}
}
