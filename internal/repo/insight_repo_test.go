package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
)

func newInsightRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("insight_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Cat{}, &domain.Entry{}, &domain.CatInsight{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreateCatInsight_RoundTrip(t *testing.T) {
	db := newInsightRepoDB(t)
	ctx := context.Background()

	cat, _ := CreateCat(ctx, db, nil)
	rec := &domain.CatInsight{
		CatID:         cat.ID,
		Mode:          "profile",
		PromptVersion: "v1",
		ContextHash:   "cafe",
		InsightJSON:   datatypes.JSON(`{"headline":"Cat #1 — Profile"}`),
	}
	created, err := CreateCatInsight(ctx, db, rec)
	if err != nil {
		t.Fatalf("CreateCatInsight: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("missing generated ID")
	}

	got, err := GetCatInsight(ctx, db, cat.ID, "profile", "v1", "cafe")
	if err != nil {
		t.Fatalf("GetCatInsight: %v", err)
	}
	if string(got.InsightJSON) != `{"headline":"Cat #1 — Profile"}` {
		t.Fatalf("payload mismatch: %s", got.InsightJSON)
	}
}

func TestCreateCatInsight_DuplicateKeyReturnsExisting(t *testing.T) {
	db := newInsightRepoDB(t)
	ctx := context.Background()

	cat, _ := CreateCat(ctx, db, nil)
	first := &domain.CatInsight{
		CatID: cat.ID, Mode: "care", PromptVersion: "v1", ContextHash: "dead",
		InsightJSON: datatypes.JSON(`{"n":1}`),
	}
	if _, err := CreateCatInsight(ctx, db, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	dup := &domain.CatInsight{
		CatID: cat.ID, Mode: "care", PromptVersion: "v1", ContextHash: "dead",
		InsightJSON: datatypes.JSON(`{"n":2}`),
	}
	got, err := CreateCatInsight(ctx, db, dup)
	if err != nil {
		t.Fatalf("duplicate insert should resolve to existing row, got %v", err)
	}
	if string(got.InsightJSON) != `{"n":1}` {
		t.Fatalf("expected original cached payload, got %s", got.InsightJSON)
	}
}

func TestGetCatInsight_KeyMismatch(t *testing.T) {
	db := newInsightRepoDB(t)
	ctx := context.Background()

	cat, _ := CreateCat(ctx, db, nil)
	rec := &domain.CatInsight{
		CatID: cat.ID, Mode: "risk", PromptVersion: "v1", ContextHash: "beef",
		InsightJSON: datatypes.JSON(`{}`),
	}
	if _, err := CreateCatInsight(ctx, db, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Any changed component of the key misses the cache.
	if _, err := GetCatInsight(ctx, db, cat.ID, "risk", "v1", "0000"); err != ErrNotFound {
		t.Fatalf("context hash mismatch should be ErrNotFound, got %v", err)
	}
	if _, err := GetCatInsight(ctx, db, cat.ID, "profile", "v1", "beef"); err != ErrNotFound {
		t.Fatalf("mode mismatch should be ErrNotFound, got %v", err)
	}
	if _, err := GetCatInsight(ctx, db, cat.ID, "risk", "v2", "beef"); err != ErrNotFound {
		t.Fatalf("prompt version mismatch should be ErrNotFound, got %v", err)
	}
}
