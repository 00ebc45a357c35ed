// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for cached cat
// insights, keyed by (cat_id, mode, prompt_version, context_hash).
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
)

// GetCatInsight fetches the cached insight matching the full cache key,
// or ErrNotFound when no matching row exists.
func GetCatInsight(ctx context.Context, db *gorm.DB, catID int64, mode, promptVersion, contextHash string) (*domain.CatInsight, error) {
	var rec domain.CatInsight
	err := db.WithContext(ctx).
		Where("cat_id = ? AND mode = ? AND prompt_version = ? AND context_hash = ?",
			catID, mode, promptVersion, contextHash).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateCatInsight persists a freshly generated insight. A concurrent insert
// of the same cache key is not an error: the existing row is fetched and
// returned instead, so both callers see the same cached artifact.
func CreateCatInsight(ctx context.Context, db *gorm.DB, rec *domain.CatInsight) (*domain.CatInsight, error) {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return GetCatInsight(ctx, db, rec.CatID, rec.Mode, rec.PromptVersion, rec.ContextHash)
		}
		return nil, err
	}
	return rec, nil
}
