// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the cached
// per-entry Analysis model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
)

// GetAnalysis fetches the cached analysis for an entry, or ErrNotFound.
func GetAnalysis(ctx context.Context, db *gorm.DB, entryID int64) (*domain.Analysis, error) {
	var a domain.Analysis
	err := db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAnalysis inserts the analysis row for an entry or, when one already
// exists, replaces its hash and derived fields in place. UpdatedAt moves on
// every write; CreatedAt is preserved on conflict.
func UpsertAnalysis(ctx context.Context, db *gorm.DB, a *domain.Analysis) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text_hash", "summary", "tags_json", "sentiment", "updated_at"}),
		}).
		Create(a).Error
}
