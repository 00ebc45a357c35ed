// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Entry model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an entry is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by higher-level services
// (see services.EntryService and friends) which enforce business rules,
// scoring, caching, or cross-aggregate behavior.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateEntry inserts a new sighting row. Only text is required; nickname,
// location, and photoURL may be nil. CreatedAt/UpdatedAt are set to UTC.
func CreateEntry(ctx context.Context, db *gorm.DB, text string, nickname, location, photoURL *string) (*domain.Entry, error) {
	now := time.Now().UTC()
	e := &domain.Entry{
		Text:      text,
		Nickname:  nickname,
		Location:  location,
		PhotoURL:  photoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetEntry fetches a single entry by ID, or ErrNotFound if missing.
func GetEntry(ctx context.Context, db *gorm.DB, id int64) (*domain.Entry, error) {
	var e domain.Entry
	if err := db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CountEntries returns the total number of sightings.
func CountEntries(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Entry{}).Count(&total).Error
	return total, err
}

// ListEntriesPage returns a paginated slice of entries, newest first
// (CreatedAt DESC, ID DESC as tiebreak for same-timestamp inserts).
// Use CountEntries to obtain the total for pagination metadata.
func ListEntriesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Entry, error) {
	var out []domain.Entry
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListOtherEntries returns all entries except excludeID, most recent insert
// first (ID DESC). It is the candidate pool for match scoring.
func ListOtherEntries(ctx context.Context, db *gorm.DB, excludeID int64) ([]domain.Entry, error) {
	var out []domain.Entry
	err := db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// ListGeocodedEntries returns entries other than excludeID that carry a full
// coordinate pair. When includeAssigned is false, entries already assigned to
// a cat are filtered out.
func ListGeocodedEntries(ctx context.Context, db *gorm.DB, excludeID int64, includeAssigned bool) ([]domain.Entry, error) {
	q := db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Where("location_lat IS NOT NULL AND location_lon IS NOT NULL")
	if !includeAssigned {
		q = q.Where("cat_id IS NULL")
	}
	var out []domain.Entry
	err := q.Order("id DESC").Find(&out).Error
	return out, err
}

// ListCatSightings returns the sightings assigned to catID, newest first.
// A limit <= 0 returns all of them.
func ListCatSightings(ctx context.Context, db *gorm.DB, catID int64, limit int) ([]domain.Entry, error) {
	q := db.WithContext(ctx).
		Where("cat_id = ?", catID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Entry
	err := q.Find(&out).Error
	return out, err
}

// ListEntriesByIDs fetches the given entries in one query. The result order
// is ascending by ID and may be shorter than ids when some are missing.
func ListEntriesByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Entry, error) {
	if len(ids) == 0 {
		return []domain.Entry{}, nil
	}
	var out []domain.Entry
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// ListNormalizedLocations returns up to limit entries that already carry a
// normalization result, newest first. Used to reuse a previous geocode for
// textually similar location strings when the upstream geocoder is down.
func ListNormalizedLocations(ctx context.Context, db *gorm.DB, limit int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Entry
	err := db.WithContext(ctx).
		Where("location_normalized IS NOT NULL AND location_lat IS NOT NULL AND location_lon IS NOT NULL").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SetFavorite updates the favorite flag of an entry. Returns ErrNotFound
// when the entry does not exist.
func SetFavorite(ctx context.Context, db *gorm.DB, id int64, favorite bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_favorite": favorite,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignCat sets (or clears, when catID is nil) the cat assignment of an
// entry. Returns ErrNotFound when the entry does not exist.
func AssignCat(ctx context.Context, db *gorm.DB, id int64, catID *int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"cat_id":     catID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignCatToEntries assigns catID to every entry in ids in a single update
// and returns the number of rows changed.
func AssignCatToEntries(ctx context.Context, db *gorm.DB, ids []int64, catID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"cat_id":     catID,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// UpdateLocationNormalization stores a geocoding result on the entry.
// Returns ErrNotFound when the entry does not exist.
func UpdateLocationNormalization(ctx context.Context, db *gorm.DB, id int64, normalized string, lat, lon float64, osmID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"location_normalized": normalized,
			"location_lat":        lat,
			"location_lon":        lon,
			"location_osm_id":     osmID,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
