// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Cat model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
)

// CreateCat inserts a new cat row. Name may be nil for an anonymous cat.
func CreateCat(ctx context.Context, db *gorm.DB, name *string) (*domain.Cat, error) {
	c := &domain.Cat{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetCat fetches a cat by ID, or ErrNotFound if missing.
func GetCat(ctx context.Context, db *gorm.DB, id int64) (*domain.Cat, error) {
	var c domain.Cat
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCats returns all cats, most recently created first.
func ListCats(ctx context.Context, db *gorm.DB) ([]domain.Cat, error) {
	var out []domain.Cat
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CountCatSightings returns the number of entries assigned to catID.
func CountCatSightings(ctx context.Context, db *gorm.DB, catID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("cat_id = ?", catID).
		Count(&total).Error
	return total, err
}

// UpdateCatName sets the display name of a cat. Returns ErrNotFound when the
// cat does not exist.
func UpdateCatName(ctx context.Context, db *gorm.DB, id int64, name string) error {
	res := db.WithContext(ctx).
		Model(&domain.Cat{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
