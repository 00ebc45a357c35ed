// Package services – EntryService
//
// This file implements EntryService, which owns the lifecycle of community
// cat sightings. It validates and normalizes the free-text note, coordinates
// repository operations for creating, fetching, and listing (with pagination)
// sightings, and handles the small mutable surface of an entry: the favorite
// flag and the cat assignment.
//
// Service-level errors (e.g., ErrEntryNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// entry identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EntryRepo defines the repository contract required by EntryService.
type EntryRepo interface {
	CreateEntry(ctx context.Context, db *gorm.DB, text string, nickname, location, photoURL *string) (*domain.Entry, error)
	GetEntry(ctx context.Context, db *gorm.DB, id int64) (*domain.Entry, error)
	CountEntries(ctx context.Context, db *gorm.DB) (int64, error)
	ListEntriesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Entry, error)
	SetFavorite(ctx context.Context, db *gorm.DB, id int64, favorite bool) error
	AssignCat(ctx context.Context, db *gorm.DB, id int64, catID *int64) error
	GetCat(ctx context.Context, db *gorm.DB, id int64) (*domain.Cat, error)
}

// gormEntryRepo adapts the package-level repo functions to EntryRepo.
type gormEntryRepo struct{}

func (gormEntryRepo) CreateEntry(ctx context.Context, db *gorm.DB, text string, nickname, location, photoURL *string) (*domain.Entry, error) {
	return repo.CreateEntry(ctx, db, text, nickname, location, photoURL)
}
func (gormEntryRepo) GetEntry(ctx context.Context, db *gorm.DB, id int64) (*domain.Entry, error) {
	return repo.GetEntry(ctx, db, id)
}
func (gormEntryRepo) CountEntries(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountEntries(ctx, db)
}
func (gormEntryRepo) ListEntriesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Entry, error) {
	return repo.ListEntriesPage(ctx, db, offset, limit)
}
func (gormEntryRepo) SetFavorite(ctx context.Context, db *gorm.DB, id int64, favorite bool) error {
	return repo.SetFavorite(ctx, db, id, favorite)
}
func (gormEntryRepo) AssignCat(ctx context.Context, db *gorm.DB, id int64, catID *int64) error {
	return repo.AssignCat(ctx, db, id, catID)
}
func (gormEntryRepo) GetCat(ctx context.Context, db *gorm.DB, id int64) (*domain.Cat, error) {
	return repo.GetCat(ctx, db, id)
}

// DefaultMaxTextRunes is the note length cap applied after trimming. Notes
// longer than this are rejected rather than clipped.
const DefaultMaxTextRunes = 5000

// EntryService provides sighting-level operations such as creating, listing,
// favoriting, and assigning sightings to cats.
type EntryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the entry repository used by this service.
	Repo EntryRepo

	// MaxTextRunes caps stored notes by rune length (0 disables the cap).
	MaxTextRunes int
}

// NewEntryService constructs an EntryService with sane defaults.
func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{
		DB:           db,
		Repo:         gormEntryRepo{},
		MaxTextRunes: DefaultMaxTextRunes,
	}
}

// Create validates and persists a new sighting. The note is trimmed; blank
// optional fields are stored as NULL.
func (s *EntryService) Create(ctx context.Context, text string, nickname, location, photoURL *string) (*domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(text) > s.MaxTextRunes {
		return nil, ErrTextTooLong
	}
	return s.Repo.CreateEntry(ctx, s.DB, text, blankToNil(nickname), blankToNil(location), blankToNil(photoURL))
}

// Get fetches a sighting by ID, or ErrEntryNotFound.
func (s *EntryService) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("entry.id", id)),
	)
	defer span.End()

	e, err := s.Repo.GetEntry(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

// ListPage returns a page of sightings, newest first. It applies defaults
// for invalid page/pageSize and returns the total count.
func (s *EntryService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Entry, int64, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountEntries(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Entry{}, 0, nil
	}

	items, err := s.Repo.ListEntriesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// ToggleFavorite flips the favorite flag of a sighting and returns the
// updated entry.
func (s *EntryService) ToggleFavorite(ctx context.Context, id int64) (*domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "ToggleFavorite",
		trace.WithAttributes(attribute.Int64("entry.id", id)),
	)
	defer span.End()

	e, err := s.Repo.GetEntry(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetFavorite(ctx, s.DB, id, !e.IsFavorite); err != nil {
		return nil, err
	}
	e.IsFavorite = !e.IsFavorite
	return e, nil
}

// AssignCat assigns (or, with a nil catID, detaches) a sighting to a cat.
// The cat must exist when catID is non-nil.
func (s *EntryService) AssignCat(ctx context.Context, id int64, catID *int64) (*domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "AssignCat",
		trace.WithAttributes(attribute.Int64("entry.id", id)),
	)
	defer span.End()

	if catID != nil {
		if _, err := s.Repo.GetCat(ctx, s.DB, *catID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCatNotFound
			}
			return nil, err
		}
	}
	if err := s.Repo.AssignCat(ctx, s.DB, id, catID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// blankToNil maps nil or whitespace-only optional strings to NULL.
func blankToNil(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	if t == "" {
		return nil
	}
	return &t
}
