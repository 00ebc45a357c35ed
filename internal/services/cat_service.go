// Package services – CatService
//
// This file implements CatService, which manages cat identities and their
// relationship to sightings. A cat may be created empty, created directly
// from a set of sightings, or have further sightings linked later. The
// profile view aggregates a cat's sightings into first/last seen times and
// the set of reported locations.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/analyze"
	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CatWithCount pairs a cat with the number of sightings assigned to it.
type CatWithCount struct {
	domain.Cat
	SightingsCount int64 `json:"sightings_count"`
}

// CatProfile is the aggregated view of a cat and its sighting history.
type CatProfile struct {
	Cat            domain.Cat     `json:"cat"`
	DisplayName    string         `json:"display_name"`
	SightingsCount int            `json:"sightings_count"`
	FirstSeen      *time.Time     `json:"first_seen,omitempty"`
	LastSeen       *time.Time     `json:"last_seen,omitempty"`
	Locations      []string       `json:"locations"`
	TopTags        []string       `json:"top_tags"`
	Temperament    string         `json:"temperament_guess"`
	ProfileText    string         `json:"profile_text"`
	Sightings      []domain.Entry `json:"sightings"`
}

// Profile aggregation knobs. Locations are capped so the card stays a card;
// the summary cap keeps the narrative to a couple of sentences.
const (
	profileTopTags      = 8
	profileMaxLocations = 5
	profileSummaryRunes = 220
)

// CatService provides cat-level operations: creation, listing, renaming,
// and linking sightings to an identity.
type CatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// NameMaxLen caps stored names by rune length.
	NameMaxLen int

	titleCaser cases.Caser
}

// NewCatService constructs a CatService with sane defaults.
func NewCatService(db *gorm.DB) *CatService {
	return &CatService{
		DB:         db,
		NameMaxLen: 100,
		titleCaser: cases.Title(language.English, cases.NoLower),
	}
}

// Create inserts a new cat. A blank name yields an anonymous cat.
func (s *CatService) Create(ctx context.Context, name *string) (*domain.Cat, error) {
	tr := otel.Tracer("services/CatService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	return repo.CreateCat(ctx, s.DB, s.normalizeName(name))
}

// Get fetches a cat by ID, or ErrCatNotFound.
func (s *CatService) Get(ctx context.Context, id int64) (*domain.Cat, error) {
	tr := otel.Tracer("services/CatService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("cat.id", id)),
	)
	defer span.End()

	c, err := repo.GetCat(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCatNotFound
	}
	return c, err
}

// List returns all cats, newest first, each with its sighting count.
func (s *CatService) List(ctx context.Context) ([]CatWithCount, error) {
	tr := otel.Tracer("services/CatService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	cats, err := repo.ListCats(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := make([]CatWithCount, 0, len(cats))
	for _, c := range cats {
		n, err := repo.CountCatSightings(ctx, s.DB, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CatWithCount{Cat: c, SightingsCount: n})
	}
	return out, nil
}

// UpdateName renames a cat. Blank names are rejected with ErrEmptyName.
func (s *CatService) UpdateName(ctx context.Context, id int64, name string) (*domain.Cat, error) {
	tr := otel.Tracer("services/CatService")
	ctx, span := tr.Start(ctx, "UpdateName",
		trace.WithAttributes(attribute.Int64("cat.id", id)),
	)
	defer span.End()

	normalized := s.normalizeName(&name)
	if normalized == nil {
		return nil, ErrEmptyName
	}
	if err := repo.UpdateCatName(ctx, s.DB, id, *normalized); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// LinkSightings assigns the given entries to an existing cat and returns the
// number of entries actually updated. Unknown entry IDs are skipped silently.
func (s *CatService) LinkSightings(ctx context.Context, catID int64, entryIDs []int64) (int64, error) {
	tr := otel.Tracer("services/CatService")
	ctx, span := tr.Start(ctx, "LinkSightings",
		trace.WithAttributes(
			attribute.Int64("cat.id", catID),
			attribute.Int("entry.count", len(entryIDs)),
		),
	)
	defer span.End()

	if len(entryIDs) == 0 {
		return 0, ErrNoSightingIDs
	}
	if _, err := repo.GetCat(ctx, s.DB, catID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCatNotFound
		}
		return 0, err
	}
	return repo.AssignCatToEntries(ctx, s.DB, entryIDs, catID)
}

// FromSightings creates a new cat and assigns the given entries to it in one
// transaction. At least one entry must exist; otherwise the creation rolls
// back and ErrEntryNotFound is returned.
func (s *CatService) FromSightings(ctx context.Context, name *string, entryIDs []int64) (*domain.Cat, int64, error) {
	tr := otel.Tracer("services/CatService")
	ctx, span := tr.Start(ctx, "FromSightings",
		trace.WithAttributes(attribute.Int("entry.count", len(entryIDs))),
	)
	defer span.End()

	if len(entryIDs) == 0 {
		return nil, 0, ErrNoSightingIDs
	}

	var cat *domain.Cat
	var linked int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.CreateCat(ctx, tx, s.normalizeName(name))
		if err != nil {
			return err
		}
		n, err := repo.AssignCatToEntries(ctx, tx, entryIDs, c.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEntryNotFound
		}
		cat, linked = c, n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return cat, linked, nil
}

// Profile aggregates a cat's sightings into a profile view: first/last seen,
// the most recent distinct locations, top note tags, a temperament guess
// derived from note sentiment, and a templated narrative. The sighting list
// is newest first; first/last seen stay nil for a cat with no sightings.
func (s *CatService) Profile(ctx context.Context, catID int64) (*CatProfile, error) {
	tr := otel.Tracer("services/CatService")
	ctx, span := tr.Start(ctx, "Profile",
		trace.WithAttributes(attribute.Int64("cat.id", catID)),
	)
	defer span.End()

	cat, err := repo.GetCat(ctx, s.DB, catID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatNotFound
		}
		return nil, err
	}

	sightings, err := repo.ListCatSightings(ctx, s.DB, catID, 0)
	if err != nil {
		return nil, err
	}

	p := &CatProfile{
		Cat:            *cat,
		DisplayName:    s.displayName(cat),
		SightingsCount: len(sightings),
		Locations:      []string{},
		TopTags:        []string{},
		Sightings:      sightings,
	}
	if len(sightings) == 0 {
		p.Temperament = "unknown"
		p.ProfileText = "No sightings assigned yet. Assign sightings to build a profile."
		return p, nil
	}

	texts := make([]string, 0, len(sightings))
	seen := map[string]struct{}{}
	for _, e := range sightings {
		// Newest first, so the last element is the earliest sighting.
		created := e.CreatedAt
		if p.LastSeen == nil {
			p.LastSeen = &created
		}
		first := created
		p.FirstSeen = &first

		texts = append(texts, e.Text)

		if e.Location == nil {
			continue
		}
		loc := strings.TrimSpace(*e.Location)
		if loc == "" {
			continue
		}
		if _, dup := seen[loc]; !dup && len(p.Locations) < profileMaxLocations {
			seen[loc] = struct{}{}
			p.Locations = append(p.Locations, loc)
		}
	}

	allText := strings.Join(texts, "\n")
	p.TopTags = analyze.Tags(allText, profileTopTags)

	switch analyze.Sentiment(allText) {
	case "positive":
		p.Temperament = "friendly"
	case "negative":
		p.Temperament = "defensive / cautious"
	default:
		p.Temperament = "unknown / neutral"
	}

	locationHint := "unknown area"
	if len(p.Locations) > 0 {
		locationHint = p.Locations[0]
	}
	tagList := "none yet"
	if len(p.TopTags) > 0 {
		tagList = strings.Join(p.TopTags, ", ")
	}
	p.ProfileText = fmt.Sprintf(
		"%s is a community-tracked street cat most often seen around %s. "+
			"Based on %d sighting(s), the current temperament guess is '%s'. "+
			"Common tags from notes: %s. "+
			"Summary of recent notes: %s",
		p.DisplayName, locationHint, p.SightingsCount, p.Temperament,
		tagList, analyze.Summary(allText, profileSummaryRunes),
	)
	return p, nil
}

// displayName returns the cat's name, title-cased, or a numbered placeholder.
func (s *CatService) displayName(c *domain.Cat) string {
	if c.Name != nil && strings.TrimSpace(*c.Name) != "" {
		return s.titleCaser.String(strings.TrimSpace(*c.Name))
	}
	return fmt.Sprintf("Cat #%d", c.ID)
}

// normalizeName trims and collapses whitespace; blank input maps to nil.
func (s *CatService) normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	n := strings.Join(strings.Fields(*name), " ")
	if n == "" {
		return nil
	}
	if s.NameMaxLen > 0 {
		runes := []rune(n)
		if len(runes) > s.NameMaxLen {
			n = string(runes[:s.NameMaxLen])
		}
	}
	return &n
}
