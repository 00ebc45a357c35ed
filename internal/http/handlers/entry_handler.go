// Sighting HTTP handlers.
//
// This file exposes REST endpoints for sighting resources:
//   - POST /entries                      (report a sighting, idempotent via Idempotency-Key)
//   - GET  /entries                      (list, paginated)
//   - GET  /entries/{id}                 (fetch one)
//   - POST /entries/{id}/favorite       (toggle favorite)
//   - POST /entries/{id}/assign-cat     (assign or detach a cat)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (client, key), the handler returns that recorded sighting
// and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/http/middleware"
	"github.com/florianhoeppner/catatlas-backend/internal/repo"
	"github.com/florianhoeppner/catatlas-backend/internal/services"
	"github.com/florianhoeppner/catatlas-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// EntryService defines sighting lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type EntryService interface {
	// Create validates and stores a new sighting.
	Create(ctx context.Context, text string, nickname, location, photoURL *string) (*domain.Entry, error)
	// Get fetches a sighting by ID.
	Get(ctx context.Context, id int64) (*domain.Entry, error)
	// ListPage returns a page of sightings, newest first, and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Entry, int64, error)
	// ToggleFavorite flips the favorite flag and returns the updated sighting.
	ToggleFavorite(ctx context.Context, id int64) (*domain.Entry, error)
	// AssignCat assigns (nil catID detaches) the sighting to a cat.
	AssignCat(ctx context.Context, id int64, catID *int64) (*domain.Entry, error)
}

// MatchService defines duplicate-detection and proximity queries.
type MatchService interface {
	// FindMatches scores other sightings against the given one.
	FindMatches(ctx context.Context, entryID int64, topK int, minScore float64) ([]services.MatchCandidate, error)
	// FindNearby returns geocoded sightings within a radius of the given one.
	FindNearby(ctx context.Context, entryID int64, radiusMeters float64, topK int, includeAssigned bool) ([]services.NearbyEntry, error)
}

// AnalysisService defines content analysis operations for sightings.
type AnalysisService interface {
	// Analyze computes (or returns cached) analysis for a sighting.
	Analyze(ctx context.Context, entryID int64) (*services.AnalysisResult, error)
	// Get returns the stored analysis for a sighting, if any.
	Get(ctx context.Context, entryID int64) (*domain.Analysis, error)
}

// CatService defines cat profile and linking operations.
type CatService interface {
	// Create registers a new cat with an optional name.
	Create(ctx context.Context, name *string) (*domain.Cat, error)
	// List returns all cats with their sighting counts, newest first.
	List(ctx context.Context) ([]services.CatWithCount, error)
	// UpdateName renames a cat.
	UpdateName(ctx context.Context, id int64, name string) (*domain.Cat, error)
	// LinkSightings assigns a batch of sightings to an existing cat.
	LinkSightings(ctx context.Context, catID int64, entryIDs []int64) (int64, error)
	// FromSightings creates a cat and links the given sightings atomically.
	FromSightings(ctx context.Context, name *string, entryIDs []int64) (*domain.Cat, int64, error)
	// Profile aggregates a cat's sighting history into a profile view.
	Profile(ctx context.Context, catID int64) (*services.CatProfile, error)
}

// InsightService defines cached insight generation for cats.
type InsightService interface {
	// Generate returns an insight for the cat, cached by context hash.
	Generate(ctx context.Context, catID int64, mode, question string) (*services.InsightResult, error)
}

// LocationService defines location normalization via geocoding.
type LocationService interface {
	// Normalize resolves a sighting's free-text location to coordinates.
	Normalize(ctx context.Context, entryID int64, force bool) (*services.NormalizeResult, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for sightings, cats, and insights.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	entrySvc    EntryService
	matchSvc    MatchService
	analysisSvc AnalysisService
	catSvc      CatService
	insightSvc  InsightService
	locSvc      LocationService

	// DB backs the idempotent-create record keeping. A nil handle disables
	// replay; creates still go through normally.
	DB *gorm.DB
	// MaxTextRunes is the note length cap enforced at the edge, mirroring
	// the service-side guard so oversized payloads fail fast.
	MaxTextRunes int
	// DefaultRadiusMeters is echoed in nearby responses when the caller
	// does not supply a radius.
	DefaultRadiusMeters float64
	// IdempotencyTTL bounds how long a recorded idempotent result replays.
	IdempotencyTTL time.Duration
}

// New constructs a Handlers instance bound to the given services, with
// default edge limits. Callers override the exported fields to align the
// limits with application configuration.
func New(entrySvc EntryService, matchSvc MatchService, analysisSvc AnalysisService, catSvc CatService, insightSvc InsightService, locSvc LocationService) *Handlers {
	return &Handlers{
		entrySvc:    entrySvc,
		matchSvc:    matchSvc,
		analysisSvc: analysisSvc,
		catSvc:      catSvc,
		insightSvc:  insightSvc,
		locSvc:      locSvc,

		MaxTextRunes:        services.DefaultMaxTextRunes,
		DefaultRadiusMeters: 500,
		IdempotencyTTL:      24 * time.Hour,
	}
}

//
// DTOs
//

// CreateEntryRequest is the JSON payload for reporting a sighting.
type CreateEntryRequest struct {
	// Text is the free-text sighting note. It must be non-empty.
	Text string `json:"text" binding:"required,min=1" example:"Orange tabby with a torn left ear near the bakery on Main St"`
	// Nickname optionally names the cat as the reporter knows it.
	Nickname string `json:"nickname" example:"Marmalade"`
	// Location is the reporter's free-text location description.
	Location string `json:"location" example:"Main St bakery, Springfield"`
	// PhotoURL optionally links a photo of the sighting.
	PhotoURL string `json:"photo_url" example:"https://img.example.com/cat123.jpg"`
}

// AssignCatRequest is the JSON payload for assigning a sighting to a cat.
// A null cat_id detaches the sighting.
type AssignCatRequest struct {
	CatID *int64 `json:"cat_id" example:"7"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListEntriesResponse wraps a page of sightings and pagination information.
type ListEntriesResponse struct {
	Entries    []domain.Entry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// parseID parses a positive int64 path parameter, failing the request with a
// 400 when the value is malformed. The bool result reports success.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// optional maps a blank form value to nil so the service stores NULL.
func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

//
// Handlers
//

// CreateEntry godoc
// @ID          createEntry
// @Summary     Report a sighting
// @Description Stores a new cat sighting and returns the created resource.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Entries
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateEntryRequest  true  "Sighting payload"
//
// @Success     201  {object}  domain.Entry
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entries [post]
func (h *Handlers) CreateEntry(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	// Early size cap to fail fast at the edge.
	text := strings.TrimSpace(req.Text)
	if h.MaxTextRunes > 0 && utf8.RuneCountInString(text) > h.MaxTextRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("text too long: max %d runes", h.MaxTextRunes))
		return
	}
	if text == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	clientID := middleware.ClientID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.DB, clientID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetEntry(ctx, h.DB, rec.EntryID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	// Normal processing (service has a second guard for length).
	e, err := h.entrySvc.Create(ctx, text, optional(req.Nickname), optional(req.Location), optional(req.PhotoURL))
	if err != nil {
		switch err {
		case services.ErrEmptyText:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		case services.ErrTextTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("text too long: max %d runes", h.MaxTextRunes))
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.DB != nil {
		_, _ = repo.CreateIdempotency(ctx, h.DB, clientID, idemKey, e.ID, http.StatusCreated, h.IdempotencyTTL)
	}

	ok(c, http.StatusCreated, e)
}

// ListEntries godoc
// @ID          listEntries
// @Summary     List sightings (paginated)
// @Description Returns a page of sightings, newest first.
// @Tags        Entries
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListEntriesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries [get]
func (h *Handlers) ListEntries(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.entrySvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListEntriesResponse{
		Entries: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetEntry godoc
// @ID          getEntry
// @Summary     Fetch a sighting
// @Description Returns a single sighting by ID.
// @Tags        Entries
// @Produce     json
//
// @Param       id  path  int  true  "Sighting ID"  minimum(1)
//
// @Success     200  {object} domain.Entry
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sighting not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id} [get]
func (h *Handlers) GetEntry(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	e, err := h.entrySvc.Get(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, e)
}

// ToggleFavorite godoc
// @ID          toggleFavorite
// @Summary     Toggle a sighting's favorite flag
// @Description Flips the favorite flag of a sighting and returns the updated resource.
// @Tags        Entries
// @Produce     json
//
// @Param       id  path  int  true  "Sighting ID"  minimum(1)
//
// @Success     200  {object} domain.Entry
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sighting not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id}/favorite [post]
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	e, err := h.entrySvc.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, e)
}

// AssignCat godoc
// @ID          assignCat
// @Summary     Assign a sighting to a cat
// @Description Assigns the sighting to the given cat, or detaches it when cat_id is null.
// @Tags        Entries
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                          true  "Sighting ID"  minimum(1)
// @Param       body  body  handlers.AssignCatRequest    true  "Assignment payload"
//
// @Success     200  {object} domain.Entry
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sighting or cat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id}/assign-cat [post]
func (h *Handlers) AssignCat(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	var req AssignCatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	e, err := h.entrySvc.AssignCat(c.Request.Context(), id, req.CatID)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		case services.ErrCatNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "cat not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, e)
}
