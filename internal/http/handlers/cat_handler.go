// Cat HTTP handlers.
//
// This file exposes REST endpoints for cat resources:
//   - POST /cats                      (register a cat)
//   - GET  /cats                      (list, with sighting counts)
//   - GET  /cats/{id}/profile        (aggregate profile from sightings)
//   - PUT  /cats/{id}/name           (rename)
//   - POST /cats/{id}/link-sightings (assign a batch of sightings)
//   - POST /cats/from-sightings      (create a cat from existing sightings)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/services"
)

//
// DTOs
//

// CreateCatRequest is the JSON payload for registering a cat.
type CreateCatRequest struct {
	// Name optionally names the cat; anonymous cats get a placeholder display name.
	Name string `json:"name" example:"miss whiskers"`
}

// UpdateCatNameRequest is the JSON payload for renaming a cat.
type UpdateCatNameRequest struct {
	// Name is the new cat name (1–100 chars).
	Name string `json:"name" binding:"required,min=1,max=100" example:"Marmalade"`
}

// LinkSightingsRequest is the JSON payload for linking sightings to a cat.
type LinkSightingsRequest struct {
	EntryIDs []int64 `json:"entry_ids" binding:"required,min=1"`
}

// CatFromSightingsRequest is the JSON payload for creating a cat from sightings.
type CatFromSightingsRequest struct {
	Name     string  `json:"name" example:"Smokey"`
	EntryIDs []int64 `json:"entry_ids" binding:"required,min=1"`
}

// LinkSightingsResponse reports how many sightings were linked.
type LinkSightingsResponse struct {
	CatID  int64 `json:"cat_id"`
	Linked int64 `json:"linked"`
}

// CatFromSightingsResponse wraps the created cat and the link count.
type CatFromSightingsResponse struct {
	Cat    *domain.Cat `json:"cat"`
	Linked int64       `json:"linked"`
}

// ListCatsResponse wraps the cat roster.
type ListCatsResponse struct {
	Cats []services.CatWithCount `json:"cats"`
}

//
// Handlers
//

// CreateCat godoc
// @ID          createCat
// @Summary     Register a cat
// @Description Creates a cat record, optionally named, and returns the resource.
// @Tags        Cats
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateCatRequest  true  "Create cat payload"
//
// @Success     201  {object} domain.Cat
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cats [post]
func (h *Handlers) CreateCat(c *gin.Context) {
	var req CreateCatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	cat, err := h.catSvc.Create(c.Request.Context(), optional(req.Name))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, cat)
}

// ListCats godoc
// @ID          listCats
// @Summary     List cats
// @Description Returns all cats, newest first, each with its sighting count.
// @Tags        Cats
// @Produce     json
//
// @Success     200  {object} handlers.ListCatsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cats [get]
func (h *Handlers) ListCats(c *gin.Context) {
	cats, err := h.catSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListCatsResponse{Cats: cats})
}

// CatProfile godoc
// @ID          catProfile
// @Summary     Fetch a cat's profile
// @Description Aggregates the cat's sighting history into a profile: display name,
// @Description first and last seen timestamps, known locations, and recent sightings.
// @Tags        Cats
// @Produce     json
//
// @Param       id  path  int  true  "Cat ID"  minimum(1)
//
// @Success     200  {object} services.CatProfile
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Cat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cats/{id}/profile [get]
func (h *Handlers) CatProfile(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	p, err := h.catSvc.Profile(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrCatNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "cat not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateCatName godoc
// @ID          updateCatName
// @Summary     Rename a cat
// @Description Updates the cat's name and returns the updated resource.
// @Tags        Cats
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                              true  "Cat ID"  minimum(1)
// @Param       body  body  handlers.UpdateCatNameRequest    true  "New name"
//
// @Success     200  {object} domain.Cat
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Cat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cats/{id}/name [put]
func (h *Handlers) UpdateCatName(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	var req UpdateCatNameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (1–100 chars)")
		return
	}

	cat, err := h.catSvc.UpdateName(c.Request.Context(), id, req.Name)
	if err != nil {
		switch err {
		case services.ErrCatNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "cat not found")
		case services.ErrEmptyName:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (1–100 chars)")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, cat)
}

// LinkSightings godoc
// @ID          linkSightings
// @Summary     Link sightings to a cat
// @Description Assigns the given sightings to an existing cat. Unknown sighting IDs
// @Description are skipped; the response reports how many were actually linked.
// @Tags        Cats
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                             true  "Cat ID"  minimum(1)
// @Param       body  body  handlers.LinkSightingsRequest   true  "Sighting IDs"
//
// @Success     200  {object} handlers.LinkSightingsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Cat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cats/{id}/link-sightings [post]
func (h *Handlers) LinkSightings(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	var req LinkSightingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.EntryIDs) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry_ids required")
		return
	}

	linked, err := h.catSvc.LinkSightings(c.Request.Context(), id, req.EntryIDs)
	if err != nil {
		switch err {
		case services.ErrCatNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "cat not found")
		case services.ErrNoSightingIDs:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry_ids required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, LinkSightingsResponse{CatID: id, Linked: linked})
}

// CatFromSightings godoc
// @ID          catFromSightings
// @Summary     Create a cat from sightings
// @Description Creates a cat and links the given sightings in one transaction.
// @Description If none of the sightings exist, nothing is created.
// @Tags        Cats
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CatFromSightingsRequest  true  "Cat and sighting IDs"
//
// @Success     201  {object} handlers.CatFromSightingsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "No sightings found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cats/from-sightings [post]
func (h *Handlers) CatFromSightings(c *gin.Context) {
	var req CatFromSightingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.EntryIDs) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry_ids required")
		return
	}

	cat, linked, err := h.catSvc.FromSightings(c.Request.Context(), optional(req.Name), req.EntryIDs)
	if err != nil {
		switch err {
		case services.ErrNoSightingIDs:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry_ids required")
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no matching entries found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, CatFromSightingsResponse{Cat: cat, Linked: linked})
}
