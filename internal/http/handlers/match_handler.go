// Match HTTP handlers.
//
// This file exposes duplicate-detection and proximity endpoints:
//   - GET /entries/{id}/matches   (score other sightings against this one)
//   - GET /entries/{id}/nearby    (geocoded sightings within a radius)
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/florianhoeppner/catatlas-backend/internal/services"
	"github.com/florianhoeppner/catatlas-backend/internal/utils"
)

// MatchesResponse wraps the ranked match candidates for a sighting.
type MatchesResponse struct {
	EntryID int64                     `json:"entry_id"`
	Matches []services.MatchCandidate `json:"matches"`
}

// NearbyResponse wraps the sightings found within the requested radius.
type NearbyResponse struct {
	EntryID      int64                  `json:"entry_id"`
	RadiusMeters float64                `json:"radius_m"`
	Nearby       []services.NearbyEntry `json:"nearby"`
}

// queryInt reads an optional integer query parameter and enforces its range.
// An absent parameter yields 0, which services replace with their default.
// Malformed or out-of-range values fail the request with a 400 before any
// service call; the bool result reports whether the request may proceed.
func queryInt(c *gin.Context, name string, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("%s must be an integer in [%d, %d]", name, min, max))
		return 0, false
	}
	return v, true
}

// queryFloat is queryInt for float-valued parameters.
func queryFloat(c *gin.Context, name string, min, max float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < min || v > max {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("%s must be a number in [%g, %g]", name, min, max))
		return 0, false
	}
	return v, true
}

// FindMatches godoc
// @ID          findMatches
// @Summary     Find likely duplicate sightings
// @Description Scores every other sighting against this one by text and location
// @Description similarity and returns the top candidates above the score threshold.
// @Tags        Matching
// @Produce     json
//
// @Param       id         path   int     true  "Sighting ID"                      minimum(1)
// @Param       top_k      query  int     false "Max candidates to return"         minimum(1) maximum(20) default(5)
// @Param       min_score  query  number  false "Minimum combined score"           minimum(0) maximum(1) default(0.15)
//
// @Success     200  {object} handlers.MatchesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sighting not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id}/matches [get]
func (h *Handlers) FindMatches(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	topK, okQ := queryInt(c, "top_k", 1, 20)
	if !okQ {
		return
	}
	minScore, okQ := queryFloat(c, "min_score", 0, 1)
	if !okQ {
		return
	}

	matches, err := h.matchSvc.FindMatches(c.Request.Context(), id, topK, minScore)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, MatchesResponse{EntryID: id, Matches: matches})
}

// FindNearby godoc
// @ID          findNearby
// @Summary     Find sightings near this one
// @Description Returns geocoded sightings within the given radius, closest first.
// @Description The sighting itself must have coordinates (normalize its location first).
// @Tags        Matching
// @Produce     json
//
// @Param       id                path   int      true  "Sighting ID"                       minimum(1)
// @Param       radius_m          query  number   false "Search radius in meters"           minimum(1) maximum(5000) default(500)
// @Param       top_k             query  int      false "Max results to return"             minimum(1) maximum(50) default(10)
// @Param       include_assigned  query  boolean  false "Include sightings already assigned to a cat"  default(true)
//
// @Success     200  {object} handlers.NearbyResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request or sighting has no coordinates"
// @Failure     404  {object} handlers.ErrorResponse "Sighting not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id}/nearby [get]
func (h *Handlers) FindNearby(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	radius, okQ := queryFloat(c, "radius_m", 1, 5000)
	if !okQ {
		return
	}
	topK, okQ := queryInt(c, "top_k", 1, 50)
	if !okQ {
		return
	}
	includeAssigned := utils.ParseBoolDefault(c.Query("include_assigned"), true)

	nearby, err := h.matchSvc.FindNearby(c.Request.Context(), id, radius, topK, includeAssigned)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		case services.ErrNoCoordinates:
			fail(c, http.StatusBadRequest, ErrCodeInvalidState, "entry has no coordinates; normalize its location first")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	if radius <= 0 {
		radius = h.DefaultRadiusMeters
	}
	ok(c, http.StatusOK, NearbyResponse{EntryID: id, RadiusMeters: radius, Nearby: nearby})
}
