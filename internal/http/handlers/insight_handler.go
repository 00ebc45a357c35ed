// Insight HTTP handlers.
//
// This file exposes the cached insight endpoint for cats:
//   - POST /cats/{id}/insights (generate or replay an insight for a mode)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/florianhoeppner/catatlas-backend/internal/insight"
	"github.com/florianhoeppner/catatlas-backend/internal/services"
)

// InsightRequest is the JSON payload for requesting a cat insight.
type InsightRequest struct {
	// Mode selects the insight angle: profile, care, update, or risk.
	Mode string `json:"mode" binding:"required" example:"profile"`
	// Question optionally focuses the insight; it does not affect caching.
	Question string `json:"question" example:"Is this cat in good shape?"`
}

// InsightResponse wraps a generated insight and its cache metadata.
type InsightResponse struct {
	Insight     *insight.Insight `json:"insight"`
	Cached      bool             `json:"cached"`
	ContextHash string           `json:"context_hash"`
}

// GenerateInsight godoc
// @ID          generateInsight
// @Summary     Generate an insight for a cat
// @Description Produces a structured insight over the cat's recent sightings.
// @Description Results are cached per (cat, mode, prompt version, sighting context);
// @Description repeating a request with unchanged sightings replays the stored insight.
// @Tags        Insights
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                       true  "Cat ID"  minimum(1)
// @Param       body  body  handlers.InsightRequest   true  "Insight request"
//
// @Success     200  {object} handlers.InsightResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request or cat has no sightings"
// @Failure     404  {object} handlers.ErrorResponse "Cat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cats/{id}/insights [post]
func (h *Handlers) GenerateInsight(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	var req InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode required")
		return
	}

	res, err := h.insightSvc.Generate(c.Request.Context(), id, req.Mode, req.Question)
	if err != nil {
		switch err {
		case services.ErrInvalidMode:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode must be one of: profile, care, update, risk")
		case services.ErrCatNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "cat not found")
		case services.ErrNoSightings:
			fail(c, http.StatusBadRequest, ErrCodeInvalidState, "cat has no sightings; link some first")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, InsightResponse{
		Insight:     res.Insight,
		Cached:      res.Cached,
		ContextHash: res.ContextHash,
	})
}
