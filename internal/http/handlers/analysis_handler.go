// Analysis HTTP handlers.
//
// This file exposes content-analysis endpoints for sightings:
//   - POST /entries/{id}/analyze   (compute or reuse cached analysis)
//   - GET  /entries/{id}/analysis  (fetch stored analysis)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/services"
)

// AnalyzeResponse wraps an analysis result and whether it was served from cache.
type AnalyzeResponse struct {
	Analysis *domain.Analysis `json:"analysis"`
	Cached   bool             `json:"cached"`
}

// AnalyzeEntry godoc
// @ID          analyzeEntry
// @Summary     Analyze a sighting's note
// @Description Computes summary, tags, and sentiment for the sighting text.
// @Description Results are cached by text hash; re-analyzing unchanged text is a no-op.
// @Tags        Analysis
// @Produce     json
//
// @Param       id  path  int  true  "Sighting ID"  minimum(1)
//
// @Success     200  {object} handlers.AnalyzeResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sighting not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id}/analyze [post]
func (h *Handlers) AnalyzeEntry(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	res, err := h.analysisSvc.Analyze(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AnalyzeResponse{Analysis: res.Analysis, Cached: res.Cached})
}

// GetAnalysis godoc
// @ID          getAnalysis
// @Summary     Fetch a sighting's stored analysis
// @Description Returns the stored analysis for the sighting, if one exists.
// @Tags        Analysis
// @Produce     json
//
// @Param       id  path  int  true  "Sighting ID"  minimum(1)
//
// @Success     200  {object} domain.Analysis
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sighting or analysis not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id}/analysis [get]
func (h *Handlers) GetAnalysis(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	a, err := h.analysisSvc.Get(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		case services.ErrAnalysisNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no analysis for entry; run analyze first")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, a)
}
