// Location HTTP handlers.
//
// This file exposes the location-normalization endpoint:
//   - POST /entries/{id}/normalize-location (resolve free text to coordinates)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/florianhoeppner/catatlas-backend/internal/services"
	"github.com/florianhoeppner/catatlas-backend/internal/utils"
)

// NormalizeLocation godoc
// @ID          normalizeLocation
// @Summary     Normalize a sighting's location
// @Description Resolves the sighting's free-text location into a canonical name and
// @Description coordinates via the geocoder. When the geocoder is unavailable the
// @Description handler may fall back to a sufficiently similar, already-geocoded
// @Description location from another sighting.
// @Tags        Locations
// @Produce     json
//
// @Param       id     path   int      true  "Sighting ID"                           minimum(1)
// @Param       force  query  boolean  false "Re-geocode even if already normalized"  default(false)
//
// @Success     200  {object} services.NormalizeResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sighting not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id}/normalize-location [post]
func (h *Handlers) NormalizeLocation(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}
	force := utils.ParseBoolDefault(c.Query("force"), false)

	res, err := h.locSvc.Normalize(c.Request.Context(), id, force)
	if err != nil {
		switch err {
		case services.ErrEntryNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}
