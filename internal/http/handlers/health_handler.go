// Health HTTP handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/florianhoeppner/catatlas-backend/internal/geo"
)

// GeocoderHealthResponse reports the geocoder circuit-breaker state.
type GeocoderHealthResponse struct {
	Status       string     `json:"status"`
	BreakerState string     `json:"breaker_state"`
	FailureCount int        `json:"failure_count"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

// GeocoderHealth godoc
// @ID          geocoderHealth
// @Summary     Geocoder health
// @Description Reports the geocoding circuit breaker state. Returns 503 while the
// @Description breaker is open and geocoding requests are being rejected.
// @Tags        Health
// @Produce     json
//
// @Success     200  {object} handlers.GeocoderHealthResponse
// @Failure     503  {object} handlers.GeocoderHealthResponse "Geocoder unavailable"
// @Router      /health/geocoding [get]
func GeocoderHealth(breaker *geo.Breaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if breaker == nil {
			c.JSON(http.StatusOK, GeocoderHealthResponse{Status: "ok", BreakerState: geo.StateClosed})
			return
		}
		snap := breaker.Snapshot()
		resp := GeocoderHealthResponse{
			Status:       "ok",
			BreakerState: snap.State,
			FailureCount: snap.FailureCount,
			LastFailure:  snap.LastFailure,
		}
		status := http.StatusOK
		if snap.State == geo.StateOpen {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}
