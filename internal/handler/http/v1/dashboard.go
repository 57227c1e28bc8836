package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/ems_dispatch_system/internal/service"
)

// @Summary Dashboard statistics
// @Description Aggregate counts, a per-type incident histogram and the seven most recent incidents.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string "No authentication context"
// @Router /dashboard/stats [get]
func (h *Handler) dashboardStats(c *gin.Context) {
	log := h.logger.WithField("method", "dashboardStats")

	stats, err := h.incidents.DashboardStats(c.Request.Context())
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_incidents":      stats.TotalIncidents,
		"active_incidents":     stats.ActiveIncidents,
		"total_responders":     stats.TotalResponders,
		"available_responders": stats.AvailableResponders,
		"total_equipment":      stats.TotalEquipment,
		"available_equipment":  stats.AvailableEquipment,
		"incidents_by_type":    stats.IncidentsByType,
		"recent_incidents":     ModelsToIncidentResponses(stats.RecentIncidents),
		"last_updated":         stats.LastUpdated,
	})
}

// @Summary Incident map locations
// @Description All incidents that carry coordinates, projected for the map view.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string "No authentication context"
// @Router /incidents/locations [get]
func (h *Handler) incidentLocations(c *gin.Context) {
	log := h.logger.WithField("method", "incidentLocations")

	locations, err := h.incidents.IncidentLocations(c.Request.Context())
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	items := make([]*LocationResponse, len(locations))
	for i, location := range locations {
		items[i] = ModelToLocationResponse(location)
	}
	c.JSON(http.StatusOK, gin.H{"locations": items})
}

// @Summary Current weather
// @Description Current conditions for the configured service area.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} weather.Conditions
// @Failure 503 {object} map[string]string "Weather data unavailable"
// @Router /weather [get]
func (h *Handler) currentWeather(c *gin.Context) {
	log := h.logger.WithField("method", "currentWeather")

	conditions, err := h.weather.Current(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("Weather lookup failed")
		h.serviceError(c, log, fmt.Errorf("%w: weather data unavailable", service.ErrUpstreamUnavailable))
		return
	}
	c.JSON(http.StatusOK, conditions)
}

// @Summary Get application health status
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "EMS Dispatch System API",
	})
}
