package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API.
// Все маршруты под /api (кроме health-check) требуют контекст аутентификации.
func (h *Handler) RegisterRoutes(router *gin.Engine, provider IdentityProvider) {
	// Отдача фотографий по непрозрачной ссылке
	router.GET("/uploads/:name", h.uploadedPhoto)

	api := router.Group("/api")
	api.GET("/system/health", h.healthCheck)

	authed := api.Group("")
	authed.Use(IdentityMiddleware(provider, h.logger))
	{
		incidents := authed.Group("/incidents")
		{
			incidents.GET("", h.listIncidents)
			incidents.POST("", h.createIncident)
			incidents.GET("/locations", h.incidentLocations)
			incidents.GET("/:id", h.getIncident)
			incidents.PUT("/:id", h.updateIncident)
			incidents.DELETE("/:id", h.deleteIncident)
		}

		authed.GET("/responders", h.listResponders)
		authed.POST("/responders", h.createResponder)

		authed.GET("/equipment", h.listEquipment)
		authed.POST("/equipment", h.createEquipment)

		authed.GET("/notifications", h.listNotifications)
		authed.POST("/notifications", h.createNotification)

		authed.GET("/dashboard/stats", h.dashboardStats)
		authed.GET("/weather", h.currentWeather)
	}
}
