package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/ems_dispatch_system/internal/service"
)

// @Summary List recent notifications
// @Description Returns the ten most recent notifications, newest first.
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string "No authentication context"
// @Router /notifications [get]
func (h *Handler) listNotifications(c *gin.Context) {
	log := h.logger.WithField("method", "listNotifications")

	notifications, err := h.notifications.ListNotifications(c.Request.Context())
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	items := make([]*NotificationResponse, len(notifications))
	for i, notification := range notifications {
		items[i] = ModelToNotificationResponse(notification)
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}

// @Summary Create a notification
// @Description Create a manual notification. Admin and dispatcher only.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param notification body CreateNotificationRequest true "Notification creation request"
// @Success 201 {object} NotificationResponse
// @Failure 400 {object} map[string]string "Missing required field"
// @Failure 403 {object} map[string]string "Role may not create notifications"
// @Router /notifications [post]
func (h *Handler) createNotification(c *gin.Context) {
	log := h.logger.WithField("method", "createNotification")

	var input CreateNotificationRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.notifications.CreateNotification(c.Request.Context(), service.CreateNotificationInput{
		Title:    input.Title,
		Message:  input.Message,
		Category: input.Category,
		Area:     input.Area,
	}, identityFrom(c))
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, ModelToNotificationResponse(notification))
}
