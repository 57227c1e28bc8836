package v1

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/ems_dispatch_system/internal/config"
	"github.com/shenikar/ems_dispatch_system/internal/service"
	"github.com/shenikar/ems_dispatch_system/internal/weather"
	"github.com/sirupsen/logrus"
)

// Максимальный размер загружаемой фотографии
const maxPhotoSize = 16 << 20 // 16MB

// WeatherProvider определяет контракт погодного сервиса для дашборда
type WeatherProvider interface {
	Current(ctx context.Context) (*weather.Conditions, error)
}

type Handler struct {
	incidents     service.IncidentService
	registry      service.RegistryService
	notifications service.NotificationService
	weather       WeatherProvider
	logger        *logrus.Logger
	validate      *validator.Validate
	cfg           *config.Config
}

func NewHandler(
	incidents service.IncidentService,
	registry service.RegistryService,
	notifications service.NotificationService,
	weatherProvider WeatherProvider,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		incidents:     incidents,
		registry:      registry,
		notifications: notifications,
		weather:       weatherProvider,
		logger:        logger,
		validate:      validator.New(),
		cfg:           cfg,
	}
}

// serviceError сопоставляет ошибку сервиса со статус-кодом и JSON-ответом
func (h *Handler) serviceError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnsupportedMedia):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// @Summary Create a new incident
// @Description Report a new emergency incident with an optional photo attachment.
// @Tags Incidents
// @Accept mpfd
// @Produce json
// @Param type formData string true "Incident category, e.g. medical or fire"
// @Param location formData string true "Street address"
// @Param description formData string true "Free-text description"
// @Param priority formData string true "Priority" Enums(low, medium, high, critical)
// @Param reported_by formData string false "Reporter display name"
// @Param photo formData file false "Photo attachment (png, jpg, jpeg, gif, pdf)"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string "Missing required field"
// @Failure 401 {object} map[string]string "No authentication context"
// @Failure 415 {object} map[string]string "Unsupported file type"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	log := h.logger.WithField("method", "createIncident")

	var form CreateIncidentForm
	if err := c.ShouldBind(&form); err != nil {
		log.WithError(err).Warn("Failed to bind form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(form); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CreateIncidentInput{
		Type:               form.Type,
		Location:           form.Location,
		Description:        form.Description,
		Priority:           form.Priority,
		ReportedBy:         form.ReportedBy,
		AssignedResponders: splitList(form.AssignedResponders),
		EquipmentNeeded:    splitList(form.EquipmentNeeded),
	}

	file, err := c.FormFile("photo")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		log.WithError(err).Warn("Failed to read photo part")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo upload"})
		return
	}
	if file != nil {
		if file.Size > maxPhotoSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "photo exceeds the 16MB limit"})
			return
		}
		src, err := file.Open()
		if err != nil {
			log.WithError(err).Error("Failed to open uploaded photo")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		defer src.Close()
		input.Photo = &service.PhotoUpload{
			Filename:    file.Filename,
			Content:     src,
			Size:        file.Size,
			ContentType: file.Header.Get("Content-Type"),
		}
	}

	incident, err := h.incidents.CreateIncident(c.Request.Context(), input, identityFrom(c))
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Incident created successfully",
		"incident_id": incident.ID,
		"incident":    ModelToIncidentResponse(incident),
	})
}

// @Summary List incidents
// @Description List incidents filtered by status and priority. Public callers only see their own reports.
// @Tags Incidents
// @Produce json
// @Param status query string false "Status filter" Enums(active, in_progress, resolved, closed)
// @Param priority query string false "Priority filter" Enums(low, medium, high, critical)
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string "No authentication context"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	filter := service.IncidentFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}

	incidents, err := h.incidents.ListIncidents(c.Request.Context(), filter, identityFrom(c))
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidents": ModelsToIncidentResponses(incidents),
		"count":     len(incidents),
	})
}

// @Summary Get incident by ID
// @Tags Incidents
// @Produce json
// @Param id path int true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidents.GetIncident(c.Request.Context(), id, identityFrom(c))
	if err != nil {
		h.serviceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an incident
// @Description Apply a partial update. Only status, assigned_responders and equipment_needed are mutable; other fields are silently dropped.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path int true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident patch"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 403 {object} map[string]string "Role may not update incidents"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 422 {object} map[string]string "Invalid status transition"
// @Router /incidents/{id} [put]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
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

	patch := service.IncidentPatch{
		Status:             input.Status,
		AssignedResponders: input.AssignedResponders,
		EquipmentNeeded:    input.EquipmentNeeded,
	}

	incident, err := h.incidents.UpdateIncident(c.Request.Context(), id, patch, identityFrom(c))
	if err != nil {
		h.serviceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Delete an incident
// @Description Permanently delete an incident. Admin only.
// @Tags Incidents
// @Produce json
// @Param id path int true "Incident ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Role may not delete incidents"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "deleteIncident").WithField("id", id)

	if err := h.incidents.DeleteIncident(c.Request.Context(), id, identityFrom(c)); err != nil {
		h.serviceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Incident deleted successfully"})
}

// @Summary Serve an uploaded incident photo
// @Tags Incidents
// @Produce octet-stream
// @Param name path string true "Photo reference"
// @Success 200
// @Failure 404 {object} map[string]string "Photo not found"
// @Router /uploads/{name} [get]
func (h *Handler) uploadedPhoto(c *gin.Context) {
	name := c.Param("name")
	log := h.logger.WithField("method", "uploadedPhoto").WithField("name", name)

	rc, err := h.incidents.OpenPhoto(c.Request.Context(), name)
	if err != nil {
		log.WithError(err).Warn("Failed to open photo")
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}
	defer rc.Close()

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.WithError(err).Warn("Failed to stream photo")
	}
}

// splitList разбирает список идентификаторов, переданный через запятую
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
