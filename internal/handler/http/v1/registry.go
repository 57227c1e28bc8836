package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/ems_dispatch_system/internal/service"
)

// @Summary List responders
// @Tags Registry
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string "No authentication context"
// @Router /responders [get]
func (h *Handler) listResponders(c *gin.Context) {
	log := h.logger.WithField("method", "listResponders")

	responders, err := h.registry.ListResponders(c.Request.Context())
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	items := make([]*ResponderResponse, len(responders))
	for i, responder := range responders {
		items[i] = ModelToResponderResponse(responder)
	}
	c.JSON(http.StatusOK, gin.H{"responders": items, "count": len(items)})
}

// @Summary Register a responder
// @Description Register a new responder. Admin and dispatcher only.
// @Tags Registry
// @Accept json
// @Produce json
// @Param responder body CreateResponderRequest true "Responder registration request"
// @Success 201 {object} ResponderResponse
// @Failure 400 {object} map[string]string "Missing required field"
// @Failure 403 {object} map[string]string "Role may not manage the registry"
// @Router /responders [post]
func (h *Handler) createResponder(c *gin.Context) {
	log := h.logger.WithField("method", "createResponder")

	var input CreateResponderRequest
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

	responder, err := h.registry.CreateResponder(c.Request.Context(), service.CreateResponderInput{
		Name:            input.Name,
		Role:            input.Role,
		ContactNumber:   input.ContactNumber,
		CurrentLocation: input.CurrentLocation,
		Specializations: input.Specializations,
	}, identityFrom(c))
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, ModelToResponderResponse(responder))
}

// @Summary List equipment
// @Tags Registry
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string "No authentication context"
// @Router /equipment [get]
func (h *Handler) listEquipment(c *gin.Context) {
	log := h.logger.WithField("method", "listEquipment")

	equipment, err := h.registry.ListEquipment(c.Request.Context())
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	items := make([]*EquipmentResponse, len(equipment))
	for i, item := range equipment {
		items[i] = ModelToEquipmentResponse(item)
	}
	c.JSON(http.StatusOK, gin.H{"equipment": items, "count": len(items)})
}

// @Summary Add equipment
// @Description Add equipment to the inventory. Admin and dispatcher only.
// @Tags Registry
// @Accept json
// @Produce json
// @Param equipment body CreateEquipmentRequest true "Equipment creation request"
// @Success 201 {object} EquipmentResponse
// @Failure 400 {object} map[string]string "Missing required field"
// @Failure 403 {object} map[string]string "Role may not manage the registry"
// @Router /equipment [post]
func (h *Handler) createEquipment(c *gin.Context) {
	log := h.logger.WithField("method", "createEquipment")

	var input CreateEquipmentRequest
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

	equipment, err := h.registry.CreateEquipment(c.Request.Context(), service.CreateEquipmentInput{
		Name:              input.Name,
		Type:              input.Type,
		Quantity:          input.Quantity,
		AvailableQuantity: input.AvailableQuantity,
		Location:          input.Location,
	}, identityFrom(c))
	if err != nil {
		h.serviceError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, ModelToEquipmentResponse(equipment))
}
