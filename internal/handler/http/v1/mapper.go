package v1

import "github.com/shenikar/ems_dispatch_system/internal/models"

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:                 model.ID,
		Type:               model.Type,
		Location:           model.Location,
		Description:        model.Description,
		Priority:           model.Priority,
		Status:             model.Status,
		Latitude:           model.Latitude,
		Longitude:          model.Longitude,
		PhotoRef:           model.PhotoRef,
		AssignedResponders: model.AssignedResponders,
		EquipmentNeeded:    model.EquipmentNeeded,
		ReportedBy:         model.ReportedBy,
		OwnerUserID:        model.OwnerUserID,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(incidents []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, model := range incidents {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToResponderResponse преобразует модель респондента в DTO
func ModelToResponderResponse(model *models.Responder) *ResponderResponse {
	return &ResponderResponse{
		ID:              model.ID,
		Name:            model.Name,
		Role:            model.Role,
		ContactNumber:   model.ContactNumber,
		CurrentLocation: model.CurrentLocation,
		Status:          model.Status,
		Specializations: model.Specializations,
		CreatedAt:       model.CreatedAt,
	}
}

// ModelToEquipmentResponse преобразует модель оборудования в DTO
func ModelToEquipmentResponse(model *models.Equipment) *EquipmentResponse {
	return &EquipmentResponse{
		ID:                model.ID,
		Name:              model.Name,
		Type:              model.Type,
		Quantity:          model.Quantity,
		AvailableQuantity: model.AvailableQuantity,
		Location:          model.Location,
		Status:            model.Status,
		LastMaintenance:   model.LastMaintenance,
		CreatedAt:         model.CreatedAt,
	}
}

// ModelToNotificationResponse преобразует модель уведомления в DTO
func ModelToNotificationResponse(model *models.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        model.ID,
		Title:     model.Title,
		Message:   model.Message,
		Category:  model.Category,
		Area:      model.Area,
		CreatedAt: model.CreatedAt,
	}
}

// ModelToLocationResponse преобразует проекцию карты в DTO
func ModelToLocationResponse(model *models.IncidentLocation) *LocationResponse {
	return &LocationResponse{
		ID:       model.ID,
		Type:     model.Type,
		Location: model.Location,
		Priority: model.Priority,
		Status:   model.Status,
		Lat:      model.Latitude,
		Lng:      model.Longitude,
	}
}
