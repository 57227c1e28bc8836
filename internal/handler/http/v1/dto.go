package v1

import (
	"time"
)

// CreateIncidentForm DTO для создания инцидента (multipart/form-data)
// @Description DTO для создания инцидента
type CreateIncidentForm struct {
	Type               string `form:"type" validate:"required"`
	Location           string `form:"location" validate:"required"`
	Description        string `form:"description" validate:"required"`
	Priority           string `form:"priority" validate:"required,oneof=low medium high critical"`
	ReportedBy         string `form:"reported_by"`
	AssignedResponders string `form:"assigned_responders"` // идентификаторы через запятую
	EquipmentNeeded    string `form:"equipment_needed"`    // идентификаторы через запятую
}

// UpdateIncidentRequest DTO для частичного обновления инцидента.
// Поля вне белого списка {status, assigned_responders, equipment_needed}
// молча игнорируются при разборе JSON.
type UpdateIncidentRequest struct {
	Status             *string   `json:"status,omitempty" validate:"omitempty,oneof=active in_progress resolved closed"`
	AssignedResponders *[]string `json:"assigned_responders,omitempty"`
	EquipmentNeeded    *[]string `json:"equipment_needed,omitempty"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                 int64     `json:"id"`
	Type               string    `json:"type"`
	Location           string    `json:"location"`
	Description        string    `json:"description"`
	Priority           string    `json:"priority"`
	Status             string    `json:"status"`
	Latitude           *float64  `json:"latitude,omitempty"`
	Longitude          *float64  `json:"longitude,omitempty"`
	PhotoRef           *string   `json:"photo_reference,omitempty"`
	AssignedResponders []string  `json:"assigned_responders"`
	EquipmentNeeded    []string  `json:"equipment_needed"`
	ReportedBy         string    `json:"reported_by"`
	OwnerUserID        *int64    `json:"owner_user_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateResponderRequest DTO для регистрации респондента
type CreateResponderRequest struct {
	Name            string   `json:"name" validate:"required,min=2,max=255"`
	Role            string   `json:"role" validate:"required"`
	ContactNumber   string   `json:"contact_number" validate:"required"`
	CurrentLocation string   `json:"current_location,omitempty"`
	Specializations []string `json:"specializations,omitempty"`
}

// ResponderResponse DTO для ответа с информацией о респонденте
type ResponderResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	ContactNumber   string    `json:"contact_number"`
	CurrentLocation string    `json:"current_location"`
	Status          string    `json:"status"`
	Specializations []string  `json:"specializations"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateEquipmentRequest DTO для добавления оборудования
type CreateEquipmentRequest struct {
	Name              string `json:"name" validate:"required"`
	Type              string `json:"type" validate:"required"`
	Quantity          int    `json:"quantity" validate:"required,gt=0"`
	AvailableQuantity *int   `json:"available_quantity,omitempty" validate:"omitempty,gte=0"`
	Location          string `json:"location,omitempty"`
}

// EquipmentResponse DTO для ответа с информацией об оборудовании
type EquipmentResponse struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	Quantity          int        `json:"quantity"`
	AvailableQuantity int        `json:"available_quantity"`
	Location          string     `json:"location"`
	Status            string     `json:"status"`
	LastMaintenance   *time.Time `json:"last_maintenance,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// CreateNotificationRequest DTO для ручного создания уведомления
type CreateNotificationRequest struct {
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Category string `json:"category" validate:"required"`
	Area     string `json:"area" validate:"required"`
}

// NotificationResponse DTO для ответа с уведомлением
type NotificationResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Area      string    `json:"area"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationResponse DTO для точки на карте инцидентов
type LocationResponse struct {
	ID       int64   `json:"id"`
	Type     string  `json:"type"`
	Location string  `json:"location"`
	Priority string  `json:"priority"`
	Status   string  `json:"status"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}
