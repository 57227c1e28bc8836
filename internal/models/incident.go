package models

import (
	"time"
)

// Статусы жизненного цикла инцидента
const (
	IncidentStatusActive     = "active"
	IncidentStatusInProgress = "in_progress"
	IncidentStatusResolved   = "resolved"
	IncidentStatusClosed     = "closed"
)

// Приоритеты инцидента (закрытое множество)
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Incident - зарегистрированное чрезвычайное происшествие.
// Координаты заполняются один раз при создании по адресу и далее не пересчитываются.
type Incident struct {
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

// IncidentLocation - проекция инцидента для карты (только записи с координатами)
type IncidentLocation struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	Location  string  `json:"location"`
	Priority  string  `json:"priority"`
	Status    string  `json:"status"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// ValidPriority проверяет, входит ли значение в закрытое множество приоритетов
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
