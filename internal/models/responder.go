package models

import "time"

// Статусы доступности респондента
const (
	ResponderStatusAvailable = "available"
	ResponderStatusBusy      = "busy"
	ResponderStatusOffline   = "offline"
)

// Responder - сотрудник или экипаж, направляемый на инцидент.
// Поле Role - должность в свободной форме, не путать с ролями пользователей.
type Responder struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	ContactNumber   string    `json:"contact_number"`
	CurrentLocation string    `json:"current_location"`
	Status          string    `json:"status"`
	Specializations []string  `json:"specializations"`
	CreatedAt       time.Time `json:"created_at"`
}
