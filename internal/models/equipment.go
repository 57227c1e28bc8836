package models

import "time"

// Equipment - единица инвентаря.
// Инвариант: 0 <= AvailableQuantity <= Quantity.
// Назначение оборудования на инцидент доступное количество не уменьшает (см. сервис).
type Equipment struct {
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
