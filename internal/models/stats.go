package models

import "time"

// DashboardStats - агрегированная сводка для дашборда
type DashboardStats struct {
	TotalIncidents      int            `json:"total_incidents"`
	ActiveIncidents     int            `json:"active_incidents"`
	TotalResponders     int            `json:"total_responders"`
	AvailableResponders int            `json:"available_responders"`
	TotalEquipment      int            `json:"total_equipment"`
	AvailableEquipment  int            `json:"available_equipment"`
	IncidentsByType     map[string]int `json:"incidents_by_type"`
	RecentIncidents     []*Incident    `json:"recent_incidents"`
	LastUpdated         time.Time      `json:"last_updated"`
}
