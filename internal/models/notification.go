package models

import "time"

// Категория уведомлений, создаваемых движком при регистрации инцидента
const NotificationCategoryIncident = "incident"

// Notification - системное оповещение. Записи только добавляются и никогда не изменяются.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Area      string    `json:"area"`
	CreatedAt time.Time `json:"created_at"`
}
