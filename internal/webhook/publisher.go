package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

const eventQueueKey = "incident_events"

// Событие жизненного цикла инцидента
const (
	EventIncidentCreated = "incident.created"
)

// IncidentEvent - структура для данных вебхука об инциденте
type IncidentEvent struct {
	Event      string    `json:"event"`
	IncidentID int64     `json:"incident_id"`
	Type       string    `json:"type"`
	Priority   string    `json:"priority"`
	Location   string    `json:"location"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher - интерфейс для публикации событий инцидентов
type EventPublisher interface {
	Publish(ctx context.Context, event IncidentEvent) error
}

// RedisEventPublisher - реализация EventPublisher, использующая Redis
type RedisEventPublisher struct {
	redisClient *redis.Client
}

// NewRedisEventPublisher создает новый RedisEventPublisher
func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{
		redisClient: client,
	}
}

// Publish публикует событие инцидента в очередь Redis.
// Доставка выполняется воркером вне пути обработки запроса.
func (p *RedisEventPublisher) Publish(ctx context.Context, event IncidentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal incident event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, eventQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish incident event to Redis: %w", err)
	}
	return nil
}
