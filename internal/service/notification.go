package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/ems_dispatch_system/internal/access"
	"github.com/shenikar/ems_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=notification.go -destination=mocks/mock_notification.go -package=mocks

// Размер страницы журнала уведомлений
const notificationPageSize = 10

// CreateNotificationInput - данные уведомления, создаваемого вручную
type CreateNotificationInput struct {
	Title    string
	Message  string
	Category string
	Area     string
}

// NotificationRepository определяет контракт журнала уведомлений.
// Журнал только пополняется; обновлений и удалений нет.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, limit int) ([]*models.Notification, error)
}

// NotificationService определяет контракт работы с уведомлениями
type NotificationService interface {
	CreateNotification(ctx context.Context, input CreateNotificationInput, ident access.Identity) (*models.Notification, error)
	ListNotifications(ctx context.Context) ([]*models.Notification, error)
}

type notificationService struct {
	repo   NotificationRepository
	clock  clockwork.Clock
	logger *logrus.Logger
}

func NewNotificationService(repo NotificationRepository, clock clockwork.Clock, logger *logrus.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// CreateNotification записывает уведомление, созданное вручную.
// Доступно admin и dispatcher; системные уведомления создает движок инцидентов.
func (s *notificationService) CreateNotification(ctx context.Context, input CreateNotificationInput, ident access.Identity) (*models.Notification, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "notification",
		"method":  "CreateNotification",
	})

	if !access.Has(ident.Role, access.CapCreateNotification) {
		return nil, fmt.Errorf("service: role %q may not create notifications: %w", ident.Role, ErrForbidden)
	}

	for field, value := range map[string]string{
		"title":    strings.TrimSpace(input.Title),
		"message":  strings.TrimSpace(input.Message),
		"category": strings.TrimSpace(input.Category),
		"area":     strings.TrimSpace(input.Area),
	} {
		if value == "" {
			return nil, fmt.Errorf("%w: missing required field: %s", ErrValidation, field)
		}
	}

	notification := &models.Notification{
		Title:     strings.TrimSpace(input.Title),
		Message:   strings.TrimSpace(input.Message),
		Category:  strings.TrimSpace(input.Category),
		Area:      strings.TrimSpace(input.Area),
		CreatedAt: s.clock.Now().UTC(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		log.WithError(err).Error("Failed to create notification in repository")
		return nil, fmt.Errorf("service: could not create notification: %w", err)
	}

	log.WithField("notification_id", notification.ID).Info("Notification created successfully")
	return notification, nil
}

// ListNotifications возвращает последние уведомления, новые первыми
func (s *notificationService) ListNotifications(ctx context.Context) ([]*models.Notification, error) {
	notifications, err := s.repo.List(ctx, notificationPageSize)
	if err != nil {
		return nil, fmt.Errorf("service: could not list notifications: %w", err)
	}
	return notifications, nil
}
