package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/ems_dispatch_system/internal/access"
	"github.com/shenikar/ems_dispatch_system/internal/models"
	"github.com/shenikar/ems_dispatch_system/internal/service"
	"github.com/shenikar/ems_dispatch_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestNotificationService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestNotificationService(t *testing.T) (service.NotificationService, *mocks.MockNotificationRepository) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockNotificationRepository(ctrl)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	return service.NewNotificationService(repoMock, clock, logger), repoMock
}

func TestCreateNotification_Success(t *testing.T) {
	// Подготовка
	svc, repoMock := newTestNotificationService(t)
	ctx := context.Background()
	input := service.CreateNotificationInput{
		Title:    "Road closure",
		Message:  "Main St closed between 1st and 3rd",
		Category: "traffic",
		Area:     "Downtown",
	}

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, n *models.Notification) error {
			n.ID = 5
			return nil
		}).Times(1)

	// Действие
	notification, err := svc.CreateNotification(ctx, input, access.Identity{Role: access.RoleAdmin})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, int64(5), notification.ID)
	assert.Equal(t, "Road closure", notification.Title)
}

func TestCreateNotification_Forbidden(t *testing.T) {
	// Подготовка
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()
	input := service.CreateNotificationInput{Title: "t", Message: "m", Category: "c", Area: "a"}

	// Действие: responder и public не создают уведомления вручную
	for _, role := range []access.Role{access.RoleResponder, access.RolePublic} {
		notification, err := svc.CreateNotification(ctx, input, access.Identity{Role: role})

		// Проверки
		require.Error(t, err)
		assert.Nil(t, notification)
		assert.ErrorIs(t, err, service.ErrForbidden)
	}
}

func TestCreateNotification_MissingField(t *testing.T) {
	// Подготовка
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()
	input := service.CreateNotificationInput{Title: "t", Message: "m", Category: "c", Area: "  "}

	// Действие
	notification, err := svc.CreateNotification(ctx, input, access.Identity{Role: access.RoleDispatcher})

	// Проверки
	require.Error(t, err)
	assert.Nil(t, notification)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.ErrorContains(t, err, "area")
}

func TestListNotifications_PageSize(t *testing.T) {
	// Подготовка
	svc, repoMock := newTestNotificationService(t)
	ctx := context.Background()
	expected := []*models.Notification{{ID: 2}, {ID: 1}}

	// Ожидания: сервис всегда запрашивает фиксированную страницу из 10 записей
	repoMock.EXPECT().List(ctx, 10).Return(expected, nil).Times(1)

	// Действие
	notifications, err := svc.ListNotifications(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, notifications)
}
