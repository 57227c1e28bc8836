package service_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/ems_dispatch_system/internal/access"
	"github.com/shenikar/ems_dispatch_system/internal/geocode"
	"github.com/shenikar/ems_dispatch_system/internal/models"
	"github.com/shenikar/ems_dispatch_system/internal/service"
	"github.com/shenikar/ems_dispatch_system/internal/service/mocks"
	webhook_mocks "github.com/shenikar/ems_dispatch_system/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type incidentServiceMocks struct {
	repo          *mocks.MockIncidentRepository
	notifications *mocks.MockNotificationRepository
	geocoder      *mocks.MockGeocoder
	photos        *mocks.MockBlobStore
	publisher     *webhook_mocks.MockEventPublisher
	clock         *clockwork.FakeClock
}

// newTestIncidentService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (service.IncidentService, incidentServiceMocks) {
	ctrl := gomock.NewController(t)

	m := incidentServiceMocks{
		repo:          mocks.NewMockIncidentRepository(ctrl),
		notifications: mocks.NewMockNotificationRepository(ctrl),
		geocoder:      mocks.NewMockGeocoder(ctrl),
		photos:        mocks.NewMockBlobStore(ctrl),
		publisher:     webhook_mocks.NewMockEventPublisher(ctrl),
		clock:         clockwork.NewFakeClockAt(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	svc := service.NewIncidentService(m.repo, m.notifications, m.geocoder, m.photos, m.publisher, m.clock, logger)
	return svc, m
}

func validCreateInput() service.CreateIncidentInput {
	return service.CreateIncidentInput{
		Type:        "fire",
		Location:    "123 Main St",
		Description: "Smoke from the second floor",
		Priority:    "high",
		ReportedBy:  "John Doe",
	}
}

func dispatcherIdent() access.Identity {
	userID := int64(7)
	return access.Identity{Role: access.RoleDispatcher, UserID: &userID, Name: "Dispatcher Dan"}
}

func publicIdent(userID int64) access.Identity {
	return access.Identity{Role: access.RolePublic, UserID: &userID, Name: "Citizen"}
}

func TestCreateIncident_Success(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	input := validCreateInput()

	// Ожидания
	m.geocoder.EXPECT().
		Lookup(ctx, "123 Main St").
		Return(&geocode.Point{Latitude: 27.95, Longitude: -82.45}, nil).
		Times(1)

	m.repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, inc *models.Incident) error {
			// Симулируем, что БД присвоила ID
			inc.ID = 42
			return nil
		}).Times(1)

	m.notifications.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	// Действие
	incident, err := svc.CreateIncident(ctx, input, dispatcherIdent())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, int64(42), incident.ID)
	assert.Equal(t, models.IncidentStatusActive, incident.Status)
	require.NotNil(t, incident.Latitude)
	require.NotNil(t, incident.Longitude)
	assert.Equal(t, 27.95, *incident.Latitude)
	assert.Equal(t, -82.45, *incident.Longitude)
	assert.Equal(t, m.clock.Now().UTC(), incident.CreatedAt)
	assert.Equal(t, incident.CreatedAt, incident.UpdatedAt)
}

func TestCreateIncident_GeocodeFailure_AbsorbedWithoutCoordinates(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	input := validCreateInput()

	// Ожидания: сбой геокодера не срывает создание
	m.geocoder.EXPECT().
		Lookup(ctx, gomock.Any()).
		Return(nil, fmt.Errorf("nominatim unreachable")).
		Times(1)

	m.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	m.notifications.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	// Действие
	incident, err := svc.CreateIncident(ctx, input, dispatcherIdent())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusActive, incident.Status)
	assert.Nil(t, incident.Latitude)
	assert.Nil(t, incident.Longitude)
}

func TestCreateIncident_MissingField(t *testing.T) {
	// Подготовка
	svc, _ := newTestIncidentService(t)
	ctx := context.Background()
	input := validCreateInput()
	input.Location = "   "

	// Действие
	incident, err := svc.CreateIncident(ctx, input, dispatcherIdent())

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.ErrorContains(t, err, "location")
}

func TestCreateIncident_InvalidPriority(t *testing.T) {
	// Подготовка
	svc, _ := newTestIncidentService(t)
	ctx := context.Background()
	input := validCreateInput()
	input.Priority = "urgent"

	// Действие
	incident, err := svc.CreateIncident(ctx, input, dispatcherIdent())

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestCreateIncident_UnsupportedPhotoExtension(t *testing.T) {
	// Подготовка
	svc, _ := newTestIncidentService(t)
	ctx := context.Background()
	input := validCreateInput()
	input.Photo = &service.PhotoUpload{
		Filename: "report.exe",
		Content:  strings.NewReader("payload"),
		Size:     7,
	}

	// Действие: хранилище и репозиторий не должны вызываться вовсе
	incident, err := svc.CreateIncident(ctx, input, dispatcherIdent())

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, service.ErrUnsupportedMedia)
}

func TestCreateIncident_PhotoStored(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	input := validCreateInput()
	input.Photo = &service.PhotoUpload{
		Filename:    "scene.JPG",
		Content:     strings.NewReader("image-bytes"),
		Size:        11,
		ContentType: "image/jpeg",
	}

	// Ожидания
	m.photos.EXPECT().
		Save(ctx, gomock.Any(), gomock.Any(), int64(11), "image/jpeg").
		Return(nil).
		Times(1)
	m.geocoder.EXPECT().Lookup(ctx, gomock.Any()).Return(nil, geocode.ErrNoResult).Times(1)
	m.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	m.notifications.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	// Действие
	incident, err := svc.CreateIncident(ctx, input, dispatcherIdent())

	// Проверки: ссылка непрозрачна, расширение нормализовано
	require.NoError(t, err)
	require.NotNil(t, incident.PhotoRef)
	assert.True(t, strings.HasSuffix(*incident.PhotoRef, ".jpg"))
	assert.NotContains(t, *incident.PhotoRef, "scene")
}

func TestCreateIncident_NotificationFailureDoesNotFailCreate(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()

	// Ожидания: журнал уведомлений недоступен, инцидент всё равно создан
	m.geocoder.EXPECT().Lookup(ctx, gomock.Any()).Return(nil, geocode.ErrNoResult).Times(1)
	m.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	m.notifications.EXPECT().Create(ctx, gomock.Any()).Return(fmt.Errorf("insert failed")).Times(1)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	// Действие
	incident, err := svc.CreateIncident(ctx, validCreateInput(), dispatcherIdent())

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, incident)
}

func TestGetIncident_Success_FromCache(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	expectedIncident := &models.Incident{ID: 10, Type: "medical"}

	// Ожидания
	m.repo.EXPECT().
		GetIncidentFromCache(ctx, int64(10)).
		Return(expectedIncident, nil).
		Times(1)

	// Действие
	incident, err := svc.GetIncident(ctx, 10, dispatcherIdent())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_Success_FromDB(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	expectedIncident := &models.Incident{ID: 11, Type: "flood"}

	// Ожидания
	// 1. Промах кеша
	m.repo.EXPECT().GetIncidentFromCache(ctx, int64(11)).Return(nil, nil).Times(1)
	// 2. Попадание в БД
	m.repo.EXPECT().GetByID(ctx, int64(11)).Return(expectedIncident, nil).Times(1)
	// 3. Запись в кеш
	m.repo.EXPECT().SetIncidentCache(ctx, expectedIncident).Return(nil).Times(1)

	// Действие
	incident, err := svc.GetIncident(ctx, 11, dispatcherIdent())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_PublicCannotSeeForeignReport(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	ownerID := int64(99)
	foreign := &models.Incident{ID: 12, OwnerUserID: &ownerID}

	// Ожидания
	m.repo.EXPECT().GetIncidentFromCache(ctx, int64(12)).Return(foreign, nil).Times(1)

	// Действие: чужая запись для public неотличима от отсутствующей
	incident, err := svc.GetIncident(ctx, 12, publicIdent(7))

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetIncident_PublicSeesOwnReport(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	ownerID := int64(7)
	own := &models.Incident{ID: 13, OwnerUserID: &ownerID}

	// Ожидания
	m.repo.EXPECT().GetIncidentFromCache(ctx, int64(13)).Return(own, nil).Times(1)

	// Действие
	incident, err := svc.GetIncident(ctx, 13, publicIdent(7))

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, own, incident)
}

func TestListIncidents_PublicSeesOnlyOwnReports(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	mine, other := int64(7), int64(8)
	all := []*models.Incident{
		{ID: 1, OwnerUserID: &mine},
		{ID: 2, OwnerUserID: &other},
		{ID: 3, OwnerUserID: nil}, // анонимная заявка
	}

	// Ожидания
	m.repo.EXPECT().List(ctx, service.IncidentFilter{}).Return(all, nil).Times(1)

	// Действие
	incidents, err := svc.ListIncidents(ctx, service.IncidentFilter{}, publicIdent(7))

	// Проверки
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, int64(1), incidents[0].ID)
}

func TestListIncidents_DispatcherSeesEverything(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	filter := service.IncidentFilter{Status: models.IncidentStatusActive, Priority: "high"}
	expected := []*models.Incident{{ID: 1}, {ID: 2}}

	// Ожидания
	m.repo.EXPECT().List(ctx, filter).Return(expected, nil).Times(1)

	// Действие
	incidents, err := svc.ListIncidents(ctx, filter, dispatcherIdent())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, incidents)
}

func TestUpdateIncident_Forbidden(t *testing.T) {
	// Подготовка
	svc, _ := newTestIncidentService(t)
	ctx := context.Background()
	status := models.IncidentStatusResolved

	// Действие: public не имеет права на обновление
	incident, err := svc.UpdateIncident(ctx, 1, service.IncidentPatch{Status: &status}, publicIdent(7))

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestUpdateIncident_ValidTransition(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	status := models.IncidentStatusInProgress
	responders := []string{"unit-12"}
	stored := &models.Incident{
		ID:        5,
		Status:    models.IncidentStatusActive,
		CreatedAt: time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC),
	}

	// Ожидания: репозиторий выполняет apply над строкой под блокировкой
	m.repo.EXPECT().
		Update(ctx, int64(5), gomock.Any()).
		DoAndReturn(func(ctx context.Context, id int64, apply func(*models.Incident) error) (*models.Incident, error) {
			if err := apply(stored); err != nil {
				return nil, err
			}
			return stored, nil
		}).Times(1)
	m.repo.EXPECT().InvalidateIncidentCache(ctx, int64(5)).Return(nil).Times(1)

	// Действие
	incident, err := svc.UpdateIncident(ctx, 5, service.IncidentPatch{
		Status:             &status,
		AssignedResponders: &responders,
	}, dispatcherIdent())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusInProgress, incident.Status)
	assert.Equal(t, []string{"unit-12"}, incident.AssignedResponders)
	assert.Equal(t, m.clock.Now().UTC(), incident.UpdatedAt)
	assert.True(t, !incident.UpdatedAt.Before(incident.CreatedAt))
}

func TestUpdateIncident_InvalidTransition(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	status := models.IncidentStatusResolved
	stored := &models.Incident{ID: 6, Status: models.IncidentStatusActive}

	// Ожидания: ошибка из apply откатывает транзакцию, кеш не трогаем
	m.repo.EXPECT().
		Update(ctx, int64(6), gomock.Any()).
		DoAndReturn(func(ctx context.Context, id int64, apply func(*models.Incident) error) (*models.Incident, error) {
			if err := apply(stored); err != nil {
				return nil, err
			}
			return stored, nil
		}).Times(1)

	// Действие: active -> resolved не входит в граф переходов
	incident, err := svc.UpdateIncident(ctx, 6, service.IncidentPatch{Status: &status}, dispatcherIdent())

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
	assert.Equal(t, models.IncidentStatusActive, stored.Status)
}

func TestUpdateIncident_NotFound(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	status := models.IncidentStatusClosed

	// Ожидания
	m.repo.EXPECT().
		Update(ctx, int64(404), gomock.Any()).
		Return(nil, fmt.Errorf("incident 404: %w", service.ErrNotFound)).
		Times(1)

	// Действие
	incident, err := svc.UpdateIncident(ctx, 404, service.IncidentPatch{Status: &status}, dispatcherIdent())

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteIncident_Forbidden(t *testing.T) {
	// Подготовка
	svc, _ := newTestIncidentService(t)
	ctx := context.Background()
	ident := access.Identity{Role: access.RoleDispatcher}

	// Действие: удаление доступно только администратору
	err := svc.DeleteIncident(ctx, 1, ident)

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestDeleteIncident_Success(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	ident := access.Identity{Role: access.RoleAdmin}

	// Ожидания
	m.repo.EXPECT().Delete(ctx, int64(9)).Return(nil).Times(1)
	m.repo.EXPECT().InvalidateIncidentCache(ctx, int64(9)).Return(nil).Times(1)

	// Действие
	err := svc.DeleteIncident(ctx, 9, ident)

	// Проверки
	require.NoError(t, err)
}

func TestDeleteIncident_NotFound(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()
	ident := access.Identity{Role: access.RoleAdmin}

	// Ожидания
	m.repo.EXPECT().
		Delete(ctx, int64(404)).
		Return(fmt.Errorf("incident 404: %w", service.ErrNotFound)).
		Times(1)

	// Действие
	err := svc.DeleteIncident(ctx, 404, ident)

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDashboardStats_SetsLastUpdated(t *testing.T) {
	// Подготовка
	svc, m := newTestIncidentService(t)
	ctx := context.Background()

	// Ожидания
	m.repo.EXPECT().
		DashboardStats(ctx).
		Return(&models.DashboardStats{TotalIncidents: 3, ActiveIncidents: 1}, nil).
		Times(1)

	// Действие
	stats, err := svc.DashboardStats(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalIncidents)
	assert.Equal(t, m.clock.Now().UTC(), stats.LastUpdated)
}
