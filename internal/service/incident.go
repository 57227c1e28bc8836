package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shenikar/ems_dispatch_system/internal/access"
	"github.com/shenikar/ems_dispatch_system/internal/geocode"
	"github.com/shenikar/ems_dispatch_system/internal/models"
	"github.com/shenikar/ems_dispatch_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=incident.go -destination=mocks/mock_incident.go -package=mocks

// Допустимые расширения фотографий инцидента
var allowedPhotoExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"pdf":  true,
}

// Допустимые переходы статуса: active -> in_progress -> resolved -> closed,
// плюс отмена active -> closed и единственный возврат in_progress -> active.
var statusTransitions = map[string][]string{
	models.IncidentStatusActive:     {models.IncidentStatusInProgress, models.IncidentStatusClosed},
	models.IncidentStatusInProgress: {models.IncidentStatusResolved, models.IncidentStatusActive},
	models.IncidentStatusResolved:   {models.IncidentStatusClosed},
	models.IncidentStatusClosed:     {},
}

func canTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IncidentFilter - предикаты равенства для выборки инцидентов, объединяются по AND
type IncidentFilter struct {
	Status   string
	Priority string
}

// PhotoUpload - содержимое фотографии, приложенной к заявке
type PhotoUpload struct {
	Filename    string
	Content     io.Reader
	Size        int64
	ContentType string
}

// CreateIncidentInput - данные новой заявки об инциденте
type CreateIncidentInput struct {
	Type               string
	Location           string
	Description        string
	Priority           string
	ReportedBy         string
	AssignedResponders []string
	EquipmentNeeded    []string
	Photo              *PhotoUpload
}

// IncidentPatch - частичное обновление инцидента. Изменяемы только статус
// и списки назначений; nil означает "поле не трогать".
type IncidentPatch struct {
	Status             *string
	AssignedResponders *[]string
	EquipmentNeeded    *[]string
}

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	List(ctx context.Context, filter IncidentFilter) ([]*models.Incident, error)
	// Update применяет apply к строке под блокировкой FOR UPDATE и записывает
	// результат той же транзакцией; ошибка из apply откатывает всю операцию.
	Update(ctx context.Context, id int64, apply func(*models.Incident) error) (*models.Incident, error)
	Delete(ctx context.Context, id int64) error
	Locations(ctx context.Context) ([]*models.IncidentLocation, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id int64) error
}

// Geocoder определяет контракт поиска координат по адресу
type Geocoder interface {
	Lookup(ctx context.Context, location string) (*geocode.Point, error)
}

// BlobStore определяет контракт хранилища фотографий
type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// IncidentService определяет контракт бизнес-логики управления инцидентами
type IncidentService interface {
	CreateIncident(ctx context.Context, input CreateIncidentInput, ident access.Identity) (*models.Incident, error)
	GetIncident(ctx context.Context, id int64, ident access.Identity) (*models.Incident, error)
	ListIncidents(ctx context.Context, filter IncidentFilter, ident access.Identity) ([]*models.Incident, error)
	UpdateIncident(ctx context.Context, id int64, patch IncidentPatch, ident access.Identity) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id int64, ident access.Identity) error
	IncidentLocations(ctx context.Context) ([]*models.IncidentLocation, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	OpenPhoto(ctx context.Context, name string) (io.ReadCloser, error)
}

type incidentService struct {
	repo          IncidentRepository
	notifications NotificationRepository
	geocoder      Geocoder
	photos        BlobStore
	publisher     webhook.EventPublisher
	clock         clockwork.Clock
	logger        *logrus.Logger
}

func NewIncidentService(
	repo IncidentRepository,
	notifications NotificationRepository,
	geocoder Geocoder,
	photos BlobStore,
	publisher webhook.EventPublisher,
	clock clockwork.Clock,
	logger *logrus.Logger,
) IncidentService {
	return &incidentService{
		repo:          repo,
		notifications: notifications,
		geocoder:      geocoder,
		photos:        photos,
		publisher:     publisher,
		clock:         clock,
		logger:        logger,
	}
}

// CreateIncident регистрирует новый инцидент: валидация -> геокодирование ->
// сохранение фото -> запись в бд -> уведомление. Геокодирование и уведомление
// выполняются по принципу best-effort и не блокируют создание.
func (s *incidentService) CreateIncident(ctx context.Context, input CreateIncidentInput, ident access.Identity) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"type":    input.Type,
	})
	log.Info("Attempting to create a new incident")

	input.Type = strings.TrimSpace(input.Type)
	input.Location = strings.TrimSpace(input.Location)
	input.Description = strings.TrimSpace(input.Description)
	input.Priority = strings.TrimSpace(input.Priority)

	for field, value := range map[string]string{
		"type":        input.Type,
		"location":    input.Location,
		"description": input.Description,
		"priority":    input.Priority,
	} {
		if value == "" {
			return nil, fmt.Errorf("%w: missing required field: %s", ErrValidation, field)
		}
	}
	if !models.ValidPriority(input.Priority) {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, input.Priority)
	}

	now := s.clock.Now().UTC()
	incident := &models.Incident{
		Type:               input.Type,
		Location:           input.Location,
		Description:        input.Description,
		Priority:           input.Priority,
		Status:             models.IncidentStatusActive,
		AssignedResponders: orEmpty(input.AssignedResponders),
		EquipmentNeeded:    orEmpty(input.EquipmentNeeded),
		ReportedBy:         input.ReportedBy,
		OwnerUserID:        ident.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if incident.ReportedBy == "" {
		incident.ReportedBy = ident.Name
	}

	if input.Photo != nil {
		ref, err := s.storePhoto(ctx, input.Photo)
		if err != nil {
			return nil, err
		}
		incident.PhotoRef = &ref
	}

	// Координаты - необязательное обогащение: сбой поиска не срывает создание
	if point, err := s.geocoder.Lookup(ctx, incident.Location); err != nil {
		log.WithError(err).Warn("Geocode lookup failed, creating incident without coordinates")
	} else {
		incident.Latitude = &point.Latitude
		incident.Longitude = &point.Longitude
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	s.emitCreated(ctx, incident)

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return incident, nil
}

// storePhoto проверяет расширение файла и сохраняет его под сгенерированным именем
func (s *incidentService) storePhoto(ctx context.Context, photo *PhotoUpload) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(photo.Filename), "."))
	if !allowedPhotoExtensions[ext] {
		return "", fmt.Errorf("%w: file extension %q is not allowed", ErrUnsupportedMedia, ext)
	}

	name := uuid.NewString() + "." + ext
	if err := s.photos.Save(ctx, name, photo.Content, photo.Size, photo.ContentType); err != nil {
		return "", fmt.Errorf("service: could not store incident photo: %w", err)
	}
	return name, nil
}

// emitCreated записывает уведомление и публикует событие вебхука.
// Оба действия best-effort: инцидент уже зафиксирован, сбой только логируется.
func (s *incidentService) emitCreated(ctx context.Context, incident *models.Incident) {
	log := s.logger.WithField("incident_id", incident.ID)

	notification := &models.Notification{
		Title:     fmt.Sprintf("New %s incident reported", incident.Type),
		Message:   fmt.Sprintf("%s priority incident at %s", incident.Priority, incident.Location),
		Category:  models.NotificationCategoryIncident,
		Area:      incident.Location,
		CreatedAt: incident.CreatedAt,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		log.WithError(err).Error("Failed to record incident notification")
	}

	event := webhook.IncidentEvent{
		Event:      webhook.EventIncidentCreated,
		IncidentID: incident.ID,
		Type:       incident.Type,
		Priority:   incident.Priority,
		Location:   incident.Location,
		Status:     incident.Status,
		OccurredAt: incident.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).Error("Failed to publish incident event")
	}
}

// GetIncident получает инцидент по ID с учетом правил видимости
func (s *incidentService) GetIncident(ctx context.Context, id int64, ident access.Identity) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	incident, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache")
	}
	if incident == nil {
		incident, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("service: could not get incident: %w", err)
		}
		if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
			log.WithError(err).Warn("Failed to cache incident")
		}
	}

	// Чужие записи для public неотличимы от отсутствующих
	if !access.CanViewIncident(ident, incident.OwnerUserID) {
		return nil, fmt.Errorf("service: incident %d: %w", id, ErrNotFound)
	}
	return incident, nil
}

// ListIncidents возвращает отфильтрованный список с наложением правил видимости.
// Фильтр применяется первым, затем public-вызывающий урезается до своих записей.
func (s *incidentService) ListIncidents(ctx context.Context, filter IncidentFilter, ident access.Identity) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListIncidents",
		"role":    ident.Role,
	})

	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	if !access.Has(ident.Role, access.CapViewAllIncidents) {
		visible := make([]*models.Incident, 0, len(incidents))
		for _, incident := range incidents {
			if access.CanViewIncident(ident, incident.OwnerUserID) {
				visible = append(visible, incident)
			}
		}
		incidents = visible
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// UpdateIncident применяет частичное обновление. Разрешены только статус и
// списки назначений; переход статуса проверяется по графу под блокировкой строки,
// поэтому два конкурентных обновления одной записи не могут перемешаться.
// Известное ограничение: назначение респондентов/оборудования не меняет их
// доступность в реестрах - так ведет себя исходная система.
func (s *incidentService) UpdateIncident(ctx context.Context, id int64, patch IncidentPatch, ident access.Identity) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
	})

	if !access.Has(ident.Role, access.CapUpdateIncident) {
		return nil, fmt.Errorf("service: role %q may not update incidents: %w", ident.Role, ErrForbidden)
	}

	incident, err := s.repo.Update(ctx, id, func(incident *models.Incident) error {
		if patch.Status != nil {
			if !canTransition(incident.Status, *patch.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, incident.Status, *patch.Status)
			}
			incident.Status = *patch.Status
		}
		if patch.AssignedResponders != nil {
			incident.AssignedResponders = orEmpty(*patch.AssignedResponders)
		}
		if patch.EquipmentNeeded != nil {
			incident.EquipmentNeeded = orEmpty(*patch.EquipmentNeeded)
		}
		incident.UpdatedAt = s.clock.Now().UTC()
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to update incident")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident updated successfully")
	return incident, nil
}

// DeleteIncident безвозвратно удаляет инцидент. Только для администратора.
func (s *incidentService) DeleteIncident(ctx context.Context, id int64, ident access.Identity) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
	})

	if !access.Has(ident.Role, access.CapDeleteIncident) {
		return fmt.Errorf("service: role %q may not delete incidents: %w", ident.Role, ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete incident")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident deleted")
	return nil
}

// IncidentLocations возвращает проекцию для карты: только записи с координатами
func (s *incidentService) IncidentLocations(ctx context.Context) ([]*models.IncidentLocation, error) {
	locations, err := s.repo.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not list incident locations: %w", err)
	}
	return locations, nil
}

// DashboardStats возвращает агрегированную сводку для дашборда
func (s *incidentService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.repo.DashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not build dashboard stats: %w", err)
	}
	stats.LastUpdated = s.clock.Now().UTC()
	return stats, nil
}

// OpenPhoto открывает сохраненную фотографию инцидента по ссылке
func (s *incidentService) OpenPhoto(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := s.photos.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service: could not open photo %q: %w", name, err)
	}
	return rc, nil
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
