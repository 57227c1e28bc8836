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

//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks

// CreateResponderInput - данные нового респондента
type CreateResponderInput struct {
	Name            string
	Role            string
	ContactNumber   string
	CurrentLocation string
	Specializations []string
}

// CreateEquipmentInput - данные новой единицы оборудования
type CreateEquipmentInput struct {
	Name              string
	Type              string
	Quantity          int
	AvailableQuantity *int
	Location          string
}

// RegistryRepository определяет контракт для реестров респондентов и оборудования
type RegistryRepository interface {
	CreateResponder(ctx context.Context, responder *models.Responder) error
	ListResponders(ctx context.Context) ([]*models.Responder, error)
	CreateEquipment(ctx context.Context, equipment *models.Equipment) error
	ListEquipment(ctx context.Context) ([]*models.Equipment, error)
}

// RegistryService определяет контракт управления реестрами
type RegistryService interface {
	CreateResponder(ctx context.Context, input CreateResponderInput, ident access.Identity) (*models.Responder, error)
	ListResponders(ctx context.Context) ([]*models.Responder, error)
	CreateEquipment(ctx context.Context, input CreateEquipmentInput, ident access.Identity) (*models.Equipment, error)
	ListEquipment(ctx context.Context) ([]*models.Equipment, error)
}

type registryService struct {
	repo   RegistryRepository
	clock  clockwork.Clock
	logger *logrus.Logger
}

func NewRegistryService(repo RegistryRepository, clock clockwork.Clock, logger *logrus.Logger) RegistryService {
	return &registryService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// CreateResponder регистрирует респондента. Доступно admin и dispatcher.
func (s *registryService) CreateResponder(ctx context.Context, input CreateResponderInput, ident access.Identity) (*models.Responder, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "registry",
		"method":  "CreateResponder",
		"name":    input.Name,
	})

	if !access.Has(ident.Role, access.CapManageRegistry) {
		return nil, fmt.Errorf("service: role %q may not manage responders: %w", ident.Role, ErrForbidden)
	}

	for field, value := range map[string]string{
		"name":           strings.TrimSpace(input.Name),
		"role":           strings.TrimSpace(input.Role),
		"contact_number": strings.TrimSpace(input.ContactNumber),
	} {
		if value == "" {
			return nil, fmt.Errorf("%w: missing required field: %s", ErrValidation, field)
		}
	}

	responder := &models.Responder{
		Name:            strings.TrimSpace(input.Name),
		Role:            strings.TrimSpace(input.Role),
		ContactNumber:   strings.TrimSpace(input.ContactNumber),
		CurrentLocation: input.CurrentLocation,
		Status:          models.ResponderStatusAvailable,
		Specializations: orEmpty(input.Specializations),
		CreatedAt:       s.clock.Now().UTC(),
	}

	if err := s.repo.CreateResponder(ctx, responder); err != nil {
		log.WithError(err).Error("Failed to create responder in repository")
		return nil, fmt.Errorf("service: could not create responder: %w", err)
	}

	log.WithField("responder_id", responder.ID).Info("Responder created successfully")
	return responder, nil
}

// ListResponders возвращает весь реестр респондентов
func (s *registryService) ListResponders(ctx context.Context) ([]*models.Responder, error) {
	responders, err := s.repo.ListResponders(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not list responders: %w", err)
	}
	return responders, nil
}

// CreateEquipment добавляет единицу оборудования. Доступно admin и dispatcher.
// Если доступное количество не указано, оно равно общему.
func (s *registryService) CreateEquipment(ctx context.Context, input CreateEquipmentInput, ident access.Identity) (*models.Equipment, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "registry",
		"method":  "CreateEquipment",
		"name":    input.Name,
	})

	if !access.Has(ident.Role, access.CapManageRegistry) {
		return nil, fmt.Errorf("service: role %q may not manage equipment: %w", ident.Role, ErrForbidden)
	}

	for field, value := range map[string]string{
		"name": strings.TrimSpace(input.Name),
		"type": strings.TrimSpace(input.Type),
	} {
		if value == "" {
			return nil, fmt.Errorf("%w: missing required field: %s", ErrValidation, field)
		}
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	available := input.Quantity
	if input.AvailableQuantity != nil {
		available = *input.AvailableQuantity
	}
	if available < 0 || available > input.Quantity {
		return nil, fmt.Errorf("%w: available_quantity must be between 0 and quantity", ErrValidation)
	}

	equipment := &models.Equipment{
		Name:              strings.TrimSpace(input.Name),
		Type:              strings.TrimSpace(input.Type),
		Quantity:          input.Quantity,
		AvailableQuantity: available,
		Location:          input.Location,
		Status:            "available",
		CreatedAt:         s.clock.Now().UTC(),
	}

	if err := s.repo.CreateEquipment(ctx, equipment); err != nil {
		log.WithError(err).Error("Failed to create equipment in repository")
		return nil, fmt.Errorf("service: could not create equipment: %w", err)
	}

	log.WithField("equipment_id", equipment.ID).Info("Equipment created successfully")
	return equipment, nil
}

// ListEquipment возвращает весь инвентарь
func (s *registryService) ListEquipment(ctx context.Context) ([]*models.Equipment, error) {
	equipment, err := s.repo.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not list equipment: %w", err)
	}
	return equipment, nil
}
