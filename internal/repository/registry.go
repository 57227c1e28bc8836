package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/ems_dispatch_system/internal/models"
	"github.com/shenikar/ems_dispatch_system/internal/service"
)

type RegistryRepository struct {
	db *pgxpool.Pool
}

func NewRegistryRepository(db *pgxpool.Pool) service.RegistryRepository {
	return &RegistryRepository{db: db}
}

// CreateResponder добавляет респондента в реестр
func (r *RegistryRepository) CreateResponder(ctx context.Context, responder *models.Responder) error {
	query := `
		INSERT INTO responders (name, role, contact_number, current_location, status, specializations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		responder.Name,
		responder.Role,
		responder.ContactNumber,
		responder.CurrentLocation,
		responder.Status,
		responder.Specializations,
		responder.CreatedAt,
	).Scan(&responder.ID)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}
	return nil
}

// ListResponders возвращает всех респондентов, новые первыми
func (r *RegistryRepository) ListResponders(ctx context.Context) ([]*models.Responder, error) {
	query := `
		SELECT id, name, role, contact_number, current_location, status, specializations, created_at
		FROM responders
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list responders: %w", err)
	}
	defer rows.Close()

	responders := make([]*models.Responder, 0)
	for rows.Next() {
		responder := &models.Responder{}
		err := rows.Scan(
			&responder.ID,
			&responder.Name,
			&responder.Role,
			&responder.ContactNumber,
			&responder.CurrentLocation,
			&responder.Status,
			&responder.Specializations,
			&responder.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan responder row: %w", err)
		}
		responders = append(responders, responder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error responders iteration: %w", err)
	}
	return responders, nil
}

// CreateEquipment добавляет единицу оборудования в инвентарь
func (r *RegistryRepository) CreateEquipment(ctx context.Context, equipment *models.Equipment) error {
	query := `
		INSERT INTO equipment (name, type, quantity, available_quantity, location, status, last_maintenance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		equipment.Name,
		equipment.Type,
		equipment.Quantity,
		equipment.AvailableQuantity,
		equipment.Location,
		equipment.Status,
		equipment.LastMaintenance,
		equipment.CreatedAt,
	).Scan(&equipment.ID)
	if err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

// ListEquipment возвращает весь инвентарь, новые первыми
func (r *RegistryRepository) ListEquipment(ctx context.Context) ([]*models.Equipment, error) {
	query := `
		SELECT id, name, type, quantity, available_quantity, location, status, last_maintenance, created_at
		FROM equipment
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Equipment, 0)
	for rows.Next() {
		equipment := &models.Equipment{}
		err := rows.Scan(
			&equipment.ID,
			&equipment.Name,
			&equipment.Type,
			&equipment.Quantity,
			&equipment.AvailableQuantity,
			&equipment.Location,
			&equipment.Status,
			&equipment.LastMaintenance,
			&equipment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment row: %w", err)
		}
		items = append(items, equipment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error equipment iteration: %w", err)
	}
	return items, nil
}
