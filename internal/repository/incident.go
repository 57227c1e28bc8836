package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/ems_dispatch_system/internal/models"
	"github.com/shenikar/ems_dispatch_system/internal/service"
)

const incidentCacheTTL = 5 * time.Minute

const incidentColumns = `
	id,
	type,
	location,
	description,
	priority,
	status,
	latitude,
	longitude,
	photo_ref,
	assigned_responders,
	equipment_needed,
	reported_by,
	owner_user_id,
	created_at,
	updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Type,
		&incident.Location,
		&incident.Description,
		&incident.Priority,
		&incident.Status,
		&incident.Latitude,
		&incident.Longitude,
		&incident.PhotoRef,
		&incident.AssignedResponders,
		&incident.EquipmentNeeded,
		&incident.ReportedBy,
		&incident.OwnerUserID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Create создает новую запись об инциденте; id присваивает база (bigserial)
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (
			type, location, description, priority, status,
			latitude, longitude, photo_ref,
			assigned_responders, equipment_needed,
			reported_by, owner_user_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Type,
		incident.Location,
		incident.Description,
		incident.Priority,
		incident.Status,
		incident.Latitude,
		incident.Longitude,
		incident.PhotoRef,
		incident.AssignedResponders,
		incident.EquipmentNeeded,
		incident.ReportedBy,
		incident.OwnerUserID,
		incident.CreatedAt,
		incident.UpdatedAt,
	).Scan(&incident.ID)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по идентификатору
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// List возвращает инциденты по предикатам равенства, новые первыми.
// Пустое значение фильтра означает "без ограничения".
func (r *IncidentRepository) List(ctx context.Context, filter service.IncidentFilter) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR priority = $2)
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.db.Query(ctx, query, filter.Status, filter.Priority)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// Update читает строку под блокировкой FOR UPDATE, применяет apply и записывает
// изменяемые поля той же транзакцией. Конкурентные обновления одной записи
// сериализуются блокировкой строки; ошибка apply откатывает транзакцию целиком.
func (r *IncidentRepository) Update(ctx context.Context, id int64, apply func(*models.Incident) error) (*models.Incident, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1 FOR UPDATE;`
	incident, err := scanIncident(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock incident for update: %w", err)
	}

	if err := apply(incident); err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE incidents SET
			status = $1,
			assigned_responders = $2,
			equipment_needed = $3,
			updated_at = $4
		WHERE id = $5;
	`
	if _, err := tx.Exec(ctx, updateQuery,
		incident.Status,
		incident.AssignedResponders,
		incident.EquipmentNeeded,
		incident.UpdatedAt,
		incident.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit incident update: %w", err)
	}
	return incident, nil
}

// Delete безвозвратно удаляет запись об инциденте
func (r *IncidentRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident %d: %w", id, service.ErrNotFound)
	}
	return nil
}

// Locations возвращает проекцию для карты: только записи с координатами
func (r *IncidentRepository) Locations(ctx context.Context) ([]*models.IncidentLocation, error) {
	query := `
		SELECT id, type, location, priority, status, latitude, longitude
		FROM incidents
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident locations: %w", err)
	}
	defer rows.Close()

	locations := make([]*models.IncidentLocation, 0)
	for rows.Next() {
		loc := &models.IncidentLocation{}
		err := rows.Scan(
			&loc.ID,
			&loc.Type,
			&loc.Location,
			&loc.Priority,
			&loc.Status,
			&loc.Latitude,
			&loc.Longitude,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident location row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error locations iteration: %w", err)
	}
	return locations, nil
}

// DashboardStats собирает агрегаты по инцидентам, респондентам и оборудованию
func (r *IncidentRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		IncidentsByType: make(map[string]int),
	}

	countsQuery := `
		SELECT
			(SELECT COUNT(*) FROM incidents),
			(SELECT COUNT(*) FROM incidents WHERE status = 'active'),
			(SELECT COUNT(*) FROM responders),
			(SELECT COUNT(*) FROM responders WHERE status = 'available'),
			(SELECT COUNT(*) FROM equipment),
			(SELECT COUNT(*) FROM equipment WHERE status = 'available');
	`
	err := r.db.QueryRow(ctx, countsQuery).Scan(
		&stats.TotalIncidents,
		&stats.ActiveIncidents,
		&stats.TotalResponders,
		&stats.AvailableResponders,
		&stats.TotalEquipment,
		&stats.AvailableEquipment,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard counts: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM incidents GROUP BY type;`)
	if err != nil {
		return nil, fmt.Errorf("failed to get incident type histogram: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var incidentType string
		var count int
		if err := rows.Scan(&incidentType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan histogram row: %w", err)
		}
		stats.IncidentsByType[incidentType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error histogram iteration: %w", err)
	}

	recentQuery := `
		SELECT ` + incidentColumns + `
		FROM incidents
		ORDER BY created_at DESC, id DESC
		LIMIT 7;
	`
	recentRows, err := r.db.Query(ctx, recentQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent incidents: %w", err)
	}
	defer recentRows.Close()

	stats.RecentIncidents = make([]*models.Incident, 0, 7)
	for recentRows.Next() {
		incident, err := scanIncident(recentRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent incident row: %w", err)
		}
		stats.RecentIncidents = append(stats.RecentIncidents, incident)
	}
	if err := recentRows.Err(); err != nil {
		return nil, fmt.Errorf("error recent incidents iteration: %w", err)
	}

	return stats, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, incidentCacheKey(incident.ID), val, incidentCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id int64) error {
	if err := r.redisClient.Del(ctx, incidentCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func incidentCacheKey(id int64) string {
	return fmt.Sprintf("incident:%d", id)
}
