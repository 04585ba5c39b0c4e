package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/eduplatform/eduplatform-api/internal/models"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule models.Schedule) (models.Schedule, error)
	GetByID(ctx context.Context, id int64) (models.Schedule, error)
	GetByClassDay(ctx context.Context, classID, day string) (models.Schedule, error)
	ListByClass(ctx context.Context, classID string) ([]models.Schedule, error)
	ListByDay(ctx context.Context, day string) ([]models.Schedule, error)
	// Save rewrites the lessons document after add/remove operations.
	Save(ctx context.Context, schedule models.Schedule) (models.Schedule, error)
}

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduleColumns = `id, class_id, day, lessons, created_at, updated_at`

func (r *scheduleRepository) Create(ctx context.Context, schedule models.Schedule) (models.Schedule, error) {
	lessons, err := marshalJSONB(schedule.Lessons)
	if err != nil {
		return models.Schedule{}, err
	}
	const query = `
		INSERT INTO edu.schedules (id, class_id, day, lessons, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + scheduleColumns
	row := r.db.QueryRowContext(ctx, query,
		schedule.ID, schedule.ClassID, strings.ToLower(schedule.Day), lessons, schedule.CreatedAt, schedule.UpdatedAt)
	return scanSchedule(row)
}

func (r *scheduleRepository) GetByID(ctx context.Context, id int64) (models.Schedule, error) {
	const query = `
		SELECT ` + scheduleColumns + `
		FROM edu.schedules
		WHERE id = $1
	`
	return scanSchedule(r.db.QueryRowContext(ctx, query, id))
}

func (r *scheduleRepository) GetByClassDay(ctx context.Context, classID, day string) (models.Schedule, error) {
	const query = `
		SELECT ` + scheduleColumns + `
		FROM edu.schedules
		WHERE class_id = $1 AND day = $2
	`
	return scanSchedule(r.db.QueryRowContext(ctx, query, classID, strings.ToLower(day)))
}

func (r *scheduleRepository) ListByClass(ctx context.Context, classID string) ([]models.Schedule, error) {
	const query = `
		SELECT ` + scheduleColumns + `
		FROM edu.schedules
		WHERE class_id = $1
		ORDER BY day
	`
	return r.querySchedules(ctx, query, classID)
}

func (r *scheduleRepository) ListByDay(ctx context.Context, day string) ([]models.Schedule, error) {
	const query = `
		SELECT ` + scheduleColumns + `
		FROM edu.schedules
		WHERE day = $1
		ORDER BY class_id
	`
	return r.querySchedules(ctx, query, strings.ToLower(day))
}

func (r *scheduleRepository) Save(ctx context.Context, schedule models.Schedule) (models.Schedule, error) {
	lessons, err := marshalJSONB(schedule.Lessons)
	if err != nil {
		return models.Schedule{}, err
	}
	const query = `
		UPDATE edu.schedules
		SET lessons = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + scheduleColumns
	row := r.db.QueryRowContext(ctx, query, schedule.ID, lessons)
	return scanSchedule(row)
}

func (r *scheduleRepository) querySchedules(ctx context.Context, query string, args ...interface{}) ([]models.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

func scanSchedule(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Schedule, error) {
	var (
		schedule   models.Schedule
		lessonsRaw []byte
	)
	if err := scanner.Scan(
		&schedule.ID,
		&schedule.ClassID,
		&schedule.Day,
		&lessonsRaw,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	); err != nil {
		return models.Schedule{}, err
	}
	schedule.Lessons = make(map[string]models.Lesson)
	if err := unmarshalJSONB(lessonsRaw, &schedule.Lessons); err != nil {
		return models.Schedule{}, err
	}
	return schedule, nil
}
