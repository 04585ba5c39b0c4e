package repository

import (
	"context"
	"database/sql"

	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/pkg/errors"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment models.Assignment) (models.Assignment, error)
	GetByID(ctx context.Context, id int64) (models.Assignment, error)
	List(ctx context.Context) ([]models.Assignment, error)
	ListByClass(ctx context.Context, classID string) ([]models.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error)
	// Save rewrites the submissions and grades documents after a domain
	// operation mutated the in-memory record.
	Save(ctx context.Context, assignment models.Assignment) (models.Assignment, error)
}

type assignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

const assignmentColumns = `id, title, description, deadline, subject, teacher_id, class_id, difficulty, submissions, grades, created_at, updated_at`

func (r *assignmentRepository) Create(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	submissions, err := marshalJSONB(assignment.Submissions)
	if err != nil {
		return models.Assignment{}, err
	}
	grades, err := marshalJSONB(assignment.Grades)
	if err != nil {
		return models.Assignment{}, err
	}

	const query = `
		INSERT INTO edu.assignments (id, title, description, deadline, subject, teacher_id, class_id, difficulty, submissions, grades, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + assignmentColumns
	row := r.db.QueryRowContext(ctx, query,
		assignment.ID,
		assignment.Title,
		assignment.Description,
		assignment.Deadline,
		assignment.Subject,
		assignment.TeacherID,
		assignment.ClassID,
		assignment.Difficulty,
		submissions,
		grades,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)
	return scanAssignment(row)
}

func (r *assignmentRepository) GetByID(ctx context.Context, id int64) (models.Assignment, error) {
	const query = `
		SELECT ` + assignmentColumns + `
		FROM edu.assignments
		WHERE id = $1
	`
	return scanAssignment(r.db.QueryRowContext(ctx, query, id))
}

func (r *assignmentRepository) List(ctx context.Context) ([]models.Assignment, error) {
	const query = `
		SELECT ` + assignmentColumns + `
		FROM edu.assignments
		ORDER BY created_at DESC
	`
	return r.queryAssignments(ctx, query)
}

func (r *assignmentRepository) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	const query = `
		SELECT ` + assignmentColumns + `
		FROM edu.assignments
		WHERE class_id = $1
		ORDER BY created_at DESC
	`
	return r.queryAssignments(ctx, query, classID)
}

func (r *assignmentRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	const query = `
		SELECT ` + assignmentColumns + `
		FROM edu.assignments
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`
	return r.queryAssignments(ctx, query, teacherID)
}

func (r *assignmentRepository) Save(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	submissions, err := marshalJSONB(assignment.Submissions)
	if err != nil {
		return models.Assignment{}, err
	}
	grades, err := marshalJSONB(assignment.Grades)
	if err != nil {
		return models.Assignment{}, err
	}

	const query = `
		UPDATE edu.assignments
		SET submissions = $2, grades = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + assignmentColumns
	row := r.db.QueryRowContext(ctx, query, assignment.ID, submissions, grades)
	return scanAssignment(row)
}

func (r *assignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]models.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

func scanAssignment(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Assignment, error) {
	var (
		assignment     models.Assignment
		submissionsRaw []byte
		gradesRaw      []byte
	)
	if err := scanner.Scan(
		&assignment.ID,
		&assignment.Title,
		&assignment.Description,
		&assignment.Deadline,
		&assignment.Subject,
		&assignment.TeacherID,
		&assignment.ClassID,
		&assignment.Difficulty,
		&submissionsRaw,
		&gradesRaw,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	); err != nil {
		return models.Assignment{}, err
	}

	assignment.Submissions = make(map[int64]models.Submission)
	assignment.Grades = make(map[int64]int)
	if err := unmarshalJSONB(submissionsRaw, &assignment.Submissions); err != nil {
		return models.Assignment{}, errors.Wrap(err, "assignment submissions")
	}
	if err := unmarshalJSONB(gradesRaw, &assignment.Grades); err != nil {
		return models.Assignment{}, errors.Wrap(err, "assignment grades")
	}
	return assignment, nil
}
