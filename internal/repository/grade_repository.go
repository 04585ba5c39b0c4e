package repository

import (
	"context"
	"database/sql"

	"github.com/eduplatform/eduplatform-api/internal/models"
)

type GradeRepository interface {
	Create(ctx context.Context, grade models.Grade) (models.Grade, error)
	// ListByStudent returns the student's grades, optionally limited to one
	// subject when subject is non-empty.
	ListByStudent(ctx context.Context, studentID int64, subject string) ([]models.Grade, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Grade, error)
}

type gradeRepository struct {
	db *sql.DB
}

func NewGradeRepository(db *sql.DB) GradeRepository {
	return &gradeRepository{db: db}
}

const gradeColumns = `id, student_id, subject, value, teacher_id, comment, created_at`

func (r *gradeRepository) Create(ctx context.Context, grade models.Grade) (models.Grade, error) {
	const query = `
		INSERT INTO edu.grades (id, student_id, subject, value, teacher_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + gradeColumns
	row := r.db.QueryRowContext(ctx, query,
		grade.ID, grade.StudentID, grade.Subject, grade.Value, grade.TeacherID, grade.Comment, grade.CreatedAt)
	return scanGrade(row)
}

func (r *gradeRepository) ListByStudent(ctx context.Context, studentID int64, subject string) ([]models.Grade, error) {
	const query = `
		SELECT ` + gradeColumns + `
		FROM edu.grades
		WHERE student_id = $1
		  AND ($2 = '' OR subject = $2)
		ORDER BY created_at
	`
	return r.queryGrades(ctx, query, studentID, subject)
}

func (r *gradeRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Grade, error) {
	const query = `
		SELECT ` + gradeColumns + `
		FROM edu.grades
		WHERE teacher_id = $1
		ORDER BY created_at
	`
	return r.queryGrades(ctx, query, teacherID)
}

func (r *gradeRepository) queryGrades(ctx context.Context, query string, args ...interface{}) ([]models.Grade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grades []models.Grade
	for rows.Next() {
		grade, err := scanGrade(rows)
		if err != nil {
			return nil, err
		}
		grades = append(grades, grade)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grades, nil
}

func scanGrade(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Grade, error) {
	var (
		grade   models.Grade
		comment sql.NullString
	)
	if err := scanner.Scan(
		&grade.ID,
		&grade.StudentID,
		&grade.Subject,
		&grade.Value,
		&grade.TeacherID,
		&comment,
		&grade.CreatedAt,
	); err != nil {
		return models.Grade{}, err
	}
	grade.Comment = comment.String
	return grade, nil
}
