// Package reports builds the admin-facing summaries over the stored users,
// assignments, and grades.
package reports

import (
	"context"

	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/pkg/errors"
)

const (
	TypeStudentSuccess  = "student_success"
	TypeTeacherWorkload = "teacher_workload"
	TypeClassStatistics = "class_statistics"
)

var ErrUnknownReportType = errors.New("unknown report type")

type StudentSuccess struct {
	StudentID       int64            `json:"student_id"`
	FullName        string           `json:"full_name"`
	GradeLevel      string           `json:"grade_level"`
	AverageGrade    float64          `json:"average_grade"`
	GradesBySubject map[string][]int `json:"grades_by_subject"`
}

type TeacherWorkload struct {
	TeacherID        int64  `json:"teacher_id"`
	FullName         string `json:"full_name"`
	SubjectsCount    int    `json:"subjects_count"`
	ClassesCount     int    `json:"classes_count"`
	AssignmentsCount int    `json:"assignments_count"`
	WorkloadHours    int    `json:"workload_hours"`
}

type ClassStudent struct {
	StudentID    int64   `json:"student_id"`
	FullName     string  `json:"full_name"`
	AverageGrade float64 `json:"average_grade"`
}

type ClassStatistics struct {
	ClassID           string         `json:"class_id"`
	TotalStudents     int            `json:"total_students"`
	AverageClassGrade float64        `json:"average_class_grade"`
	Students          []ClassStudent `json:"students"`
}

type Service struct {
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	grades      repository.GradeRepository
}

func NewService(users repository.UserRepository, assignments repository.AssignmentRepository, grades repository.GradeRepository) *Service {
	return &Service{users: users, assignments: assignments, grades: grades}
}

// Generate dispatches by report type so the handler stays a thin shim.
func (s *Service) Generate(ctx context.Context, reportType string) (interface{}, error) {
	switch reportType {
	case TypeStudentSuccess:
		return s.StudentSuccess(ctx)
	case TypeTeacherWorkload:
		return s.TeacherWorkload(ctx)
	case TypeClassStatistics:
		return s.ClassStatistics(ctx)
	default:
		return nil, ErrUnknownReportType
	}
}

func (s *Service) StudentSuccess(ctx context.Context) ([]StudentSuccess, error) {
	students, err := s.users.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	report := make([]StudentSuccess, 0, len(students))
	for _, student := range students {
		bySubject, avg, err := s.studentGrades(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		report = append(report, StudentSuccess{
			StudentID:       student.ID,
			FullName:        student.FullName,
			GradeLevel:      student.GradeLevel,
			AverageGrade:    avg,
			GradesBySubject: bySubject,
		})
	}
	return report, nil
}

func (s *Service) TeacherWorkload(ctx context.Context) ([]TeacherWorkload, error) {
	teachers, err := s.users.ListByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, err
	}

	report := make([]TeacherWorkload, 0, len(teachers))
	for _, teacher := range teachers {
		assignments, err := s.assignments.ListByTeacher(ctx, teacher.ID)
		if err != nil {
			return nil, err
		}
		report = append(report, TeacherWorkload{
			TeacherID:        teacher.ID,
			FullName:         teacher.FullName,
			SubjectsCount:    len(teacher.Subjects),
			ClassesCount:     len(teacher.Classes),
			AssignmentsCount: len(assignments),
			WorkloadHours:    teacher.Workload,
		})
	}
	return report, nil
}

func (s *Service) ClassStatistics(ctx context.Context) ([]ClassStatistics, error) {
	students, err := s.users.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	byClass := make(map[string]*ClassStatistics)
	order := make([]string, 0)
	for _, student := range students {
		_, avg, err := s.studentGrades(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		stats, ok := byClass[student.GradeLevel]
		if !ok {
			stats = &ClassStatistics{ClassID: student.GradeLevel}
			byClass[student.GradeLevel] = stats
			order = append(order, student.GradeLevel)
		}
		stats.TotalStudents++
		stats.Students = append(stats.Students, ClassStudent{
			StudentID:    student.ID,
			FullName:     student.FullName,
			AverageGrade: avg,
		})
	}

	report := make([]ClassStatistics, 0, len(order))
	for _, classID := range order {
		stats := byClass[classID]
		var sum float64
		for _, st := range stats.Students {
			sum += st.AverageGrade
		}
		if stats.TotalStudents > 0 {
			stats.AverageClassGrade = sum / float64(stats.TotalStudents)
		}
		report = append(report, *stats)
	}
	return report, nil
}

func (s *Service) studentGrades(ctx context.Context, studentID int64) (map[string][]int, float64, error) {
	grades, err := s.grades.ListByStudent(ctx, studentID, "")
	if err != nil {
		return nil, 0, err
	}
	bySubject := make(map[string][]int)
	var sum, count int
	for _, grade := range grades {
		bySubject[grade.Subject] = append(bySubject[grade.Subject], grade.Value)
		sum += grade.Value
		count++
	}
	if count == 0 {
		return bySubject, 0, nil
	}
	return bySubject, float64(sum) / float64(count), nil
}
