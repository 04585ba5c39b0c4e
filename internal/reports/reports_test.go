package reports

import (
	"context"
	"database/sql"
	"testing"

	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUserRepo struct {
	users []models.User
}

func (s *staticUserRepo) Create(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	return models.User{}, errors.New("not supported")
}

func (s *staticUserRepo) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	return models.User{}, errors.New("not supported")
}

func (s *staticUserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, sql.ErrNoRows
}

func (s *staticUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return models.User{}, sql.ErrNoRows
}

func (s *staticUserRepo) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *staticUserRepo) ListStudentsByClass(ctx context.Context, classID string) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		if user.Role == models.RoleStudent && user.GradeLevel == classID {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *staticUserRepo) UpdateProfile(ctx context.Context, id int64, params repository.UpdateProfileParams) (models.User, error) {
	return models.User{}, errors.New("not supported")
}

func (s *staticUserRepo) Delete(ctx context.Context, id int64) error {
	return errors.New("not supported")
}

type staticAssignmentRepo struct {
	assignments []models.Assignment
}

func (s *staticAssignmentRepo) Create(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	return models.Assignment{}, errors.New("not supported")
}

func (s *staticAssignmentRepo) GetByID(ctx context.Context, id int64) (models.Assignment, error) {
	return models.Assignment{}, sql.ErrNoRows
}

func (s *staticAssignmentRepo) List(ctx context.Context) ([]models.Assignment, error) {
	return s.assignments, nil
}

func (s *staticAssignmentRepo) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range s.assignments {
		if assignment.ClassID == classID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (s *staticAssignmentRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range s.assignments {
		if assignment.TeacherID == teacherID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (s *staticAssignmentRepo) Save(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	return models.Assignment{}, errors.New("not supported")
}

type staticGradeRepo struct {
	grades []models.Grade
}

func (s *staticGradeRepo) Create(ctx context.Context, grade models.Grade) (models.Grade, error) {
	return models.Grade{}, errors.New("not supported")
}

func (s *staticGradeRepo) ListByStudent(ctx context.Context, studentID int64, subject string) ([]models.Grade, error) {
	var out []models.Grade
	for _, grade := range s.grades {
		if grade.StudentID != studentID {
			continue
		}
		if subject != "" && grade.Subject != subject {
			continue
		}
		out = append(out, grade)
	}
	return out, nil
}

func (s *staticGradeRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Grade, error) {
	var out []models.Grade
	for _, grade := range s.grades {
		if grade.TeacherID == teacherID {
			out = append(out, grade)
		}
	}
	return out, nil
}

func newTestService() *Service {
	users := &staticUserRepo{users: []models.User{
		{ID: 10, Role: models.RoleStudent, FullName: "Student A", GradeLevel: "9A"},
		{ID: 11, Role: models.RoleStudent, FullName: "Student B", GradeLevel: "9A"},
		{ID: 12, Role: models.RoleStudent, FullName: "Student C", GradeLevel: "9B"},
		{ID: 7, Role: models.RoleTeacher, FullName: "Teacher A",
			Subjects: []string{"Math", "Physics"}, Classes: []string{"9A", "9B"}, Workload: 18},
	}}
	assignments := &staticAssignmentRepo{assignments: []models.Assignment{
		{ID: 1, TeacherID: 7, ClassID: "9A", Subject: "Math"},
		{ID: 2, TeacherID: 7, ClassID: "9B", Subject: "Physics"},
	}}
	grades := &staticGradeRepo{grades: []models.Grade{
		{ID: 1, StudentID: 10, Subject: "Math", Value: 5, TeacherID: 7},
		{ID: 2, StudentID: 10, Subject: "Physics", Value: 3, TeacherID: 7},
		{ID: 3, StudentID: 11, Subject: "Math", Value: 2, TeacherID: 7},
	}}
	return NewService(users, assignments, grades)
}

func TestStudentSuccessReport(t *testing.T) {
	report, err := newTestService().StudentSuccess(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 3)

	assert.Equal(t, 4.0, report[0].AverageGrade)
	assert.Equal(t, []int{5}, report[0].GradesBySubject["Math"])
	assert.Equal(t, 2.0, report[1].AverageGrade)
	assert.Equal(t, 0.0, report[2].AverageGrade)
}

func TestTeacherWorkloadReport(t *testing.T) {
	report, err := newTestService().TeacherWorkload(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 1)

	assert.Equal(t, int64(7), report[0].TeacherID)
	assert.Equal(t, 2, report[0].SubjectsCount)
	assert.Equal(t, 2, report[0].ClassesCount)
	assert.Equal(t, 2, report[0].AssignmentsCount)
	assert.Equal(t, 18, report[0].WorkloadHours)
}

func TestClassStatisticsReport(t *testing.T) {
	report, err := newTestService().ClassStatistics(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.Equal(t, "9A", report[0].ClassID)
	assert.Equal(t, 2, report[0].TotalStudents)
	assert.Equal(t, 3.0, report[0].AverageClassGrade)

	assert.Equal(t, "9B", report[1].ClassID)
	assert.Equal(t, 1, report[1].TotalStudents)
	assert.Equal(t, 0.0, report[1].AverageClassGrade)
}

func TestGenerateUnknownReportType(t *testing.T) {
	_, err := newTestService().Generate(context.Background(), "attendance")
	assert.ErrorIs(t, err, ErrUnknownReportType)
}
