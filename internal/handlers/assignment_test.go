package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/authz"
	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/notification"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAssignmentRepo struct {
	byID map[int64]models.Assignment
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{byID: make(map[int64]models.Assignment)}
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	m.byID[assignment.ID] = assignment
	return assignment, nil
}

func (m *memoryAssignmentRepo) GetByID(ctx context.Context, id int64) (models.Assignment, error) {
	assignment, ok := m.byID[id]
	if !ok {
		return models.Assignment{}, sql.ErrNoRows
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) List(ctx context.Context) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0, len(m.byID))
	for _, assignment := range m.byID {
		out = append(out, assignment)
	}
	return out, nil
}

func (m *memoryAssignmentRepo) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range m.byID {
		if assignment.ClassID == classID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (m *memoryAssignmentRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range m.byID {
		if assignment.TeacherID == teacherID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (m *memoryAssignmentRepo) Save(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	if _, ok := m.byID[assignment.ID]; !ok {
		return models.Assignment{}, sql.ErrNoRows
	}
	m.byID[assignment.ID] = assignment
	return assignment, nil
}

type fixedUserRepo struct {
	users map[int64]models.User
}

func (f *fixedUserRepo) Create(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	return models.User{}, errors.New("not supported")
}

func (f *fixedUserRepo) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	return models.User{}, errors.New("not supported")
}

func (f *fixedUserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fixedUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return models.User{}, sql.ErrNoRows
}

func (f *fixedUserRepo) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fixedUserRepo) ListStudentsByClass(ctx context.Context, classID string) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		if user.Role == models.RoleStudent && user.GradeLevel == classID {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fixedUserRepo) UpdateProfile(ctx context.Context, id int64, params repository.UpdateProfileParams) (models.User, error) {
	return models.User{}, errors.New("not supported")
}

func (f *fixedUserRepo) Delete(ctx context.Context, id int64) error {
	return errors.New("not supported")
}

type memoryGradeRepo struct {
	created []models.Grade
}

func (m *memoryGradeRepo) Create(ctx context.Context, grade models.Grade) (models.Grade, error) {
	m.created = append(m.created, grade)
	return grade, nil
}

func (m *memoryGradeRepo) ListByStudent(ctx context.Context, studentID int64, subject string) ([]models.Grade, error) {
	return nil, nil
}

func (m *memoryGradeRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Grade, error) {
	return nil, nil
}

type noopNotificationService struct{}

func (noopNotificationService) Publish(ctx context.Context, evt notification.Event) (models.Notification, error) {
	return models.Notification{}, nil
}

func (noopNotificationService) NotifyNewAssignment(ctx context.Context, assignment models.Assignment) error {
	return nil
}

func (noopNotificationService) NotifyGradePosted(ctx context.Context, assignment models.Assignment, studentID int64, value int) error {
	return nil
}

func (noopNotificationService) ListForRecipient(ctx context.Context, recipientID int64, opts repository.ListNotificationsOptions) ([]models.Notification, error) {
	return nil, nil
}

func (noopNotificationService) MarkRead(ctx context.Context, recipientID, notificationID int64) (models.Notification, error) {
	return models.Notification{}, sql.ErrNoRows
}

type assignmentFixture struct {
	handler     *AssignmentHandler
	assignments *memoryAssignmentRepo
	grades      *memoryGradeRepo
}

func newAssignmentFixture() assignmentFixture {
	assignments := newMemoryAssignmentRepo()
	grades := &memoryGradeRepo{}
	users := &fixedUserRepo{users: map[int64]models.User{
		7:  {ID: 7, Role: models.RoleTeacher, Subjects: []string{"Math"}},
		8:  {ID: 8, Role: models.RoleTeacher, Subjects: []string{"History"}},
		9:  {ID: 9, Role: models.RoleAdmin},
		42: {ID: 42, Role: models.RoleStudent, GradeLevel: "9A"},
	}}
	handler := NewAssignmentHandler(assignments, users, grades, noopNotificationService{},
		identity.NewMemory(), identity.NewMemory(), zerolog.Nop())
	return assignmentFixture{handler: handler, assignments: assignments, grades: grades}
}

func (f assignmentFixture) seedAssignment(t *testing.T, deadline string) models.Assignment {
	t.Helper()
	assignment, err := models.NewAssignment(context.Background(), identity.NewMemory(),
		"Algebra worksheet", "Solve all exercises", deadline, "Math", 7, "9A", models.DifficultyMedium)
	require.NoError(t, err)
	assignment, err = f.assignments.Create(context.Background(), assignment)
	require.NoError(t, err)
	return assignment
}

func authedRequest(t *testing.T, method, target, body string, userID int64, role models.UserRole, vars map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(authz.WithIdentity(req.Context(), userID, role))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestSubmitOnTime(t *testing.T) {
	fixture := newAssignmentFixture()
	future := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	assignment := fixture.seedAssignment(t, future)
	vars := map[string]string{"assignmentID": strconv.FormatInt(assignment.ID, 10)}

	req := authedRequest(t, http.MethodPost, "/api/assignments/1/submissions",
		`{"content":"my answers"}`, 42, models.RoleStudent, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Submit(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Status models.SubmissionStatus `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusSubmitted, resp.Status)
}

func TestSubmitAfterDeadlineIsLate(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2020-01-01")
	vars := map[string]string{"assignmentID": strconv.FormatInt(assignment.ID, 10)}

	req := authedRequest(t, http.MethodPost, "/api/assignments/1/submissions",
		`{"content":"my answers"}`, 42, models.RoleStudent, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Submit(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Status models.SubmissionStatus `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusLateSubmission, resp.Status)
}

func TestSubmitContentTooLong(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2026-09-01")
	vars := map[string]string{"assignmentID": strconv.FormatInt(assignment.ID, 10)}

	body := `{"content":"` + strings.Repeat("a", maxSubmissionLength+1) + `"}`
	req := authedRequest(t, http.MethodPost, "/api/assignments/1/submissions",
		body, 42, models.RoleStudent, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Submit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	stored, err := fixture.assignments.GetByID(context.Background(), assignment.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Submissions)
}

func TestGradeSubmission(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2026-09-01")
	assignment.AddSubmission(42, "my answers", false)
	_, err := fixture.assignments.Save(context.Background(), assignment)
	require.NoError(t, err)
	vars := map[string]string{
		"assignmentID": strconv.FormatInt(assignment.ID, 10),
		"studentID":    "42",
	}

	req := authedRequest(t, http.MethodPost, "/api/assignments/1/grades/42",
		`{"value":3,"comment":"solid work"}`, 7, models.RoleTeacher, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Grade(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Grade  models.Grade            `json:"grade"`
		Status models.SubmissionStatus `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusGraded, resp.Status)
	assert.Equal(t, 3, resp.Grade.Value)
	require.Len(t, fixture.grades.created, 1)
	assert.Equal(t, "Math", fixture.grades.created[0].Subject)
}

func TestGradeWithoutSubmission(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2026-09-01")
	vars := map[string]string{
		"assignmentID": strconv.FormatInt(assignment.ID, 10),
		"studentID":    "42",
	}

	req := authedRequest(t, http.MethodPost, "/api/assignments/1/grades/42",
		`{"value":3}`, 7, models.RoleTeacher, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Grade(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, fixture.grades.created)
}

func TestGradeOutOfRange(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2026-09-01")
	assignment.AddSubmission(42, "my answers", false)
	_, err := fixture.assignments.Save(context.Background(), assignment)
	require.NoError(t, err)
	vars := map[string]string{
		"assignmentID": strconv.FormatInt(assignment.ID, 10),
		"studentID":    "42",
	}

	req := authedRequest(t, http.MethodPost, "/api/assignments/1/grades/42",
		`{"value":6}`, 7, models.RoleTeacher, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Grade(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	stored, err := fixture.assignments.GetByID(context.Background(), assignment.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Grades)
}

func TestGradeWrongSubjectTeacher(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2026-09-01")
	assignment.AddSubmission(42, "my answers", false)
	_, err := fixture.assignments.Save(context.Background(), assignment)
	require.NoError(t, err)
	vars := map[string]string{
		"assignmentID": strconv.FormatInt(assignment.ID, 10),
		"studentID":    "42",
	}

	req := authedRequest(t, http.MethodPost, "/api/assignments/1/grades/42",
		`{"value":3}`, 8, models.RoleTeacher, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Grade(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGradeAdminBypassesSubjectCheck(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2026-09-01")
	assignment.AddSubmission(42, "my answers", false)
	_, err := fixture.assignments.Save(context.Background(), assignment)
	require.NoError(t, err)
	vars := map[string]string{
		"assignmentID": strconv.FormatInt(assignment.ID, 10),
		"studentID":    "42",
	}

	req := authedRequest(t, http.MethodPost, "/api/assignments/1/grades/42",
		`{"value":4}`, 9, models.RoleAdmin, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Grade(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusForUnknownStudentIsPending(t *testing.T) {
	fixture := newAssignmentFixture()
	assignment := fixture.seedAssignment(t, "2026-09-01")
	vars := map[string]string{
		"assignmentID": strconv.FormatInt(assignment.ID, 10),
		"studentID":    "99",
	}

	req := authedRequest(t, http.MethodGet, "/api/assignments/1/status/99", "", 7, models.RoleTeacher, vars)
	rec := httptest.NewRecorder()
	fixture.handler.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status models.SubmissionStatus `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusPending, resp.Status)
}

func TestDeadlinePassed(t *testing.T) {
	assert.True(t, deadlinePassed("2020-01-01"))
	assert.True(t, deadlinePassed("2020-01-01T10:00:00Z"))
	assert.False(t, deadlinePassed(time.Now().Add(time.Hour).UTC().Format(time.RFC3339)))
	// Unparseable deadlines never block a submission.
	assert.False(t, deadlinePassed("next friday"))
	// A date-only deadline stays open on the deadline day itself.
	assert.False(t, deadlinePassed(time.Now().UTC().Format("2006-01-02")))
}
