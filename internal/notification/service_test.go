package notification

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryNotificationRepo struct {
	stored []models.Notification
}

func (m *memoryNotificationRepo) Create(ctx context.Context, notif models.Notification) (models.Notification, error) {
	m.stored = append(m.stored, notif)
	return notif, nil
}

func (m *memoryNotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, opts repository.ListNotificationsOptions) ([]models.Notification, error) {
	var out []models.Notification
	for _, notif := range m.stored {
		if notif.RecipientID != recipientID {
			continue
		}
		if opts.UnreadOnly && notif.IsRead {
			continue
		}
		if opts.Priority != "" && notif.Priority != opts.Priority {
			continue
		}
		out = append(out, notif)
	}
	return out, nil
}

func (m *memoryNotificationRepo) MarkRead(ctx context.Context, recipientID, notificationID int64) (models.Notification, error) {
	for i, notif := range m.stored {
		if notif.ID == notificationID && notif.RecipientID == recipientID {
			m.stored[i].MarkRead()
			return m.stored[i], nil
		}
	}
	return models.Notification{}, sql.ErrNoRows
}

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

type recordingNotifier struct {
	delivered []models.Notification
	fail      bool
}

func (r *recordingNotifier) Notify(ctx context.Context, notif models.Notification) error {
	if r.fail {
		return errors.New("channel unavailable")
	}
	r.delivered = append(r.delivered, notif)
	return nil
}

func newTestService(users []models.User, notifiers ...Notifier) (Service, *memoryNotificationRepo) {
	repo := &memoryNotificationRepo{}
	svc := NewService(repo, &staticUserRepo{users: users}, identity.NewMemory(), zerolog.Nop(), notifiers...)
	return svc, repo
}

func TestPublishPersistsAndDelivers(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, repo := newTestService(nil, notifier)

	notif, err := svc.Publish(context.Background(), Event{
		RecipientID: 10,
		Message:     "  Homework posted  ",
		Priority:    "IMPORTANT",
	})
	require.NoError(t, err)

	assert.Equal(t, "Homework posted", notif.Message)
	assert.Equal(t, models.PriorityImportant, notif.Priority)
	require.Len(t, repo.stored, 1)
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, notif.ID, notifier.delivered[0].ID)
}

func TestPublishRequiresMessage(t *testing.T) {
	svc, repo := newTestService(nil)

	_, err := svc.Publish(context.Background(), Event{RecipientID: 10, Message: "   "})
	require.Error(t, err)
	assert.Empty(t, repo.stored)
}

func TestPublishSurvivesDeliveryFailure(t *testing.T) {
	svc, repo := newTestService(nil, &recordingNotifier{fail: true})

	notif, err := svc.Publish(context.Background(), Event{RecipientID: 10, Message: "Homework posted"})
	require.NoError(t, err)
	assert.NotZero(t, notif.ID)
	assert.Len(t, repo.stored, 1)
}

func TestNotifyNewAssignmentFanOut(t *testing.T) {
	users := []models.User{
		{ID: 10, Role: models.RoleStudent, FullName: "Student A", GradeLevel: "9A"},
		{ID: 11, Role: models.RoleStudent, FullName: "Student B", GradeLevel: "9B"},
		{ID: 20, Role: models.RoleParent, Children: []int64{10}},
		{ID: 21, Role: models.RoleParent, Children: []int64{10},
			NotificationPreferences: map[string]bool{"new_assignment_alert": false}},
	}
	svc, repo := newTestService(users)

	assignment := models.Assignment{ID: 1, Title: "Algebra worksheet", Subject: "Math", ClassID: "9A", Deadline: "2026-09-01"}
	require.NoError(t, svc.NotifyNewAssignment(context.Background(), assignment))

	// Student 10 plus the one parent who kept the alert on. Student 11 is in
	// another class and parent 21 opted out.
	require.Len(t, repo.stored, 2)
	assert.Equal(t, int64(10), repo.stored[0].RecipientID)
	assert.Equal(t, models.PriorityImportant, repo.stored[0].Priority)
	assert.Equal(t, int64(20), repo.stored[1].RecipientID)
	assert.Equal(t, models.PriorityNormal, repo.stored[1].Priority)
}

func TestNotifyGradePostedHighGrade(t *testing.T) {
	users := []models.User{
		{ID: 10, Role: models.RoleStudent, FullName: "Student A"},
		{ID: 20, Role: models.RoleParent, Children: []int64{10}},
	}
	svc, repo := newTestService(users)

	assignment := models.Assignment{ID: 1, Title: "Algebra worksheet", Subject: "Math"}
	require.NoError(t, svc.NotifyGradePosted(context.Background(), assignment, 10, 5))

	// Only the student hears about a good grade.
	require.Len(t, repo.stored, 1)
	assert.Equal(t, int64(10), repo.stored[0].RecipientID)
}

func TestNotifyGradePostedLowGradeAlertsParents(t *testing.T) {
	users := []models.User{
		{ID: 10, Role: models.RoleStudent, FullName: "Student A"},
		{ID: 20, Role: models.RoleParent, Children: []int64{10}},
		{ID: 21, Role: models.RoleParent, Children: []int64{10},
			NotificationPreferences: map[string]bool{"low_grade_alert": false}},
		{ID: 22, Role: models.RoleParent, Children: []int64{11}},
	}
	svc, repo := newTestService(users)

	assignment := models.Assignment{ID: 1, Title: "Algebra worksheet", Subject: "Math"}
	require.NoError(t, svc.NotifyGradePosted(context.Background(), assignment, 10, 2))

	require.Len(t, repo.stored, 2)
	assert.Equal(t, int64(10), repo.stored[0].RecipientID)
	assert.Equal(t, int64(20), repo.stored[1].RecipientID)
	assert.Equal(t, models.PriorityImportant, repo.stored[1].Priority)
	assert.True(t, strings.Contains(repo.stored[1].Message, "low grade"))
}

func TestMarkReadUnknownNotification(t *testing.T) {
	svc, _ := newTestService(nil)

	_, err := svc.MarkRead(context.Background(), 10, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
