package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/rs/zerolog"
)

// Grades at or below this value trigger the parent alert.
const lowGradeThreshold = 2

type Event struct {
	RecipientID int64
	Message     string
	Priority    models.NotificationPriority
}

type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyNewAssignment(ctx context.Context, assignment models.Assignment) error
	NotifyGradePosted(ctx context.Context, assignment models.Assignment, studentID int64, value int) error
	ListForRecipient(ctx context.Context, recipientID int64, opts repository.ListNotificationsOptions) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID int64) (models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	seq       identity.Sequence
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, users repository.UserRepository, seq identity.Sequence, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		users:     users,
		seq:       seq,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

// Publish persists the notification and pushes it to every configured
// channel. Delivery failures are logged and never fail the publish; there is
// no retry or confirmation.
func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	message := strings.TrimSpace(evt.Message)
	if message == "" {
		return models.Notification{}, fmt.Errorf("notification message is required")
	}

	notif, err := models.NewNotification(ctx, s.seq, message, evt.RecipientID, evt.Priority)
	if err != nil {
		return models.Notification{}, err
	}
	notif, err = s.repo.Create(ctx, notif)
	if err != nil {
		s.logger.Error().Err(err).Int64("recipient_id", evt.RecipientID).Msg("failed to persist notification")
		return models.Notification{}, err
	}

	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), notif)
		}
	}
	return notif, nil
}

// NotifyNewAssignment alerts every student of the assignment's class, and
// each student's parents when their preference allows it.
func (s *service) NotifyNewAssignment(ctx context.Context, assignment models.Assignment) error {
	students, err := s.users.ListStudentsByClass(ctx, assignment.ClassID)
	if err != nil {
		return err
	}
	parents, err := s.users.ListByRole(ctx, models.RoleParent)
	if err != nil {
		return err
	}

	for _, student := range students {
		_, err := s.Publish(ctx, Event{
			RecipientID: student.ID,
			Priority:    models.PriorityImportant,
			Message:     fmt.Sprintf("New assignment: %q in %s due by %s.", assignment.Title, assignment.Subject, assignment.Deadline),
		})
		if err != nil {
			return err
		}

		for _, parent := range parents {
			if !parent.HasChild(student.ID) || !parent.WantsAlert("new_assignment_alert") {
				continue
			}
			_, err := s.Publish(ctx, Event{
				RecipientID: parent.ID,
				Priority:    models.PriorityNormal,
				Message:     fmt.Sprintf("New assignment for %s: %q in %s.", student.FullName, assignment.Title, assignment.Subject),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// NotifyGradePosted alerts the student, and the student's parents when the
// grade is low and the parent has the low-grade alert enabled.
func (s *service) NotifyGradePosted(ctx context.Context, assignment models.Assignment, studentID int64, value int) error {
	_, err := s.Publish(ctx, Event{
		RecipientID: studentID,
		Priority:    models.PriorityImportant,
		Message:     fmt.Sprintf("You received a grade of %d for assignment %q in %s.", value, assignment.Title, assignment.Subject),
	})
	if err != nil {
		return err
	}

	if value > lowGradeThreshold {
		return nil
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	parents, err := s.users.ListByRole(ctx, models.RoleParent)
	if err != nil {
		return err
	}
	for _, parent := range parents {
		if !parent.HasChild(studentID) || !parent.WantsAlert("low_grade_alert") {
			continue
		}
		_, err := s.Publish(ctx, Event{
			RecipientID: parent.ID,
			Priority:    models.PriorityImportant,
			Message:     fmt.Sprintf("Warning: your child %s received a low grade (%d) for %q.", student.FullName, value, assignment.Title),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *service) ListForRecipient(ctx context.Context, recipientID int64, opts repository.ListNotificationsOptions) ([]models.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, opts)
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID int64) (models.Notification, error) {
	return s.repo.MarkRead(ctx, recipientID, notificationID)
}
