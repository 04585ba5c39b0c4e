package models

import (
	"context"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/identity"
)

type Lesson struct {
	Subject   string `json:"subject"`
	TeacherID int64  `json:"teacher_id"`
}

// Schedule holds one class's lessons for a single day, keyed by "HH:MM".
type Schedule struct {
	ID        int64             `json:"id"`
	ClassID   string            `json:"class_id"`
	Day       string            `json:"day"`
	Lessons   map[string]Lesson `json:"lessons"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewSchedule(ctx context.Context, seq identity.Sequence, classID, day string) (Schedule, error) {
	id, err := seq.Next(ctx)
	if err != nil {
		return Schedule{}, err
	}
	now := time.Now().UTC()
	return Schedule{
		ID:        id,
		ClassID:   classID,
		Day:       day,
		Lessons:   make(map[string]Lesson),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddLesson books a time slot. The slot must parse as HH:MM and be free.
func (s *Schedule) AddLesson(slot, subject string, teacherID int64) error {
	if _, err := time.Parse("15:04", slot); err != nil {
		return ErrInvalidLessonTime
	}
	if _, taken := s.Lessons[slot]; taken {
		return ErrLessonSlotTaken
	}
	if s.Lessons == nil {
		s.Lessons = make(map[string]Lesson)
	}
	s.Lessons[slot] = Lesson{Subject: subject, TeacherID: teacherID}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Schedule) RemoveLesson(slot string) error {
	if _, ok := s.Lessons[slot]; !ok {
		return ErrLessonNotFound
	}
	delete(s.Lessons, slot)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// TeacherBusyAt reports whether the teacher already has a lesson in the slot.
func (s Schedule) TeacherBusyAt(slot string, teacherID int64) bool {
	lesson, ok := s.Lessons[slot]
	return ok && lesson.TeacherID == teacherID
}
