package models

import (
	"context"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/identity"
)

// Grade is the standalone record of an evaluation, kept alongside the
// per-assignment grade map so progress reports can query by student and
// subject.
type Grade struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Subject   string    `json:"subject"`
	Value     int       `json:"value"`
	TeacherID int64     `json:"teacher_id"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGrade(ctx context.Context, seq identity.Sequence, studentID int64, subject string, value int, teacherID int64, comment string) (Grade, error) {
	if value < GradeMin || value > GradeMax {
		return Grade{}, ErrGradeOutOfRange
	}
	id, err := seq.Next(ctx)
	if err != nil {
		return Grade{}, err
	}
	return Grade{
		ID:        id,
		StudentID: studentID,
		Subject:   subject,
		Value:     value,
		TeacherID: teacherID,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}, nil
}
