package models

import (
	"context"
	"strings"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/identity"
)

type AssignmentDifficulty string

const (
	DifficultyEasy   AssignmentDifficulty = "easy"
	DifficultyMedium AssignmentDifficulty = "medium"
	DifficultyHard   AssignmentDifficulty = "hard"
)

func NormalizeDifficulty(d AssignmentDifficulty) AssignmentDifficulty {
	return AssignmentDifficulty(strings.ToLower(strings.TrimSpace(string(d))))
}

func IsValidDifficulty(d AssignmentDifficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type SubmissionStatus string

const (
	StatusPending        SubmissionStatus = "pending"
	StatusSubmitted      SubmissionStatus = "submitted"
	StatusGraded         SubmissionStatus = "graded"
	StatusLateSubmission SubmissionStatus = "late_submission"
)

// Grade values are a fixed contract; the range is not configurable.
const (
	GradeMin = 1
	GradeMax = 5
)

type Submission struct {
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
	IsLate      bool      `json:"is_late"`
}

type Assignment struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Deadline    string               `json:"deadline"`
	Subject     string               `json:"subject"`
	TeacherID   int64                `json:"teacher_id"`
	ClassID     string               `json:"class_id"`
	Difficulty  AssignmentDifficulty `json:"difficulty"`
	Submissions map[int64]Submission `json:"submissions"`
	Grades      map[int64]int        `json:"grades"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewAssignment allocates an identifier from the sequence and starts with
// empty submission and grade maps. The deadline is an ISO date string.
func NewAssignment(ctx context.Context, seq identity.Sequence, title, description, deadline, subject string, teacherID int64, classID string, difficulty AssignmentDifficulty) (Assignment, error) {
	id, err := seq.Next(ctx)
	if err != nil {
		return Assignment{}, err
	}
	now := time.Now().UTC()
	return Assignment{
		ID:          id,
		Title:       title,
		Description: description,
		Deadline:    deadline,
		Subject:     subject,
		TeacherID:   teacherID,
		ClassID:     classID,
		Difficulty:  NormalizeDifficulty(difficulty),
		Submissions: make(map[int64]Submission),
		Grades:      make(map[int64]int),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddSubmission records a student's submission, overwriting any previous one.
// The deadline is deliberately not checked here; callers decide lateness.
func (a *Assignment) AddSubmission(studentID int64, content string, isLate bool) {
	if a.Submissions == nil {
		a.Submissions = make(map[int64]Submission)
	}
	a.Submissions[studentID] = Submission{
		Content:     content,
		SubmittedAt: time.Now().UTC(),
		IsLate:      isLate,
	}
	a.UpdatedAt = time.Now().UTC()
}

// SetGrade records a grade for a student's submission. It rejects students
// without a submission and values outside [GradeMin, GradeMax] without
// mutating any state.
func (a *Assignment) SetGrade(studentID int64, value int) error {
	if _, ok := a.Submissions[studentID]; !ok {
		return ErrNoSubmission
	}
	if value < GradeMin || value > GradeMax {
		return ErrGradeOutOfRange
	}
	if a.Grades == nil {
		a.Grades = make(map[int64]int)
	}
	a.Grades[studentID] = value
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// SubmissionStatus derives the per-student status from current state:
// no submission is pending, a graded submission wins over lateness, and a
// late flag wins over plain submitted.
func (a Assignment) SubmissionStatus(studentID int64) SubmissionStatus {
	sub, ok := a.Submissions[studentID]
	if !ok {
		return StatusPending
	}
	if _, graded := a.Grades[studentID]; graded {
		return StatusGraded
	}
	if sub.IsLate {
		return StatusLateSubmission
	}
	return StatusSubmitted
}

type AssignmentInfo struct {
	ID               int64                `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Deadline         string               `json:"deadline"`
	Subject          string               `json:"subject"`
	TeacherID        int64                `json:"teacher_id"`
	ClassID          string               `json:"class_id"`
	Difficulty       AssignmentDifficulty `json:"difficulty"`
	SubmissionsCount int                  `json:"submissions_count"`
	GradesCount      int                  `json:"grades_count"`
	CreatedAt        time.Time            `json:"created_at"`
}

// Info returns a snapshot of the assignment with derived counts.
func (a Assignment) Info() AssignmentInfo {
	return AssignmentInfo{
		ID:               a.ID,
		Title:            a.Title,
		Description:      a.Description,
		Deadline:         a.Deadline,
		Subject:          a.Subject,
		TeacherID:        a.TeacherID,
		ClassID:          a.ClassID,
		Difficulty:       a.Difficulty,
		SubmissionsCount: len(a.Submissions),
		GradesCount:      len(a.Grades),
		CreatedAt:        a.CreatedAt,
	}
}
