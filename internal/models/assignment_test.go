package models

import (
	"context"
	"testing"

	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssignment(t *testing.T) Assignment {
	t.Helper()
	assignment, err := NewAssignment(context.Background(), identity.NewMemory(),
		"Algebra worksheet", "Solve all exercises", "2026-09-01", "Math", 7, "9A", DifficultyMedium)
	require.NoError(t, err)
	return assignment
}

func TestNewAssignment(t *testing.T) {
	assignment := newTestAssignment(t)

	assert.Equal(t, int64(1), assignment.ID)
	assert.Equal(t, DifficultyMedium, assignment.Difficulty)
	assert.Empty(t, assignment.Submissions)
	assert.Empty(t, assignment.Grades)
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, DifficultyHard, NormalizeDifficulty(" HARD "))
	assert.True(t, IsValidDifficulty(NormalizeDifficulty("Easy")))
	assert.False(t, IsValidDifficulty(NormalizeDifficulty("impossible")))
}

func TestSubmissionLifecycle(t *testing.T) {
	assignment := newTestAssignment(t)
	studentID := int64(42)

	assert.Equal(t, StatusPending, assignment.SubmissionStatus(studentID))

	assignment.AddSubmission(studentID, "my answers", true)
	assert.Equal(t, StatusLateSubmission, assignment.SubmissionStatus(studentID))
	assert.Equal(t, 1, assignment.Info().SubmissionsCount)

	require.NoError(t, assignment.SetGrade(studentID, 3))
	assert.Equal(t, StatusGraded, assignment.SubmissionStatus(studentID))
	assert.Equal(t, 3, assignment.Grades[studentID])
	assert.Equal(t, 1, assignment.Info().GradesCount)
}

func TestSubmissionStatusOnTime(t *testing.T) {
	assignment := newTestAssignment(t)
	assignment.AddSubmission(42, "on time", false)

	assert.Equal(t, StatusSubmitted, assignment.SubmissionStatus(42))
}

func TestResubmissionOverwrites(t *testing.T) {
	assignment := newTestAssignment(t)
	assignment.AddSubmission(42, "first draft", false)
	assignment.AddSubmission(42, "final draft", true)

	require.Len(t, assignment.Submissions, 1)
	assert.Equal(t, "final draft", assignment.Submissions[42].Content)
	assert.True(t, assignment.Submissions[42].IsLate)
}

func TestSetGradeWithoutSubmission(t *testing.T) {
	assignment := newTestAssignment(t)

	err := assignment.SetGrade(42, 4)
	assert.ErrorIs(t, err, ErrNoSubmission)
	assert.Empty(t, assignment.Grades)
}

func TestSetGradeOutOfRange(t *testing.T) {
	assignment := newTestAssignment(t)
	assignment.AddSubmission(42, "my answers", false)

	for _, value := range []int{0, 6, -1, 100} {
		err := assignment.SetGrade(42, value)
		assert.ErrorIs(t, err, ErrGradeOutOfRange, "value %d", value)
	}
	assert.Empty(t, assignment.Grades)
	assert.Equal(t, StatusSubmitted, assignment.SubmissionStatus(42))
}

func TestSetGradeBoundaries(t *testing.T) {
	assignment := newTestAssignment(t)
	assignment.AddSubmission(42, "my answers", false)

	require.NoError(t, assignment.SetGrade(42, GradeMin))
	require.NoError(t, assignment.SetGrade(42, GradeMax))
	assert.Equal(t, GradeMax, assignment.Grades[42])
}

func TestGradedWinsOverLate(t *testing.T) {
	assignment := newTestAssignment(t)
	assignment.AddSubmission(42, "late work", true)
	require.NoError(t, assignment.SetGrade(42, 2))

	assert.Equal(t, StatusGraded, assignment.SubmissionStatus(42))
}
