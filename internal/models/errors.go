package models

import "errors"

// Domain validation failures are sentinel errors so callers can branch on
// them instead of re-checking state.
var (
	ErrNoSubmission    = errors.New("student has no submission for this assignment")
	ErrGradeOutOfRange = errors.New("grade value must be between 1 and 5")

	ErrInvalidLessonTime = errors.New("lesson time must be in HH:MM format")
	ErrLessonSlotTaken   = errors.New("a lesson is already scheduled at this time")
	ErrLessonNotFound    = errors.New("no lesson scheduled at this time")
)
