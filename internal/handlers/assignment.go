package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/authz"
	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/notification"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/rs/zerolog"
)

// Submissions longer than this are rejected before touching the record.
const maxSubmissionLength = 500

type AssignmentHandler struct {
	assignments   repository.AssignmentRepository
	users         repository.UserRepository
	grades        repository.GradeRepository
	notifications notification.Service
	assignmentIDs identity.Sequence
	gradeIDs      identity.Sequence
	logger        zerolog.Logger
}

func NewAssignmentHandler(
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	grades repository.GradeRepository,
	notifications notification.Service,
	assignmentIDs, gradeIDs identity.Sequence,
	logger zerolog.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		assignments:   assignments,
		users:         users,
		grades:        grades,
		notifications: notifications,
		assignmentIDs: assignmentIDs,
		gradeIDs:      gradeIDs,
		logger:        logger.With().Str("handler", "assignment").Logger(),
	}
}

func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Title       string                      `json:"title"`
		Description string                      `json:"description"`
		Deadline    string                      `json:"deadline"`
		Subject     string                      `json:"subject"`
		ClassID     string                      `json:"class_id"`
		Difficulty  models.AssignmentDifficulty `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	payload.Title = strings.TrimSpace(payload.Title)
	payload.Subject = strings.TrimSpace(payload.Subject)
	payload.ClassID = strings.TrimSpace(payload.ClassID)
	if payload.Title == "" || payload.Subject == "" || payload.ClassID == "" || payload.Deadline == "" {
		http.Error(w, "Title, subject, class ID, and deadline are required", http.StatusBadRequest)
		return
	}
	difficulty := models.NormalizeDifficulty(payload.Difficulty)
	if !models.IsValidDifficulty(difficulty) {
		http.Error(w, "Difficulty must be easy, medium, or hard", http.StatusBadRequest)
		return
	}

	assignment, err := models.NewAssignment(r.Context(), h.assignmentIDs,
		payload.Title, payload.Description, payload.Deadline, payload.Subject,
		teacherID, payload.ClassID, difficulty)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to allocate assignment id")
		http.Error(w, "Failed to create assignment", http.StatusInternalServerError)
		return
	}
	assignment, err = h.assignments.Create(r.Context(), assignment)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create assignment")
		http.Error(w, "Failed to create assignment", http.StatusInternalServerError)
		return
	}

	if err := h.notifications.NotifyNewAssignment(r.Context(), assignment); err != nil {
		h.logger.Warn().Err(err).Int64("assignment_id", assignment.ID).Msg("failed to notify class about new assignment")
	}

	writeJSON(w, http.StatusCreated, assignment)
}

func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		assignments []models.Assignment
		err         error
	)
	switch {
	case r.URL.Query().Get("class_id") != "":
		assignments, err = h.assignments.ListByClass(r.Context(), r.URL.Query().Get("class_id"))
	case r.URL.Query().Get("teacher_id") != "":
		teacherID, parseErr := strconv.ParseInt(r.URL.Query().Get("teacher_id"), 10, 64)
		if parseErr != nil {
			http.Error(w, "Invalid teacher_id", http.StatusBadRequest)
			return
		}
		assignments, err = h.assignments.ListByTeacher(r.Context(), teacherID)
	default:
		assignments, err = h.assignments.List(r.Context())
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list assignments")
		http.Error(w, "Failed to list assignments", http.StatusInternalServerError)
		return
	}

	infos := make([]models.AssignmentInfo, 0, len(assignments))
	for _, assignment := range assignments {
		infos = append(infos, assignment.Info())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": infos})
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "assignmentID")
	if !ok {
		http.Error(w, "Invalid assignment ID", http.StatusBadRequest)
		return
	}
	assignment, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Assignment not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("assignment_id", id).Msg("failed to load assignment")
		http.Error(w, "Failed to load assignment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, assignment.Info())
}

// Submit records the requesting student's submission. A submission after the
// deadline is still recorded, flagged as late.
func (h *AssignmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r, "assignmentID")
	if !ok {
		http.Error(w, "Invalid assignment ID", http.StatusBadRequest)
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		http.Error(w, "Submission content is required", http.StatusBadRequest)
		return
	}
	if len(payload.Content) > maxSubmissionLength {
		http.Error(w, "Submission content exceeds 500 characters", http.StatusBadRequest)
		return
	}

	assignment, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Assignment not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("assignment_id", id).Msg("failed to load assignment")
		http.Error(w, "Failed to load assignment", http.StatusInternalServerError)
		return
	}

	isLate := deadlinePassed(assignment.Deadline)
	assignment.AddSubmission(studentID, payload.Content, isLate)

	assignment, err = h.assignments.Save(r.Context(), assignment)
	if err != nil {
		h.logger.Error().Err(err).Int64("assignment_id", id).Msg("failed to save submission")
		http.Error(w, "Failed to save submission", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"assignment": assignment.Info(),
		"status":     assignment.SubmissionStatus(studentID),
	})
}

// Grade records a grade for a student's submission, stores the standalone
// grade record, and notifies the student and parents.
func (h *AssignmentHandler) Grade(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	assignmentID, ok := pathID(r, "assignmentID")
	if !ok {
		http.Error(w, "Invalid assignment ID", http.StatusBadRequest)
		return
	}
	studentID, ok := pathID(r, "studentID")
	if !ok {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}

	var payload struct {
		Value   int    `json:"value"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	assignment, err := h.assignments.GetByID(r.Context(), assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Assignment not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("assignment_id", assignmentID).Msg("failed to load assignment")
		http.Error(w, "Failed to load assignment", http.StatusInternalServerError)
		return
	}

	requester, err := h.users.GetByID(r.Context(), requesterID)
	if err != nil {
		http.Error(w, "Failed to load requester", http.StatusInternalServerError)
		return
	}
	if requester.Role == models.RoleTeacher && !requester.Teaches(assignment.Subject) {
		http.Error(w, "Teacher does not teach this subject", http.StatusForbidden)
		return
	}

	if err := assignment.SetGrade(studentID, payload.Value); err != nil {
		switch {
		case errors.Is(err, models.ErrNoSubmission):
			http.Error(w, "Student has not submitted this assignment", http.StatusConflict)
		case errors.Is(err, models.ErrGradeOutOfRange):
			http.Error(w, "Grade value must be between 1 and 5", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to set grade", http.StatusInternalServerError)
		}
		return
	}

	assignment, err = h.assignments.Save(r.Context(), assignment)
	if err != nil {
		h.logger.Error().Err(err).Int64("assignment_id", assignmentID).Msg("failed to save grade")
		http.Error(w, "Failed to save grade", http.StatusInternalServerError)
		return
	}

	grade, err := models.NewGrade(r.Context(), h.gradeIDs, studentID, assignment.Subject, payload.Value, requesterID, payload.Comment)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build grade record")
		http.Error(w, "Failed to record grade", http.StatusInternalServerError)
		return
	}
	grade, err = h.grades.Create(r.Context(), grade)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to persist grade record")
		http.Error(w, "Failed to record grade", http.StatusInternalServerError)
		return
	}

	if err := h.notifications.NotifyGradePosted(r.Context(), assignment, studentID, payload.Value); err != nil {
		h.logger.Warn().Err(err).Int64("student_id", studentID).Msg("failed to notify about posted grade")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"grade":  grade,
		"status": assignment.SubmissionStatus(studentID),
	})
}

// Status reports the derived per-student submission state.
func (h *AssignmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := pathID(r, "assignmentID")
	if !ok {
		http.Error(w, "Invalid assignment ID", http.StatusBadRequest)
		return
	}
	studentID, ok := pathID(r, "studentID")
	if !ok {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}

	assignment, err := h.assignments.GetByID(r.Context(), assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Assignment not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("assignment_id", assignmentID).Msg("failed to load assignment")
		http.Error(w, "Failed to load assignment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assignment_id": assignmentID,
		"student_id":    studentID,
		"status":        assignment.SubmissionStatus(studentID),
	})
}

// deadlinePassed parses the stored deadline string. Unparseable deadlines
// are treated as open rather than blocking submissions.
func deadlinePassed(deadline string) bool {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, deadline); err == nil {
			if layout == "2006-01-02" {
				// Date-only deadlines stay open through the end of the day.
				t = t.Add(24*time.Hour - time.Second)
			}
			return time.Now().After(t)
		}
	}
	return false
}
