package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eduplatform/eduplatform-api/internal/authz"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/notification"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	users         repository.UserRepository
	grades        repository.GradeRepository
	assignments   repository.AssignmentRepository
	notifications notification.Service
	logger        zerolog.Logger
}

func NewUserHandler(
	users repository.UserRepository,
	grades repository.GradeRepository,
	assignments repository.AssignmentRepository,
	notifications notification.Service,
	logger zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		users:         users,
		grades:        grades,
		assignments:   assignments,
		notifications: notifications,
		logger:        logger.With().Str("handler", "user").Logger(),
	}
}

// canAccessStudent allows the student themselves, a parent of the student,
// or any teacher/admin.
func (h *UserHandler) canAccessStudent(r *http.Request, studentID int64) bool {
	requesterID, ok := authz.UserIDFromRequest(r)
	if !ok {
		return false
	}
	role, _ := authz.RoleFromRequest(r)
	if models.HasAtLeast(role, models.RoleTeacher) {
		return true
	}
	if requesterID == studentID {
		return true
	}
	if role == models.RoleParent {
		parent, err := h.users.GetByID(r.Context(), requesterID)
		return err == nil && parent.HasChild(studentID)
	}
	return false
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "userID")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	requesterID, _ := authz.UserIDFromRequest(r)
	role, _ := authz.RoleFromRequest(r)
	if requesterID != id && !models.HasAtLeast(role, models.RoleAdmin) {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("failed to load user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	notifications, err := h.notifications.ListForRecipient(r.Context(), id, repository.ListNotificationsOptions{})
	if err != nil {
		h.logger.Warn().Err(err).Int64("user_id", id).Msg("failed to load profile notifications")
	}
	infos := make([]models.NotificationInfo, 0, len(notifications))
	for _, notif := range notifications {
		infos = append(infos, notif.Info())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":          user,
		"notifications": infos,
	})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "userID")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	requesterID, _ := authz.UserIDFromRequest(r)
	role, _ := authz.RoleFromRequest(r)
	if requesterID != id && !models.HasAtLeast(role, models.RoleAdmin) {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	var payload struct {
		FullName   *string  `json:"full_name"`
		Email      *string  `json:"email"`
		Password   *string  `json:"password"`
		Phone      *string  `json:"phone"`
		Address    *string  `json:"address"`
		GradeLevel *string  `json:"grade_level"`
		Subjects   []string `json:"subjects"`
		Classes    []string `json:"classes"`
		Children   []int64  `json:"children"`
		Workload   *int     `json:"workload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), id, repository.UpdateProfileParams{
		FullName:   payload.FullName,
		Email:      payload.Email,
		Password:   payload.Password,
		Phone:      payload.Phone,
		Address:    payload.Address,
		GradeLevel: payload.GradeLevel,
		Subjects:   payload.Subjects,
		Classes:    payload.Classes,
		Children:   payload.Children,
		Workload:   payload.Workload,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		if strings.Contains(err.Error(), "duplicate") {
			http.Error(w, "A user with this email already exists", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("failed to update profile")
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role := models.NormalizeRole(models.UserRole(r.URL.Query().Get("role")))
	if !models.IsValidRole(role) {
		http.Error(w, "A valid role query parameter is required", http.StatusBadRequest)
		return
	}
	users, err := h.users.ListByRole(r.Context(), role)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "userID")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("failed to delete user")
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StudentGrades returns a student's grades, optionally filtered by subject,
// together with the running average.
func (h *UserHandler) StudentGrades(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(r, "userID")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if !h.canAccessStudent(r, studentID) {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	subject := strings.TrimSpace(r.URL.Query().Get("subject"))
	grades, err := h.grades.ListByStudent(r.Context(), studentID, subject)
	if err != nil {
		h.logger.Error().Err(err).Int64("student_id", studentID).Msg("failed to list grades")
		http.Error(w, "Failed to list grades", http.StatusInternalServerError)
		return
	}

	var sum int
	for _, grade := range grades {
		sum += grade.Value
	}
	average := 0.0
	if len(grades) > 0 {
		average = float64(sum) / float64(len(grades))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"grades":        grades,
		"average_grade": average,
	})
}

// StudentProgress summarizes a student's grades and per-assignment statuses
// for their class.
func (h *UserHandler) StudentProgress(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(r, "userID")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	student, err := h.users.GetByID(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Student not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load student", http.StatusInternalServerError)
		return
	}
	if student.Role != models.RoleStudent {
		http.Error(w, "User is not a student", http.StatusBadRequest)
		return
	}

	grades, err := h.grades.ListByStudent(r.Context(), studentID, "")
	if err != nil {
		h.logger.Error().Err(err).Int64("student_id", studentID).Msg("failed to list grades")
		http.Error(w, "Failed to list grades", http.StatusInternalServerError)
		return
	}
	bySubject := make(map[string][]int)
	var sum int
	for _, grade := range grades {
		bySubject[grade.Subject] = append(bySubject[grade.Subject], grade.Value)
		sum += grade.Value
	}
	average := 0.0
	if len(grades) > 0 {
		average = float64(sum) / float64(len(grades))
	}

	assignments, err := h.assignments.ListByClass(r.Context(), student.GradeLevel)
	if err != nil {
		h.logger.Error().Err(err).Str("class_id", student.GradeLevel).Msg("failed to list class assignments")
		http.Error(w, "Failed to list assignments", http.StatusInternalServerError)
		return
	}
	statuses := make(map[int64]models.SubmissionStatus, len(assignments))
	for _, assignment := range assignments {
		statuses[assignment.ID] = assignment.SubmissionStatus(studentID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":          studentID,
		"full_name":           student.FullName,
		"grade_level":         student.GradeLevel,
		"grades_by_subject":   bySubject,
		"average_grade":       average,
		"assignment_statuses": statuses,
	})
}
