package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type ScheduleHandler struct {
	schedules   repository.ScheduleRepository
	users       repository.UserRepository
	scheduleIDs identity.Sequence
	logger      zerolog.Logger
}

func NewScheduleHandler(schedules repository.ScheduleRepository, users repository.UserRepository, scheduleIDs identity.Sequence, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		schedules:   schedules,
		users:       users,
		scheduleIDs: scheduleIDs,
		logger:      logger.With().Str("handler", "schedule").Logger(),
	}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ClassID string `json:"class_id"`
		Day     string `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	payload.ClassID = strings.TrimSpace(payload.ClassID)
	payload.Day = strings.ToLower(strings.TrimSpace(payload.Day))
	if payload.ClassID == "" || payload.Day == "" {
		http.Error(w, "Class ID and day are required", http.StatusBadRequest)
		return
	}

	if _, err := h.schedules.GetByClassDay(r.Context(), payload.ClassID, payload.Day); err == nil {
		http.Error(w, "Schedule for this class and day already exists", http.StatusConflict)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.logger.Error().Err(err).Msg("failed to check existing schedule")
		http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}

	schedule, err := models.NewSchedule(r.Context(), h.scheduleIDs, payload.ClassID, payload.Day)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to allocate schedule id")
		http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}
	schedule, err = h.schedules.Create(r.Context(), schedule)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create schedule")
		http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, schedule)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "scheduleID")
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	schedule, err := h.schedules.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("schedule_id", id).Msg("failed to load schedule")
		http.Error(w, "Failed to load schedule", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	classID := strings.TrimSpace(r.URL.Query().Get("class_id"))
	if classID == "" {
		http.Error(w, "class_id query parameter is required", http.StatusBadRequest)
		return
	}
	schedules, err := h.schedules.ListByClass(r.Context(), classID)
	if err != nil {
		h.logger.Error().Err(err).Str("class_id", classID).Msg("failed to list schedules")
		http.Error(w, "Failed to list schedules", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": schedules})
}

// AddLesson books a slot after checking the teacher exists and is free in
// that slot across every schedule of the same day.
func (h *ScheduleHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "scheduleID")
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}

	var payload struct {
		Time      string `json:"time"`
		Subject   string `json:"subject"`
		TeacherID int64  `json:"teacher_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	payload.Subject = strings.TrimSpace(payload.Subject)
	if payload.Subject == "" || payload.TeacherID <= 0 {
		http.Error(w, "Subject and teacher ID are required", http.StatusBadRequest)
		return
	}

	teacher, err := h.users.GetByID(r.Context(), payload.TeacherID)
	if err != nil || teacher.Role != models.RoleTeacher {
		http.Error(w, "Teacher not found", http.StatusBadRequest)
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("schedule_id", id).Msg("failed to load schedule")
		http.Error(w, "Failed to load schedule", http.StatusInternalServerError)
		return
	}

	sameDay, err := h.schedules.ListByDay(r.Context(), schedule.Day)
	if err != nil {
		h.logger.Error().Err(err).Str("day", schedule.Day).Msg("failed to check teacher availability")
		http.Error(w, "Failed to check teacher availability", http.StatusInternalServerError)
		return
	}
	for _, other := range sameDay {
		if other.ID == schedule.ID {
			continue
		}
		if other.TeacherBusyAt(payload.Time, payload.TeacherID) {
			http.Error(w, "Teacher is already scheduled at this time", http.StatusConflict)
			return
		}
	}

	if err := schedule.AddLesson(payload.Time, payload.Subject, payload.TeacherID); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidLessonTime):
			http.Error(w, "Lesson time must be in HH:MM format", http.StatusBadRequest)
		case errors.Is(err, models.ErrLessonSlotTaken):
			http.Error(w, "A lesson is already scheduled at this time", http.StatusConflict)
		default:
			http.Error(w, "Failed to add lesson", http.StatusInternalServerError)
		}
		return
	}

	schedule, err = h.schedules.Save(r.Context(), schedule)
	if err != nil {
		h.logger.Error().Err(err).Int64("schedule_id", id).Msg("failed to save schedule")
		http.Error(w, "Failed to save schedule", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, schedule)
}

func (h *ScheduleHandler) RemoveLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "scheduleID")
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	slot := mux.Vars(r)["time"]

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("schedule_id", id).Msg("failed to load schedule")
		http.Error(w, "Failed to load schedule", http.StatusInternalServerError)
		return
	}

	if err := schedule.RemoveLesson(slot); err != nil {
		http.Error(w, "No lesson scheduled at this time", http.StatusNotFound)
		return
	}

	schedule, err = h.schedules.Save(r.Context(), schedule)
	if err != nil {
		h.logger.Error().Err(err).Int64("schedule_id", id).Msg("failed to save schedule")
		http.Error(w, "Failed to save schedule", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}
