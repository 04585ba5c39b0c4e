package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/eduplatform/eduplatform-api/internal/authz"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/notification"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/rs/zerolog"
)

type NotificationHandler struct {
	service notification.Service
	logger  zerolog.Logger
}

func NewNotificationHandler(service notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

// List returns the requester's notifications, optionally filtered to unread
// ones or by priority.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	opts := repository.ListNotificationsOptions{}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Limit = parsed
		}
	}
	if r.URL.Query().Get("unread") == "true" {
		opts.UnreadOnly = true
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("priority")); raw != "" {
		opts.Priority = models.NormalizePriority(models.NotificationPriority(raw))
	}

	notifications, err := h.service.ListForRecipient(r.Context(), recipientID, opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list notifications")
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	infos := make([]models.NotificationInfo, 0, len(notifications))
	for _, notif := range notifications {
		infos = append(infos, notif.Info())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": infos,
	})
}

// MarkRead flips the read flag on one of the requester's notifications.
// Re-marking an already read notification succeeds unchanged.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	notifID, ok := pathID(r, "notificationID")
	if !ok {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notif, err := h.service.MarkRead(r.Context(), recipientID, notifID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("notification_id", notifID).Msg("failed to mark notification as read")
		http.Error(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, notif.Info())
}
