package models

import (
	"context"
	"strings"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/identity"
)

type NotificationPriority string

const (
	PriorityNormal    NotificationPriority = "normal"
	PriorityImportant NotificationPriority = "important"
)

// NormalizePriority lowercases the priority tag and falls back to normal for
// anything outside the closed set, so construction never fails on input.
func NormalizePriority(priority NotificationPriority) NotificationPriority {
	switch NotificationPriority(strings.ToLower(strings.TrimSpace(string(priority)))) {
	case PriorityImportant:
		return PriorityImportant
	default:
		return PriorityNormal
	}
}

type Notification struct {
	ID          int64                `json:"id"`
	Message     string               `json:"message"`
	RecipientID int64                `json:"recipient_id"`
	Priority    NotificationPriority `json:"priority"`
	IsRead      bool                 `json:"is_read"`
	CreatedAt   time.Time            `json:"created_at"`
}

// NewNotification allocates an identifier from the sequence and stamps the
// creation time. The recipient is not checked against the user records.
func NewNotification(ctx context.Context, seq identity.Sequence, message string, recipientID int64, priority NotificationPriority) (Notification, error) {
	id, err := seq.Next(ctx)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		ID:          id,
		Message:     message,
		RecipientID: recipientID,
		Priority:    NormalizePriority(priority),
		IsRead:      false,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// MarkRead flips the read flag. There is no un-read transition, so calling
// it repeatedly is harmless.
func (n *Notification) MarkRead() {
	n.IsRead = true
}

type NotificationInfo struct {
	ID          int64                `json:"id"`
	Message     string               `json:"message"`
	RecipientID int64                `json:"recipient_id"`
	Priority    NotificationPriority `json:"priority"`
	IsRead      bool                 `json:"is_read"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Info returns a point-in-time snapshot of the notification.
func (n Notification) Info() NotificationInfo {
	return NotificationInfo{
		ID:          n.ID,
		Message:     n.Message,
		RecipientID: n.RecipientID,
		Priority:    n.Priority,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}
