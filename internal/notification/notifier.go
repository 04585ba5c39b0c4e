package notification

import (
	"context"
	"fmt"

	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/rs/zerolog"
)

// Notifier pushes a persisted notification to a delivery channel. Adding a
// transport (mail, push) means implementing this and passing it to NewService.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// LogNotifier writes deliveries to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("channel", "log").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, notif models.Notification) error {
	n.logger.Info().
		Int64("notification_id", notif.ID).
		Int64("recipient_id", notif.RecipientID).
		Str("priority", string(notif.Priority)).
		Msg(notif.Message)
	return nil
}

func (n *LogNotifier) String() string { return "log" }

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}

func logNotifyError(logger zerolog.Logger, err error, channel string, notif models.Notification) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Int64("notification_id", notif.ID).
		Int64("recipient_id", notif.RecipientID).
		Str("channel", channel).
		Msg("failed to deliver notification")
}
