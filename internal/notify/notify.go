// Package notify delivers reminders to their recipients.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/logger"
)

var ErrNoRecipient = errors.New("reminder has no recipient for its channel")

// Notifier sends one reminder. A returned error marks the delivery failed.
type Notifier interface {
	Send(ctx context.Context, rem *domain.Reminder) error
}

// LogNotifier writes reminders to the log. It is the default when no
// external transport is configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogNotifier{log: log.WithComponent("notify")}
}

func (n *LogNotifier) Send(ctx context.Context, rem *domain.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckRecipient(rem); err != nil {
		return err
	}

	n.log.Infow("Reminder delivered",
		"reminder_id", rem.ID,
		"channel", rem.Channel,
		"priority", rem.Priority,
		"title", rem.Title,
		"scheduled_date", rem.ScheduledDate,
	)
	return nil
}

// CheckRecipient rejects sms and email reminders without an address.
func CheckRecipient(rem *domain.Reminder) error {
	switch rem.Channel {
	case domain.ChannelSMS:
		if rem.RecipientPhone == nil || *rem.RecipientPhone == "" {
			return fmt.Errorf("%w: %s", ErrNoRecipient, rem.Channel)
		}
	case domain.ChannelEmail:
		if rem.RecipientEmail == nil || *rem.RecipientEmail == "" {
			return fmt.Errorf("%w: %s", ErrNoRecipient, rem.Channel)
		}
	}
	return nil
}
