package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/segyhp/installment-engine/internal/domain"
)

func TestLogNotifier_Send(t *testing.T) {
	phone := "09121234567"
	empty := ""

	tests := []struct {
		name    string
		rem     domain.Reminder
		wantErr error
	}{
		{"system channel needs no address", domain.Reminder{Channel: domain.ChannelSystem}, nil},
		{"sms with phone", domain.Reminder{Channel: domain.ChannelSMS, RecipientPhone: &phone}, nil},
		{"sms without phone", domain.Reminder{Channel: domain.ChannelSMS}, ErrNoRecipient},
		{"sms with empty phone", domain.Reminder{Channel: domain.ChannelSMS, RecipientPhone: &empty}, ErrNoRecipient},
		{"email without address", domain.Reminder{Channel: domain.ChannelEmail}, ErrNoRecipient},
	}

	n := NewLogNotifier(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rem.ID = uuid.New()
			err := n.Send(context.Background(), &tt.rem)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLogNotifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLogNotifier(nil).Send(ctx, &domain.Reminder{Channel: domain.ChannelSystem})
	assert.ErrorIs(t, err, context.Canceled)
}
