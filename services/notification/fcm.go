package notification

import (
	"context"
	"fmt"

	"servicely/models"
	"servicely/utils"

	"firebase.google.com/go/v4/messaging"
)

// Sender is the part of the FCM client used here. *messaging.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource resolves the device token of a user or provider.
type TokenSource interface {
	GetFCMToken(ctx context.Context, id string) (string, error)
}

// FCMNotifier pushes events to the recipient's device.
type FCMNotifier struct {
	sender    Sender
	users     TokenSource
	providers TokenSource
}

func NewFCMNotifier(sender Sender, users, providers TokenSource) *FCMNotifier {
	return &FCMNotifier{sender: sender, users: users, providers: providers}
}

// Notify skips recipients without a registered token.
func (n *FCMNotifier) Notify(ctx context.Context, event models.Event) error {
	source := n.users
	if event.Recipient.Role == utils.RoleProvider {
		source = n.providers
	}
	token, err := source.GetFCMToken(ctx, event.Recipient.ID)
	if err != nil {
		return fmt.Errorf("notification: token for %s %s: %w", event.Recipient.Role, event.Recipient.ID, err)
	}
	if token == "" {
		return nil
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title(event.Type),
			Body:  event.Message,
		},
		Data: map[string]string{
			"type":      event.Type,
			"bookingId": event.BookingID,
			"role":      event.Recipient.Role,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notification: failed to send FCM message: %w", err)
	}
	return nil
}
