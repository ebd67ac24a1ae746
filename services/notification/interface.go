package notification

import (
	"context"
	"fmt"

	"servicely/models"
)

// Notifier delivers booking lifecycle events to a user or provider.
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event models.Event) error

func (f NotifierFunc) Notify(ctx context.Context, event models.Event) error {
	return f(ctx, event)
}

// Channel is the pub/sub channel a live connection for the recipient subscribes to.
func Channel(r models.Recipient) string {
	return fmt.Sprintf("events:%s:%s", r.Role, r.ID)
}

func title(eventType string) string {
	switch eventType {
	case models.EventBookingRequested:
		return "New booking request"
	case models.EventBookingConfirmed:
		return "Booking confirmed"
	case models.EventBookingUnavailable:
		return "Booking no longer available"
	case models.EventBookingCancelled:
		return "Booking cancelled"
	}
	return "Booking update"
}
