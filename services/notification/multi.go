package notification

import (
	"context"

	"servicely/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MultiNotifier delivers every event through all channels concurrently.
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiNotifier{notifiers: notifiers, logger: logger}
}

// Notify returns the first channel error. Every channel is still attempted.
func (m *MultiNotifier) Notify(ctx context.Context, event models.Event) error {
	var g errgroup.Group
	for _, n := range m.notifiers {
		n := n
		g.Go(func() error {
			if err := n.Notify(ctx, event); err != nil {
				m.logger.Warn("notification delivery failed",
					zap.String("type", event.Type),
					zap.String("bookingID", event.BookingID),
					zap.String("recipient", Channel(event.Recipient)),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// NotifyAll fans out a batch of events and waits for all of them.
func NotifyAll(ctx context.Context, n Notifier, events []models.Event) error {
	var g errgroup.Group
	for _, event := range events {
		event := event
		g.Go(func() error {
			return n.Notify(ctx, event)
		})
	}
	return g.Wait()
}
