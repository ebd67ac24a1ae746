package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

var ErrNoTransaction = errors.New("booking has no payment transaction")

// Refunder returns a captured payment to the user. Capture happens elsewhere.
type Refunder interface {
	Refund(ctx context.Context, bookingID, transactionID string) (string, error)
}

// refundBackend is the slice of the Stripe refunds client used here.
type refundBackend interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type StripeRefunder struct {
	refunds refundBackend
	logger  *zap.Logger
}

func NewStripeRefunder(key string, logger *zap.Logger) *StripeRefunder {
	return newStripeRefunder(client.New(key, nil).Refunds, logger)
}

func newStripeRefunder(refunds refundBackend, logger *zap.Logger) *StripeRefunder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeRefunder{refunds: refunds, logger: logger}
}

// Refund issues a full refund keyed by the booking so retries never refund twice.
// transactionID may be a PaymentIntent (pi_) or a Charge (ch_).
func (r *StripeRefunder) Refund(ctx context.Context, bookingID, transactionID string) (string, error) {
	if transactionID == "" {
		return "", ErrNoTransaction
	}

	params := &stripe.RefundParams{
		Reason: stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if strings.HasPrefix(transactionID, "ch_") {
		params.Charge = stripe.String(transactionID)
	} else {
		params.PaymentIntent = stripe.String(transactionID)
	}
	params.AddMetadata("bookingId", bookingID)
	params.SetIdempotencyKey("refund-" + bookingID)

	refund, err := r.refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund for booking %s: %w", bookingID, err)
	}

	r.logger.Info("refund issued",
		zap.String("bookingID", bookingID),
		zap.String("refundID", refund.ID),
		zap.String("status", string(refund.Status)),
	)
	return refund.ID, nil
}
