package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/bloomday/bloomday/internal/pkg/env"
)

// StripeAdapter verifies and normalizes Stripe webhook notifications.
// Signature verification (HMAC-SHA256 over "t.payload", constant-time
// comparison, timestamp tolerance) is delegated to the official stripe-go
// webhook package.
type StripeAdapter struct {
	webhookSecret string
}

// NewStripeAdapter creates an adapter with an explicit endpoint secret.
func NewStripeAdapter(webhookSecret string) *StripeAdapter {
	return &StripeAdapter{webhookSecret: strings.TrimSpace(webhookSecret)}
}

// NewStripeAdapterFromEnv creates an adapter configured from the environment.
func NewStripeAdapterFromEnv() *StripeAdapter {
	return NewStripeAdapter(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
}

func (a *StripeAdapter) Provider() Provider {
	return ProviderStripe
}

// stripeCheckoutSession is the subset of the checkout.session object this
// service reads. Pointer amounts keep "absent" distinguishable from zero.
type stripeCheckoutSession struct {
	ID            string            `json:"id"`
	AmountTotal   *int64            `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
	PaymentStatus string            `json:"payment_status"`
}

type stripePaymentIntent struct {
	ID       string            `json:"id"`
	Amount   *int64            `json:"amount"`
	Metadata map[string]string `json:"metadata"`
}

type stripeCharge struct {
	ID             string            `json:"id"`
	AmountRefunded *int64            `json:"amount_refunded"`
	Metadata       map[string]string `json:"metadata"`
	PaymentIntent  string            `json:"payment_intent"`
	Refunded       bool              `json:"refunded"`
}

func (a *StripeAdapter) Verify(rawBody []byte, signatureHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(rawBody, signatureHeader, a.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if isStripeSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEventShape, err)
	}

	occurredAt := time.Unix(ev.Created, 0)

	switch string(ev.Type) {
	case "checkout.session.completed":
		var session stripeCheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil || session.ID == "" {
			return nil, fmt.Errorf("%w: malformed checkout session object", ErrUnsupportedEventShape)
		}
		return &Event{
			ID:               session.ID,
			Kind:             KindCheckoutCompleted,
			Provider:         ProviderStripe,
			Metadata:         session.Metadata,
			AmountMinorUnits: session.AmountTotal,
			OccurredAt:       occurredAt,
			Succeeded:        session.PaymentStatus == "paid" || session.PaymentStatus == "no_payment_required",
		}, nil

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripePaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &intent); err != nil || intent.ID == "" {
			return nil, fmt.Errorf("%w: malformed payment intent object", ErrUnsupportedEventShape)
		}
		kind := KindPaymentSucceeded
		succeeded := true
		if string(ev.Type) == "payment_intent.payment_failed" {
			kind = KindPaymentFailed
			succeeded = false
		}
		return &Event{
			ID:               intent.ID,
			Kind:             kind,
			Provider:         ProviderStripe,
			Metadata:         intent.Metadata,
			AmountMinorUnits: intent.Amount,
			OccurredAt:       occurredAt,
			Succeeded:        succeeded,
		}, nil

	case "charge.refunded", "charge.refund.updated":
		var charge stripeCharge
		if err := json.Unmarshal(ev.Data.Raw, &charge); err != nil || charge.ID == "" {
			return nil, fmt.Errorf("%w: malformed charge object", ErrUnsupportedEventShape)
		}
		metadata := charge.Metadata
		if charge.PaymentIntent != "" {
			if metadata == nil {
				metadata = map[string]string{}
			}
			metadata["payment_intent_id"] = charge.PaymentIntent
		}
		kind := KindRefundCompleted
		if !charge.Refunded {
			kind = KindRefundFailed
		}
		return &Event{
			ID:               ev.ID,
			Kind:             kind,
			Provider:         ProviderStripe,
			Metadata:         metadata,
			AmountMinorUnits: charge.AmountRefunded,
			OccurredAt:       occurredAt,
			Succeeded:        kind == KindRefundCompleted,
		}, nil
	}

	// Stripe ships new event types regularly; acknowledge anything verified
	// but unhandled instead of failing the delivery.
	return a.ignoredEvent(&ev, occurredAt), nil
}

func (a *StripeAdapter) ignoredEvent(ev *stripe.Event, occurredAt time.Time) *Event {
	return &Event{
		ID:         ev.ID,
		Kind:       KindIgnored,
		Provider:   ProviderStripe,
		Metadata:   map[string]string{"stripe_event_type": string(ev.Type)},
		OccurredAt: occurredAt,
		Succeeded:  false,
	}
}

func isStripeSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
