package payments

import (
	"strings"
	"time"
)

// Provider identifies which adapter produced an event.
type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderPaddle Provider = "paddle"
)

// EventKind is the provider-agnostic classification of a payment event.
type EventKind string

const (
	KindCheckoutCompleted EventKind = "checkout_completed"
	KindPaymentSucceeded  EventKind = "payment_succeeded"
	KindPaymentFailed     EventKind = "payment_failed"
	KindRefundCompleted   EventKind = "refund_completed"
	KindRefundFailed      EventKind = "refund_failed"
	// KindIgnored marks syntactically valid events this service does not act
	// on. Providers add event types over time; unknown types must be
	// acknowledged, never rejected.
	KindIgnored EventKind = "ignored"
)

// Event is the normalized, provider-agnostic shape all adapters produce.
// ID is globally unique per provider and serves as the idempotency key
// scoped by tenant; for booking-creating events it equals the checkout
// session / transaction identifier.
type Event struct {
	ID       string
	Kind     EventKind
	Provider Provider
	// Metadata is the business context the checkout flow threaded through
	// the provider at session creation and the provider echoed back.
	Metadata map[string]string
	// AmountMinorUnits is nil when the provider payload carried no amount.
	// Zero is a valid paid amount and is never used to mean "unknown".
	AmountMinorUnits *int64
	OccurredAt       time.Time
	Succeeded        bool
}

// CreatesBooking reports whether the event is allowed to reach the booking
// finalizer.
func (e *Event) CreatesBooking() bool {
	return e.Succeeded && (e.Kind == KindCheckoutCompleted || e.Kind == KindPaymentSucceeded)
}

// MetadataValue returns the trimmed value for a metadata key, or "".
func (e *Event) MetadataValue(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(e.Metadata[key])
}
