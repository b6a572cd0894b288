package payments

import (
	"context"
	"errors"
	"strconv"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/bloomday/bloomday/app/models"
)

// Outcome classifies how a delivery was resolved. The HTTP layer maps each
// outcome onto the binary retry contract: 2xx stops redelivery, anything
// else asks the provider to try again later.
type Outcome string

const (
	// OutcomeProcessed: the event was handled and reached a terminal
	// processed status.
	OutcomeProcessed Outcome = "processed"
	// OutcomeDuplicate: the ledger had already seen this (tenant, event id);
	// no side effects ran.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeIgnored: verified but not actionable (unknown event kind, or no
	// tenant scope to ledger it under).
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDeadLettered: permanently failed; recorded for operators and
	// acknowledged so the provider stops redelivering an unfixable payload.
	OutcomeDeadLettered Outcome = "dead_lettered"
	// OutcomeSignatureRejected: authentication failed; nothing was recorded.
	OutcomeSignatureRejected Outcome = "signature_rejected"
	// OutcomeUnknownProvider: no adapter is registered under that name.
	OutcomeUnknownProvider Outcome = "unknown_provider"
	// OutcomeRetryable: transient storage failure; the provider should
	// redeliver on its own schedule.
	OutcomeRetryable Outcome = "retry_later"
)

// Result is what one webhook delivery resolved to.
type Result struct {
	Outcome  Outcome
	Provider Provider
	EventID  string
	Booking  *models.Booking
	Err      error
}

// Ingress sequences adapter verification, the idempotency ledger and the
// booking finalizer for each inbound notification. All collaborators are
// injected at startup.
type Ingress struct {
	registry  *Registry
	ledger    *Ledger
	finalizer *Finalizer
	refunds   *RefundHandler
	audit     AuditSink
}

// NewIngress wires the webhook pipeline.
func NewIngress(registry *Registry, ledger *Ledger, finalizer *Finalizer, refunds *RefundHandler, audit AuditSink) *Ingress {
	return &Ingress{
		registry:  registry,
		ledger:    ledger,
		finalizer: finalizer,
		refunds:   refunds,
		audit:     audit,
	}
}

// Handle processes one raw delivery. rawBody must be the exact bytes as sent
// by the provider; signature verification depends on them.
func (i *Ingress) Handle(ctx context.Context, providerName string, rawBody []byte, signatureHeader string) Result {
	adapter, err := i.registry.Lookup(providerName)
	if err != nil {
		return Result{Outcome: OutcomeUnknownProvider, Err: err}
	}
	provider := adapter.Provider()

	ev, err := adapter.Verify(rawBody, signatureHeader)
	if err != nil {
		if errors.Is(err, ErrSignatureInvalid) {
			// Possible attack or misconfigured secret; nothing is recorded,
			// the failed delivery is only logged for investigation.
			fiberlog.Warnf("[Webhook] rejected %s delivery: %v", provider, err)
			return Result{Outcome: OutcomeSignatureRejected, Provider: provider, Err: err}
		}
		// Authenticated but unparseable. Retrying the same bytes can never
		// succeed, so acknowledge and keep the evidence in the log.
		fiberlog.Errorf("[Webhook] unparseable %s payload: %v", provider, err)
		return Result{Outcome: OutcomeIgnored, Provider: provider, Err: err}
	}

	if ev.Kind == KindIgnored {
		return Result{Outcome: OutcomeIgnored, Provider: provider, EventID: ev.ID}
	}

	tenantID64, _ := strconv.ParseUint(ev.MetadataValue("tenant_id"), 10, 64)
	if tenantID64 == 0 {
		// Without a tenant scope there is no ledger key. Acknowledge so the
		// unfixable payload stops redelivering, and leave an audit trail.
		_ = i.audit.Record(ctx, AuditFact{
			Action:     "webhook.unscoped",
			Provider:   string(provider),
			EntityKind: "webhook",
			EntityRef:  ev.ID,
			Detail:     map[string]string{"kind": string(ev.Kind)},
			OccurredAt: time.Now(),
		})
		fiberlog.Warnf("[Webhook] %s event %s carries no tenant_id; ignored", provider, ev.ID)
		return Result{Outcome: OutcomeIgnored, Provider: provider, EventID: ev.ID}
	}
	tenantID := uint(tenantID64)

	begin, err := i.ledger.BeginProcessing(ctx, tenantID, ev, rawBody)
	if err != nil {
		return Result{Outcome: OutcomeRetryable, Provider: provider, EventID: ev.ID, Err: err}
	}
	if begin.Duplicate {
		res := Result{Outcome: OutcomeDuplicate, Provider: provider, EventID: ev.ID}
		if ev.CreatesBooking() {
			// Best effort: surface the booking the first delivery created so
			// redeliveries observe the same result.
			if booking, err := i.finalizer.bookings.GetByPaymentSession(tenantID, ev.ID); err == nil {
				res.Booking = booking
			}
		}
		return res
	}

	return i.process(ctx, tenantID, ev, provider)
}

func (i *Ingress) process(ctx context.Context, tenantID uint, ev *Event, provider Provider) Result {
	switch {
	case ev.CreatesBooking():
		booking, _, err := i.finalizer.Finalize(ctx, ev)
		if err != nil {
			return i.resolveFailure(ctx, tenantID, ev, provider, err)
		}
		if err := i.ledger.MarkProcessed(ctx, tenantID, ev.ID); err != nil {
			// The booking is durable and the ledger record still blocks
			// duplicates; a stuck "processing" status is an operator
			// concern, not a reason to trigger redelivery.
			fiberlog.Errorf("[Webhook] mark processed failed for tenant=%d event=%s: %v", tenantID, ev.ID, err)
		}
		return Result{Outcome: OutcomeProcessed, Provider: provider, EventID: ev.ID, Booking: booking}

	case ev.Kind == KindRefundCompleted:
		if err := i.refunds.Handle(ctx, ev); err != nil {
			return i.resolveFailure(ctx, tenantID, ev, provider, err)
		}
		if err := i.ledger.MarkProcessed(ctx, tenantID, ev.ID); err != nil {
			fiberlog.Errorf("[Webhook] mark processed failed for tenant=%d event=%s: %v", tenantID, ev.ID, err)
		}
		return Result{Outcome: OutcomeProcessed, Provider: provider, EventID: ev.ID}

	default:
		// PaymentFailed, RefundFailed and unsuccessful checkout events are
		// recorded facts with no booking side effect.
		if err := i.ledger.MarkProcessed(ctx, tenantID, ev.ID); err != nil {
			fiberlog.Errorf("[Webhook] mark processed failed for tenant=%d event=%s: %v", tenantID, ev.ID, err)
		}
		return Result{Outcome: OutcomeProcessed, Provider: provider, EventID: ev.ID}
	}
}

// resolveFailure translates a processing error into the ledger transition
// and outcome the retry contract requires: transient failures release the
// record and request redelivery, everything else is dead-lettered.
func (i *Ingress) resolveFailure(ctx context.Context, tenantID uint, ev *Event, provider Provider, procErr error) Result {
	if errors.Is(procErr, ErrStorageUnavailable) {
		if err := i.ledger.ReleaseForRetry(ctx, tenantID, ev.ID); err != nil {
			fiberlog.Errorf("[Webhook] release for retry failed for tenant=%d event=%s: %v", tenantID, ev.ID, err)
		}
		return Result{Outcome: OutcomeRetryable, Provider: provider, EventID: ev.ID, Err: procErr}
	}

	if err := i.ledger.MarkFailed(ctx, tenantID, ev.ID, procErr.Error()); err != nil {
		fiberlog.Errorf("[Webhook] mark failed failed for tenant=%d event=%s: %v", tenantID, ev.ID, err)
	}
	_ = i.audit.Record(ctx, AuditFact{
		Action:     "webhook.dead_lettered",
		Provider:   string(provider),
		TenantID:   tenantID,
		EntityKind: "webhook",
		EntityRef:  ev.ID,
		Detail:     map[string]string{"reason": procErr.Error()},
		OccurredAt: time.Now(),
	})
	return Result{Outcome: OutcomeDeadLettered, Provider: provider, EventID: ev.ID, Err: procErr}
}
