package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/bloomday/bloomday/app/models"
	"github.com/bloomday/bloomday/app/repository"
)

// ErrBookingNotFound is returned when a refund event references a payment
// session this service never booked.
var ErrBookingNotFound = errors.New("no booking for refunded payment session")

// RefundHandler applies provider-confirmed refunds to existing bookings.
// This is the only mutation path for a booking after creation, and it is an
// explicit status transition, never an overwrite.
type RefundHandler struct {
	bookings repository.BookingRepository
	audit    AuditSink
}

// NewRefundHandler creates a refund handler from its injected collaborators.
func NewRefundHandler(bookings repository.BookingRepository, audit AuditSink) *RefundHandler {
	return &RefundHandler{bookings: bookings, audit: audit}
}

// Handle marks the booking referenced by a RefundCompleted event as refunded.
// A booking already refunded is an idempotent success.
func (h *RefundHandler) Handle(ctx context.Context, ev *Event) error {
	if ev.Kind != KindRefundCompleted {
		return fmt.Errorf("refund handler received event kind %s", ev.Kind)
	}

	tenantID64, _ := strconv.ParseUint(ev.MetadataValue("tenant_id"), 10, 64)
	sessionID := ev.MetadataValue("checkout_session_id")
	if sessionID == "" {
		sessionID = ev.MetadataValue("payment_intent_id")
	}
	if tenantID64 == 0 || sessionID == "" {
		return fmt.Errorf("%w: refund event without tenant or session linkage", ErrMetadataInvalid)
	}
	tenantID := uint(tenantID64)

	updated, err := h.bookings.MarkRefunded(tenantID, sessionID)
	if err != nil {
		return fmt.Errorf("%w: mark refunded: %v", ErrStorageUnavailable, err)
	}
	if !updated {
		booking, err := h.bookings.GetByPaymentSession(tenantID, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: tenant=%d session=%s", ErrBookingNotFound, tenantID, sessionID)
			}
			return fmt.Errorf("%w: booking lookup: %v", ErrStorageUnavailable, err)
		}
		if booking.Status != models.BookingStatusRefunded {
			return fmt.Errorf("%w: tenant=%d session=%s", ErrBookingNotFound, tenantID, sessionID)
		}
		return nil
	}

	_ = h.audit.Record(ctx, AuditFact{
		Action:     "booking.refunded",
		Provider:   string(ev.Provider),
		TenantID:   tenantID,
		EntityKind: "booking",
		EntityRef:  sessionID,
		Detail:     map[string]string{"event_id": ev.ID},
		OccurredAt: time.Now(),
	})
	return nil
}
