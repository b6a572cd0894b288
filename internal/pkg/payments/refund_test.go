package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomday/bloomday/app/models"
)

func refundEvent(eventID, tenantID, sessionID string) *Event {
	return &Event{
		ID:       eventID,
		Kind:     KindRefundCompleted,
		Provider: ProviderStripe,
		Metadata: map[string]string{
			"tenant_id":           tenantID,
			"checkout_session_id": sessionID,
		},
		OccurredAt: time.Now(),
		Succeeded:  true,
	}
}

// seedBooking creates a confirmed booking for tenant 7 through the finalizer.
func seedBooking(t *testing.T, repo *fakeBookingRepo, sessionID string) *models.Booking {
	t.Helper()
	f := newTestFinalizer(repo, nil, nil)
	booking, created, err := f.Finalize(context.Background(), checkoutEvent(sessionID, "7", 10000))
	require.NoError(t, err)
	require.True(t, created)
	return booking
}

func TestRefund_MarksBookingRefunded(t *testing.T) {
	repo := newFakeBookingRepo()
	audit := &recordingAudit{}
	seedBooking(t, repo, "cs_1")

	h := NewRefundHandler(repo, audit)
	require.NoError(t, h.Handle(context.Background(), refundEvent("evt_r1", "7", "cs_1")))

	booking, err := repo.GetByPaymentSession(7, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRefunded, booking.Status)
	assert.NotNil(t, booking.RefundedAt)
	assert.Contains(t, audit.actions(), "booking.refunded")
}

func TestRefund_AlreadyRefundedIsIdempotent(t *testing.T) {
	repo := newFakeBookingRepo()
	seedBooking(t, repo, "cs_1")
	h := NewRefundHandler(repo, &recordingAudit{})

	require.NoError(t, h.Handle(context.Background(), refundEvent("evt_r1", "7", "cs_1")))
	assert.NoError(t, h.Handle(context.Background(), refundEvent("evt_r2", "7", "cs_1")))
}

func TestRefund_UnknownSession(t *testing.T) {
	h := NewRefundHandler(newFakeBookingRepo(), &recordingAudit{})
	err := h.Handle(context.Background(), refundEvent("evt_r1", "7", "cs_ghost"))
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRefund_MissingLinkage(t *testing.T) {
	h := NewRefundHandler(newFakeBookingRepo(), &recordingAudit{})

	ev := refundEvent("evt_r1", "7", "cs_1")
	delete(ev.Metadata, "checkout_session_id")
	err := h.Handle(context.Background(), ev)
	assert.ErrorIs(t, err, ErrMetadataInvalid)

	ev = refundEvent("evt_r2", "", "cs_1")
	ev.Metadata["tenant_id"] = ""
	err = h.Handle(context.Background(), ev)
	assert.ErrorIs(t, err, ErrMetadataInvalid)
}

func TestRefund_PaymentIntentFallback(t *testing.T) {
	repo := newFakeBookingRepo()
	seedBooking(t, repo, "pi_123")
	h := NewRefundHandler(repo, &recordingAudit{})

	ev := refundEvent("evt_r1", "7", "")
	delete(ev.Metadata, "checkout_session_id")
	ev.Metadata["payment_intent_id"] = "pi_123"

	require.NoError(t, h.Handle(context.Background(), ev))
	booking, err := repo.GetByPaymentSession(7, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRefunded, booking.Status)
}

func TestRefund_WrongTenantCannotRefund(t *testing.T) {
	repo := newFakeBookingRepo()
	seedBooking(t, repo, "cs_1")
	h := NewRefundHandler(repo, &recordingAudit{})

	err := h.Handle(context.Background(), refundEvent("evt_r1", "8", "cs_1"))
	assert.ErrorIs(t, err, ErrBookingNotFound)

	booking, err := repo.GetByPaymentSession(7, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
}
