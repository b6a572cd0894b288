package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stripeTestSecret = "whsec_test_secret"

// signStripe builds a Stripe-Signature header the same way Stripe does:
// HMAC-SHA256 over "<ts>.<body>", sent as "t=<ts>,v1=<hex>".
func signStripe(t *testing.T, secret string, ts time.Time, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func stripeEventBody(eventType, dataObject string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_stripe_1",
		"type": %q,
		"created": %d,
		"data": {"object": %s}
	}`, eventType, time.Now().Unix(), dataObject))
}

func TestStripeVerify_CheckoutSessionCompleted(t *testing.T) {
	body := stripeEventBody("checkout.session.completed", `{
		"id": "cs_test_123",
		"amount_total": 150000,
		"payment_status": "paid",
		"metadata": {"tenant_id": "7", "package_id": "3", "event_date": "2026-09-01", "email": "couple@example.com", "customer_name": "Jordan Lee"}
	}`)

	a := NewStripeAdapter(stripeTestSecret)
	ev, err := a.Verify(body, signStripe(t, stripeTestSecret, time.Now(), body))
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", ev.ID)
	assert.Equal(t, KindCheckoutCompleted, ev.Kind)
	assert.Equal(t, ProviderStripe, ev.Provider)
	assert.True(t, ev.Succeeded)
	assert.True(t, ev.CreatesBooking())
	require.NotNil(t, ev.AmountMinorUnits)
	assert.Equal(t, int64(150000), *ev.AmountMinorUnits)
	assert.Equal(t, "7", ev.MetadataValue("tenant_id"))
}

func TestStripeVerify_UnpaidCheckoutDoesNotCreateBooking(t *testing.T) {
	body := stripeEventBody("checkout.session.completed", `{
		"id": "cs_test_unpaid",
		"payment_status": "unpaid",
		"metadata": {"tenant_id": "7"}
	}`)

	a := NewStripeAdapter(stripeTestSecret)
	ev, err := a.Verify(body, signStripe(t, stripeTestSecret, time.Now(), body))
	require.NoError(t, err)

	assert.False(t, ev.Succeeded)
	assert.False(t, ev.CreatesBooking())
}

func TestStripeVerify_RejectsBadSignature(t *testing.T) {
	body := stripeEventBody("checkout.session.completed", `{"id": "cs_test_123"}`)

	a := NewStripeAdapter(stripeTestSecret)

	_, err := a.Verify(body, signStripe(t, "whsec_other", time.Now(), body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = a.Verify(body, "")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	stale := time.Now().Add(-10 * time.Minute)
	_, err = a.Verify(body, signStripe(t, stripeTestSecret, stale, body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestStripeVerify_PaymentIntentEvents(t *testing.T) {
	succeeded := stripeEventBody("payment_intent.succeeded", `{
		"id": "pi_123",
		"amount": 80000,
		"metadata": {"tenant_id": "7"}
	}`)

	a := NewStripeAdapter(stripeTestSecret)
	ev, err := a.Verify(succeeded, signStripe(t, stripeTestSecret, time.Now(), succeeded))
	require.NoError(t, err)
	assert.Equal(t, KindPaymentSucceeded, ev.Kind)
	assert.True(t, ev.CreatesBooking())

	failed := stripeEventBody("payment_intent.payment_failed", `{
		"id": "pi_456",
		"metadata": {"tenant_id": "7"}
	}`)
	ev, err = a.Verify(failed, signStripe(t, stripeTestSecret, time.Now(), failed))
	require.NoError(t, err)
	assert.Equal(t, KindPaymentFailed, ev.Kind)
	assert.False(t, ev.Succeeded)
	assert.False(t, ev.CreatesBooking())
	assert.Nil(t, ev.AmountMinorUnits)
}

func TestStripeVerify_ChargeRefunded(t *testing.T) {
	body := stripeEventBody("charge.refunded", `{
		"id": "ch_123",
		"refunded": true,
		"amount_refunded": 150000,
		"payment_intent": "pi_123",
		"metadata": {"tenant_id": "7", "checkout_session_id": "cs_test_123"}
	}`)

	a := NewStripeAdapter(stripeTestSecret)
	ev, err := a.Verify(body, signStripe(t, stripeTestSecret, time.Now(), body))
	require.NoError(t, err)

	assert.Equal(t, KindRefundCompleted, ev.Kind)
	assert.Equal(t, "evt_stripe_1", ev.ID)
	assert.Equal(t, "pi_123", ev.MetadataValue("payment_intent_id"))
	assert.Equal(t, "cs_test_123", ev.MetadataValue("checkout_session_id"))
}

func TestStripeVerify_UnknownEventTypeIsIgnored(t *testing.T) {
	body := stripeEventBody("customer.created", `{"id": "cus_1"}`)

	a := NewStripeAdapter(stripeTestSecret)
	ev, err := a.Verify(body, signStripe(t, stripeTestSecret, time.Now(), body))
	require.NoError(t, err)

	assert.Equal(t, KindIgnored, ev.Kind)
	assert.Equal(t, "customer.created", ev.MetadataValue("stripe_event_type"))
}
