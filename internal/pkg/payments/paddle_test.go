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

const paddleTestSecret = "pdl_ntfset_test_secret"

func signPaddle(t *testing.T, secret string, ts int64, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:", ts)
	mac.Write(body)
	return fmt.Sprintf("ts=%d;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func paddleAdapterAt(now time.Time) *PaddleAdapter {
	a := NewPaddleAdapter(paddleTestSecret, 5*time.Minute)
	a.now = func() time.Time { return now }
	return a
}

func TestPaddleVerify_TransactionCompleted(t *testing.T) {
	now := time.Date(2026, 6, 12, 10, 0, 0, 0, time.UTC)
	body := []byte(`{
		"event_id": "evt_01",
		"event_type": "transaction.completed",
		"occurred_at": "2026-06-12T09:59:58Z",
		"data": {
			"id": "txn_123",
			"status": "completed",
			"custom_data": {"tenant_id": "7", "package_id": "3", "event_date": "2026-09-01", "email": "couple@example.com", "customer_name": "Jordan Lee"},
			"details": {"totals": {"total": "150000"}}
		}
	}`)

	a := paddleAdapterAt(now)
	ev, err := a.Verify(body, signPaddle(t, paddleTestSecret, now.Unix(), body))
	require.NoError(t, err)

	assert.Equal(t, "txn_123", ev.ID)
	assert.Equal(t, KindCheckoutCompleted, ev.Kind)
	assert.Equal(t, ProviderPaddle, ev.Provider)
	assert.True(t, ev.Succeeded)
	assert.Equal(t, "7", ev.MetadataValue("tenant_id"))
	require.NotNil(t, ev.AmountMinorUnits)
	assert.Equal(t, int64(150000), *ev.AmountMinorUnits)
}

func TestPaddleVerify_RejectsBadSignature(t *testing.T) {
	now := time.Now()
	body := []byte(`{"event_id":"evt_02","event_type":"transaction.completed","data":{"id":"txn_1"}}`)

	a := paddleAdapterAt(now)

	_, err := a.Verify(body, signPaddle(t, "wrong_secret", now.Unix(), body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = a.Verify(body, "")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = a.Verify(body, "ts=abc;h1=zz")
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestPaddleVerify_RejectsTamperedBody(t *testing.T) {
	now := time.Now()
	body := []byte(`{"event_id":"evt_03","event_type":"transaction.paid","data":{"id":"txn_2"}}`)
	sig := signPaddle(t, paddleTestSecret, now.Unix(), body)

	a := paddleAdapterAt(now)
	tampered := []byte(`{"event_id":"evt_03","event_type":"transaction.paid","data":{"id":"txn_999"}}`)
	_, err := a.Verify(tampered, sig)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestPaddleVerify_RejectsExpiredTimestamp(t *testing.T) {
	now := time.Now()
	body := []byte(`{"event_id":"evt_04","event_type":"transaction.paid","data":{"id":"txn_3"}}`)

	a := paddleAdapterAt(now)

	stale := now.Add(-6 * time.Minute).Unix()
	_, err := a.Verify(body, signPaddle(t, paddleTestSecret, stale, body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	future := now.Add(6 * time.Minute).Unix()
	_, err = a.Verify(body, signPaddle(t, paddleTestSecret, future, body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	within := now.Add(-4 * time.Minute).Unix()
	_, err = a.Verify(body, signPaddle(t, paddleTestSecret, within, body))
	assert.NoError(t, err)
}

func TestPaddleVerify_UnknownEventTypeIsIgnored(t *testing.T) {
	now := time.Now()
	body := []byte(`{"event_id":"evt_05","event_type":"subscription.activated","data":{"id":"sub_1"}}`)

	a := paddleAdapterAt(now)
	ev, err := a.Verify(body, signPaddle(t, paddleTestSecret, now.Unix(), body))
	require.NoError(t, err)

	assert.Equal(t, KindIgnored, ev.Kind)
	assert.Equal(t, "subscription.activated", ev.MetadataValue("paddle_event_type"))
	assert.False(t, ev.CreatesBooking())
}

func TestPaddleVerify_RefundAdjustment(t *testing.T) {
	now := time.Now()
	body := []byte(`{
		"event_id": "evt_06",
		"event_type": "adjustment.created",
		"data": {
			"id": "adj_1",
			"action": "refund",
			"status": "approved",
			"transaction_id": "txn_123",
			"custom_data": {"tenant_id": "7"}
		}
	}`)

	a := paddleAdapterAt(now)
	ev, err := a.Verify(body, signPaddle(t, paddleTestSecret, now.Unix(), body))
	require.NoError(t, err)

	assert.Equal(t, KindRefundCompleted, ev.Kind)
	assert.Equal(t, "evt_06", ev.ID)
	assert.Equal(t, "txn_123", ev.MetadataValue("checkout_session_id"))
}

func TestPaddleVerify_AbsentTotalStaysAbsent(t *testing.T) {
	now := time.Now()

	// No totals at all: amount must be nil, not zero.
	absent := []byte(`{"event_id":"evt_07","event_type":"transaction.paid","data":{"id":"txn_4","custom_data":{"tenant_id":"7"}}}`)
	a := paddleAdapterAt(now)
	ev, err := a.Verify(absent, signPaddle(t, paddleTestSecret, now.Unix(), absent))
	require.NoError(t, err)
	assert.Nil(t, ev.AmountMinorUnits)

	// Explicit zero total is a real amount.
	zero := []byte(`{"event_id":"evt_08","event_type":"transaction.paid","data":{"id":"txn_5","details":{"totals":{"total":"0"}}}}`)
	ev, err = a.Verify(zero, signPaddle(t, paddleTestSecret, now.Unix(), zero))
	require.NoError(t, err)
	require.NotNil(t, ev.AmountMinorUnits)
	assert.Equal(t, int64(0), *ev.AmountMinorUnits)
}

func TestPaddleVerify_MalformedPayload(t *testing.T) {
	now := time.Now()
	body := []byte(`{"event_id": "evt_09"`)

	a := paddleAdapterAt(now)
	_, err := a.Verify(body, signPaddle(t, paddleTestSecret, now.Unix(), body))
	assert.ErrorIs(t, err, ErrUnsupportedEventShape)
}
