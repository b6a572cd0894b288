package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bloomday/bloomday/internal/pkg/env"
)

const defaultPaddleTolerance = 5 * time.Minute

// PaddleAdapter verifies and normalizes Paddle Billing webhook notifications.
// Paddle signs "ts:rawBody" with HMAC-SHA256 and sends the result in the
// Paddle-Signature header as "ts=<unix>;h1=<hex>".
type PaddleAdapter struct {
	webhookSecret string
	tolerance     time.Duration

	// now is overridable for tolerance-window tests.
	now func() time.Time
}

// NewPaddleAdapter creates an adapter with an explicit endpoint secret.
func NewPaddleAdapter(webhookSecret string, tolerance time.Duration) *PaddleAdapter {
	if tolerance <= 0 {
		tolerance = defaultPaddleTolerance
	}
	return &PaddleAdapter{
		webhookSecret: strings.TrimSpace(webhookSecret),
		tolerance:     tolerance,
		now:           time.Now,
	}
}

// NewPaddleAdapterFromEnv creates an adapter configured from the environment.
func NewPaddleAdapterFromEnv() *PaddleAdapter {
	return NewPaddleAdapter(env.GetEnv("PADDLE_WEBHOOK_SECRET", ""), defaultPaddleTolerance)
}

func (a *PaddleAdapter) Provider() Provider {
	return ProviderPaddle
}

type paddleNotification struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		ID            string         `json:"id"`
		Status        string         `json:"status"`
		Action        string         `json:"action"`
		TransactionID string         `json:"transaction_id"`
		CustomData    map[string]any `json:"custom_data"`
		Details       struct {
			Totals struct {
				// Paddle serializes totals as strings of minor units.
				Total *string `json:"total"`
			} `json:"totals"`
		} `json:"details"`
	} `json:"data"`
}

func (a *PaddleAdapter) Verify(rawBody []byte, signatureHeader string) (*Event, error) {
	if err := a.checkSignature(rawBody, signatureHeader); err != nil {
		return nil, err
	}

	var n paddleNotification
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEventShape, err)
	}
	if n.EventID == "" || n.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_id or event_type", ErrUnsupportedEventShape)
	}

	metadata := stringifyCustomData(n.Data.CustomData)
	amount := parsePaddleTotal(n.Data.Details.Totals.Total)
	occurredAt := n.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = a.now()
	}

	switch n.EventType {
	case "transaction.completed":
		if n.Data.ID == "" {
			return nil, fmt.Errorf("%w: transaction event without transaction id", ErrUnsupportedEventShape)
		}
		return &Event{
			ID:               n.Data.ID,
			Kind:             KindCheckoutCompleted,
			Provider:         ProviderPaddle,
			Metadata:         metadata,
			AmountMinorUnits: amount,
			OccurredAt:       occurredAt,
			Succeeded:        n.Data.Status == "completed" || n.Data.Status == "paid",
		}, nil

	case "transaction.paid":
		if n.Data.ID == "" {
			return nil, fmt.Errorf("%w: transaction event without transaction id", ErrUnsupportedEventShape)
		}
		return &Event{
			ID:               n.Data.ID,
			Kind:             KindPaymentSucceeded,
			Provider:         ProviderPaddle,
			Metadata:         metadata,
			AmountMinorUnits: amount,
			OccurredAt:       occurredAt,
			Succeeded:        true,
		}, nil

	case "transaction.payment_failed":
		return &Event{
			ID:               n.Data.ID,
			Kind:             KindPaymentFailed,
			Provider:         ProviderPaddle,
			Metadata:         metadata,
			AmountMinorUnits: amount,
			OccurredAt:       occurredAt,
			Succeeded:        false,
		}, nil

	case "adjustment.created", "adjustment.updated":
		if n.Data.Action != "refund" {
			break
		}
		if n.Data.TransactionID != "" {
			if metadata == nil {
				metadata = map[string]string{}
			}
			metadata["checkout_session_id"] = n.Data.TransactionID
		}
		kind := KindRefundCompleted
		if n.Data.Status == "rejected" || n.Data.Status == "reversed" {
			kind = KindRefundFailed
		}
		return &Event{
			ID:               n.EventID,
			Kind:             kind,
			Provider:         ProviderPaddle,
			Metadata:         metadata,
			AmountMinorUnits: amount,
			OccurredAt:       occurredAt,
			Succeeded:        kind == KindRefundCompleted,
		}, nil
	}

	return &Event{
		ID:         n.EventID,
		Kind:       KindIgnored,
		Provider:   ProviderPaddle,
		Metadata:   map[string]string{"paddle_event_type": n.EventType},
		OccurredAt: occurredAt,
		Succeeded:  false,
	}, nil
}

func (a *PaddleAdapter) checkSignature(rawBody []byte, signatureHeader string) error {
	header := strings.TrimSpace(signatureHeader)
	if header == "" || a.webhookSecret == "" {
		return fmt.Errorf("%w: missing signature or secret", ErrSignatureInvalid)
	}

	var tsRaw, sigRaw string
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "ts="):
			tsRaw = strings.TrimPrefix(part, "ts=")
		case strings.HasPrefix(part, "h1="):
			sigRaw = strings.TrimPrefix(part, "h1=")
		}
	}
	if tsRaw == "" || sigRaw == "" {
		return fmt.Errorf("%w: malformed signature header", ErrSignatureInvalid)
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed signature timestamp", ErrSignatureInvalid)
	}
	age := a.now().Sub(time.Unix(ts, 0))
	if age > a.tolerance || age < -a.tolerance {
		return fmt.Errorf("%w: signature timestamp outside tolerance window", ErrSignatureInvalid)
	}

	expected, err := hex.DecodeString(strings.ToLower(sigRaw))
	if err != nil {
		return fmt.Errorf("%w: signature is not valid hex", ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	mac.Write([]byte(tsRaw))
	mac.Write([]byte(":"))
	mac.Write(rawBody)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return ErrSignatureInvalid
	}
	return nil
}

// stringifyCustomData flattens Paddle custom_data into string metadata.
// Non-scalar values are dropped; the checkout flow only threads strings.
func stringifyCustomData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out
}

func parsePaddleTotal(raw *string) *int64 {
	if raw == nil {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
