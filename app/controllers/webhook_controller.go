package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/bloomday/bloomday/internal/pkg/mail"
	"github.com/bloomday/bloomday/internal/pkg/metrics/counter"
	"github.com/bloomday/bloomday/internal/pkg/payments"
)

const webhookTimeout = 15 * time.Second

var webhookIngress *payments.Ingress

// InitializeWebhookController injects the webhook pipeline. Must be called
// during router setup before any delivery arrives.
func InitializeWebhookController(ingress *payments.Ingress) {
	webhookIngress = ingress
}

// HandleProviderWebhook receives one raw provider notification on
// POST /webhooks/:provider. The response status implements the binary retry
// contract: 2xx stops redelivery, 401/404 signal a caller problem, 503 asks
// the provider to redeliver later.
func HandleProviderWebhook(c *fiber.Ctx) error {
	if webhookIngress == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Webhook pipeline not initialized"})
	}

	providerName := c.Params("provider")

	// Copy before the fiber buffer is recycled; signature verification needs
	// the exact bytes the provider signed.
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := signatureHeader(c, providerName)

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	result := webhookIngress.Handle(ctx, providerName, rawBody, signature)

	if result.Provider != "" {
		if err := counter.AddWebhookOutcome(string(result.Provider), string(result.Outcome)); err != nil {
			fiberlog.Debugf("[Webhook] outcome counter failed: %v", err)
		}
	}
	if result.Outcome == payments.OutcomeProcessed && result.Booking != nil {
		if err := counter.AddTenantBooking(result.Booking.TenantID); err != nil {
			fiberlog.Debugf("[Webhook] booking counter failed: %v", err)
		}
		// Confirmation mail is best effort and must not delay the response.
		booking := result.Booking
		go func() {
			if err := mail.SendBookingConfirmation(booking); err != nil {
				fiberlog.Warnf("[Webhook] confirmation mail failed for booking %s: %v", booking.UUID, err)
			}
		}()
	}

	switch result.Outcome {
	case payments.OutcomeUnknownProvider:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Unknown payment provider"})
	case payments.OutcomeSignatureRejected:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Signature verification failed"})
	case payments.OutcomeRetryable:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Temporary failure, please redeliver"})
	default:
		// processed, duplicate, ignored and dead_lettered are all terminal
		// from the provider's point of view.
		body := fiber.Map{"outcome": string(result.Outcome)}
		if result.EventID != "" {
			body["event_id"] = result.EventID
		}
		if result.Booking != nil {
			body["booking_uuid"] = result.Booking.UUID
		}
		return c.Status(fiber.StatusOK).JSON(body)
	}
}

func signatureHeader(c *fiber.Ctx, providerName string) string {
	switch providerName {
	case "stripe":
		return c.Get("Stripe-Signature")
	case "paddle":
		return c.Get("Paddle-Signature")
	default:
		return ""
	}
}
