package constants

// Static route constants
const (
	HealthRoute   = "/health"
	WebhooksRoute = "/webhooks"
	APIRoute      = "/api"
)
