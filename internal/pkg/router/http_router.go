package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bloomday/bloomday/app/controllers"
	"github.com/bloomday/bloomday/app/repository"
	"github.com/bloomday/bloomday/internal/pkg/auditqueue"
	"github.com/bloomday/bloomday/internal/pkg/constants"
	"github.com/bloomday/bloomday/internal/pkg/payments"
	"github.com/bloomday/bloomday/internal/pkg/tenantconfig"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Wire the webhook pipeline: provider adapters, idempotency ledger,
	// booking finalizer and refund handler, all over the shared repositories.
	repos := repository.GetGlobalFactory()
	audit := auditqueue.GetQueue()

	registry := payments.NewRegistry(
		payments.NewStripeAdapterFromEnv(),
		payments.NewPaddleAdapterFromEnv(),
	)
	ledger := payments.NewLedger(repos.GetWebhookRepository())
	resolver := tenantconfig.NewCachedResolver(repos.GetTenantRepository())
	finalizer := payments.NewFinalizer(repos.GetBookingRepository(), resolver, audit)
	refunds := payments.NewRefundHandler(repos.GetBookingRepository(), audit)

	controllers.InitializeWebhookController(
		payments.NewIngress(registry, ledger, finalizer, refunds, audit),
	)

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Provider deliveries carry their own signature authentication; no API
	// key middleware on this route.
	app.Post(constants.WebhooksRoute+"/:provider", controllers.HandleProviderWebhook)
}
