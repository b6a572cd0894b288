package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/bloomday/bloomday/app/controllers"
	"github.com/bloomday/bloomday/internal/pkg/middleware"
)

// APIServer implements the versioned public API surface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// Pong is the ping response payload
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetBookings lists the authenticated tenant's bookings (API key protected).
func (s *APIServer) GetBookings(c *fiber.Ctx) error {
	return controllers.HandleListBookingsAPI(c)
}

// GetBooking returns one booking by UUID (API key protected). The controller
// reads the uuid from route params.
func (s *APIServer) GetBooking(c *fiber.Ctx, uuid string) error {
	return controllers.HandleGetBookingAPI(c)
}

// GetStats returns booking totals for the authenticated tenant.
func (s *APIServer) GetStats(c *fiber.Ctx) error {
	return controllers.HandleTenantStatsAPI(c)
}

// RegisterHandlers attaches the v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	protected := router.Group("", middleware.APIKeyAuthMiddleware())
	protected.Get("/bookings", s.GetBookings)
	protected.Get("/bookings/:uuid", func(c *fiber.Ctx) error {
		return s.GetBooking(c, c.Params("uuid"))
	})
	protected.Get("/stats", s.GetStats)
}
