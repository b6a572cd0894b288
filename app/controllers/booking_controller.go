package controllers

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/bloomday/bloomday/app/models"
	"github.com/bloomday/bloomday/app/repository"
	"github.com/bloomday/bloomday/internal/pkg/metrics/counter"
	"github.com/bloomday/bloomday/internal/pkg/tenantcontext"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// HandleListBookingsAPI returns the authenticated tenant's bookings, newest
// first. Security: API key required via router middleware.
func HandleListBookingsAPI(c *fiber.Ctx) error {
	tenant := tenantcontext.GetTenantContext(c)
	if !tenant.Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := (page - 1) * limit

	repos := repository.GetGlobalFactory()
	bookings, err := repos.GetBookingRepository().ListByTenant(tenant.TenantID, offset, limit)
	if err != nil {
		fiberlog.Errorf("[API] booking list failed for tenant %d: %v", tenant.TenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load bookings"})
	}
	total, err := repos.GetBookingRepository().CountByTenant(tenant.TenantID)
	if err != nil {
		fiberlog.Errorf("[API] booking count failed for tenant %d: %v", tenant.TenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load bookings"})
	}

	items := make([]fiber.Map, 0, len(bookings))
	for i := range bookings {
		items = append(items, bookingResource(tenant.TenantID, &bookings[i]))
	}

	return c.JSON(fiber.Map{
		"bookings": items,
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}

// HandleGetBookingAPI returns one booking by UUID, scoped to the
// authenticated tenant. A booking owned by another tenant is reported as not
// found rather than forbidden.
func HandleGetBookingAPI(c *fiber.Ctx) error {
	tenant := tenantcontext.GetTenantContext(c)
	if !tenant.Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	uuid := c.Params("uuid")
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "uuid missing"})
	}

	booking, err := repository.GetGlobalFactory().GetBookingRepository().GetByUUIDForTenant(tenant.TenantID, uuid)
	if err != nil || booking == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "booking not found"})
	}

	return c.JSON(bookingResource(tenant.TenantID, booking))
}

// HandleTenantStatsAPI returns booking totals for the authenticated tenant.
func HandleTenantStatsAPI(c *fiber.Ctx) error {
	tenant := tenantcontext.GetTenantContext(c)
	if !tenant.Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	repos := repository.GetGlobalFactory()
	total, err := repos.GetBookingRepository().CountByTenant(tenant.TenantID)
	if err != nil {
		fiberlog.Errorf("[API] stats failed for tenant %d: %v", tenant.TenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load stats"})
	}

	packages, err := repos.GetPackageRepository().ListByTenant(tenant.TenantID)
	if err != nil {
		fiberlog.Errorf("[API] package list failed for tenant %d: %v", tenant.TenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load stats"})
	}

	// Cached counter is best effort; the DB count is authoritative.
	recent, err := counter.TenantBookings(tenant.TenantID)
	if err != nil {
		recent = 0
	}

	return c.JSON(fiber.Map{
		"tenant": fiber.Map{
			"id":   tenant.TenantID,
			"name": tenant.Name,
			"slug": tenant.Slug,
		},
		"bookings_total":         total,
		"bookings_since_counter": recent,
		"packages_total":         len(packages),
	})
}

func bookingResource(tenantID uint, b *models.Booking) fiber.Map {
	resource := fiber.Map{
		"uuid":                   b.UUID,
		"reference":              b.Reference,
		"provider":               b.Provider,
		"package_id":             b.PackageID,
		"add_on_ids":             b.AddOnIDs(),
		"event_date":             b.EventDate.Format("2006-01-02"),
		"customer_email":         b.CustomerEmail,
		"customer_name":          b.CustomerName,
		"total_minor_units":      b.TotalMinorUnits,
		"commission_minor_units": b.CommissionMinorUnits,
		"commission_percent":     b.CommissionPercent.String(),
		"status":                 b.Status,
		"created_at":             b.CreatedAt,
	}
	if b.RefundedAt != nil {
		resource["refunded_at"] = b.RefundedAt
	}
	if pkg, err := repository.GetGlobalFactory().GetPackageRepository().GetByIDForTenant(tenantID, b.PackageID); err == nil && pkg != nil {
		resource["package_name"] = pkg.Name
	}
	return resource
}
