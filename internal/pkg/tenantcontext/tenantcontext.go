package tenantcontext

import "github.com/gofiber/fiber/v2"

// Locals keys shared across controllers and middlewares
const (
	ContextKey  = "TENANT_CONTEXT"
	KeyTenantID = "tenant_id"
)

// TenantContext is the authenticated tenant scope for a request.
type TenantContext struct {
	TenantID      uint   `json:"tenant_id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Authenticated bool   `json:"authenticated"`
}

// GetTenantContext retrieves the tenant context from the fiber context.
// Returns an unauthenticated context if none is set.
func GetTenantContext(c *fiber.Ctx) TenantContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(TenantContext)
	}
	return TenantContext{Authenticated: false}
}

// GetTenantID returns the authenticated tenant's ID, or 0 if unauthenticated.
func GetTenantID(c *fiber.Ctx) uint {
	return GetTenantContext(c).TenantID
}
