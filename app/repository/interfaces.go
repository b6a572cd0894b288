package repository

import (
	"github.com/bloomday/bloomday/app/models"
	"gorm.io/gorm"
)

// TenantRepository defines the interface for tenant-related database operations
type TenantRepository interface {
	GetByID(id uint) (*models.Tenant, error)
	GetBySlug(slug string) (*models.Tenant, error)
	GetByAPIKeyHash(hash string) (*models.Tenant, error)
	TouchAPIKeyUsage(id uint) error
	Create(tenant *models.Tenant) error
	Update(tenant *models.Tenant) error
}

// PackageRepository defines read access to the tenant catalog. Catalog CRUD
// lives in the admin application.
type PackageRepository interface {
	GetByIDForTenant(tenantID, id uint) (*models.WeddingPackage, error)
	ListByTenant(tenantID uint) ([]models.WeddingPackage, error)
}

// BookingRepository defines the interface for booking-related database operations
type BookingRepository interface {
	// CreateIfAbsent inserts the booking unless one already exists for the
	// same (tenant_id, payment_session_id). It returns whether this call
	// created the row and the stored booking either way.
	CreateIfAbsent(booking *models.Booking) (bool, *models.Booking, error)
	GetByUUIDForTenant(tenantID uint, uuid string) (*models.Booking, error)
	GetByPaymentSession(tenantID uint, sessionID string) (*models.Booking, error)
	ListByTenant(tenantID uint, offset, limit int) ([]models.Booking, error)
	CountByTenant(tenantID uint) (int64, error)
	// MarkRefunded flips a confirmed booking to refunded. It reports whether
	// a row was updated.
	MarkRefunded(tenantID uint, sessionID string) (bool, error)
}

// WebhookRepository defines the durable idempotency ledger operations.
type WebhookRepository interface {
	// InsertIfAbsent atomically creates the record unless one exists for the
	// same (tenant_id, event_id). On a duplicate it bumps the attempt counter
	// and returns the stored record.
	InsertIfAbsent(record *models.WebhookRecord) (bool, *models.WebhookRecord, error)
	GetByTenantAndEvent(tenantID uint, eventID string) (*models.WebhookRecord, error)
	// MarkProcessed and MarkFailed are monotonic: a record already in a
	// terminal status is left untouched.
	MarkProcessed(tenantID uint, eventID string) error
	MarkFailed(tenantID uint, eventID string, reason string) error
	// DeleteIfProcessing removes a non-terminal record so a provider
	// redelivery can retry after a transient storage failure.
	DeleteIfProcessing(tenantID uint, eventID string) (bool, error)
	// ReopenFailed resets a failed record to received for an operator-driven
	// retry.
	ReopenFailed(tenantID uint, eventID string) (bool, error)
	ListByTenant(tenantID uint, offset, limit int) ([]models.WebhookRecord, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Tenant  TenantRepository
	Package PackageRepository
	Booking BookingRepository
	Webhook WebhookRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant:  NewTenantRepository(db),
		Package: NewPackageRepository(db),
		Booking: NewBookingRepository(db),
		Webhook: NewWebhookRepository(db),
	}
}
