package models

import (
	"time"

	"gorm.io/gorm"
)

// WeddingPackage is a catalog entry owned by a tenant. Catalog management
// happens in the admin application; this service only reads packages to
// enrich booking responses.
type WeddingPackage struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	TenantID        uint           `gorm:"not null;index" json:"tenant_id"`
	Name            string         `gorm:"type:varchar(200);not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	PriceMinorUnits int64          `gorm:"not null" json:"price_minor_units"`
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
