package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusRefunded  = "refunded"
)

// Booking is the durable outcome of a completed checkout. The composite
// unique index on (tenant_id, payment_session_id) is the storage-level
// guarantee that one payment session produces at most one booking.
type Booking struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	UUID                 string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	Reference            string          `gorm:"type:varchar(16);uniqueIndex;not null" json:"reference"`
	TenantID             uint            `gorm:"not null;index:ux_bookings_tenant_session,unique,priority:1;index" json:"tenant_id"`
	PaymentSessionID     string          `gorm:"type:varchar(191);not null;index:ux_bookings_tenant_session,unique,priority:2" json:"payment_session_id"`
	Provider             string          `gorm:"type:varchar(20);not null" json:"provider"`
	PackageID            uint            `gorm:"not null;index" json:"package_id"`
	AddOnIDsJSON         string          `gorm:"type:varchar(500);not null;default:'[]'" json:"-"`
	EventDate            time.Time       `gorm:"type:date;not null" json:"event_date"`
	CustomerEmail        string          `gorm:"type:varchar(200);not null" json:"customer_email"`
	CustomerName         string          `gorm:"type:varchar(200);not null" json:"customer_name"`
	TotalMinorUnits      int64           `gorm:"not null" json:"total_minor_units"`
	CommissionMinorUnits int64           `gorm:"not null" json:"commission_minor_units"`
	CommissionPercent    decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_percent"`
	Status               string          `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	RefundedAt           *time.Time      `gorm:"type:timestamp;default:null" json:"refunded_at,omitempty"`
	CreatedAt            time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// AddOnIDs decodes the serialized add-on id list. Malformed stored data
// degrades to an empty list rather than an error.
func (b *Booking) AddOnIDs() []uint {
	if b.AddOnIDsJSON == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(b.AddOnIDsJSON), &ids); err != nil {
		return nil
	}
	return ids
}

// SetAddOnIDs serializes the add-on id list for storage.
func (b *Booking) SetAddOnIDs(ids []uint) {
	if len(ids) == 0 {
		b.AddOnIDsJSON = "[]"
		return
	}
	data, err := json.Marshal(ids)
	if err != nil {
		b.AddOnIDsJSON = "[]"
		return
	}
	b.AddOnIDsJSON = string(data)
}
