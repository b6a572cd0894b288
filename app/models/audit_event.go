package models

import (
	"time"
)

// AuditEvent is an append-only trail entry written by the background audit
// queue. Rows are never updated or deleted.
type AuditEvent struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Action     string    `gorm:"not null;type:varchar(100);index" json:"action"`
	Provider   string    `gorm:"type:varchar(50)" json:"provider"`
	TenantID   uint      `gorm:"index" json:"tenant_id"`
	EntityKind string    `gorm:"type:varchar(50)" json:"entity_kind"`
	EntityRef  string    `gorm:"type:varchar(191)" json:"entity_ref"`
	Detail     string    `gorm:"type:text" json:"detail"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
