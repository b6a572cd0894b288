package models

import "time"

const (
	WebhookStatusReceived   = "received"
	WebhookStatusProcessing = "processing"
	WebhookStatusProcessed  = "processed"
	WebhookStatusFailed     = "failed"
)

// WebhookRecord stores one ledger entry per (tenant, provider event id) with
// deduplication metadata for idempotent processing. Records are never deleted
// by the pipeline once they reach a terminal status; retention is an
// operational concern.
type WebhookRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TenantID      uint      `gorm:"not null;index:ux_webhook_records_tenant_event,unique,priority:1" json:"tenant_id"`
	EventID       string    `gorm:"type:varchar(191);not null;index:ux_webhook_records_tenant_event,unique,priority:2" json:"event_id"`
	Provider      string    `gorm:"type:varchar(20);not null;index" json:"provider"`
	EventKind     string    `gorm:"type:varchar(50);not null;index" json:"event_kind"`
	Status        string    `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	PayloadDigest string    `gorm:"type:char(64);not null;default:''" json:"payload_digest"`
	RawPayload    string    `gorm:"type:longtext;not null" json:"raw_payload"`
	Attempts      int       `gorm:"not null;default:1" json:"attempts"`
	LastError     string    `gorm:"type:text" json:"last_error"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the record reached a final processing status.
func (w *WebhookRecord) IsTerminal() bool {
	return w.Status == WebhookStatusProcessed || w.Status == WebhookStatusFailed
}
