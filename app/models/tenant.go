package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusClosed    = "closed"
)

// Tenant is a vendor account on the marketplace. Commission settings live
// here; the payment pipeline only ever reads them.
type Tenant struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug              string          `gorm:"type:varchar(150);uniqueIndex;not null" json:"slug" validate:"required,min=2,max=150"`
	Email             string          `gorm:"type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"omitempty,email,max=200"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_percent"`
	Status            string          `gorm:"type:varchar(32);not null;default:'active';index" json:"status" validate:"oneof=active suspended closed"`
	APIKeyHash        string          `gorm:"type:char(64);default:'';index" json:"-"`
	APIKeyPrefix      string          `gorm:"type:varchar(20);default:''" json:"api_key_prefix"`
	APIKeyCreatedAt   *time.Time      `json:"api_key_created_at"`
	APIKeyLastUsedAt  *time.Time      `json:"api_key_last_used_at"`
	APIKeyRevokedAt   *time.Time      `json:"-"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (t *Tenant) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// IsActive reports whether the tenant may receive new bookings.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == TenantStatusActive
}

// HasActiveAPIKey reports whether the tenant has an active API key configured
func (t *Tenant) HasActiveAPIKey() bool {
	return t != nil && t.APIKeyHash != "" && t.APIKeyRevokedAt == nil
}

// IssueAPIKey generates a new API key, persists metadata on the struct, and returns the raw secret.
// Callers must persist the struct via the database after invoking this method.
func (t *Tenant) IssueAPIKey() (string, error) {
	rawKey, prefix, hash, err := generateAPIKeyMaterial()
	if err != nil {
		return "", err
	}
	now := time.Now()
	t.APIKeyHash = hash
	t.APIKeyPrefix = prefix
	t.APIKeyCreatedAt = &now
	t.APIKeyRevokedAt = nil
	t.APIKeyLastUsedAt = nil
	return rawKey, nil
}

// RevokeAPIKey clears the stored API key metadata without deleting the record.
func (t *Tenant) RevokeAPIKey() {
	t.APIKeyHash = ""
	t.APIKeyPrefix = ""
	now := time.Now()
	t.APIKeyRevokedAt = &now
	t.APIKeyLastUsedAt = nil
}

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiKeyPrefix = "bld_"

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateAPIKeyMaterial() (string, string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	encoded := strings.ToLower(apiKeyEncoding.EncodeToString(b))
	rawKey := apiKeyPrefix + encoded
	if len(rawKey) < 12 {
		return "", "", "", fmt.Errorf("api key generation failed: key too short")
	}
	prefix := rawKey[:min(len(rawKey), 16)]
	hash := HashAPIKey(rawKey)
	return rawKey, prefix, hash, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
