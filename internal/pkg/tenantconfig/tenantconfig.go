package tenantconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bloomday/bloomday/app/repository"
	"github.com/bloomday/bloomday/internal/pkg/cache"
	"github.com/bloomday/bloomday/internal/pkg/payments"
)

const defaultTTL = 60 * time.Second

// CachedResolver resolves tenant commission configuration with a
// read-through Redis cache in front of the tenant table. Webhook bursts for
// the same tenant hit the cache; a stale rate within the TTL is acceptable
// because every booking snapshots the rate it actually used.
type CachedResolver struct {
	tenants repository.TenantRepository
	ttl     time.Duration
}

// NewCachedResolver creates a resolver with the default cache TTL.
func NewCachedResolver(tenants repository.TenantRepository) *CachedResolver {
	return &CachedResolver{tenants: tenants, ttl: defaultTTL}
}

type cachedConfig struct {
	CommissionPercent string `json:"commission_percent"`
	IsActive          bool   `json:"is_active"`
}

// Resolve implements payments.TenantConfigResolver.
func (r *CachedResolver) Resolve(ctx context.Context, tenantID uint) (payments.TenantCommissionConfig, error) {
	_ = ctx
	key := cacheKey(tenantID)

	if raw, err := cache.Get(key); err == nil && raw != "" {
		var cc cachedConfig
		if err := json.Unmarshal([]byte(raw), &cc); err == nil {
			if percent, perr := decimal.NewFromString(cc.CommissionPercent); perr == nil {
				return payments.TenantCommissionConfig{
					TenantID:          tenantID,
					CommissionPercent: percent,
					IsActive:          cc.IsActive,
				}, nil
			}
		}
	}

	tenant, err := r.tenants.GetByID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payments.TenantCommissionConfig{}, payments.ErrTenantNotFound
		}
		return payments.TenantCommissionConfig{}, err
	}

	cfg := payments.TenantCommissionConfig{
		TenantID:          tenant.ID,
		CommissionPercent: tenant.CommissionPercent,
		IsActive:          tenant.IsActive(),
	}

	data, err := json.Marshal(cachedConfig{
		CommissionPercent: cfg.CommissionPercent.String(),
		IsActive:          cfg.IsActive,
	})
	if err == nil {
		if err := cache.Set(key, string(data), r.ttl); err != nil {
			fiberlog.Debugf("[TenantConfig] cache write failed for tenant %d: %v", tenantID, err)
		}
	}

	return cfg, nil
}

// Invalidate drops the cached entry, e.g. after an admin-side rate change.
func Invalidate(tenantID uint) {
	_ = cache.Delete(cacheKey(tenantID))
}

func cacheKey(tenantID uint) string {
	return fmt.Sprintf("tenant:commission:%d", tenantID)
}
