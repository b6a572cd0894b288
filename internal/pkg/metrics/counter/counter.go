package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bloomday/bloomday/internal/pkg/cache"
)

const (
	webhookOutcomesKey = "webhook:counters:outcomes"
	tenantBookingsKey  = "tenant:counters:bookings"
)

// AddWebhookOutcome increments the running counter for a (provider, outcome)
// pair. Counters live in a Redis hash so the stats endpoint can read them all
// in one round trip.
func AddWebhookOutcome(provider, outcome string) error {
	ctx := context.Background()
	field := fmt.Sprintf("%s:%s", provider, outcome)
	return cache.GetClient().HIncrBy(ctx, webhookOutcomesKey, field, 1).Err()
}

// AddTenantBooking increments the per-tenant confirmed-booking counter.
func AddTenantBooking(tenantID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(tenantID), 10)
	return cache.GetClient().HIncrBy(ctx, tenantBookingsKey, field, 1).Err()
}

// WebhookOutcomes returns the full outcome hash, keyed "provider:outcome".
func WebhookOutcomes() (map[string]int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, webhookOutcomesKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for field, raw := range data {
		n, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}

// TenantBookings returns the cached booking count for one tenant. A missing
// field means no booking has been counted since the hash was created.
func TenantBookings(tenantID uint) (int64, error) {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(tenantID), 10)
	raw, err := cache.GetClient().HGet(ctx, tenantBookingsKey, field).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}
