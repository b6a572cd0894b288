package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloomday/bloomday/app/models"
	"github.com/bloomday/bloomday/app/repository"
	"github.com/bloomday/bloomday/internal/pkg/refcode"
)

// TenantConfigResolver resolves the read-only commission configuration for a
// tenant. Implementations may cache; the pipeline snapshots whatever rate is
// current at finalization time.
type TenantConfigResolver interface {
	Resolve(ctx context.Context, tenantID uint) (TenantCommissionConfig, error)
}

// Finalizer turns a verified, non-duplicate, successful event into exactly
// one booking. The storage-level unique constraint on
// (tenant_id, payment_session_id) is the second line of defense behind the
// ledger: losing the insert race resolves to the winner's booking.
type Finalizer struct {
	bookings repository.BookingRepository
	tenants  TenantConfigResolver
	audit    AuditSink
}

// NewFinalizer creates a finalizer from its injected collaborators.
func NewFinalizer(bookings repository.BookingRepository, tenants TenantConfigResolver, audit AuditSink) *Finalizer {
	return &Finalizer{bookings: bookings, tenants: tenants, audit: audit}
}

// bookingMetadata is the strict schema the checkout flow must have threaded
// through the provider. Required fields abort the booking when missing;
// optional fields degrade to empty values when malformed.
type bookingMetadata struct {
	TenantID     string `validate:"required,number"`
	PackageID    string `validate:"required,number"`
	EventDate    string `validate:"required,datetime=2006-01-02"`
	Email        string `validate:"required,email,max=200"`
	CustomerName string `validate:"required,min=1,max=200"`
}

// Finalize validates the event, computes the commission and commits the
// booking. It returns the booking, whether this call created it, and an
// error classified by the package sentinels.
func (f *Finalizer) Finalize(ctx context.Context, ev *Event) (*models.Booking, bool, error) {
	if !ev.CreatesBooking() {
		return nil, false, fmt.Errorf("finalizer received non-booking event kind %s", ev.Kind)
	}

	meta := bookingMetadata{
		TenantID:     ev.MetadataValue("tenant_id"),
		PackageID:    ev.MetadataValue("package_id"),
		EventDate:    ev.MetadataValue("event_date"),
		Email:        ev.MetadataValue("email"),
		CustomerName: ev.MetadataValue("customer_name"),
	}
	v := validator.New()
	if err := v.Struct(meta); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMetadataInvalid, err)
	}

	tenantID64, _ := strconv.ParseUint(meta.TenantID, 10, 64)
	packageID64, _ := strconv.ParseUint(meta.PackageID, 10, 64)
	if tenantID64 == 0 || packageID64 == 0 {
		return nil, false, fmt.Errorf("%w: tenant_id and package_id must be positive", ErrMetadataInvalid)
	}
	tenantID := uint(tenantID64)

	eventDate, err := time.Parse("2006-01-02", meta.EventDate)
	if err != nil {
		return nil, false, fmt.Errorf("%w: event_date: %v", ErrMetadataInvalid, err)
	}

	cfg, err := f.tenants.Resolve(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrTenantNotFound) {
			return nil, false, fmt.Errorf("%w: tenant %d", ErrTenantNotFound, tenantID)
		}
		return nil, false, fmt.Errorf("%w: tenant lookup: %v", ErrStorageUnavailable, err)
	}
	if !cfg.IsActive {
		return nil, false, fmt.Errorf("%w: tenant %d", ErrTenantInactive, tenantID)
	}

	total, ok := resolveBookingTotal(ev)
	if !ok {
		return nil, false, fmt.Errorf("%w: no booking total in event or metadata", ErrMetadataInvalid)
	}

	commission, err := CalculateCommission(total, cfg)
	if err != nil {
		return nil, false, err
	}

	reference, err := refcode.NewBookingReference()
	if err != nil {
		return nil, false, fmt.Errorf("%w: reference generation: %v", ErrStorageUnavailable, err)
	}

	booking := &models.Booking{
		UUID:                 uuid.NewString(),
		Reference:            reference,
		TenantID:             tenantID,
		PaymentSessionID:     ev.ID,
		Provider:             string(ev.Provider),
		PackageID:            uint(packageID64),
		EventDate:            eventDate,
		CustomerEmail:        meta.Email,
		CustomerName:         meta.CustomerName,
		TotalMinorUnits:      total,
		CommissionMinorUnits: commission.AmountMinorUnits,
		CommissionPercent:    commission.Percent,
		Status:               models.BookingStatusConfirmed,
	}
	booking.SetAddOnIDs(parseAddOnIDs(ev.MetadataValue("add_on_ids")))

	created, stored, err := f.bookings.CreateIfAbsent(booking)
	if err != nil {
		return nil, false, fmt.Errorf("%w: booking insert: %v", ErrStorageUnavailable, err)
	}

	if created {
		_ = f.audit.Record(ctx, AuditFact{
			Action:     "booking.created",
			Provider:   string(ev.Provider),
			TenantID:   tenantID,
			EntityKind: "booking",
			EntityRef:  stored.UUID,
			Detail: map[string]string{
				"payment_session_id": stored.PaymentSessionID,
				"total_minor_units":  strconv.FormatInt(stored.TotalMinorUnits, 10),
				"commission":         strconv.FormatInt(stored.CommissionMinorUnits, 10),
			},
			OccurredAt: time.Now(),
		})
	}

	return stored, created, nil
}

// resolveBookingTotal prefers the provider-reported amount and falls back to
// the metadata-carried total. Zero is a valid amount; only a truly absent
// value triggers the fallback.
func resolveBookingTotal(ev *Event) (int64, bool) {
	if ev.AmountMinorUnits != nil {
		return *ev.AmountMinorUnits, true
	}
	raw := ev.MetadataValue("total_minor_units")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseAddOnIDs accepts either a JSON array ("[1,2]" or `["1","2"]`) or a
// comma-separated list ("1,2"). Anything malformed degrades to no add-ons;
// optional metadata never aborts a booking.
func parseAddOnIDs(raw string) []uint {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var nums []uint
		if err := json.Unmarshal([]byte(raw), &nums); err == nil {
			return nums
		}
		var strs []string
		if err := json.Unmarshal([]byte(raw), &strs); err != nil {
			return nil
		}
		return parseIDList(strs)
	}
	return parseIDList(strings.Split(raw, ","))
}

func parseIDList(parts []string) []uint {
	var ids []uint
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || v == 0 {
			continue
		}
		ids = append(ids, uint(v))
	}
	return ids
}
