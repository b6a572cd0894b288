package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bloomday/bloomday/app/models"
)

// In-memory repository fakes. They mirror the storage semantics the gorm
// implementations rely on: atomic insert-if-absent and monotonic terminal
// transitions, guarded by a mutex instead of a unique index.

type fakeWebhookRepo struct {
	mu         sync.Mutex
	records    map[string]*models.WebhookRecord
	nextID     uint
	failInsert error
	failMark   error
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{records: make(map[string]*models.WebhookRecord)}
}

func webhookKey(tenantID uint, eventID string) string {
	return fmt.Sprintf("%d|%s", tenantID, eventID)
}

func (r *fakeWebhookRepo) InsertIfAbsent(record *models.WebhookRecord) (bool, *models.WebhookRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failInsert != nil {
		return false, nil, r.failInsert
	}

	key := webhookKey(record.TenantID, record.EventID)
	if existing, ok := r.records[key]; ok {
		existing.Attempts++
		cp := *existing
		return false, &cp, nil
	}

	r.nextID++
	stored := *record
	stored.ID = r.nextID
	r.records[key] = &stored
	cp := stored
	return true, &cp, nil
}

func (r *fakeWebhookRepo) GetByTenantAndEvent(tenantID uint, eventID string) (*models.WebhookRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[webhookKey(tenantID, eventID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeWebhookRepo) markTerminal(tenantID uint, eventID, status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failMark != nil {
		return r.failMark
	}
	rec, ok := r.records[webhookKey(tenantID, eventID)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if rec.IsTerminal() {
		return nil
	}
	rec.Status = status
	rec.LastError = reason
	return nil
}

func (r *fakeWebhookRepo) MarkProcessed(tenantID uint, eventID string) error {
	return r.markTerminal(tenantID, eventID, models.WebhookStatusProcessed, "")
}

func (r *fakeWebhookRepo) MarkFailed(tenantID uint, eventID string, reason string) error {
	return r.markTerminal(tenantID, eventID, models.WebhookStatusFailed, reason)
}

func (r *fakeWebhookRepo) DeleteIfProcessing(tenantID uint, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := webhookKey(tenantID, eventID)
	rec, ok := r.records[key]
	if !ok || rec.IsTerminal() {
		return false, nil
	}
	delete(r.records, key)
	return true, nil
}

func (r *fakeWebhookRepo) ReopenFailed(tenantID uint, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[webhookKey(tenantID, eventID)]
	if !ok || rec.Status != models.WebhookStatusFailed {
		return false, nil
	}
	rec.Status = models.WebhookStatusReceived
	return true, nil
}

func (r *fakeWebhookRepo) ListByTenant(tenantID uint, offset, limit int) ([]models.WebhookRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.WebhookRecord
	for _, rec := range r.records {
		if rec.TenantID == tenantID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeBookingRepo struct {
	mu         sync.Mutex
	bookings   map[string]*models.Booking
	nextID     uint
	failCreate error
	failMark   error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*models.Booking)}
}

func bookingKey(tenantID uint, sessionID string) string {
	return fmt.Sprintf("%d|%s", tenantID, sessionID)
}

func (r *fakeBookingRepo) CreateIfAbsent(booking *models.Booking) (bool, *models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate != nil {
		return false, nil, r.failCreate
	}

	key := bookingKey(booking.TenantID, booking.PaymentSessionID)
	if existing, ok := r.bookings[key]; ok {
		cp := *existing
		return false, &cp, nil
	}

	r.nextID++
	stored := *booking
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.bookings[key] = &stored
	cp := stored
	return true, &cp, nil
}

func (r *fakeBookingRepo) GetByUUIDForTenant(tenantID uint, uuid string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.TenantID == tenantID && b.UUID == uuid {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBookingRepo) GetByPaymentSession(tenantID uint, sessionID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bookingKey(tenantID, sessionID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) ListByTenant(tenantID uint, offset, limit int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, b := range r.bookings {
		if b.TenantID == tenantID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CountByTenant(tenantID uint) (int64, error) {
	list, _ := r.ListByTenant(tenantID, 0, 0)
	return int64(len(list)), nil
}

func (r *fakeBookingRepo) MarkRefunded(tenantID uint, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failMark != nil {
		return false, r.failMark
	}
	b, ok := r.bookings[bookingKey(tenantID, sessionID)]
	if !ok || b.Status != models.BookingStatusConfirmed {
		return false, nil
	}
	now := time.Now()
	b.Status = models.BookingStatusRefunded
	b.RefundedAt = &now
	return true, nil
}

type fakeResolver struct {
	configs map[uint]TenantCommissionConfig
	err     error
}

func newFakeResolver(configs ...TenantCommissionConfig) *fakeResolver {
	m := make(map[uint]TenantCommissionConfig, len(configs))
	for _, c := range configs {
		m[c.TenantID] = c
	}
	return &fakeResolver{configs: m}
}

func (f *fakeResolver) Resolve(_ context.Context, tenantID uint) (TenantCommissionConfig, error) {
	if f.err != nil {
		return TenantCommissionConfig{}, f.err
	}
	cfg, ok := f.configs[tenantID]
	if !ok {
		return TenantCommissionConfig{}, ErrTenantNotFound
	}
	return cfg, nil
}

type recordingAudit struct {
	mu    sync.Mutex
	facts []AuditFact
}

func (a *recordingAudit) Record(_ context.Context, fact AuditFact) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.facts = append(a.facts, fact)
	return nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.facts))
	for _, f := range a.facts {
		out = append(out, f.Action)
	}
	return out
}

// fakeAdapter lets ingress tests drive the pipeline without real signatures.
type fakeAdapter struct {
	provider Provider
	event    *Event
	err      error
}

func (f *fakeAdapter) Provider() Provider { return f.provider }

func (f *fakeAdapter) Verify(rawBody []byte, signatureHeader string) (*Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

var errFakeStorage = errors.New("fake storage down")

func activeTenantConfig(tenantID uint, percent string) TenantCommissionConfig {
	return TenantCommissionConfig{
		TenantID:          tenantID,
		CommissionPercent: decimal.RequireFromString(percent),
		IsActive:          true,
	}
}

func checkoutEvent(sessionID string, tenantID string, amount int64) *Event {
	amt := amount
	return &Event{
		ID:       sessionID,
		Kind:     KindCheckoutCompleted,
		Provider: ProviderStripe,
		Metadata: map[string]string{
			"tenant_id":     tenantID,
			"package_id":    "3",
			"event_date":    "2026-09-01",
			"email":         "couple@example.com",
			"customer_name": "Jordan Lee",
		},
		AmountMinorUnits: &amt,
		OccurredAt:       time.Now(),
		Succeeded:        true,
	}
}
