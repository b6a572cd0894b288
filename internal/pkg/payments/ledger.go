package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bloomday/bloomday/app/models"
	"github.com/bloomday/bloomday/app/repository"
)

// Ledger guarantees at-most-once business effect for at-least-once webhook
// delivery. Its only write primitive is an atomic insert-if-absent against
// the (tenant_id, event_id) unique constraint; concurrent duplicates are
// serialized by the database, never by application-level reads.
type Ledger struct {
	repo repository.WebhookRepository
}

// NewLedger creates a ledger over the given webhook repository.
func NewLedger(repo repository.WebhookRepository) *Ledger {
	return &Ledger{repo: repo}
}

// BeginResult reports whether this delivery won the non-duplicate path.
type BeginResult struct {
	Duplicate bool
	Record    *models.WebhookRecord
}

// BeginProcessing records the first sight of (tenant, event id) and claims
// the event for processing. A record in any prior status — including a
// terminal one — makes this delivery a duplicate; retrying a failed event is
// an explicit policy decision made through Requeue, never silently here.
func (l *Ledger) BeginProcessing(ctx context.Context, tenantID uint, ev *Event, rawPayload []byte) (BeginResult, error) {
	_ = ctx
	digest := sha256.Sum256(rawPayload)

	record := &models.WebhookRecord{
		TenantID:      tenantID,
		EventID:       ev.ID,
		Provider:      string(ev.Provider),
		EventKind:     string(ev.Kind),
		Status:        models.WebhookStatusProcessing,
		PayloadDigest: hex.EncodeToString(digest[:]),
		RawPayload:    string(rawPayload),
		Attempts:      1,
	}

	created, stored, err := l.repo.InsertIfAbsent(record)
	if err != nil {
		return BeginResult{}, fmt.Errorf("%w: ledger insert: %v", ErrStorageUnavailable, err)
	}
	return BeginResult{Duplicate: !created, Record: stored}, nil
}

// MarkProcessed transitions the record to its successful terminal status.
func (l *Ledger) MarkProcessed(ctx context.Context, tenantID uint, eventID string) error {
	_ = ctx
	if err := l.repo.MarkProcessed(tenantID, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: tenant=%d event=%s", ErrLedgerRecordMissing, tenantID, eventID)
		}
		return fmt.Errorf("%w: mark processed: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// MarkFailed dead-letters the record with a diagnostic reason.
func (l *Ledger) MarkFailed(ctx context.Context, tenantID uint, eventID, reason string) error {
	_ = ctx
	if err := l.repo.MarkFailed(tenantID, eventID, reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: tenant=%d event=%s", ErrLedgerRecordMissing, tenantID, eventID)
		}
		return fmt.Errorf("%w: mark failed: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ReleaseForRetry drops a still-processing record after a transient storage
// failure so the provider's own redelivery can take the non-duplicate path
// again. Terminal records are never released.
func (l *Ledger) ReleaseForRetry(ctx context.Context, tenantID uint, eventID string) error {
	_ = ctx
	if _, err := l.repo.DeleteIfProcessing(tenantID, eventID); err != nil {
		return fmt.Errorf("%w: release for retry: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Requeue reopens a failed record for an operator-driven retry. It reports
// whether a record actually moved back to received.
func (l *Ledger) Requeue(ctx context.Context, tenantID uint, eventID string) (bool, error) {
	_ = ctx
	reopened, err := l.repo.ReopenFailed(tenantID, eventID)
	if err != nil {
		return false, fmt.Errorf("%w: requeue: %v", ErrStorageUnavailable, err)
	}
	return reopened, nil
}
