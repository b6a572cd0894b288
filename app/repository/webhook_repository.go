package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomday/bloomday/app/models"
)

type webhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a webhook ledger repository backed by GORM.
func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

func (r *webhookRepository) InsertIfAbsent(record *models.WebhookRecord) (bool, *models.WebhookRecord, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "event_id"},
		},
		DoNothing: true,
	}).Create(record)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	if !created {
		// Duplicate delivery: count the attempt on the existing record.
		if err := r.db.Model(&models.WebhookRecord{}).
			Where("tenant_id = ? AND event_id = ?", record.TenantID, record.EventID).
			Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			return false, nil, err
		}
	}

	var stored models.WebhookRecord
	if err := r.db.Where("tenant_id = ? AND event_id = ?", record.TenantID, record.EventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *webhookRepository) GetByTenantAndEvent(tenantID uint, eventID string) (*models.WebhookRecord, error) {
	var rec models.WebhookRecord
	err := r.db.Where("tenant_id = ? AND event_id = ?", tenantID, eventID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *webhookRepository) MarkProcessed(tenantID uint, eventID string) error {
	return r.markTerminal(tenantID, eventID, models.WebhookStatusProcessed, "")
}

func (r *webhookRepository) MarkFailed(tenantID uint, eventID string, reason string) error {
	return r.markTerminal(tenantID, eventID, models.WebhookStatusFailed, reason)
}

// markTerminal transitions a non-terminal record to a terminal status.
// Already-terminal records are left as-is so the state machine never
// regresses; a missing record surfaces gorm.ErrRecordNotFound.
func (r *webhookRepository) markTerminal(tenantID uint, eventID, status, reason string) error {
	tx := r.db.Model(&models.WebhookRecord{}).
		Where("tenant_id = ? AND event_id = ? AND status IN ?",
			tenantID, eventID,
			[]string{models.WebhookStatusReceived, models.WebhookStatusProcessing}).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": reason,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected > 0 {
		return nil
	}

	// Nothing updated: either the record is already terminal or it never
	// existed. The latter is the caller's programming error.
	var rec models.WebhookRecord
	return r.db.Select("id").
		Where("tenant_id = ? AND event_id = ?", tenantID, eventID).
		First(&rec).Error
}

func (r *webhookRepository) DeleteIfProcessing(tenantID uint, eventID string) (bool, error) {
	tx := r.db.Where("tenant_id = ? AND event_id = ? AND status IN ?",
		tenantID, eventID,
		[]string{models.WebhookStatusReceived, models.WebhookStatusProcessing}).
		Delete(&models.WebhookRecord{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *webhookRepository) ReopenFailed(tenantID uint, eventID string) (bool, error) {
	tx := r.db.Model(&models.WebhookRecord{}).
		Where("tenant_id = ? AND event_id = ? AND status = ?", tenantID, eventID, models.WebhookStatusFailed).
		Updates(map[string]interface{}{
			"status":     models.WebhookStatusReceived,
			"last_error": "",
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *webhookRepository) ListByTenant(tenantID uint, offset, limit int) ([]models.WebhookRecord, error) {
	var records []models.WebhookRecord
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&records).Error
	return records, err
}
