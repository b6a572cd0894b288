package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomday/bloomday/app/models"
)

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a booking repository backed by GORM.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) CreateIfAbsent(booking *models.Booking) (bool, *models.Booking, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "payment_session_id"},
		},
		DoNothing: true,
	}).Create(booking)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Booking
	if err := r.db.Where("tenant_id = ? AND payment_session_id = ?", booking.TenantID, booking.PaymentSessionID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *bookingRepository) GetByUUIDForTenant(tenantID uint, uuid string) (*models.Booking, error) {
	var b models.Booking
	err := r.db.Where("tenant_id = ? AND uuid = ?", tenantID, uuid).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) GetByPaymentSession(tenantID uint, sessionID string) (*models.Booking, error) {
	var b models.Booking
	err := r.db.Where("tenant_id = ? AND payment_session_id = ?", tenantID, sessionID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) ListByTenant(tenantID uint, offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) CountByTenant(tenantID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (r *bookingRepository) MarkRefunded(tenantID uint, sessionID string) (bool, error) {
	now := time.Now()
	tx := r.db.Model(&models.Booking{}).
		Where("tenant_id = ? AND payment_session_id = ? AND status = ?",
			tenantID, sessionID, models.BookingStatusConfirmed).
		Updates(map[string]interface{}{
			"status":      models.BookingStatusRefunded,
			"refunded_at": &now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
