package repository

import (
	"gorm.io/gorm"

	"github.com/bloomday/bloomday/app/models"
)

type packageRepository struct {
	db *gorm.DB
}

// NewPackageRepository creates a read-only catalog repository backed by GORM.
func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

func (r *packageRepository) GetByIDForTenant(tenantID, id uint) (*models.WeddingPackage, error) {
	var p models.WeddingPackage
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *packageRepository) ListByTenant(tenantID uint) ([]models.WeddingPackage, error) {
	var packages []models.WeddingPackage
	err := r.db.Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("name ASC").
		Find(&packages).Error
	return packages, err
}
