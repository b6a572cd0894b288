package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/bloomday/bloomday/app/models"
)

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a tenant repository backed by GORM.
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) GetByID(id uint) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) GetBySlug(slug string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.Where("slug = ?", slug).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) GetByAPIKeyHash(hash string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.Where("api_key_hash = ? AND api_key_hash != ''", hash).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) TouchAPIKeyUsage(id uint) error {
	now := time.Now()
	return r.db.Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("api_key_last_used_at", &now).Error
}

func (r *tenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

func (r *tenantRepository) Update(tenant *models.Tenant) error {
	return r.db.Save(tenant).Error
}
