package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// CatalogRepository 方案目录
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建方案仓储
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// WithTx 绑定到事务
func (r *CatalogRepository) WithTx(tx *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

// CreateMembershipType 创建会籍方案
func (r *CatalogRepository) CreateMembershipType(ctx context.Context, mt *models.MembershipType) error {
	return r.db.WithContext(ctx).Create(mt).Error
}

// GetMembershipType 获取会籍方案
func (r *CatalogRepository) GetMembershipType(ctx context.Context, id int64) (*models.MembershipType, error) {
	var mt models.MembershipType
	if err := r.db.WithContext(ctx).First(&mt, id).Error; err != nil {
		return nil, err
	}
	return &mt, nil
}

// CreatePTPackage 创建私教课包方案
func (r *CatalogRepository) CreatePTPackage(ctx context.Context, pkg *models.PTPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

// GetPTPackage 获取私教课包方案
func (r *CatalogRepository) GetPTPackage(ctx context.Context, id int64) (*models.PTPackage, error) {
	var pkg models.PTPackage
	if err := r.db.WithContext(ctx).First(&pkg, id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}
