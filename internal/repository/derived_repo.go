package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// DerivedRepository 派生记录仓储
type DerivedRepository struct {
	db *gorm.DB
}

// NewDerivedRepository 创建派生记录仓储
func NewDerivedRepository(db *gorm.DB) *DerivedRepository {
	return &DerivedRepository{db: db}
}

// WithTx 绑定到事务
func (r *DerivedRepository) WithTx(tx *gorm.DB) *DerivedRepository {
	return &DerivedRepository{db: tx}
}

// CreateMembershipGrant 写入会籍授予
func (r *DerivedRepository) CreateMembershipGrant(ctx context.Context, grant *models.MembershipGrant) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

// CreatePTSessionPackage 写入私教课时包
func (r *DerivedRepository) CreatePTSessionPackage(ctx context.Context, pkg *models.PTSessionPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

// CreateLockerAssignment 写入储物柜分配
func (r *DerivedRepository) CreateLockerAssignment(ctx context.Context, locker *models.LockerAssignment) error {
	return r.db.WithContext(ctx).Create(locker).Error
}

// DerivedRecords 某笔支付产生的派生记录，至多一项非空
type DerivedRecords struct {
	Membership *models.MembershipGrant  `json:"membership,omitempty"`
	PTPackage  *models.PTSessionPackage `json:"pt_package,omitempty"`
	Locker     *models.LockerAssignment `json:"locker,omitempty"`
}

// Count 非空记录数
func (d *DerivedRecords) Count() int {
	n := 0
	if d.Membership != nil {
		n++
	}
	if d.PTPackage != nil {
		n++
	}
	if d.Locker != nil {
		n++
	}
	return n
}

// GetByPayment 获取支付对应的派生记录
func (r *DerivedRepository) GetByPayment(ctx context.Context, paymentID int64) (*DerivedRecords, error) {
	db := r.db.WithContext(ctx)
	out := &DerivedRecords{}

	var grants []models.MembershipGrant
	if err := db.Where("payment_id = ?", paymentID).Limit(1).Find(&grants).Error; err != nil {
		return nil, err
	}
	if len(grants) > 0 {
		out.Membership = &grants[0]
	}

	var pkgs []models.PTSessionPackage
	if err := db.Where("payment_id = ?", paymentID).Limit(1).Find(&pkgs).Error; err != nil {
		return nil, err
	}
	if len(pkgs) > 0 {
		out.PTPackage = &pkgs[0]
	}

	var lockers []models.LockerAssignment
	if err := db.Where("payment_id = ?", paymentID).Limit(1).Find(&lockers).Error; err != nil {
		return nil, err
	}
	if len(lockers) > 0 {
		out.Locker = &lockers[0]
	}
	return out, nil
}
