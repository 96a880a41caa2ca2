package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// RefundRepository 退款仓储
type RefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款仓储
func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// WithTx 绑定到事务
func (r *RefundRepository) WithTx(tx *gorm.DB) *RefundRepository {
	return &RefundRepository{db: tx}
}

// Create 创建退款记录
func (r *RefundRepository) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Omit("Payment").Create(refund).Error
}

// GetByID 根据 ID 获取退款记录
func (r *RefundRepository) GetByID(ctx context.Context, id int64) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.WithContext(ctx).First(&refund, id).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

// GetForUpdate 获取退款记录并加行锁
func (r *RefundRepository) GetForUpdate(ctx context.Context, id int64) (*models.Refund, error) {
	var refund models.Refund
	if err := database.ForUpdate(r.db.WithContext(ctx)).First(&refund, id).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

// UpdateFields 更新指定字段
func (r *RefundRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Refund{}).Where("id = ?", id).Updates(fields).Error
}

// SumCounted 统计已批准和已退款的金额合计
func (r *RefundRepository) SumCounted(ctx context.Context, paymentID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("payment_id = ? AND status IN ?", paymentID, models.CountedRefundStatuses).
		Row().Scan(&sum)
	return sum, err
}

// ListByPayment 获取支付下的全部退款
func (r *RefundRepository) ListByPayment(ctx context.Context, paymentID int64) ([]models.Refund, error) {
	refunds := make([]models.Refund, 0)
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("id").Find(&refunds).Error
	return refunds, err
}

// RefundFilter 退款查询条件
type RefundFilter struct {
	Status    string
	PaymentID *int64
	Page      int
	PageSize  int
}

// List 获取退款列表
func (r *RefundRepository) List(ctx context.Context, filter *RefundFilter) ([]models.Refund, int64, error) {
	if filter == nil {
		filter = &RefundFilter{}
	}

	query := r.db.WithContext(ctx).Model(&models.Refund{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentID != nil {
		query = query.Where("payment_id = ?", *filter.PaymentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	refunds := make([]models.Refund, 0)
	err := query.Preload("Payment").
		Order("requested_at DESC, id DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Find(&refunds).Error
	if err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}

// CountByStatus 按状态计数
func (r *RefundRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
