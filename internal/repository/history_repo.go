package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// HistoryRepository 支付审计仓储，只提供追加与读取
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建审计仓储
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// WithTx 绑定到事务
func (r *HistoryRepository) WithTx(tx *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Append 追加审计记录
func (r *HistoryRepository) Append(ctx context.Context, entry *models.PaymentHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByPayment 按写入顺序返回审计记录
func (r *HistoryRepository) ListByPayment(ctx context.Context, paymentID int64) ([]models.PaymentHistory, error) {
	entries := make([]models.PaymentHistory, 0)
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("id").Find(&entries).Error
	return entries, err
}
