package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// StatsRepository 支付统计查询
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建统计仓储
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// 允许分组的字段
var breakdownColumns = map[string]string{
	"payment_type":   "payment_type",
	"payment_method": "payment_method",
	"status":         "status",
}

// Totals 已完成支付的笔数与金额，from/to 为空时不限日期
func (r *StatsRepository) Totals(ctx context.Context, from, to *time.Time) (models.AmountCount, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COUNT(*), COALESCE(SUM(amount), 0)").
		Where("status = ?", models.PaymentStatusCompleted)
	if from != nil {
		query = query.Where("payment_date >= ?", utils.Day(*from))
	}
	if to != nil {
		query = query.Where("payment_date <= ?", utils.Day(*to))
	}

	var out models.AmountCount
	if err := query.Row().Scan(&out.Count, &out.Amount); err != nil {
		return models.AmountCount{}, err
	}
	out.Amount = utils.RoundMoney(out.Amount)
	return out, nil
}

// Breakdown 按字段分组统计，excludeCancelled 为真时排除已取消的支付
func (r *StatsRepository) Breakdown(ctx context.Context, field string, excludeCancelled bool) ([]models.BreakdownRow, error) {
	col, ok := breakdownColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported breakdown field %q", field)
	}

	query := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select(col + " AS group_key, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount")
	if excludeCancelled {
		query = query.Where("status <> ?", models.PaymentStatusCancelled)
	}

	rows := make([]models.BreakdownRow, 0)
	if err := query.Group(col).Order(col).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Amount = utils.RoundMoney(rows[i].Amount)
	}
	return rows, nil
}

// TopStaff 按已完成收入排名的员工
func (r *StatsRepository) TopStaff(ctx context.Context, limit int) ([]models.StaffRevenue, error) {
	if limit <= 0 {
		limit = 5
	}

	rows := make([]models.StaffRevenue, 0)
	err := r.db.WithContext(ctx).Table("payments").
		Select("payments.staff_id, staff.name AS staff_name, COUNT(*) AS count, COALESCE(SUM(payments.amount), 0) AS amount").
		Joins("LEFT JOIN staff ON staff.id = payments.staff_id").
		Where("payments.status = ?", models.PaymentStatusCompleted).
		Group("payments.staff_id, staff.name").
		Order("amount DESC, payments.staff_id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Amount = utils.RoundMoney(rows[i].Amount)
	}
	return rows, nil
}

// CountNearExpiry 到期日落在 [from, to] 内的已完成支付数
func (r *StatsRepository) CountNearExpiry(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusCompleted).
		Where("expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?", utils.Day(from), utils.Day(to)).
		Count(&count).Error
	return count, err
}

// CountPendingRefunds 待审批退款数
func (r *StatsRepository) CountPendingRefunds(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("status = ?", models.RefundStatusPending).
		Count(&count).Error
	return count, err
}
