// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// PaymentRepository 支付仓储
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx 绑定到事务
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create 创建支付记录，明细行随后单独写入
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(payment).Error
}

// CreateItems 批量写入明细行
func (r *PaymentRepository) CreateItems(ctx context.Context, items []models.PaymentItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// GetByID 根据 ID 获取支付记录
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetForUpdate 获取支付记录并加行锁
func (r *PaymentRepository) GetForUpdate(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	if err := database.ForUpdate(r.db.WithContext(ctx)).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByPaymentNo 根据支付单号获取
func (r *PaymentRepository) GetByPaymentNo(ctx context.Context, paymentNo string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("payment_no = ?", paymentNo).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetDetail 获取支付及其关联
func (r *PaymentRepository) GetDetail(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Staff").
		Preload("MembershipType").
		Preload("PTPackage").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateFields 更新指定字段
func (r *PaymentRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(fields).Error
}

// TransitionStatus 仅当当前状态为 from 时变更状态，返回是否生效
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected == 1, result.Error
}

// PaymentListItem 列表行
type PaymentListItem struct {
	ID            int64           `json:"id"`
	PaymentNo     string          `json:"payment_no"`
	MemberID      int64           `json:"member_id"`
	MemberName    string          `json:"member_name"`
	MemberPhone   string          `json:"member_phone"`
	StaffID       int64           `json:"staff_id"`
	StaffName     string          `json:"staff_name"`
	PaymentType   string          `json:"payment_type"`
	PlanName      string          `json:"plan_name"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   time.Time       `json:"payment_date"`
	Status        string          `json:"status"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

const paymentListColumns = `payments.id, payments.payment_no, payments.member_id,
	members.name AS member_name, members.phone AS member_phone,
	payments.staff_id, staff.name AS staff_name,
	payments.payment_type, COALESCE(membership_types.name, pt_packages.name, '') AS plan_name,
	payments.amount, payments.payment_method, payments.payment_date, payments.status,
	payments.expiry_date, payments.notes, payments.created_at`

// List 按条件查询支付列表，PageSize 为 0 时返回全部
func (r *PaymentRepository) List(ctx context.Context, filter *PaymentFilter) ([]PaymentListItem, int64, error) {
	if filter == nil {
		filter = &PaymentFilter{}
	}
	scope := filter.Scope()

	var total int64
	if err := r.db.WithContext(ctx).Table("payments").Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]PaymentListItem, 0)
	err := r.db.WithContext(ctx).Table("payments").
		Select(paymentListColumns).
		Scopes(scope, database.Paginate(filter.Page, filter.PageSize)).
		Order(filter.OrderBy()).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
