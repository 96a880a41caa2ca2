package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment 支付流水
type Payment struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentNo        string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"payment_no"`
	MemberID         int64           `gorm:"index;not null" json:"member_id"`
	StaffID          int64           `gorm:"index;not null" json:"staff_id"`
	PaymentType      string          `gorm:"type:varchar(20);index;not null" json:"payment_type"`
	MembershipTypeID *int64          `gorm:"index" json:"membership_type_id,omitempty"`
	PTPackageID      *int64          `gorm:"column:pt_package_id;index" json:"pt_package_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod    string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentDate      time.Time       `gorm:"type:date;index;not null" json:"payment_date"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Status           string          `gorm:"type:varchar(20);index;not null" json:"status"`
	LockerType       *string         `gorm:"type:varchar(20)" json:"locker_type,omitempty"`
	LockerMonths     *int            `json:"locker_months,omitempty"`
	ExpiryDate       *time.Time      `gorm:"type:date;index" json:"expiry_date,omitempty"`
	AutoRenew        bool            `gorm:"not null" json:"auto_renew"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Member         *Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Staff          *Staff          `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	MembershipType *MembershipType `gorm:"foreignKey:MembershipTypeID" json:"membership_type,omitempty"`
	PTPackage      *PTPackage      `gorm:"foreignKey:PTPackageID" json:"pt_package,omitempty"`
	Items          []PaymentItem   `gorm:"foreignKey:PaymentID" json:"items,omitempty"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// IsTerminal 是否处于终态
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusRefunded || p.Status == PaymentStatusCancelled
}

// PaymentType 支付类型
const (
	PaymentTypeMembership = "membership" // 会籍
	PaymentTypePT         = "pt"         // 私教课
	PaymentTypeOther      = "other"      // 其他（含储物柜）
)

// PaymentMethod 支付方式
const (
	PaymentMethodCard     = "card"     // 刷卡
	PaymentMethodCash     = "cash"     // 现金
	PaymentMethodTransfer = "transfer" // 转账
	PaymentMethodOther    = "other"    // 其他
)

// PaymentStatus 支付状态
const (
	PaymentStatusCompleted = "completed" // 已完成
	PaymentStatusRefunded  = "refunded"  // 已退款
	PaymentStatusCancelled = "cancelled" // 已取消
)

// PaymentTypes 全部支付类型
var PaymentTypes = []string{PaymentTypeMembership, PaymentTypePT, PaymentTypeOther}

// PaymentMethods 全部支付方式
var PaymentMethods = []string{PaymentMethodCard, PaymentMethodCash, PaymentMethodTransfer, PaymentMethodOther}

// PaymentStatuses 全部支付状态
var PaymentStatuses = []string{PaymentStatusCompleted, PaymentStatusRefunded, PaymentStatusCancelled}

// PaymentItem 支付明细行
type PaymentItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID   int64           `gorm:"index;not null" json:"payment_id"`
	ItemType    string          `gorm:"type:varchar(20);not null" json:"item_type"`
	ItemSubtype string          `gorm:"type:varchar(50)" json:"item_subtype"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (PaymentItem) TableName() string {
	return "payment_items"
}
