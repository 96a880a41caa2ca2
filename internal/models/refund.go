package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Refund 退款申请
type Refund struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	RefundNo     string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"refund_no"`
	PaymentID    int64           `gorm:"index;not null" json:"payment_id"`
	RequestedBy  int64           `gorm:"not null" json:"requested_by"`
	ApprovedBy   *int64          `json:"approved_by,omitempty"`
	ProcessedBy  *int64          `json:"processed_by,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason       string          `gorm:"type:text;not null" json:"reason"`
	RefundMethod string          `gorm:"type:varchar(20);not null" json:"refund_method"`
	AccountInfo  *string         `gorm:"type:varchar(255)" json:"account_info,omitempty"`
	Status       string          `gorm:"type:varchar(20);index;not null" json:"status"`
	RequestedAt  time.Time       `gorm:"not null" json:"requested_at"`
	ApprovedAt   *time.Time      `json:"approved_at,omitempty"`
	RejectedAt   *time.Time      `json:"rejected_at,omitempty"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Payment *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}

// TableName 表名
func (Refund) TableName() string {
	return "refunds"
}

// RefundStatus 退款状态
const (
	RefundStatusPending   = "pending"   // 待审批
	RefundStatusApproved  = "approved"  // 已批准
	RefundStatusRejected  = "rejected"  // 已拒绝
	RefundStatusProcessed = "processed" // 已退款
)

// RefundMethod 退款方式
const (
	RefundMethodAccountTransfer = "account_transfer" // 转账退回
	RefundMethodCardCancel      = "card_cancel"      // 刷卡撤销
	RefundMethodCash            = "cash"             // 现金退回
)

// RefundMethods 全部退款方式
var RefundMethods = []string{RefundMethodAccountTransfer, RefundMethodCardCancel, RefundMethodCash}

// CountedRefundStatuses 计入已退金额的状态
var CountedRefundStatuses = []string{RefundStatusApproved, RefundStatusProcessed}
