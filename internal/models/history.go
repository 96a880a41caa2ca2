package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentHistory 支付审计记录，只增不改
type PaymentHistory struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID int64          `gorm:"index;not null" json:"payment_id"`
	Action    string         `gorm:"type:varchar(30);not null" json:"action"`
	OldValue  datatypes.JSON `json:"old_value,omitempty"`
	NewValue  datatypes.JSON `json:"new_value,omitempty"`
	StaffID   int64          `gorm:"not null" json:"staff_id"`
	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (PaymentHistory) TableName() string {
	return "payment_histories"
}

// 审计动作
const (
	HistoryActionCreated         = "created"
	HistoryActionUpdated         = "updated"
	HistoryActionRefundRequested = "refund_requested"
	HistoryActionRefundApproved  = "refund_approved"
	HistoryActionRefundRejected  = "refund_rejected"
	HistoryActionRefunded        = "refunded"
	HistoryActionCancelled       = "cancelled"
)

// LedgerSequence 按前缀和日期划分的流水号序列
type LedgerSequence struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Prefix    string    `gorm:"type:varchar(16);not null;uniqueIndex:uk_ledger_sequence" json:"prefix"`
	SeqDate   string    `gorm:"type:varchar(8);not null;uniqueIndex:uk_ledger_sequence" json:"seq_date"`
	LastValue int64     `gorm:"not null" json:"last_value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (LedgerSequence) TableName() string {
	return "ledger_sequences"
}
