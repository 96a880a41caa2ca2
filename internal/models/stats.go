package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountCount 笔数与金额
type AmountCount struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// BreakdownRow 分组统计行
type BreakdownRow struct {
	Key    string          `gorm:"column:group_key" json:"key"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// StaffRevenue 员工业绩
type StaffRevenue struct {
	StaffID   int64           `json:"staff_id"`
	StaffName string          `json:"staff_name"`
	Count     int64           `json:"count"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentStats 支付看板统计
type PaymentStats struct {
	Total            AmountCount    `json:"total"`
	Today            AmountCount    `json:"today"`
	ThisMonth        AmountCount    `json:"this_month"`
	ByType           []BreakdownRow `json:"by_type"`
	ByMethod         []BreakdownRow `json:"by_method"`
	ByStatus         []BreakdownRow `json:"by_status"`
	TopStaff         []StaffRevenue `json:"top_staff"`
	PendingRefunds   int64          `json:"pending_refunds"`
	NearExpiry       int64          `json:"near_expiry"`
	ExpiryWindowDays int            `json:"expiry_window_days"`
	GeneratedAt      time.Time      `json:"generated_at"`
}
