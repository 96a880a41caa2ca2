package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MembershipGrant 会籍授予记录
type MembershipGrant struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID         int64     `gorm:"index;not null" json:"member_id"`
	MembershipTypeID int64     `gorm:"not null" json:"membership_type_id"`
	PaymentID        int64     `gorm:"uniqueIndex;not null" json:"payment_id"`
	StartDate        time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate          time.Time `gorm:"type:date;not null" json:"end_date"`
	IsActive         bool      `gorm:"not null" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (MembershipGrant) TableName() string {
	return "membership_grants"
}

// PTSessionPackage 私教课时包
type PTSessionPackage struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID          int64     `gorm:"index;not null" json:"member_id"`
	PTPackageID       int64     `gorm:"column:pt_package_id;not null" json:"pt_package_id"`
	PaymentID         int64     `gorm:"uniqueIndex;not null" json:"payment_id"`
	TrainerID         int64     `gorm:"index;not null" json:"trainer_id"`
	TotalSessions     int       `gorm:"not null" json:"total_sessions"`
	UsedSessions      int       `gorm:"not null" json:"used_sessions"`
	RemainingSessions int       `gorm:"not null" json:"remaining_sessions"`
	StartDate         time.Time `gorm:"type:date;not null" json:"start_date"`
	ExpiryDate        time.Time `gorm:"type:date;not null" json:"expiry_date"`
	Status            string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (PTSessionPackage) TableName() string {
	return "pt_session_packages"
}

// LockerAssignment 储物柜分配
type LockerAssignment struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID   int64           `gorm:"index;not null" json:"member_id"`
	PaymentID  int64           `gorm:"uniqueIndex;not null" json:"payment_id"`
	LockerNo   string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"locker_no"`
	LockerType string          `gorm:"type:varchar(20);not null" json:"locker_type"`
	StartDate  time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time       `gorm:"type:date;not null" json:"end_date"`
	MonthlyFee decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_fee"`
	Status     string          `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (LockerAssignment) TableName() string {
	return "locker_assignments"
}

// 派生记录状态
const (
	DerivedStatusActive = "active"
)
