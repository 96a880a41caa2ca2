package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MembershipType 会籍方案
type MembershipType struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string          `gorm:"type:varchar(100);not null" json:"name"`
	DurationMonths int             `gorm:"not null" json:"duration_months"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (MembershipType) TableName() string {
	return "membership_types"
}

// PTPackage 私教课包方案
type PTPackage struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string          `gorm:"type:varchar(100);not null" json:"name"`
	Sessions     int             `gorm:"not null" json:"sessions"`
	ValidityDays int             `gorm:"not null" json:"validity_days"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (PTPackage) TableName() string {
	return "pt_packages"
}
