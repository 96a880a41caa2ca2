package models

import "time"

// Member 会员
type Member struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(20);index" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Member) TableName() string {
	return "members"
}

// Staff 员工
type Staff struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username         string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash     string    `gorm:"type:varchar(255);not null" json:"-"`
	Name             string    `gorm:"type:varchar(50);not null" json:"name"`
	Role             string    `gorm:"type:varchar(20);not null" json:"role"`
	CanApproveRefund bool      `gorm:"not null" json:"can_approve_refund"`
	IsActive         bool      `gorm:"not null" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Staff) TableName() string {
	return "staff"
}

// 员工角色
const (
	StaffRoleManager = "manager"
	StaffRoleDesk    = "desk"
	StaffRoleTrainer = "trainer"
)

// StaffRoles 全部员工角色
var StaffRoles = []string{StaffRoleManager, StaffRoleDesk, StaffRoleTrainer}
