package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createTestMember(t *testing.T, db *gorm.DB, name, phone string) *models.Member {
	t.Helper()
	m := &models.Member{Name: name, Phone: phone}
	require.NoError(t, db.Create(m).Error)
	return m
}

func createTestStaff(t *testing.T, db *gorm.DB, username string) *models.Staff {
	t.Helper()
	s := &models.Staff{
		Username:     username,
		PasswordHash: "x",
		Name:         "员工" + username,
		Role:         models.StaffRoleDesk,
		IsActive:     true,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func createTestMembershipType(t *testing.T, db *gorm.DB, name string, months int, price string) *models.MembershipType {
	t.Helper()
	mt := &models.MembershipType{Name: name, DurationMonths: months, Price: decimal.RequireFromString(price), IsActive: true}
	require.NoError(t, db.Create(mt).Error)
	return mt
}

type paymentSeed struct {
	no      string
	member  int64
	staff   int64
	ptype   string
	method  string
	amount  string
	date    time.Time
	status  string
	planID  *int64
	expiry  *time.Time
	created time.Time
}

func createTestPayment(t *testing.T, db *gorm.DB, s paymentSeed) *models.Payment {
	t.Helper()
	if s.ptype == "" {
		s.ptype = models.PaymentTypeOther
	}
	if s.method == "" {
		s.method = models.PaymentMethodCash
	}
	if s.status == "" {
		s.status = models.PaymentStatusCompleted
	}
	if s.amount == "" {
		s.amount = "100"
	}
	p := &models.Payment{
		PaymentNo:        s.no,
		MemberID:         s.member,
		StaffID:          s.staff,
		PaymentType:      s.ptype,
		MembershipTypeID: s.planID,
		Amount:           decimal.RequireFromString(s.amount),
		PaymentMethod:    s.method,
		PaymentDate:      s.date,
		Status:           s.status,
		ExpiryDate:       s.expiry,
		CreatedAt:        s.created,
	}
	require.NoError(t, NewPaymentRepository(db).Create(context.Background(), p))
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func paymentNo(d time.Time, n int) string {
	return fmt.Sprintf("PAY-%s-%03d", d.Format("20060102"), n)
}
