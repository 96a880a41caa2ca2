package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	appErrors "github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
)

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

func newSynthesizer(db *gorm.DB) *Synthesizer {
	numbers := NewNumberGenerator(repository.NewSequenceRepository(db))
	return NewSynthesizer(repository.NewDerivedRepository(db), numbers, "")
}

func TestFormatNumber(t *testing.T) {
	d := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "PAY-20260301-001", FormatNumber("PAY", d, 1))
	assert.Equal(t, "RF-20260301-042", FormatNumber("RF", d, 42))
	assert.Equal(t, "PAY-20260301-1000", FormatNumber("PAY", d, 1000))
}

func TestNumberGenerator_Next(t *testing.T) {
	db := setupTestDB(t)
	gen := NewNumberGenerator(repository.NewSequenceRepository(db))
	ctx := context.Background()
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("同日递增", func(t *testing.T) {
		for i := 1; i <= 2; i++ {
			var no string
			err := db.Transaction(func(tx *gorm.DB) error {
				var err error
				no, err = gen.Next(ctx, tx, "PAY", d)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("PAY-20260301-%03d", i), no)
		}
	})

	t.Run("回滚不消耗编号", func(t *testing.T) {
		_ = db.Transaction(func(tx *gorm.DB) error {
			no, err := gen.Next(ctx, tx, "PAY", d)
			require.NoError(t, err)
			assert.Equal(t, "PAY-20260301-003", no)
			return errors.New("rollback")
		})

		var no string
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			no, err = gen.Next(ctx, tx, "PAY", d)
			return err
		}))
		assert.Equal(t, "PAY-20260301-003", no)
	})

	t.Run("并发生成不重复", func(t *testing.T) {
		const n = 8
		next := d.AddDate(0, 0, 1)
		results := make(chan string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = db.Transaction(func(tx *gorm.DB) error {
					no, err := gen.Next(ctx, tx, "PAY", next)
					if err == nil {
						results <- no
					}
					return err
				})
			}()
		}
		wg.Wait()
		close(results)

		seen := map[string]bool{}
		for no := range results {
			assert.False(t, seen[no], no)
			seen[no] = true
		}
		assert.Len(t, seen, n)
	})
}

func TestPureSynthesis(t *testing.T) {
	p := &models.Payment{
		ID: 9, MemberID: 3, StaffID: 4,
		Amount:      decimal.NewFromInt(100),
		PaymentDate: time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC),
	}

	t.Run("会籍结束日为开始日加月数", func(t *testing.T) {
		g := MembershipGrant(p, &models.MembershipType{ID: 1, DurationMonths: 1})
		assert.Equal(t, utils.Day(p.PaymentDate), g.StartDate)
		assert.Equal(t, utils.Day(p.PaymentDate).AddDate(0, 1, 0), g.EndDate)
		assert.True(t, g.IsActive)
		assert.Equal(t, int64(9), g.PaymentID)
	})

	t.Run("私教课时包计数器", func(t *testing.T) {
		pkg := PTPackage(p, &models.PTPackage{ID: 2, Sessions: 12, ValidityDays: 90}, 7)
		assert.Equal(t, 12, pkg.TotalSessions)
		assert.Equal(t, 12, pkg.RemainingSessions)
		assert.Zero(t, pkg.UsedSessions)
		assert.Equal(t, int64(7), pkg.TrainerID)
		assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), pkg.ExpiryDate)
	})

	t.Run("储物柜月费", func(t *testing.T) {
		l := LockerAssignment(p, "large", 3, "LCK-20260131-001")
		assert.Equal(t, "33.33", l.MonthlyFee.StringFixed(2))
		assert.Equal(t, utils.Day(p.PaymentDate).AddDate(0, 3, 0), l.EndDate)
		assert.True(t, LockerMonthlyFee(decimal.NewFromInt(10), 0).IsZero())
	})

	t.Run("写入前计算到期日", func(t *testing.T) {
		mp := *p
		mp.PaymentType = models.PaymentTypeMembership
		exp := ExpiryFor(&mp, &SynthesisInput{MembershipType: &models.MembershipType{DurationMonths: 12}})
		require.NotNil(t, exp)
		assert.Equal(t, 2027, exp.Year())

		op := *p
		op.PaymentType = models.PaymentTypeOther
		assert.Nil(t, ExpiryFor(&op, &SynthesisInput{}))
		assert.Nil(t, ExpiryFor(&op, nil))
	})
}

func TestSynthesizer_Synthesize(t *testing.T) {
	db := setupTestDB(t)
	s := newSynthesizer(db)
	derived := repository.NewDerivedRepository(db)
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payment *models.Payment
		input   *SynthesisInput
		check   func(t *testing.T, out *repository.DerivedRecords)
		wantErr *appErrors.AppError
	}{
		{
			name:    "会籍",
			payment: &models.Payment{ID: 1, MemberID: 1, StaffID: 2, PaymentType: models.PaymentTypeMembership, PaymentDate: date},
			input:   &SynthesisInput{MembershipType: &models.MembershipType{ID: 5, DurationMonths: 1}},
			check: func(t *testing.T, out *repository.DerivedRecords) {
				require.NotNil(t, out.Membership)
				assert.Equal(t, 1, out.Count())
			},
		},
		{
			name:    "私教默认教练为收款员工",
			payment: &models.Payment{ID: 2, MemberID: 1, StaffID: 2, PaymentType: models.PaymentTypePT, PaymentDate: date},
			input:   &SynthesisInput{PTPackage: &models.PTPackage{ID: 6, Sessions: 10, ValidityDays: 30}},
			check: func(t *testing.T, out *repository.DerivedRecords) {
				require.NotNil(t, out.PTPackage)
				assert.Equal(t, int64(2), out.PTPackage.TrainerID)
			},
		},
		{
			name:    "储物柜",
			payment: &models.Payment{ID: 3, MemberID: 1, StaffID: 2, PaymentType: models.PaymentTypeOther, Amount: decimal.NewFromInt(90), PaymentDate: date},
			input:   &SynthesisInput{LockerType: "standard", LockerMonths: 3},
			check: func(t *testing.T, out *repository.DerivedRecords) {
				require.NotNil(t, out.Locker)
				assert.Equal(t, "LCK-20260301-001", out.Locker.LockerNo)
				assert.Equal(t, "30.00", out.Locker.MonthlyFee.StringFixed(2))
			},
		},
		{
			name:    "其他类型无储物柜不生成",
			payment: &models.Payment{ID: 4, MemberID: 1, StaffID: 2, PaymentType: models.PaymentTypeOther, PaymentDate: date},
			check: func(t *testing.T, out *repository.DerivedRecords) {
				assert.Zero(t, out.Count())
			},
		},
		{
			name:    "会籍缺少方案",
			payment: &models.Payment{ID: 5, PaymentType: models.PaymentTypeMembership, PaymentDate: date},
			input:   &SynthesisInput{},
			wantErr: appErrors.ErrPlanRequired,
		},
		{
			name:    "储物柜租期非法",
			payment: &models.Payment{ID: 6, PaymentType: models.PaymentTypeOther, PaymentDate: date},
			input:   &SynthesisInput{LockerType: "standard"},
			wantErr: appErrors.ErrLockerFieldsInvalid,
		},
		{
			name:    "未知类型",
			payment: &models.Payment{ID: 7, PaymentType: "gift", PaymentDate: date},
			wantErr: appErrors.ErrPaymentTypeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out *repository.DerivedRecords
			err := db.Transaction(func(tx *gorm.DB) error {
				var err error
				out, err = s.Synthesize(ctx, tx, tt.payment, tt.input)
				return err
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, out)

			stored, err := derived.GetByPayment(ctx, tt.payment.ID)
			require.NoError(t, err)
			assert.Equal(t, out.Count(), stored.Count())
		})
	}
}

func TestHistoryRecorder(t *testing.T) {
	db := setupTestDB(t)
	rec := NewHistoryRecorder(repository.NewHistoryRepository(db))
	ctx := context.Background()

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := rec.Record(ctx, tx, Entry{PaymentID: 1, Action: models.HistoryActionCreated, New: map[string]string{"status": "completed"}, StaffID: 2}); err != nil {
			return err
		}
		return rec.Record(ctx, tx, Entry{
			PaymentID: 1, Action: models.HistoryActionUpdated, StaffID: 2, Notes: "改价",
			Old: map[string]string{"amount": "100"}, New: map[string]string{"amount": "90"},
		})
	}))

	t.Run("回滚的事件不落库", func(t *testing.T) {
		_ = db.Transaction(func(tx *gorm.DB) error {
			require.NoError(t, rec.Record(ctx, tx, Entry{PaymentID: 1, Action: models.HistoryActionCancelled, StaffID: 2}))
			return errors.New("rollback")
		})
	})

	entries, err := rec.ListByPayment(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].OldValue)
	assert.JSONEq(t, `{"amount":"100"}`, string(entries[1].OldValue))
	assert.Equal(t, "改价", entries[1].Notes)

	t.Run("无法序列化的快照", func(t *testing.T) {
		err := rec.Record(ctx, db, Entry{PaymentID: 1, Action: models.HistoryActionUpdated, New: make(chan int)})
		assert.Error(t, err)
	})
}
