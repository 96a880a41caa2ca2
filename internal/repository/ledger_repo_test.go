package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

func TestSequenceRepository_Increment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Increment(ctx, "PAY", "20260301")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	t.Run("前缀和日期相互独立", func(t *testing.T) {
		got, err := repo.Increment(ctx, "PAY", "20260302")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = repo.Increment(ctx, "RF", "20260301")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("事务回滚后序号不被消耗", func(t *testing.T) {
		errAbort := errors.New("abort")
		err := db.Transaction(func(tx *gorm.DB) error {
			v, err := repo.WithTx(tx).Increment(ctx, "PAY", "20260301")
			require.NoError(t, err)
			assert.Equal(t, int64(4), v)
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		cur, err := repo.Current(ctx, "PAY", "20260301")
		require.NoError(t, err)
		assert.Equal(t, int64(3), cur)
	})

	cur, err := repo.Current(ctx, "LCK", "20260301")
	require.NoError(t, err)
	assert.Zero(t, cur)
}

func TestRefundRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefundRepository(db)
	ctx := context.Background()

	m := createTestMember(t, db, "王五", "13700000003")
	s := createTestStaff(t, db, "desk3")
	p := createTestPayment(t, db, paymentSeed{no: "PAY-20260301-001", member: m.ID, staff: s.ID, amount: "1000", date: day(2026, 3, 1)})

	sum, err := repo.SumCounted(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	statuses := []string{models.RefundStatusPending, models.RefundStatusApproved, models.RefundStatusRejected, models.RefundStatusProcessed}
	for i, st := range statuses {
		r := &models.Refund{
			RefundNo:     "RF-20260301-00" + string(rune('1'+i)),
			PaymentID:    p.ID,
			RequestedBy:  s.ID,
			Amount:       decimal.NewFromInt(int64(100 * (i + 1))),
			Reason:       "测试",
			RefundMethod: models.RefundMethodCash,
			Status:       st,
			RequestedAt:  day(2026, 3, 2),
		}
		require.NoError(t, repo.Create(ctx, r))
	}

	// approved 200 + processed 400
	sum, err = repo.SumCounted(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(600)), sum.String())

	list, err := repo.ListByPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	pending, err := repo.CountByStatus(ctx, models.RefundStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	require.NoError(t, repo.UpdateFields(ctx, list[0].ID, map[string]interface{}{"status": models.RefundStatusRejected}))
	got, err := repo.GetForUpdate(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusRejected, got.Status)

	t.Run("列表过滤与分页", func(t *testing.T) {
		items, total, err := repo.List(ctx, &RefundFilter{Status: models.RefundStatusRejected})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, items, 2)
		require.NotNil(t, items[0].Payment)
		assert.Equal(t, p.PaymentNo, items[0].Payment.PaymentNo)

		items, total, err = repo.List(ctx, &RefundFilter{PaymentID: &p.ID, Page: 1, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, items, 3)
	})
}

func TestHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	for _, action := range []string{models.HistoryActionCreated, models.HistoryActionUpdated, models.HistoryActionCancelled} {
		require.NoError(t, repo.Append(ctx, &models.PaymentHistory{
			PaymentID: 1,
			Action:    action,
			NewValue:  datatypes.JSON(`{"status":"completed"}`),
			StaffID:   2,
		}))
	}
	require.NoError(t, repo.Append(ctx, &models.PaymentHistory{PaymentID: 2, Action: models.HistoryActionCreated, StaffID: 2}))

	entries, err := repo.ListByPayment(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.HistoryActionCreated, entries[0].Action)
	assert.Equal(t, models.HistoryActionCancelled, entries[2].Action)
	assert.JSONEq(t, `{"status":"completed"}`, string(entries[0].NewValue))
}

func TestDerivedRepository_GetByPayment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDerivedRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateMembershipGrant(ctx, &models.MembershipGrant{
		MemberID: 1, MembershipTypeID: 1, PaymentID: 10,
		StartDate: day(2026, 3, 1), EndDate: day(2026, 4, 1), IsActive: true,
	}))
	require.NoError(t, repo.CreateLockerAssignment(ctx, &models.LockerAssignment{
		MemberID: 1, PaymentID: 11, LockerNo: "LCK-20260301-001", LockerType: "standard",
		StartDate: day(2026, 3, 1), EndDate: day(2026, 6, 1), MonthlyFee: decimal.NewFromInt(30), Status: models.DerivedStatusActive,
	}))

	got, err := repo.GetByPayment(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count())
	require.NotNil(t, got.Membership)
	assert.True(t, got.Membership.EndDate.Equal(day(2026, 4, 1)))

	got, err = repo.GetByPayment(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, got.Locker)
	assert.Nil(t, got.PTPackage)

	got, err = repo.GetByPayment(ctx, 12)
	require.NoError(t, err)
	assert.Zero(t, got.Count())

	t.Run("同一支付不能重复派生", func(t *testing.T) {
		err := repo.CreatePTSessionPackage(ctx, &models.PTSessionPackage{
			MemberID: 1, PTPackageID: 1, PaymentID: 10, TrainerID: 1,
			TotalSessions: 10, RemainingSessions: 10,
			StartDate: day(2026, 3, 1), ExpiryDate: day(2026, 5, 30), Status: models.DerivedStatusActive,
		})
		require.NoError(t, err)

		err = repo.CreatePTSessionPackage(ctx, &models.PTSessionPackage{
			MemberID: 1, PTPackageID: 1, PaymentID: 10, TrainerID: 1,
			StartDate: day(2026, 3, 1), ExpiryDate: day(2026, 5, 30), Status: models.DerivedStatusActive,
		})
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})
}

func TestDirectoryAndCatalog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	members := NewMemberRepository(db)
	m := &models.Member{Name: "赵六", Phone: "13600000004"}
	require.NoError(t, members.Create(ctx, m))
	got, err := members.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "赵六", got.Name)

	staff := NewStaffRepository(db)
	s := &models.Staff{Username: "mgr", PasswordHash: "h", Name: "店长", Role: models.StaffRoleManager, CanApproveRefund: true, IsActive: true}
	require.NoError(t, staff.Create(ctx, s))
	byName, err := staff.GetByUsername(ctx, "mgr")
	require.NoError(t, err)
	assert.True(t, byName.CanApproveRefund)
	_, err = staff.GetByID(ctx, 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	catalog := NewCatalogRepository(db)
	pkg := &models.PTPackage{Name: "私教10节", Sessions: 10, ValidityDays: 90, Price: decimal.NewFromInt(2000), IsActive: true}
	require.NoError(t, catalog.CreatePTPackage(ctx, pkg))
	gotPkg, err := catalog.GetPTPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, gotPkg.ValidityDays)

	mt := &models.MembershipType{Name: "季卡", DurationMonths: 3, Price: decimal.NewFromInt(800), IsActive: true}
	require.NoError(t, catalog.CreateMembershipType(ctx, mt))
	gotMT, err := catalog.GetMembershipType(ctx, mt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, gotMT.DurationMonths)
}
