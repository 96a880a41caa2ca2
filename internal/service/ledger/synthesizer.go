package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
)

// SynthesisInput 生成派生记录所需的方案信息
type SynthesisInput struct {
	MembershipType *models.MembershipType
	PTPackage      *models.PTPackage
	TrainerID      *int64
	LockerType     string
	LockerMonths   int
}

// HasLocker 是否包含储物柜
func (in *SynthesisInput) HasLocker() bool {
	return in != nil && in.LockerType != ""
}

// MembershipGrant 会籍授予，结束日 = 开始日 + 方案月数
func MembershipGrant(p *models.Payment, plan *models.MembershipType) *models.MembershipGrant {
	start := utils.Day(p.PaymentDate)
	return &models.MembershipGrant{
		MemberID:         p.MemberID,
		MembershipTypeID: plan.ID,
		PaymentID:        p.ID,
		StartDate:        start,
		EndDate:          start.AddDate(0, plan.DurationMonths, 0),
		IsActive:         true,
	}
}

// PTPackage 私教课时包，到期日 = 开始日 + 有效天数
func PTPackage(p *models.Payment, plan *models.PTPackage, trainerID int64) *models.PTSessionPackage {
	start := utils.Day(p.PaymentDate)
	return &models.PTSessionPackage{
		MemberID:          p.MemberID,
		PTPackageID:       plan.ID,
		PaymentID:         p.ID,
		TrainerID:         trainerID,
		TotalSessions:     plan.Sessions,
		UsedSessions:      0,
		RemainingSessions: plan.Sessions,
		StartDate:         start,
		ExpiryDate:        start.AddDate(0, 0, plan.ValidityDays),
		Status:            models.DerivedStatusActive,
	}
}

// LockerAssignment 储物柜分配，月费按支付金额平摊到租期
func LockerAssignment(p *models.Payment, lockerType string, months int, lockerNo string) *models.LockerAssignment {
	start := utils.Day(p.PaymentDate)
	return &models.LockerAssignment{
		MemberID:   p.MemberID,
		PaymentID:  p.ID,
		LockerNo:   lockerNo,
		LockerType: lockerType,
		StartDate:  start,
		EndDate:    start.AddDate(0, months, 0),
		MonthlyFee: LockerMonthlyFee(p.Amount, months),
		Status:     models.DerivedStatusActive,
	}
}

// LockerMonthlyFee 金额 / 月数，保留两位
func LockerMonthlyFee(amount decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(int64(months))).Round(2)
}

// ExpiryFor 支付写入前计算其到期日，无派生记录时为 nil
func ExpiryFor(p *models.Payment, in *SynthesisInput) *time.Time {
	if in == nil {
		return nil
	}
	start := utils.Day(p.PaymentDate)
	switch p.PaymentType {
	case models.PaymentTypeMembership:
		if in.MembershipType != nil {
			return utils.Ptr(start.AddDate(0, in.MembershipType.DurationMonths, 0))
		}
	case models.PaymentTypePT:
		if in.PTPackage != nil {
			return utils.Ptr(start.AddDate(0, 0, in.PTPackage.ValidityDays))
		}
	case models.PaymentTypeOther:
		if in.HasLocker() && in.LockerMonths > 0 {
			return utils.Ptr(start.AddDate(0, in.LockerMonths, 0))
		}
	}
	return nil
}

// Synthesizer 派生记录生成器
type Synthesizer struct {
	derivedRepo  *repository.DerivedRepository
	numbers      *NumberGenerator
	lockerPrefix string
}

// NewSynthesizer 创建派生记录生成器
func NewSynthesizer(derivedRepo *repository.DerivedRepository, numbers *NumberGenerator, lockerPrefix string) *Synthesizer {
	if lockerPrefix == "" {
		lockerPrefix = "LCK"
	}
	return &Synthesizer{derivedRepo: derivedRepo, numbers: numbers, lockerPrefix: lockerPrefix}
}

// Synthesize 按支付类型在 tx 内写入唯一的派生记录
// 其他类型且无储物柜时不生成任何记录
func (s *Synthesizer) Synthesize(ctx context.Context, tx *gorm.DB, p *models.Payment, in *SynthesisInput) (*repository.DerivedRecords, error) {
	if in == nil {
		in = &SynthesisInput{}
	}
	repo := s.derivedRepo.WithTx(tx)
	out := &repository.DerivedRecords{}

	switch p.PaymentType {
	case models.PaymentTypeMembership:
		if in.MembershipType == nil {
			return nil, errors.ErrPlanRequired.WithMessage("会籍支付缺少会籍类型")
		}
		grant := MembershipGrant(p, in.MembershipType)
		if err := repo.CreateMembershipGrant(ctx, grant); err != nil {
			return nil, err
		}
		out.Membership = grant

	case models.PaymentTypePT:
		if in.PTPackage == nil {
			return nil, errors.ErrPlanRequired.WithMessage("私教支付缺少课包")
		}
		trainerID := p.StaffID
		if in.TrainerID != nil {
			trainerID = *in.TrainerID
		}
		pkg := PTPackage(p, in.PTPackage, trainerID)
		if err := repo.CreatePTSessionPackage(ctx, pkg); err != nil {
			return nil, err
		}
		out.PTPackage = pkg

	case models.PaymentTypeOther:
		if !in.HasLocker() {
			return out, nil
		}
		if in.LockerMonths <= 0 {
			return nil, errors.ErrLockerFieldsInvalid.WithMessage("储物柜租期必须大于0")
		}
		lockerNo, err := s.numbers.Next(ctx, tx, s.lockerPrefix, p.PaymentDate)
		if err != nil {
			return nil, err
		}
		locker := LockerAssignment(p, in.LockerType, in.LockerMonths, lockerNo)
		if err := repo.CreateLockerAssignment(ctx, locker); err != nil {
			return nil, err
		}
		out.Locker = locker

	default:
		return nil, errors.ErrPaymentTypeInvalid
	}
	return out, nil
}
