// Package payment 提供支付服务
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/config"
	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/logger"
	"github.com/dumeirei/fitness-crm-backend/internal/common/metrics"
	"github.com/dumeirei/fitness-crm-backend/internal/common/tracing"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	"github.com/dumeirei/fitness-crm-backend/internal/service/ledger"
)

// Repositories 支付服务依赖的仓储
type Repositories struct {
	Payments *repository.PaymentRepository
	Refunds  *repository.RefundRepository
	Members  *repository.MemberRepository
	Staff    *repository.StaffRepository
	Catalog  *repository.CatalogRepository
	Derived  *repository.DerivedRepository
}

// PaymentService 支付服务
type PaymentService struct {
	repos       Repositories
	tx          *ledger.Transactor
	numbers     *ledger.NumberGenerator
	synthesizer *ledger.Synthesizer
	history     *ledger.HistoryRecorder
	cfg         config.LedgerConfig
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
	stats       ledger.StatsInvalidator
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	repos Repositories,
	tx *ledger.Transactor,
	numbers *ledger.NumberGenerator,
	synthesizer *ledger.Synthesizer,
	history *ledger.HistoryRecorder,
	cfg config.LedgerConfig,
	m *metrics.Metrics,
	log *zap.Logger,
) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PaymentNoPrefix == "" {
		cfg.PaymentNoPrefix = config.DefaultLedgerConfig().PaymentNoPrefix
	}
	return &PaymentService{
		repos:       repos,
		tx:          tx,
		numbers:     numbers,
		synthesizer: synthesizer,
		history:     history,
		cfg:         cfg,
		metrics:     m,
		logger:      log,
		now:         time.Now,
	}
}

// SetStatsInvalidator 设置提交后需要失效的统计缓存
func (s *PaymentService) SetStatsInvalidator(inv ledger.StatsInvalidator) { s.stats = inv }

// PaymentItemInput 支付明细
type PaymentItemInput struct {
	ItemType    string          `json:"item_type" binding:"required"`
	ItemSubtype string          `json:"item_subtype"`
	Name        string          `json:"name" binding:"required"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreatePaymentRequest 创建支付请求
type CreatePaymentRequest struct {
	MemberID         int64              `json:"member_id" binding:"required"`
	StaffID          *int64             `json:"staff_id,omitempty"` // 为空时为当前员工
	PaymentType      string             `json:"payment_type" binding:"required"`
	MembershipTypeID *int64             `json:"membership_type_id,omitempty"`
	PTPackageID      *int64             `json:"pt_package_id,omitempty"`
	TrainerID        *int64             `json:"trainer_id,omitempty"`
	Amount           *decimal.Decimal   `json:"amount,omitempty"`
	PaymentMethod    string             `json:"payment_method" binding:"required"`
	PaymentDate      string             `json:"payment_date,omitempty"` // YYYY-MM-DD，默认当天
	Notes            string             `json:"notes"`
	LockerType       *string            `json:"locker_type,omitempty"`
	LockerMonths     *int               `json:"locker_months,omitempty"`
	AutoRenew        bool               `json:"auto_renew"`
	Items            []PaymentItemInput `json:"items,omitempty"`
}

// CreatePaymentResponse 创建支付响应
type CreatePaymentResponse struct {
	ID        int64  `json:"id"`
	PaymentNo string `json:"payment_no"`
}

// ChangeResult 变更结果
type ChangeResult struct {
	Changed bool `json:"changed"`
}

// draft 校验通过后的待写入数据
type draft struct {
	payment models.Payment
	items   []models.PaymentItem
	input   ledger.SynthesisInput
}

// CreatePayment 创建支付并同步生成派生记录
func (s *PaymentService) CreatePayment(ctx context.Context, actorID int64, req *CreatePaymentRequest) (resp *CreatePaymentResponse, err error) {
	ctx, span := tracing.Start(ctx, "payment.create", tracing.WithStaffID(actorID))
	defer func() { tracing.End(span, err) }()

	d, err := s.prepare(ctx, actorID, req)
	if err != nil {
		return nil, err
	}

	var created *models.Payment
	err = s.tx.Run(ctx, "payment.create", func(tx *gorm.DB) error {
		p := d.payment
		items := append([]models.PaymentItem(nil), d.items...)

		no, err := s.numbers.Next(ctx, tx, s.cfg.PaymentNoPrefix, p.PaymentDate)
		if err != nil {
			return err
		}
		p.PaymentNo = no

		if err := s.repos.Payments.WithTx(tx).Create(ctx, &p); err != nil {
			return err
		}
		for i := range items {
			items[i].PaymentID = p.ID
		}
		if err := s.repos.Payments.WithTx(tx).CreateItems(ctx, items); err != nil {
			return err
		}
		if _, err := s.synthesizer.Synthesize(ctx, tx, &p, &d.input); err != nil {
			return err
		}
		if err := s.history.Record(ctx, tx, ledger.Entry{
			PaymentID: p.ID,
			Action:    models.HistoryActionCreated,
			New:       snapshotOf(&p),
			StaffID:   actorID,
			Notes:     p.Notes,
		}); err != nil {
			return err
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	amount, _ := created.Amount.Float64()
	ledger.Invalidate(ctx, s.stats)
	s.metrics.RecordPayment(created.PaymentType, created.PaymentMethod, amount)
	s.logger.Info("payment created",
		logger.PaymentID(created.ID),
		logger.PaymentNo(created.PaymentNo),
		logger.MemberID(created.MemberID),
		logger.StaffID(actorID),
		zap.String("amount", created.Amount.StringFixed(2)),
	)

	return &CreatePaymentResponse{ID: created.ID, PaymentNo: created.PaymentNo}, nil
}

// prepare 校验请求并解析引用
// 顺序：类型、方式、方案互斥、明细、会员、员工、方案
func (s *PaymentService) prepare(ctx context.Context, actorID int64, req *CreatePaymentRequest) (*draft, error) {
	if req == nil {
		return nil, errors.ErrInvalidParams
	}
	if !utils.Contains(models.PaymentTypes, req.PaymentType) {
		return nil, errors.ErrPaymentTypeInvalid
	}
	if !utils.Contains(models.PaymentMethods, req.PaymentMethod) {
		return nil, errors.ErrPaymentMethodError
	}
	if err := validatePlanRefs(req); err != nil {
		return nil, err
	}
	if err := validateLocker(req); err != nil {
		return nil, err
	}

	items, itemTotal, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	paymentDate := utils.Day(s.now())
	if req.PaymentDate != "" {
		paymentDate, err = utils.ParseDate(req.PaymentDate)
		if err != nil {
			return nil, errors.ErrPaymentDateInvalid.WithError(err)
		}
	}

	if _, err := s.repos.Members.GetByID(ctx, req.MemberID); err != nil {
		return nil, ledger.LookupError(err, errors.ErrMemberNotFound)
	}

	staffID := actorID
	if req.StaffID != nil {
		staffID = *req.StaffID
	}
	staff, err := s.repos.Staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, ledger.LookupError(err, errors.ErrStaffNotFound)
	}
	if !staff.IsActive {
		return nil, errors.ErrStaffInactive
	}

	d := &draft{items: items}
	var planPrice *decimal.Decimal

	switch req.PaymentType {
	case models.PaymentTypeMembership:
		plan, err := s.repos.Catalog.GetMembershipType(ctx, *req.MembershipTypeID)
		if err != nil {
			return nil, ledger.LookupError(err, errors.ErrMembershipTypeNotFound)
		}
		if !plan.IsActive {
			return nil, errors.ErrPlanInactive.WithMessagef("会籍类型 %s 已停售", plan.Name)
		}
		if plan.DurationMonths <= 0 {
			return nil, errors.ErrPlanMisconfigured.WithMessage("会籍时长必须大于0")
		}
		d.input.MembershipType = plan
		planPrice = &plan.Price
	case models.PaymentTypePT:
		plan, err := s.repos.Catalog.GetPTPackage(ctx, *req.PTPackageID)
		if err != nil {
			return nil, ledger.LookupError(err, errors.ErrPTPackageNotFound)
		}
		if !plan.IsActive {
			return nil, errors.ErrPlanInactive.WithMessagef("私教课包 %s 已停售", plan.Name)
		}
		if plan.Sessions <= 0 || plan.ValidityDays <= 0 {
			return nil, errors.ErrPlanMisconfigured.WithMessage("课包节数与有效天数必须大于0")
		}
		d.input.PTPackage = plan
		planPrice = &plan.Price
		if req.TrainerID != nil {
			if _, err := s.repos.Staff.GetByID(ctx, *req.TrainerID); err != nil {
				return nil, ledger.LookupError(err, errors.ErrStaffNotFound.WithMessage("教练不存在"))
			}
			d.input.TrainerID = req.TrainerID
		}
	case models.PaymentTypeOther:
		if lockerType := strings.TrimSpace(utils.Deref(req.LockerType)); lockerType != "" {
			d.input.LockerType = lockerType
			d.input.LockerMonths = *req.LockerMonths
		}
	}

	amount, err := resolveAmount(req.Amount, planPrice, itemTotal, len(items) > 0)
	if err != nil {
		return nil, err
	}

	d.payment = models.Payment{
		MemberID:         req.MemberID,
		StaffID:          staffID,
		PaymentType:      req.PaymentType,
		MembershipTypeID: req.MembershipTypeID,
		PTPackageID:      req.PTPackageID,
		Amount:           amount,
		PaymentMethod:    req.PaymentMethod,
		PaymentDate:      paymentDate,
		Notes:            req.Notes,
		Status:           models.PaymentStatusCompleted,
		AutoRenew:        req.AutoRenew,
	}
	if d.input.HasLocker() {
		d.payment.LockerType = &d.input.LockerType
		d.payment.LockerMonths = &d.input.LockerMonths
	}
	d.payment.ExpiryDate = ledger.ExpiryFor(&d.payment, &d.input)
	return d, nil
}

func validatePlanRefs(req *CreatePaymentRequest) error {
	if req.MembershipTypeID != nil && req.PTPackageID != nil {
		return errors.ErrPlanConflict
	}
	switch req.PaymentType {
	case models.PaymentTypeMembership:
		if req.MembershipTypeID == nil {
			return errors.ErrPlanRequired.WithMessage("会籍支付必须指定会籍类型")
		}
		if req.TrainerID != nil {
			return errors.ErrInvalidParams.WithMessage("会籍支付不能指定教练")
		}
	case models.PaymentTypePT:
		if req.PTPackageID == nil {
			return errors.ErrPlanRequired.WithMessage("私教支付必须指定课包")
		}
	case models.PaymentTypeOther:
		if req.MembershipTypeID != nil || req.PTPackageID != nil {
			return errors.ErrPlanConflict.WithMessage("其他类型支付不能关联套餐")
		}
		if req.TrainerID != nil {
			return errors.ErrInvalidParams.WithMessage("其他类型支付不能指定教练")
		}
	}
	return nil
}

func validateLocker(req *CreatePaymentRequest) error {
	hasType := req.LockerType != nil && strings.TrimSpace(*req.LockerType) != ""
	if !hasType && req.LockerMonths == nil {
		return nil
	}
	if req.PaymentType != models.PaymentTypeOther {
		return errors.ErrLockerFieldsInvalid.WithMessage("仅其他类型支付可包含储物柜")
	}
	if !hasType {
		return errors.ErrLockerFieldsInvalid.WithMessage("缺少储物柜类型")
	}
	if req.LockerMonths == nil || *req.LockerMonths <= 0 {
		return errors.ErrLockerFieldsInvalid.WithMessage("储物柜租期必须大于0")
	}
	return nil
}

func buildItems(inputs []PaymentItemInput) ([]models.PaymentItem, decimal.Decimal, error) {
	total := decimal.Zero
	items := make([]models.PaymentItem, 0, len(inputs))
	for i, in := range inputs {
		qty := in.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, decimal.Zero, errors.ErrPaymentItemInvalid.WithMessagef("第%d项数量不能为负", i+1)
		}
		if in.UnitPrice.IsNegative() {
			return nil, decimal.Zero, errors.ErrPaymentItemInvalid.WithMessagef("第%d项单价不能为负", i+1)
		}
		if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.ItemType) == "" {
			return nil, decimal.Zero, errors.ErrPaymentItemInvalid.WithMessagef("第%d项缺少名称或类型", i+1)
		}
		lineTotal := utils.RoundMoney(in.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
		items = append(items, models.PaymentItem{
			ItemType:    in.ItemType,
			ItemSubtype: in.ItemSubtype,
			Name:        in.Name,
			Quantity:    qty,
			UnitPrice:   utils.RoundMoney(in.UnitPrice),
			TotalPrice:  lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

// resolveAmount 显式金额优先，其次方案价格，再次明细合计
func resolveAmount(explicit, planPrice *decimal.Decimal, itemTotal decimal.Decimal, hasItems bool) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch {
	case explicit != nil:
		amount = *explicit
	case planPrice != nil:
		amount = *planPrice
	case hasItems:
		amount = itemTotal
	default:
		return decimal.Zero, errors.ErrPaymentAmountInvalid.WithMessage("缺少支付金额")
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.ErrPaymentAmountInvalid.WithMessage("支付金额不能为负")
	}
	return utils.RoundMoney(amount), nil
}

// snapshotOf 审计快照中记录的支付字段
func snapshotOf(p *models.Payment) map[string]interface{} {
	return map[string]interface{}{
		"payment_no":     p.PaymentNo,
		"payment_type":   p.PaymentType,
		"amount":         p.Amount.StringFixed(2),
		"payment_method": p.PaymentMethod,
		"payment_date":   utils.FormatDate(p.PaymentDate),
		"status":         p.Status,
		"notes":          p.Notes,
	}
}
