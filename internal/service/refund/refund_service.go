package refund

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/config"
	"github.com/dumeirei/fitness-crm-backend/internal/common/crypto"
	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/logger"
	"github.com/dumeirei/fitness-crm-backend/internal/common/metrics"
	"github.com/dumeirei/fitness-crm-backend/internal/common/tracing"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	"github.com/dumeirei/fitness-crm-backend/internal/service/ledger"
)

// 退款操作
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionProcess = "process"
)

// Repositories 退款服务依赖的仓储
type Repositories struct {
	Payments *repository.PaymentRepository
	Refunds  *repository.RefundRepository
	Staff    *repository.StaffRepository
}

// RefundService 退款服务
type RefundService struct {
	repos     Repositories
	tx        *ledger.Transactor
	numbers   *ledger.NumberGenerator
	history   *ledger.HistoryRecorder
	evaluator *EligibilityEvaluator
	cfg       config.LedgerConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	stats     ledger.StatsInvalidator
}

// NewRefundService 创建退款服务
func NewRefundService(
	repos Repositories,
	tx *ledger.Transactor,
	numbers *ledger.NumberGenerator,
	history *ledger.HistoryRecorder,
	evaluator *EligibilityEvaluator,
	cfg config.LedgerConfig,
	m *metrics.Metrics,
	log *zap.Logger,
) *RefundService {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RefundNoPrefix == "" {
		cfg.RefundNoPrefix = config.DefaultLedgerConfig().RefundNoPrefix
	}
	return &RefundService{
		repos:     repos,
		tx:        tx,
		numbers:   numbers,
		history:   history,
		evaluator: evaluator,
		cfg:       cfg,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

// SetStatsInvalidator 设置提交后需要失效的统计缓存
func (s *RefundService) SetStatsInvalidator(inv ledger.StatsInvalidator) { s.stats = inv }

// CheckEligibility 查询退款资格
func (s *RefundService) CheckEligibility(ctx context.Context, paymentID int64) (*Eligibility, error) {
	return s.evaluator.CheckEligibility(ctx, paymentID)
}

// CreateRefundRequest 退款申请
type CreateRefundRequest struct {
	PaymentID    int64           `json:"payment_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Reason       string          `json:"reason" binding:"required"`
	RefundMethod string          `json:"refund_method,omitempty"` // 为空时使用推荐方式
	AccountInfo  *string         `json:"account_info,omitempty"`
	Notes        string          `json:"notes"`
}

// CreateRefundResponse 退款申请结果
type CreateRefundResponse struct {
	ID       int64  `json:"id"`
	RefundNo string `json:"refund_no"`
}

// ChangeResult 变更结果
type ChangeResult struct {
	Changed bool   `json:"changed"`
	Status  string `json:"status"`
}

// RequestRefund 提交退款申请，资格在事务内对加锁的支付重新判断
func (s *RefundService) RequestRefund(ctx context.Context, actorID int64, req *CreateRefundRequest) (resp *CreateRefundResponse, err error) {
	ctx, span := tracing.Start(ctx, "refund.create", tracing.WithStaffID(actorID))
	defer func() { tracing.End(span, err) }()

	if req == nil {
		return nil, errors.ErrInvalidParams
	}
	amount := utils.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, errors.ErrRefundAmountInvalid
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, errors.ErrInvalidParams.WithMessage("请填写退款原因")
	}
	if req.RefundMethod != "" && !utils.Contains(models.RefundMethods, req.RefundMethod) {
		return nil, errors.ErrRefundMethodInvalid
	}

	var created *models.Refund
	err = s.tx.Run(ctx, "refund.create", func(tx *gorm.DB) error {
		p, err := s.repos.Payments.WithTx(tx).GetForUpdate(ctx, req.PaymentID)
		if err != nil {
			return ledger.LookupError(err, errors.ErrPaymentNotFound)
		}

		elig, err := s.evaluator.Evaluate(ctx, tx, p)
		if err != nil {
			return err
		}
		if !elig.Eligible {
			return errors.ErrRefundNotEligible.WithMessagef("支付 %s 不可退款: %s", p.PaymentNo, elig.Reason)
		}
		if amount.GreaterThan(elig.MaxRefundAmount) {
			return errors.ErrRefundAmountExceed.WithMessagef("退款金额不能超过 %s", elig.MaxRefundAmount.StringFixed(2))
		}

		method := req.RefundMethod
		if method == "" {
			method = elig.SuggestedMethod
		}
		account := strings.TrimSpace(utils.Deref(req.AccountInfo))
		if method == models.RefundMethodAccountTransfer && account == "" {
			return errors.ErrRefundAccountRequired
		}

		now := s.now().UTC()
		no, err := s.numbers.Next(ctx, tx, s.cfg.RefundNoPrefix, now)
		if err != nil {
			return err
		}

		r := &models.Refund{
			RefundNo:     no,
			PaymentID:    p.ID,
			RequestedBy:  actorID,
			Amount:       amount,
			Reason:       reason,
			RefundMethod: method,
			Status:       models.RefundStatusPending,
			RequestedAt:  now,
			Notes:        strings.TrimSpace(req.Notes),
		}
		if account != "" {
			r.AccountInfo = &account
		}
		if err := s.repos.Refunds.WithTx(tx).Create(ctx, r); err != nil {
			return err
		}

		if err := s.history.Record(ctx, tx, ledger.Entry{
			PaymentID: p.ID,
			Action:    models.HistoryActionRefundRequested,
			New: map[string]interface{}{
				"refund_id":     r.ID,
				"refund_no":     r.RefundNo,
				"amount":        r.Amount.StringFixed(2),
				"refund_method": r.RefundMethod,
				"status":        r.Status,
			},
			StaffID: actorID,
			Notes:   reason,
		}); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.stats)
	s.metrics.RecordRefund(models.RefundStatusPending)
	s.logger.Info("refund requested",
		logger.RefundID(created.ID),
		logger.PaymentID(created.PaymentID),
		logger.StaffID(actorID),
		zap.String("amount", created.Amount.StringFixed(2)),
	)
	return &CreateRefundResponse{ID: created.ID, RefundNo: created.RefundNo}, nil
}

// RefundDecisionRequest 退款处理请求
type RefundDecisionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject process"`
	Notes  string `json:"notes"`
}

// UpdateRefund 按操作推进退款状态
func (s *RefundService) UpdateRefund(ctx context.Context, actorID, refundID int64, req *RefundDecisionRequest) (*ChangeResult, error) {
	if req == nil {
		return nil, errors.ErrRefundDecisionInvalid
	}
	switch req.Action {
	case ActionApprove:
		return s.DecideRefund(ctx, actorID, refundID, true, req.Notes)
	case ActionReject:
		return s.DecideRefund(ctx, actorID, refundID, false, req.Notes)
	case ActionProcess:
		return s.ProcessRefund(ctx, actorID, refundID)
	default:
		return nil, errors.ErrRefundDecisionInvalid
	}
}

// DecideRefund 审批退款，批准时重新校验累计退款不超过支付金额
func (s *RefundService) DecideRefund(ctx context.Context, actorID, refundID int64, approve bool, notes string) (result *ChangeResult, err error) {
	ctx, span := tracing.Start(ctx, "refund.decide", tracing.WithStaffID(actorID), tracing.WithRefundID(refundID))
	defer func() { tracing.End(span, err) }()

	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}

	status := models.RefundStatusRejected
	action := models.HistoryActionRefundRejected
	if approve {
		status = models.RefundStatusApproved
		action = models.HistoryActionRefundApproved
	}

	err = s.tx.Run(ctx, "refund.decide", func(tx *gorm.DB) error {
		refunds := s.repos.Refunds.WithTx(tx)
		r, err := refunds.GetForUpdate(ctx, refundID)
		if err != nil {
			return ledger.LookupError(err, errors.ErrRefundNotFound)
		}
		if r.Status != models.RefundStatusPending {
			return errors.ErrRefundStatusError.WithMessagef("退款 %s 当前状态为 %s，不可审批", r.RefundNo, r.Status)
		}

		p, err := s.repos.Payments.WithTx(tx).GetForUpdate(ctx, r.PaymentID)
		if err != nil {
			return ledger.LookupError(err, errors.ErrPaymentNotFound)
		}

		if approve {
			if p.Status != models.PaymentStatusCompleted {
				return errors.ErrPaymentNotCompleted.WithMessagef("支付 %s 状态为 %s，不可批准退款", p.PaymentNo, p.Status)
			}
			counted, err := refunds.SumCounted(ctx, p.ID)
			if err != nil {
				return err
			}
			if counted.Add(r.Amount).GreaterThan(p.Amount) {
				return errors.ErrRefundAmountExceed.WithMessagef("累计退款将超过支付金额，剩余可退 %s", p.Amount.Sub(counted).StringFixed(2))
			}
		}

		now := s.now().UTC()
		fields := map[string]interface{}{
			"status":      status,
			"approved_by": actorID,
		}
		if approve {
			fields["approved_at"] = now
		} else {
			fields["rejected_at"] = now
		}
		if n := strings.TrimSpace(notes); n != "" {
			fields["notes"] = n
		}
		if err := refunds.UpdateFields(ctx, r.ID, fields); err != nil {
			return err
		}

		return s.history.Record(ctx, tx, ledger.Entry{
			PaymentID: p.ID,
			Action:    action,
			Old:       map[string]interface{}{"refund_id": r.ID, "status": r.Status},
			New:       map[string]interface{}{"refund_id": r.ID, "status": status},
			StaffID:   actorID,
			Notes:     strings.TrimSpace(notes),
		})
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.stats)
	s.metrics.RecordRefund(status)
	s.logger.Info("refund decided",
		logger.RefundID(refundID),
		logger.StaffID(actorID),
		zap.String("status", status),
	)
	return &ChangeResult{Changed: true, Status: status}, nil
}

// ProcessRefund 完成已批准的退款并将支付置为已退款
func (s *RefundService) ProcessRefund(ctx context.Context, actorID, refundID int64) (result *ChangeResult, err error) {
	ctx, span := tracing.Start(ctx, "refund.process", tracing.WithStaffID(actorID), tracing.WithRefundID(refundID))
	defer func() { tracing.End(span, err) }()

	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}

	var paymentRefunded bool
	err = s.tx.Run(ctx, "refund.process", func(tx *gorm.DB) error {
		paymentRefunded = false
		refunds := s.repos.Refunds.WithTx(tx)
		payments := s.repos.Payments.WithTx(tx)

		r, err := refunds.GetForUpdate(ctx, refundID)
		if err != nil {
			return ledger.LookupError(err, errors.ErrRefundNotFound)
		}
		if r.Status != models.RefundStatusApproved {
			return errors.ErrRefundStatusError.WithMessagef("退款 %s 当前状态为 %s，仅已批准的退款可完成", r.RefundNo, r.Status)
		}

		p, err := payments.GetForUpdate(ctx, r.PaymentID)
		if err != nil {
			return ledger.LookupError(err, errors.ErrPaymentNotFound)
		}
		if p.Status == models.PaymentStatusCancelled {
			return errors.ErrPaymentNotCompleted.WithMessagef("支付 %s 已取消，不可退款", p.PaymentNo)
		}

		// 本笔已计入 approved，合计不得超过支付金额
		counted, err := refunds.SumCounted(ctx, p.ID)
		if err != nil {
			return err
		}
		if counted.GreaterThan(p.Amount) {
			return errors.ErrRefundAmountExceed.WithMessage("累计退款超过支付金额")
		}

		now := s.now().UTC()
		if err := refunds.UpdateFields(ctx, r.ID, map[string]interface{}{
			"status":       models.RefundStatusProcessed,
			"processed_by": actorID,
			"processed_at": now,
		}); err != nil {
			return err
		}

		oldValue := map[string]interface{}{"refund_id": r.ID, "refund_status": r.Status, "status": p.Status}
		newValue := map[string]interface{}{"refund_id": r.ID, "refund_status": models.RefundStatusProcessed, "status": p.Status}

		if p.Status == models.PaymentStatusCompleted && (s.cfg.PartialRefundTerminates || !counted.LessThan(p.Amount)) {
			ok, err := payments.TransitionStatus(ctx, p.ID, models.PaymentStatusCompleted, models.PaymentStatusRefunded)
			if err != nil {
				return err
			}
			if !ok {
				return errors.ErrPaymentNotCompleted
			}
			newValue["status"] = models.PaymentStatusRefunded
			paymentRefunded = true
		}

		return s.history.Record(ctx, tx, ledger.Entry{
			PaymentID: p.ID,
			Action:    models.HistoryActionRefunded,
			Old:       oldValue,
			New:       newValue,
			StaffID:   actorID,
			Notes:     r.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.stats)
	s.metrics.RecordRefund(models.RefundStatusProcessed)
	if paymentRefunded {
		s.metrics.RecordPaymentTransition(models.PaymentStatusRefunded)
	}
	s.logger.Info("refund processed",
		logger.RefundID(refundID),
		logger.StaffID(actorID),
		zap.Bool("payment_refunded", paymentRefunded),
	)
	return &ChangeResult{Changed: true, Status: models.RefundStatusProcessed}, nil
}

// authorize 审批人必须为在职且有退款审批权限的员工
func (s *RefundService) authorize(ctx context.Context, actorID int64) error {
	staff, err := s.repos.Staff.GetByID(ctx, actorID)
	if err != nil {
		return ledger.LookupError(err, errors.ErrPermissionDenied.WithMessage("审批人不存在"))
	}
	if !staff.IsActive {
		return errors.ErrAccountDisabled
	}
	if !staff.CanApproveRefund {
		return errors.ErrPermissionDenied.WithMessage("无退款审批权限")
	}
	return nil
}

// RefundListResponse 退款列表
type RefundListResponse struct {
	List     []models.Refund `json:"list"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ListRefunds 退款队列
func (s *RefundService) ListRefunds(ctx context.Context, filter *repository.RefundFilter) (*RefundListResponse, error) {
	if filter == nil {
		filter = &repository.RefundFilter{}
	}
	if filter.Status != "" && !utils.Contains([]string{
		models.RefundStatusPending, models.RefundStatusApproved, models.RefundStatusRejected, models.RefundStatusProcessed,
	}, filter.Status) {
		return nil, errors.ErrInvalidParams.WithMessage("无效的退款状态")
	}

	p := utils.Page{Page: filter.Page, PageSize: filter.PageSize}.Clamp()
	filter.Page, filter.PageSize = p.Page, p.PageSize

	list, total, err := s.repos.Refunds.List(ctx, filter)
	if err != nil {
		return nil, ledger.StoreError(err)
	}
	// 列表只展示脱敏后的账户信息
	for i := range list {
		if list[i].AccountInfo != nil {
			list[i].AccountInfo = utils.Ptr(crypto.MaskAccount(*list[i].AccountInfo))
		}
	}
	return &RefundListResponse{List: list, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}
