// Package refund 提供退款资格判断与退款流程
package refund

import (
	"context"
	stderrors "errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	"github.com/dumeirei/fitness-crm-backend/internal/service/ledger"
)

// 不可退款原因
const (
	ReasonNotFound      = "not_found"
	ReasonNotCompleted  = "not_completed"
	ReasonFullyRefunded = "already_fully_refunded"
)

// Eligibility 退款资格
type Eligibility struct {
	PaymentID       int64           `json:"payment_id"`
	Eligible        bool            `json:"eligible"`
	Reason          string          `json:"reason,omitempty"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	RefundedAmount  decimal.Decimal `json:"refunded_amount"`
	MaxRefundAmount decimal.Decimal `json:"max_refund_amount"`
	SuggestedMethod string          `json:"suggested_method,omitempty"`
}

// EligibilityEvaluator 退款资格判断，每次都实时读取
type EligibilityEvaluator struct {
	payments *repository.PaymentRepository
	refunds  *repository.RefundRepository
}

// NewEligibilityEvaluator 创建退款资格判断器
func NewEligibilityEvaluator(payments *repository.PaymentRepository, refunds *repository.RefundRepository) *EligibilityEvaluator {
	return &EligibilityEvaluator{payments: payments, refunds: refunds}
}

// CheckEligibility 查询支付是否可退款
func (e *EligibilityEvaluator) CheckEligibility(ctx context.Context, paymentID int64) (*Eligibility, error) {
	p, err := e.payments.GetByID(ctx, paymentID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return &Eligibility{PaymentID: paymentID, Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return nil, ledger.StoreError(err)
	}

	refunded, err := e.refunds.SumCounted(ctx, p.ID)
	if err != nil {
		return nil, ledger.StoreError(err)
	}
	return Assess(p, refunded), nil
}

// Evaluate 在 tx 内基于已加锁的支付重新判断
func (e *EligibilityEvaluator) Evaluate(ctx context.Context, tx *gorm.DB, p *models.Payment) (*Eligibility, error) {
	refunded, err := e.refunds.WithTx(tx).SumCounted(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return Assess(p, refunded), nil
}

// Assess 根据支付状态与已退金额计算资格
func Assess(p *models.Payment, refunded decimal.Decimal) *Eligibility {
	refunded = utils.RoundMoney(refunded)
	out := &Eligibility{
		PaymentID:       p.ID,
		PaymentAmount:   p.Amount,
		RefundedAmount:  refunded,
		MaxRefundAmount: decimal.Zero,
	}

	switch p.Status {
	case models.PaymentStatusCompleted:
	case models.PaymentStatusRefunded:
		out.Reason = ReasonFullyRefunded
		return out
	default:
		out.Reason = ReasonNotCompleted
		return out
	}

	remaining := p.Amount.Sub(refunded)
	if !remaining.IsPositive() {
		out.Reason = ReasonFullyRefunded
		return out
	}

	out.Eligible = true
	out.MaxRefundAmount = utils.RoundMoney(remaining)
	out.SuggestedMethod = SuggestedMethod(p.PaymentMethod)
	return out
}

// SuggestedMethod 按原支付方式推荐退款方式
func SuggestedMethod(paymentMethod string) string {
	switch paymentMethod {
	case models.PaymentMethodCard:
		return models.RefundMethodCardCancel
	case models.PaymentMethodTransfer:
		return models.RefundMethodAccountTransfer
	default:
		return models.RefundMethodCash
	}
}
