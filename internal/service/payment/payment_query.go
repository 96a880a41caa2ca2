package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/fitness-crm-backend/internal/common/crypto"
	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	"github.com/dumeirei/fitness-crm-backend/internal/service/ledger"
)

// PaymentListResponse 支付列表
type PaymentListResponse struct {
	List     []repository.PaymentListItem `json:"list"`
	Total    int64                        `json:"total"`
	Page     int                          `json:"page"`
	PageSize int                          `json:"page_size"`
}

// ListPayments 按条件查询支付
func (s *PaymentService) ListPayments(ctx context.Context, filter *repository.PaymentFilter) (*PaymentListResponse, error) {
	if filter == nil {
		filter = &repository.PaymentFilter{}
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
	}
	if filter.AmountMin != nil && filter.AmountMax != nil && filter.AmountMin.GreaterThan(*filter.AmountMax) {
		return nil, errors.ErrInvalidParams.WithMessage("最小金额不能大于最大金额")
	}
	if filter.PaymentType != "" && !utils.Contains(models.PaymentTypes, filter.PaymentType) {
		return nil, errors.ErrPaymentTypeInvalid
	}
	if filter.Status != "" && !utils.Contains(models.PaymentStatuses, filter.Status) {
		return nil, errors.ErrInvalidParams.WithMessage("无效的支付状态")
	}

	p := utils.Page{Page: filter.Page, PageSize: filter.PageSize}.Clamp()
	filter.Page, filter.PageSize = p.Page, p.PageSize

	list, total, err := s.repos.Payments.List(ctx, filter)
	if err != nil {
		return nil, ledger.StoreError(err)
	}
	for i := range list {
		list[i].MemberPhone = crypto.MaskPhone(list[i].MemberPhone)
	}
	return &PaymentListResponse{List: list, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// PaymentDetail 支付详情
type PaymentDetail struct {
	*models.Payment
	RefundedAmount   decimal.Decimal            `json:"refunded_amount"`
	RefundableAmount decimal.Decimal            `json:"refundable_amount"`
	Refunds          []models.Refund            `json:"refunds"`
	History          []models.PaymentHistory    `json:"history"`
	Derived          *repository.DerivedRecords `json:"derived"`
}

// GetPaymentDetail 获取支付详情，含明细、退款、审计轨迹与派生记录
func (s *PaymentService) GetPaymentDetail(ctx context.Context, id int64) (*PaymentDetail, error) {
	p, err := s.repos.Payments.GetDetail(ctx, id)
	if err != nil {
		return nil, ledger.LookupError(err, errors.ErrPaymentNotFound)
	}

	refunds, err := s.repos.Refunds.ListByPayment(ctx, id)
	if err != nil {
		return nil, ledger.StoreError(err)
	}
	history, err := s.history.ListByPayment(ctx, id)
	if err != nil {
		return nil, ledger.StoreError(err)
	}
	derived, err := s.repos.Derived.GetByPayment(ctx, id)
	if err != nil {
		return nil, ledger.StoreError(err)
	}

	refunded := decimal.Zero
	for _, r := range refunds {
		if utils.Contains(models.CountedRefundStatuses, r.Status) {
			refunded = refunded.Add(r.Amount)
		}
	}
	refundable := decimal.Zero
	if p.Status == models.PaymentStatusCompleted && p.Amount.GreaterThan(refunded) {
		refundable = p.Amount.Sub(refunded)
	}

	return &PaymentDetail{
		Payment:          p,
		RefundedAmount:   utils.RoundMoney(refunded),
		RefundableAmount: utils.RoundMoney(refundable),
		Refunds:          refunds,
		History:          history,
		Derived:          derived,
	}, nil
}
