package payment

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/logger"
	"github.com/dumeirei/fitness-crm-backend/internal/common/tracing"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/service/ledger"
)

// UpdatePaymentRequest 修改支付请求，仅允许非状态字段
type UpdatePaymentRequest struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	PaymentDate   *string          `json:"payment_date,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// UpdatePayment 修改支付的可变字段，派生记录不随之调整
func (s *PaymentService) UpdatePayment(ctx context.Context, actorID, id int64, req *UpdatePaymentRequest) (result *ChangeResult, err error) {
	ctx, span := tracing.Start(ctx, "payment.update", tracing.WithStaffID(actorID), tracing.WithPaymentID(id))
	defer func() { tracing.End(span, err) }()

	if req == nil {
		return nil, errors.ErrInvalidParams
	}

	var changed bool
	err = s.tx.Run(ctx, "payment.update", func(tx *gorm.DB) error {
		changed = false
		payments := s.repos.Payments.WithTx(tx)

		p, err := payments.GetForUpdate(ctx, id)
		if err != nil {
			return ledger.LookupError(err, errors.ErrPaymentNotFound)
		}
		if p.IsTerminal() {
			return errors.ErrPaymentTerminal.WithMessagef("支付 %s 已%s，不可修改", p.PaymentNo, statusName(p.Status))
		}

		oldValues := map[string]interface{}{}
		newValues := map[string]interface{}{}
		fields := map[string]interface{}{}

		if req.Amount != nil {
			amount := utils.RoundMoney(*req.Amount)
			if amount.IsNegative() {
				return errors.ErrPaymentAmountInvalid.WithMessage("支付金额不能为负")
			}
			if !amount.Equal(p.Amount) {
				refunded, err := s.repos.Refunds.WithTx(tx).SumCounted(ctx, p.ID)
				if err != nil {
					return err
				}
				if amount.LessThan(refunded) {
					return errors.ErrAmountBelowRefunded.WithMessagef("金额不能低于已退款金额 %s", refunded.StringFixed(2))
				}
				fields["amount"] = amount
				oldValues["amount"] = p.Amount.StringFixed(2)
				newValues["amount"] = amount.StringFixed(2)
			}
		}
		if req.PaymentMethod != nil && *req.PaymentMethod != p.PaymentMethod {
			if !utils.Contains(models.PaymentMethods, *req.PaymentMethod) {
				return errors.ErrPaymentMethodError
			}
			fields["payment_method"] = *req.PaymentMethod
			oldValues["payment_method"] = p.PaymentMethod
			newValues["payment_method"] = *req.PaymentMethod
		}
		if req.PaymentDate != nil {
			date, err := utils.ParseDate(*req.PaymentDate)
			if err != nil {
				return errors.ErrPaymentDateInvalid.WithError(err)
			}
			if !date.Equal(utils.Day(p.PaymentDate)) {
				fields["payment_date"] = date
				oldValues["payment_date"] = utils.FormatDate(p.PaymentDate)
				newValues["payment_date"] = utils.FormatDate(date)
			}
		}
		if req.Notes != nil && strings.TrimSpace(*req.Notes) != p.Notes {
			notes := strings.TrimSpace(*req.Notes)
			fields["notes"] = notes
			oldValues["notes"] = p.Notes
			newValues["notes"] = notes
		}

		if len(fields) == 0 {
			return nil
		}
		if err := payments.UpdateFields(ctx, p.ID, fields); err != nil {
			return err
		}
		if err := s.history.Record(ctx, tx, ledger.Entry{
			PaymentID: p.ID,
			Action:    models.HistoryActionUpdated,
			Old:       oldValues,
			New:       newValues,
			StaffID:   actorID,
		}); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		ledger.Invalidate(ctx, s.stats)
		s.logger.Info("payment updated", logger.PaymentID(id), logger.StaffID(actorID))
	}
	return &ChangeResult{Changed: changed}, nil
}

// CancelPayment 取消已完成的支付，派生记录不回滚
func (s *PaymentService) CancelPayment(ctx context.Context, actorID, id int64, reason string) (result *ChangeResult, err error) {
	ctx, span := tracing.Start(ctx, "payment.cancel", tracing.WithStaffID(actorID), tracing.WithPaymentID(id))
	defer func() { tracing.End(span, err) }()

	err = s.tx.Run(ctx, "payment.cancel", func(tx *gorm.DB) error {
		payments := s.repos.Payments.WithTx(tx)

		p, err := payments.GetForUpdate(ctx, id)
		if err != nil {
			return ledger.LookupError(err, errors.ErrPaymentNotFound)
		}
		if p.Status != models.PaymentStatusCompleted {
			return errors.ErrPaymentNotCompleted.WithMessagef("支付 %s 已%s，不可取消", p.PaymentNo, statusName(p.Status))
		}

		ok, err := payments.TransitionStatus(ctx, p.ID, models.PaymentStatusCompleted, models.PaymentStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrPaymentNotCompleted
		}

		return s.history.Record(ctx, tx, ledger.Entry{
			PaymentID: p.ID,
			Action:    models.HistoryActionCancelled,
			Old:       map[string]string{"status": models.PaymentStatusCompleted},
			New:       map[string]string{"status": models.PaymentStatusCancelled},
			StaffID:   actorID,
			Notes:     strings.TrimSpace(reason),
		})
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.stats)
	s.metrics.RecordPaymentTransition(models.PaymentStatusCancelled)
	s.logger.Info("payment cancelled", logger.PaymentID(id), logger.StaffID(actorID))
	return &ChangeResult{Changed: true}, nil
}

func statusName(status string) string {
	switch status {
	case models.PaymentStatusCompleted:
		return "完成"
	case models.PaymentStatusRefunded:
		return "退款"
	case models.PaymentStatusCancelled:
		return "取消"
	default:
		return status
	}
}
