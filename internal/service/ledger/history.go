package ledger

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
)

// Entry 一条审计事件
type Entry struct {
	PaymentID int64
	Action    string
	Old       interface{}
	New       interface{}
	StaffID   int64
	Notes     string
}

// HistoryRecorder 支付审计记录器
type HistoryRecorder struct {
	historyRepo *repository.HistoryRepository
}

// NewHistoryRecorder 创建审计记录器
func NewHistoryRecorder(historyRepo *repository.HistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{historyRepo: historyRepo}
}

// Record 在 tx 内追加审计记录
func (r *HistoryRecorder) Record(ctx context.Context, tx *gorm.DB, e Entry) error {
	oldValue, err := snapshot(e.Old)
	if err != nil {
		return err
	}
	newValue, err := snapshot(e.New)
	if err != nil {
		return err
	}

	return r.historyRepo.WithTx(tx).Append(ctx, &models.PaymentHistory{
		PaymentID: e.PaymentID,
		Action:    e.Action,
		OldValue:  oldValue,
		NewValue:  newValue,
		StaffID:   e.StaffID,
		Notes:     e.Notes,
	})
}

// ListByPayment 读取支付的审计轨迹
func (r *HistoryRecorder) ListByPayment(ctx context.Context, paymentID int64) ([]models.PaymentHistory, error) {
	return r.historyRepo.ListByPayment(ctx, paymentID)
}

func snapshot(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
