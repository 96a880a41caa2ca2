package ledger

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/metrics"
)

// Transactor 执行单个事务，存储层冲突时整体重试有限次
type Transactor struct {
	db       *gorm.DB
	attempts uint
	delay    time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewTransactor 创建事务执行器
func NewTransactor(db *gorm.DB, attempts uint, delay time.Duration, m *metrics.Metrics, logger *zap.Logger) *Transactor {
	if attempts == 0 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transactor{db: db, attempts: attempts, delay: delay, metrics: m, logger: logger}
}

// Run 在事务内执行 fn；fn 每次重试都会被重新调用，需自行重建待写入的数据
func (t *Transactor) Run(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	err := retry.Do(
		func() error {
			return t.db.WithContext(ctx).Transaction(fn)
		},
		retry.Attempts(t.attempts),
		retry.Delay(t.delay),
		retry.RetryIf(database.IsRetryableError),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= t.attempts {
				return
			}
			t.metrics.RecordTxRetry(operation)
			t.logger.Warn("transaction conflict, retrying",
				zap.String("operation", operation),
				zap.Uint("failed_attempt", n+1),
				zap.Error(err))
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	return StoreError(err)
}

// StoreError 将存储层错误归类为业务错误，业务错误原样返回
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if database.IsRetryableError(err) {
		return errors.ErrTransactionRetry.WithError(err)
	}
	return errors.ErrDatabaseError.WithError(err)
}

// LookupError 将 gorm 的记录不存在转为指定业务错误
func LookupError(err error, notFound *errors.AppError) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return StoreError(err)
}
