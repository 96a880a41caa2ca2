package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// SequenceRepository 流水号序列仓储
type SequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository 创建序列仓储
func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// WithTx 绑定到事务
func (r *SequenceRepository) WithTx(tx *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: tx}
}

// Increment 对 (prefix, seqDate) 序列加一并返回新值
// 单条 upsert 在调用方事务内执行，回滚即撤销
func (r *SequenceRepository) Increment(ctx context.Context, prefix, seqDate string) (int64, error) {
	db := r.db.WithContext(ctx)

	seq := models.LedgerSequence{Prefix: prefix, SeqDate: seqDate, LastValue: 1}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "prefix"}, {Name: "seq_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_value": gorm.Expr("ledger_sequences.last_value + 1"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&seq).Error
	if err != nil {
		return 0, err
	}

	var current models.LedgerSequence
	if err := db.Where("prefix = ? AND seq_date = ?", prefix, seqDate).First(&current).Error; err != nil {
		return 0, err
	}
	return current.LastValue, nil
}

// Current 读取序列当前值，不存在时为 0
func (r *SequenceRepository) Current(ctx context.Context, prefix, seqDate string) (int64, error) {
	var current models.LedgerSequence
	err := r.db.WithContext(ctx).Where("prefix = ? AND seq_date = ?", prefix, seqDate).Limit(1).Find(&current).Error
	return current.LastValue, err
}
