// Package ledger 提供收款台账的公共组件：流水号、派生记录与审计日志
package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/repository"
)

// NumberGenerator 按日期递增的流水号生成器
type NumberGenerator struct {
	seqRepo *repository.SequenceRepository
}

// NewNumberGenerator 创建流水号生成器
func NewNumberGenerator(seqRepo *repository.SequenceRepository) *NumberGenerator {
	return &NumberGenerator{seqRepo: seqRepo}
}

// Next 在 tx 内取得 prefix 当日的下一个编号
// 序列与业务记录同事务提交，回滚后编号可被复用
func (g *NumberGenerator) Next(ctx context.Context, tx *gorm.DB, prefix string, date time.Time) (string, error) {
	seq, err := g.seqRepo.WithTx(tx).Increment(ctx, prefix, date.UTC().Format("20060102"))
	if err != nil {
		return "", err
	}
	return FormatNumber(prefix, date, seq), nil
}

// FormatNumber 格式化为 PREFIX-YYYYMMDD-NNN
func FormatNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, date.UTC().Format("20060102"), seq)
}
