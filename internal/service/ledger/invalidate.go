package ledger

import "context"

// StatsInvalidator 写操作提交后失效统计缓存
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// Invalidate inv 为 nil 时不做任何事
func Invalidate(ctx context.Context, inv StatsInvalidator) {
	if inv != nil {
		inv.Invalidate(ctx)
	}
}
