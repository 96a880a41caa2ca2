package scheduler

import (
	"context"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

// StatsRefresher 重新计算并写入统计缓存
type StatsRefresher interface {
	GetStats(ctx context.Context, refresh bool) (*models.PaymentStats, error)
}

// TaskHandler 任务处理器
type TaskHandler struct {
	stats StatsRefresher
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(stats StatsRefresher) *TaskHandler {
	return &TaskHandler{stats: stats}
}

// WarmStats 预热支付看板统计
func (h *TaskHandler) WarmStats(ctx context.Context) error {
	_, err := h.stats.GetStats(ctx, true)
	return err
}
