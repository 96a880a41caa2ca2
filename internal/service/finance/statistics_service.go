// Package finance 提供支付看板统计服务
package finance

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/fitness-crm-backend/internal/common/cache"
	"github.com/dumeirei/fitness-crm-backend/internal/common/config"
	"github.com/dumeirei/fitness-crm-backend/internal/common/metrics"
	"github.com/dumeirei/fitness-crm-backend/internal/common/tracing"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	"github.com/dumeirei/fitness-crm-backend/internal/service/ledger"
)

// StatsCache 统计结果缓存
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// StatisticsService 支付统计服务
type StatisticsService struct {
	statsRepo *repository.StatsRepository
	cache     StatsCache
	cfg       config.LedgerConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatisticsService 创建统计服务，cache 为空时每次直接查询数据库
func NewStatisticsService(
	statsRepo *repository.StatsRepository,
	c StatsCache,
	cfg config.LedgerConfig,
	m *metrics.Metrics,
	log *zap.Logger,
) *StatisticsService {
	if log == nil {
		log = zap.NewNop()
	}
	defaults := config.DefaultLedgerConfig()
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = defaults.ExpiryWindowDays
	}
	if cfg.TopStaffLimit <= 0 {
		cfg.TopStaffLimit = defaults.TopStaffLimit
	}
	return &StatisticsService{
		statsRepo: statsRepo,
		cache:     c,
		cfg:       cfg,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

// GetStats 获取支付统计，refresh 为真时跳过缓存重新计算
func (s *StatisticsService) GetStats(ctx context.Context, refresh bool) (stats *models.PaymentStats, err error) {
	ctx, span := tracing.Start(ctx, "payment.getStats")
	defer func() { tracing.End(span, err) }()

	if !refresh && s.cache != nil {
		var cached models.PaymentStats
		err := s.cache.GetJSON(ctx, cache.KeyStatsPayments, &cached)
		switch {
		case err == nil:
			s.metrics.RecordCacheHit("stats")
			return &cached, nil
		case stderrors.Is(err, cache.ErrMiss):
			s.metrics.RecordCacheMiss("stats")
		default:
			s.metrics.RecordCacheMiss("stats")
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	stats, err = s.Compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.KeyStatsPayments, stats, s.cfg.StatsCacheDuration()); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// Invalidate 清除统计缓存
func (s *StatisticsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.KeyStatsPayments); err != nil {
		s.logger.Warn("stats cache invalidate failed", zap.Error(err))
	}
}

// Compute 直接从数据库计算统计
func (s *StatisticsService) Compute(ctx context.Context) (*models.PaymentStats, error) {
	now := s.now().UTC()
	today := utils.Day(now)
	monthStart := utils.MonthStart(today)
	monthEnd := monthStart.AddDate(0, 1, -1)

	stats := &models.PaymentStats{
		ExpiryWindowDays: s.cfg.ExpiryWindowDays,
		GeneratedAt:      now,
	}

	var err error
	if stats.Total, err = s.statsRepo.Totals(ctx, nil, nil); err != nil {
		return nil, ledger.StoreError(err)
	}
	if stats.Today, err = s.statsRepo.Totals(ctx, &today, &today); err != nil {
		return nil, ledger.StoreError(err)
	}
	if stats.ThisMonth, err = s.statsRepo.Totals(ctx, &monthStart, &monthEnd); err != nil {
		return nil, ledger.StoreError(err)
	}

	if stats.ByType, err = s.statsRepo.Breakdown(ctx, "payment_type", true); err != nil {
		return nil, ledger.StoreError(err)
	}
	if stats.ByMethod, err = s.statsRepo.Breakdown(ctx, "payment_method", true); err != nil {
		return nil, ledger.StoreError(err)
	}
	// 状态分组包含已取消
	if stats.ByStatus, err = s.statsRepo.Breakdown(ctx, "status", false); err != nil {
		return nil, ledger.StoreError(err)
	}

	if stats.TopStaff, err = s.statsRepo.TopStaff(ctx, s.cfg.TopStaffLimit); err != nil {
		return nil, ledger.StoreError(err)
	}
	if stats.PendingRefunds, err = s.statsRepo.CountPendingRefunds(ctx); err != nil {
		return nil, ledger.StoreError(err)
	}
	if stats.NearExpiry, err = s.statsRepo.CountNearExpiry(ctx, today, today.AddDate(0, 0, s.cfg.ExpiryWindowDays)); err != nil {
		return nil, ledger.StoreError(err)
	}
	return stats, nil
}
