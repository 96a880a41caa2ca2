// Package scheduler 进程内的周期任务
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/fitness-crm-backend/internal/common/logger"
)

// DefaultTaskTimeout 单次执行的超时
const DefaultTaskTimeout = 5 * time.Minute

// Job 任务函数
type Job func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	job      Job
}

// Scheduler 每个任务一个 goroutine，启动时先执行一次，之后按间隔执行
type Scheduler struct {
	logger  *zap.Logger
	timeout time.Duration

	tasks  []task
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option 调度器选项
type Option func(*Scheduler)

// WithTaskTimeout 设置单次执行超时
func WithTaskTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewScheduler 创建调度器
func NewScheduler(log *zap.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{logger: log.Named("scheduler"), timeout: DefaultTaskTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTask 注册任务，必须在 Start 之前调用；interval <= 0 的任务不会注册
func (s *Scheduler) AddTask(name string, interval time.Duration, job Job) {
	if interval <= 0 {
		s.logger.Warn("task skipped", zap.String("task", name), zap.Duration("interval", interval))
		return
	}
	s.tasks = append(s.tasks, task{name: name, interval: interval, job: job})
}

// Start 启动全部任务
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.Info("scheduler starting", zap.Int("tasks", len(s.tasks)))
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
}

// Stop 取消任务并等待正在执行的任务返回
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		s.run(ctx, t)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) run(parent context.Context, t task) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	err := safeCall(ctx, t.job)
	if err != nil {
		s.logger.Error("task failed", zap.String("task", t.name), zap.Error(err))
		return
	}
	s.logger.Debug("task completed", zap.String("task", t.name), logger.Elapsed(time.Since(start)))
}

// safeCall 任务 panic 时转为错误，不影响调度循环
func safeCall(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("任务 panic: %v", r)
		}
	}()
	return job(ctx)
}
