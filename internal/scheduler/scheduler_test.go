package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

func TestScheduler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewScheduler(zap.New(core))

	var runs int32
	s.AddTask("count", 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	s.AddTask("broken", time.Hour, func(ctx context.Context) error {
		return errors.New("boom")
	})
	s.AddTask("panics", time.Hour, func(ctx context.Context) error {
		panic("nil map")
	})
	s.AddTask("disabled", 0, func(ctx context.Context) error {
		t.Fatal("不应执行")
		return nil
	})
	require.Len(t, s.tasks, 3)

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, 2, logs.FilterMessage("task failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("task skipped").Len())
}

func TestTaskTimeout(t *testing.T) {
	s := NewScheduler(nil, WithTaskTimeout(20*time.Millisecond))
	done := make(chan error, 1)
	s.AddTask("slow", time.Hour, func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})

	s.Start()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("任务没有超时")
	}
	s.Stop()

	assert.NotPanics(t, NewScheduler(nil).Stop)
}

type fakeStats struct {
	refresh []bool
}

func (f *fakeStats) GetStats(_ context.Context, refresh bool) (*models.PaymentStats, error) {
	f.refresh = append(f.refresh, refresh)
	return &models.PaymentStats{}, nil
}

func TestWarmStats(t *testing.T) {
	fake := &fakeStats{}
	require.NoError(t, NewTaskHandler(fake).WarmStats(context.Background()))
	assert.Equal(t, []bool{true}, fake.refresh)
}
