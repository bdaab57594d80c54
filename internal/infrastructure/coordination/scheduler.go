package coordination

import (
	"sync"
	"time"

	domain "github.com/tasklight/backend/internal/domain/coordination"
)

// timerScheduler 基于 time.Ticker 的调度器实现
type timerScheduler struct{}

// NewTimerScheduler 创建基于系统定时器的调度器
func NewTimerScheduler() domain.Scheduler {
	return &timerScheduler{}
}

// ScheduleRepeating 以固定间隔重复执行回调
func (s *timerScheduler) ScheduleRepeating(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				ticker.Stop()
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
		})
	}
}
