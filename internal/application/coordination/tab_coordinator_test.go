package coordination

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/tasklight/backend/internal/domain/coordination"
	infraCoordination "github.com/tasklight/backend/internal/infrastructure/coordination"
)

// fakeScheduler 手动触发的调度器，测试用虚拟时钟
type fakeScheduler struct {
	mu        sync.Mutex
	callbacks map[int]func()
	nextID    int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{callbacks: make(map[int]func())}
}

func (s *fakeScheduler) ScheduleRepeating(interval time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.callbacks, id)
	}
}

// tick 触发一轮所有已调度的回调
func (s *fakeScheduler) tick() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.callbacks))
	for _, fn := range s.callbacks {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// pending 当前调度中的回调数量
func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}

func newTestCoordinator(t *testing.T) (*TabCoordinator, domain.SharedStateStore, domain.MessageBus, *fakeScheduler) {
	t.Helper()
	store := infraCoordination.NewMemoryStore()
	bus := infraCoordination.NewMessageBus()
	t.Cleanup(bus.Close)
	scheduler := newFakeScheduler()
	c := NewTabCoordinator(store, bus, scheduler)
	t.Cleanup(c.Stop)
	return c, store, bus, scheduler
}

func TestCheckAndActivate_NoRecord(t *testing.T) {
	c, store, _, _ := newTestCoordinator(t)

	assert.True(t, c.CheckAndActivate(), "无记录时应成为活跃实例")
	assert.Equal(t, StateActive, c.State())

	record, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, c.InstanceID(), record.ActiveInstanceID)
}

func TestCheckAndActivate_LivePeer(t *testing.T) {
	c, store, _, _ := newTestCoordinator(t)

	// 场景：对端 9 秒前写入心跳，阈值 10 秒
	base := time.Now()
	c.now = func() time.Time { return base }
	require.NoError(t, store.Put(domain.ActiveInstanceRecord{
		ActiveInstanceID: "other-instance",
		LastHeartbeat:    base.Add(-9 * time.Second).UnixMilli(),
	}))

	assert.False(t, c.CheckAndActivate(), "对端心跳未过期时应待机")
	assert.Equal(t, StateStandby, c.State())

	// 共享记录未被改动
	record, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "other-instance", record.ActiveInstanceID)
}

func TestCheckAndActivate_StaleRecord(t *testing.T) {
	c, store, _, _ := newTestCoordinator(t)

	// 场景：对端 11 秒前写入心跳后崩溃，未清理记录
	base := time.Now()
	c.now = func() time.Time { return base }
	require.NoError(t, store.Put(domain.ActiveInstanceRecord{
		ActiveInstanceID: "crashed-instance",
		LastHeartbeat:    base.Add(-11 * time.Second).UnixMilli(),
	}))

	assert.True(t, c.CheckAndActivate(), "过期记录应被接管")
	assert.Equal(t, StateActive, c.State())

	record, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, c.InstanceID(), record.ActiveInstanceID, "接管后记录归属当前实例")
}

func TestCheckAndActivate_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name       string
		age        time.Duration
		wantActive bool
	}{
		{"刚好达到阈值", domain.StaleThreshold, true},
		{"阈值前一毫秒", domain.StaleThreshold - time.Millisecond, false},
		{"远超阈值", time.Minute, true},
		{"刚写入", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store, _, _ := newTestCoordinator(t)

			base := time.Now()
			c.now = func() time.Time { return base }
			require.NoError(t, store.Put(domain.ActiveInstanceRecord{
				ActiveInstanceID: "other-instance",
				LastHeartbeat:    base.Add(-tt.age).UnixMilli(),
			}))

			assert.Equal(t, tt.wantActive, c.CheckAndActivate())
		})
	}
}

func TestCheckAndActivate_BusUnavailable(t *testing.T) {
	store := infraCoordination.NewMemoryStore()
	c := NewTabCoordinator(store, nil, newFakeScheduler())

	// 频道不可用时放行，不能把用户锁在应用外
	assert.True(t, c.CheckAndActivate())
	assert.Equal(t, StateActive, c.State())
}

func TestHeartbeatLoop(t *testing.T) {
	c, store, _, scheduler := newTestCoordinator(t)

	base := time.Now()
	current := base
	c.now = func() time.Time { return current }

	require.True(t, c.CheckAndActivate())
	require.Equal(t, 1, scheduler.pending(), "激活后应调度心跳循环")

	// 时间前进后触发一次心跳
	current = base.Add(domain.HeartbeatInterval)
	scheduler.tick()

	record, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, current.UnixMilli(), record.LastHeartbeat, "心跳应被刷新")
}

func TestConvergence_ExactlyOneActive(t *testing.T) {
	// 两个协调器共享同一存储和频道
	store := infraCoordination.NewMemoryStore()
	bus := infraCoordination.NewMessageBus()
	defer bus.Close()

	a := NewTabCoordinator(store, bus, newFakeScheduler())
	defer a.Stop()
	a.BecomeActiveInstance()

	// B 在 A 激活之后接入（收不到 A 的历史消息），随后也声明激活
	b := NewTabCoordinator(store, bus, newFakeScheduler())
	defer b.Stop()
	b.BecomeActiveInstance()

	// 消息分发完成后恰好一个实例保持 ACTIVE
	assert.Eventually(t, func() bool {
		return a.State() == StateStandby && b.State() == StateActive
	}, 2*time.Second, 10*time.Millisecond, "竞争收敛后应只剩一个活跃实例")
}

func TestStepDown_CancelsHeartbeat(t *testing.T) {
	c, _, bus, scheduler := newTestCoordinator(t)

	require.True(t, c.CheckAndActivate())
	require.Equal(t, 1, scheduler.pending())

	// 另一个实例声明激活
	bus.Publish(domain.NewMessage(domain.MessageInstanceActivated, "competitor"))

	assert.Eventually(t, func() bool {
		return c.State() == StateStandby
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, scheduler.pending(), "退位后心跳循环应被取消")
}

func TestPing_ActiveReplies(t *testing.T) {
	c, _, bus, _ := newTestCoordinator(t)
	require.True(t, c.CheckAndActivate())

	// 独立订阅者收集 pong
	var mu sync.Mutex
	var pongs []domain.Message
	bus.Subscribe(domain.HandlerFunc(func(msg domain.Message) error {
		if msg.Type == domain.MessagePong {
			mu.Lock()
			pongs = append(pongs, msg)
			mu.Unlock()
		}
		return nil
	}))

	bus.Publish(domain.NewMessage(domain.MessagePing, "prober"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(pongs) == 1 && pongs[0].InstanceID == c.InstanceID()
	}, 2*time.Second, 10*time.Millisecond, "活跃实例应回复 pong")
}

func TestPing_StandbyStaysSilent(t *testing.T) {
	c, store, bus, _ := newTestCoordinator(t)

	// 先让对端占据活跃位
	require.NoError(t, store.Put(domain.ActiveInstanceRecord{
		ActiveInstanceID: "other-instance",
		LastHeartbeat:    time.Now().UnixMilli(),
	}))
	require.False(t, c.CheckAndActivate())

	var mu sync.Mutex
	pongCount := 0
	bus.Subscribe(domain.HandlerFunc(func(msg domain.Message) error {
		if msg.Type == domain.MessagePong {
			mu.Lock()
			pongCount++
			mu.Unlock()
		}
		return nil
	}))

	bus.Publish(domain.NewMessage(domain.MessagePing, "prober"))

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 0, pongCount, "待机实例不应回复 pong")
	mu.Unlock()
}

func TestRequestFocus(t *testing.T) {
	t.Run("活跃实例置前台并提示", func(t *testing.T) {
		c, _, bus, _ := newTestCoordinator(t)

		var mu sync.Mutex
		focused := false
		var notice string
		c.SetFocusHandler(func() {
			mu.Lock()
			focused = true
			mu.Unlock()
		})
		c.SetNotifyHandler(func(message string) {
			mu.Lock()
			notice = message
			mu.Unlock()
		})

		require.True(t, c.CheckAndActivate())
		bus.Publish(domain.NewMessage(domain.MessageRequestFocus, "standby-tab"))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return focused && notice != ""
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("待机实例忽略聚焦请求", func(t *testing.T) {
		c, store, bus, _ := newTestCoordinator(t)

		require.NoError(t, store.Put(domain.ActiveInstanceRecord{
			ActiveInstanceID: "other-instance",
			LastHeartbeat:    time.Now().UnixMilli(),
		}))

		var mu sync.Mutex
		focused := false
		c.SetFocusHandler(func() {
			mu.Lock()
			focused = true
			mu.Unlock()
		})

		require.False(t, c.CheckAndActivate())
		bus.Publish(domain.NewMessage(domain.MessageRequestFocus, "someone"))

		time.Sleep(100 * time.Millisecond)
		mu.Lock()
		assert.False(t, focused)
		mu.Unlock()
	})
}

func TestOnVisible_RefreshesHeartbeat(t *testing.T) {
	c, store, _, _ := newTestCoordinator(t)

	base := time.Now()
	current := base
	c.now = func() time.Time { return current }
	require.True(t, c.CheckAndActivate())

	// 后台限流期间没有心跳，变为可见时立即补一次
	current = base.Add(8 * time.Second)
	c.OnVisible()

	record, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, current.UnixMilli(), record.LastHeartbeat)
}

func TestOnUnload_DeletesRecord(t *testing.T) {
	t.Run("活跃实例卸载时清理记录", func(t *testing.T) {
		c, store, _, scheduler := newTestCoordinator(t)
		require.True(t, c.CheckAndActivate())

		c.OnUnload()

		record, err := store.Get()
		require.NoError(t, err)
		assert.Nil(t, record, "卸载后共享记录应被删除")
		assert.Equal(t, 0, scheduler.pending(), "卸载后心跳循环应被取消")
	})

	t.Run("卸载后退回待机状态", func(t *testing.T) {
		c, store, _, _ := newTestCoordinator(t)
		require.True(t, c.CheckAndActivate())

		c.OnUnload()
		assert.Equal(t, StateStandby, c.State())

		// 迟到的可见性事件不能复活已删除的记录
		c.OnVisible()

		record, err := store.Get()
		require.NoError(t, err)
		assert.Nil(t, record, "卸载后 OnVisible 不应重写共享记录")
	})

	t.Run("待机实例卸载时不动记录", func(t *testing.T) {
		c, store, _, _ := newTestCoordinator(t)

		require.NoError(t, store.Put(domain.ActiveInstanceRecord{
			ActiveInstanceID: "other-instance",
			LastHeartbeat:    time.Now().UnixMilli(),
		}))
		require.False(t, c.CheckAndActivate())

		c.OnUnload()

		record, err := store.Get()
		require.NoError(t, err)
		require.NotNil(t, record, "待机实例不应删除对端的记录")
		assert.Equal(t, "other-instance", record.ActiveInstanceID)
	})
}

func TestInstanceID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := domain.NewInstanceID()
		assert.False(t, seen[id], "实例标识不应重复")
		seen[id] = true
	}
}
