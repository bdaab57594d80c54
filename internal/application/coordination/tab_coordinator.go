// Package coordination 实现标签页之间的活跃实例选举
package coordination

import (
	"log/slog"
	"sync"
	"time"

	domain "github.com/tasklight/backend/internal/domain/coordination"
	"github.com/tasklight/backend/internal/infrastructure/log"
)

// State 协调器状态
type State string

const (
	// StateUndecided 尚未完成检查
	StateUndecided State = "undecided"
	// StateActive 本实例是活跃实例
	StateActive State = "active"
	// StateStandby 已有其他活跃实例，本实例待机
	StateStandby State = "standby"
)

// TabCoordinator 标签页协调器
// 每个标签页/窗口上下文持有一个实例，通过共享存储和广播频道
// 决定自己是否成为唯一的活跃实例
type TabCoordinator struct {
	mu    sync.Mutex
	id    string
	state State

	store     domain.SharedStateStore
	bus       domain.MessageBus
	scheduler domain.Scheduler

	// cancelHeartbeat 心跳循环取消句柄，仅在 ACTIVE 状态非空
	cancelHeartbeat func()
	// unsubscribe 频道订阅取消句柄
	unsubscribe func()

	// onFocus 将窗口置于前台的回调（由 UI 层注入）
	onFocus func()
	// onNotify 用户通知回调
	onNotify func(message string)

	// now 时间来源（测试可替换为虚拟时钟）
	now func() time.Time

	logger *slog.Logger
}

// NewTabCoordinator 创建标签页协调器
// bus 为 nil 表示运行时不支持广播频道，此时 CheckAndActivate 直接放行
func NewTabCoordinator(store domain.SharedStateStore, bus domain.MessageBus, scheduler domain.Scheduler) *TabCoordinator {
	c := &TabCoordinator{
		id:        domain.NewInstanceID(),
		state:     StateUndecided,
		store:     store,
		bus:       bus,
		scheduler: scheduler,
		now:       time.Now,
		logger:    log.NewModuleLogger("coordination", "tab_coordinator"),
	}

	if bus != nil {
		c.unsubscribe = bus.Subscribe(domain.HandlerFunc(c.handleMessage))
	}

	return c
}

// InstanceID 本协调器的实例标识
func (c *TabCoordinator) InstanceID() string {
	return c.id
}

// State 当前状态
func (c *TabCoordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetFocusHandler 注入置前台回调
func (c *TabCoordinator) SetFocusHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFocus = fn
}

// SetNotifyHandler 注入用户通知回调
func (c *TabCoordinator) SetNotifyHandler(fn func(message string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNotify = fn
}

// CheckAndActivate 检查并尝试成为活跃实例
// 返回 false 表示已有存活的活跃实例，调用方应阻塞渲染并提供
// "请求聚焦已有实例 / 关闭自己" 两个选项
func (c *TabCoordinator) CheckAndActivate() bool {
	// 广播频道不可用时放行，宁可出现双实例也不能把用户锁在应用外
	if c.bus == nil {
		c.logger.Warn("broadcast channel unavailable, activating without coordination")
		c.mu.Lock()
		c.state = StateActive
		c.mu.Unlock()
		return true
	}

	record, err := c.store.Get()
	if err != nil {
		c.logger.Warn("failed to read shared state, activating anyway", "error", err)
	}

	if record != nil && !record.IsStale(c.now()) {
		// 对端仍在心跳，本实例待机
		c.mu.Lock()
		c.state = StateStandby
		c.mu.Unlock()
		c.logger.Info("live active instance detected, standing by",
			"active_instance", record.ActiveInstanceID,
			"heartbeat_age", record.Age(c.now()).String(),
		)
		return false
	}

	if record != nil {
		// 心跳过期：前任崩溃后残留的记录，直接接管
		c.logger.Info("stale record detected, taking over",
			"stale_instance", record.ActiveInstanceID,
			"heartbeat_age", record.Age(c.now()).String(),
		)
	}

	c.BecomeActiveInstance()
	return true
}

// BecomeActiveInstance 声明本实例为活跃实例
// 写入共享记录、启动心跳循环并广播激活消息
func (c *TabCoordinator) BecomeActiveInstance() {
	c.mu.Lock()
	if c.state == StateActive {
		c.mu.Unlock()
		return
	}
	c.state = StateActive
	c.mu.Unlock()

	c.writeHeartbeat()

	cancel := c.scheduler.ScheduleRepeating(domain.HeartbeatInterval, c.refreshHeartbeat)
	c.mu.Lock()
	c.cancelHeartbeat = cancel
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(domain.NewMessage(domain.MessageInstanceActivated, c.id))
	}

	c.logger.Info("became active instance", "instance_id", c.id)
}

// OnVisible 标签页变为可见时调用
// 后台标签页的定时器可能被浏览器限流，这里立即补一次心跳
func (c *TabCoordinator) OnVisible() {
	if c.State() == StateActive {
		c.writeHeartbeat()
	}
}

// OnUnload 标签页卸载时调用
// 活跃实例主动删除共享记录，后继标签页无需等待过期阈值
func (c *TabCoordinator) OnUnload() {
	c.mu.Lock()
	wasActive := c.state == StateActive
	// 退回待机，卸载后迟到的 OnVisible 不能复活已删除的记录
	c.state = StateStandby
	cancel := c.cancelHeartbeat
	c.cancelHeartbeat = nil
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasActive {
		if err := c.store.Delete(); err != nil {
			c.logger.Warn("failed to delete shared record on unload", "error", err)
		}
	}
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Stop 停止协调器（等价于卸载）
func (c *TabCoordinator) Stop() {
	c.OnUnload()
}

// handleMessage 处理频道消息
func (c *TabCoordinator) handleMessage(msg domain.Message) error {
	switch msg.Type {
	case domain.MessageInstanceActivated:
		c.handleInstanceActivated(msg)
	case domain.MessagePing:
		c.handlePing()
	case domain.MessageRequestFocus:
		c.handleRequestFocus()
	}
	return nil
}

// handleInstanceActivated 另一个实例声明激活
// 本实例若处于 ACTIVE 则竞争失败，停止心跳并退回待机
func (c *TabCoordinator) handleInstanceActivated(msg domain.Message) {
	if msg.InstanceID == c.id {
		return
	}

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	c.state = StateStandby
	cancel := c.cancelHeartbeat
	c.cancelHeartbeat = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// 发送方现在是记录的唯一写入者，这里不再动共享存储
	c.logger.Info("lost activation race, stepping down",
		"winner", msg.InstanceID,
	)
}

// handlePing 存活探测：活跃实例回复 pong
func (c *TabCoordinator) handlePing() {
	if c.State() != StateActive {
		return
	}
	if c.bus != nil {
		c.bus.Publish(domain.NewMessage(domain.MessagePong, c.id))
	}
}

// handleRequestFocus 聚焦请求：活跃实例置前台并提示
func (c *TabCoordinator) handleRequestFocus() {
	if c.State() != StateActive {
		return
	}

	c.mu.Lock()
	onFocus := c.onFocus
	onNotify := c.onNotify
	c.mu.Unlock()

	if onFocus != nil {
		onFocus()
	}
	if onNotify != nil {
		onNotify("Tasklight is already running")
	}

	c.logger.Info("focus request handled", "instance_id", c.id)
}

// refreshHeartbeat 心跳循环回调
func (c *TabCoordinator) refreshHeartbeat() {
	if c.State() != StateActive {
		return
	}
	c.writeHeartbeat()
}

// writeHeartbeat 写入当前心跳
func (c *TabCoordinator) writeHeartbeat() {
	err := c.store.Put(domain.ActiveInstanceRecord{
		ActiveInstanceID: c.id,
		LastHeartbeat:    c.now().UnixMilli(),
	})
	if err != nil {
		c.logger.Warn("failed to write heartbeat", "error", err)
	}
}
