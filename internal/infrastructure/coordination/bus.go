// Package coordination 提供协调领域接口的进程内实现
package coordination

import (
	"log/slog"
	"sync"

	domain "github.com/tasklight/backend/internal/domain/coordination"
	"github.com/tasklight/backend/internal/infrastructure/log"
)

// subscriber 单个订阅者
// 每个订阅者持有独立的缓冲队列和分发 goroutine，保证同一发送方的消息按序送达
type subscriber struct {
	handler domain.Handler
	ch      chan domain.Message
	done    chan struct{}
}

// busImpl MessageBus 的进程内实现
type busImpl struct {
	// subscribers 当前订阅者集合
	subscribers map[*subscriber]bool
	// mu 保护 subscribers 的互斥锁
	mu sync.RWMutex
	// logger 日志记录器
	logger *slog.Logger
	// closed 是否已关闭
	closed bool
	// wg 等待所有分发 goroutine 退出
	wg sync.WaitGroup
}

// subscriberBufferSize 订阅者队列容量
// 协调消息量极小，队列满说明处理器卡死，此时丢弃消息并记录
const subscriberBufferSize = 64

// NewMessageBus 创建进程内消息总线
func NewMessageBus() domain.MessageBus {
	return &busImpl{
		subscribers: make(map[*subscriber]bool),
		logger:      log.NewModuleLogger("coordination", "bus"),
	}
}

// Subscribe 订阅频道上的所有消息
func (b *busImpl) Subscribe(handler domain.Handler) func() {
	sub := &subscriber{
		handler: handler,
		ch:      make(chan domain.Message, subscriberBufferSize),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	b.subscribers[sub] = true
	// Add 必须在锁内完成，否则会与 Close 的 Wait 竞争
	b.wg.Add(1)
	b.mu.Unlock()

	// 每个订阅者独立的分发循环，保证 FIFO
	go b.dispatchLoop(sub)

	return func() {
		b.unsubscribe(sub)
	}
}

// Publish 异步发布消息到所有订阅者
func (b *busImpl) Publish(msg domain.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for sub := range b.subscribers {
		select {
		case sub.ch <- msg:
		default:
			b.logger.Warn("subscriber queue full, dropping message",
				"type", msg.Type,
				"instance_id", msg.InstanceID,
			)
		}
	}
}

// Close 关闭总线，等待分发完成
func (b *busImpl) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		close(sub.done)
		delete(b.subscribers, sub)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

// unsubscribe 取消单个订阅
func (b *busImpl) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	if _, ok := b.subscribers[sub]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subscribers, sub)
	close(sub.done)
	b.mu.Unlock()
}

// dispatchLoop 订阅者的分发循环
func (b *busImpl) dispatchLoop(sub *subscriber) {
	defer b.wg.Done()

	for {
		select {
		case <-sub.done:
			// 排空剩余消息后退出
			for {
				select {
				case msg := <-sub.ch:
					b.deliver(sub, msg)
				default:
					return
				}
			}
		case msg := <-sub.ch:
			b.deliver(sub, msg)
		}
	}
}

// deliver 投递单条消息到处理器
func (b *busImpl) deliver(sub *subscriber, msg domain.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("message handler panicked",
				"type", msg.Type,
				"panic", r,
			)
		}
	}()

	if err := sub.handler.HandleMessage(msg); err != nil {
		b.logger.Warn("message handler returned error",
			"type", msg.Type,
			"error", err,
		)
	}
}
