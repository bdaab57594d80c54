package coordination

// Handler 协调消息处理器接口
type Handler interface {
	// HandleMessage 处理一条协调消息
	// 返回 error 仅用于日志记录，不会重试
	HandleMessage(msg Message) error
}

// HandlerFunc 函数类型的处理器适配器
type HandlerFunc func(msg Message) error

// HandleMessage 实现 Handler 接口
func (f HandlerFunc) HandleMessage(msg Message) error {
	return f(msg)
}

// MessageBus 广播频道接口
// 同一发送方的消息保证 FIFO 送达，但与共享存储的写入可见性之间无顺序保证
type MessageBus interface {
	// Subscribe 订阅频道上的所有消息
	// 返回取消订阅的函数
	Subscribe(handler Handler) (unsubscribe func())

	// Publish 异步发布消息到所有订阅者
	Publish(msg Message)

	// Close 关闭频道
	// 停止接收新消息，等待已发布消息分发完成
	Close()
}
