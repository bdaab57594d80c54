// Package websocket 提供标签页连接管理
// 浏览器标签页通过 WebSocket 接入后端，由 Hub 转发协调消息，
// 对标签页呈现为同源广播频道
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/tasklight/backend/internal/domain/coordination"
)

// Hub 标签页连接管理中心
type Hub struct {
	// 已接入的标签页连接
	clients map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan *outbound
	mu        sync.RWMutex
	// 停止信号
	done     chan struct{}
	stopOnce sync.Once
}

// Connection 单个标签页连接
type Connection struct {
	// ID 标签页实例标识，接入时由客户端提供
	ID   string
	Send chan []byte
}

// outbound 待广播的消息
type outbound struct {
	// senderID 消息来源实例，广播时跳过（同源频道不回显给发送方）
	senderID string
	data     []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *outbound, 64),
		done:       make(chan struct{}),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				close(conn.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if msg.senderID != "" && conn.ID == msg.senderID {
					continue
				}
				select {
				case conn.Send <- msg.data:
				default:
					// 写不进去说明连接已卡死，直接剔除
					close(conn.Send)
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Stop 停止 Hub，幂等
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Register 注册连接
// Hub 停止后直接返回，不阻塞迟到的连接
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast 向所有标签页广播协调消息
func (h *Hub) Broadcast(msg coordination.Message) error {
	return h.broadcastFrom("", msg)
}

// Relay 转发协调消息，跳过消息来源实例的连接
func (h *Hub) Relay(msg coordination.Message) error {
	return h.broadcastFrom(msg.InstanceID, msg)
}

// ClientCount 当前接入的标签页数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastFrom 序列化并入队广播
func (h *Hub) broadcastFrom(senderID string, msg coordination.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &outbound{senderID: senderID, data: data}:
	case <-h.done:
	}
	return nil
}
