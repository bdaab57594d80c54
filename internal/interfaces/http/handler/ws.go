package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/tasklight/backend/internal/domain/coordination"
	"github.com/tasklight/backend/internal/infrastructure/config"
	"github.com/tasklight/backend/internal/infrastructure/log"
	"github.com/tasklight/backend/internal/infrastructure/websocket"
)

const (
	// writeWait 单次写入超时
	writeWait = 10 * time.Second
	// pongWait 等待客户端 pong 的超时
	pongWait = 60 * time.Second
	// pingPeriod 服务端 ping 周期，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10
)

// WSHandler 标签页 WebSocket 接入处理器
// 每个浏览器标签页建立一条连接，连接上收到的协调消息
// 统一送入进程内总线，由总线桥接回其他标签页
type WSHandler struct {
	hub      *websocket.Hub
	bus      coordination.MessageBus
	upgrader gorilla.Upgrader
	logger   *slog.Logger
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(hub *websocket.Hub, bus coordination.MessageBus, cfg *config.Config) *WSHandler {
	return &WSHandler{
		hub: hub,
		bus: bus,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.NewModuleLogger("http", "ws_handler"),
	}
}

// Attach 升级连接并接入 Hub
func (h *WSHandler) Attach(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	// instanceId 由标签页在建连时携带，广播时据此排除发送方
	client := &websocket.Connection{
		ID:   c.Query("instanceId"),
		Send: make(chan []byte, 64),
	}
	h.hub.Register(client)

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

// readPump 读取标签页发来的协调消息
func (h *WSHandler) readPump(conn *gorilla.Conn, client *websocket.Connection) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var msg coordination.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn("malformed coordination message from tab", "error", err)
			continue
		}

		// 送入进程内总线，经总线桥接转发给其他标签页
		h.bus.Publish(msg)
	}
}

// writePump 向标签页推送协调消息
func (h *WSHandler) writePump(conn *gorilla.Conn, client *websocket.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(gorilla.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(gorilla.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
