package instance

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/tasklight/backend/internal/domain/coordination"
)

// FocusDialer 焦点请求发送器
// 向固定协调端口发送单次 focus 消息后立即断开，不重试
type FocusDialer struct {
	addr string
}

// NewFocusDialer 创建焦点请求发送器
// addr 形如 ":19971" 或 "127.0.0.1:19971"
func NewFocusDialer(addr string) *FocusDialer {
	if addr != "" && addr[0] == ':' {
		addr = "127.0.0.1" + addr
	}
	return &FocusDialer{addr: addr}
}

// Send 发送焦点请求
// 不等待响应，连接失败直接返回错误
func (d *FocusDialer) Send() error {
	conn, err := net.Dial("tcp", d.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to coordination port %s: %w", d.addr, err)
	}
	defer conn.Close()

	req := coordination.FocusRequest{
		Action:    coordination.FocusAction,
		Timestamp: time.Now().UnixMilli(),
	}

	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to send focus request: %w", err)
	}

	return nil
}
