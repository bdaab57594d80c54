// Package focus 提供焦点协调端口的监听端
// 运维 CLI 通过固定 TCP 端口发来单次 focus 消息，
// 监听端将其转换为 request-focus 协调消息送入广播频道
package focus

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/tasklight/backend/internal/domain/coordination"
	"github.com/tasklight/backend/internal/infrastructure/log"
)

// readTimeout 单次连接的读取超时
const readTimeout = 2 * time.Second

// Listener 焦点请求监听器
type Listener struct {
	addr     string
	bus      coordination.MessageBus
	listener net.Listener
	logger   *slog.Logger

	closed chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewListener 创建焦点请求监听器
func NewListener(addr string, bus coordination.MessageBus) *Listener {
	return &Listener{
		addr:   addr,
		bus:    bus,
		logger: log.NewModuleLogger("focus", "listener"),
		closed: make(chan struct{}),
	}
}

// Start 开始监听
func (l *Listener) Start() error {
	listener, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.listener = listener

	l.logger.Info("focus listener started", "addr", listener.Addr().String())

	l.wg.Add(1)
	go l.acceptLoop()

	return nil
}

// Addr 实际监听地址（Start 之后有效）
func (l *Listener) Addr() net.Addr {
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Stop 停止监听
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.closed)
		if l.listener != nil {
			l.listener.Close()
		}
	})
	l.wg.Wait()
	l.logger.Info("focus listener stopped")
}

// acceptLoop 接受连接循环
func (l *Listener) acceptLoop() {
	defer l.wg.Done()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-l.closed:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Warn("accept failed", "error", err)
			continue
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handleConn(conn)
		}()
	}
}

// handleConn 处理单个连接：读取一条消息后立即关闭
func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	var req coordination.FocusRequest
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		l.logger.Warn("failed to decode focus request",
			"remote", conn.RemoteAddr().String(),
			"error", err,
		)
		return
	}

	if req.Action != coordination.FocusAction {
		l.logger.Warn("unknown action on focus port", "action", req.Action)
		return
	}

	l.logger.Info("focus request received", "remote", conn.RemoteAddr().String())
	l.bus.Publish(coordination.NewMessage(coordination.MessageRequestFocus, ""))
}
