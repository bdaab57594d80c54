// Package http 提供后端 HTTP 服务
package http

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/tasklight/backend/internal/infrastructure/config"
	"github.com/tasklight/backend/internal/infrastructure/log"
	"github.com/tasklight/backend/internal/interfaces/http/handler"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	coordinationHandler *handler.CoordinationHandler,
	instanceHandler *handler.InstanceHandler,
	wsHandler *handler.WSHandler,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	logger := log.NewModuleLogger("http", "server")

	// 健康检查：单例锁探测依赖此端点
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": config.Version,
			"pid":     os.Getpid(),
		})
	})

	// 标签页 WebSocket 接入
	router.GET("/ws", wsHandler.Attach)

	// 注册路由
	api := router.Group("/api/v1")
	{
		api.GET("/coordination/record", coordinationHandler.GetRecord)
		api.PUT("/coordination/record", coordinationHandler.PutRecord)
		api.DELETE("/coordination/record", coordinationHandler.DeleteRecord)
		api.GET("/coordination/status", coordinationHandler.GetStatus)

		api.GET("/instance/status", instanceHandler.GetStatus)
	}

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   logger,
	}
}

// Router 返回底层路由（测试用）
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}

// Serve 在已有 listener 上启动服务（阻塞）
// listener 来自单例锁检查，复用可避免检查和监听之间的竞态窗口
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.server = &http.Server{
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting", "addr", listener.Addr().String())
	err := s.server.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Start 监听配置端口并启动服务（阻塞）
func (s *HTTPServer) Start() error {
	listener, err := net.Listen("tcp", s.httpPort)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Stop 优雅关闭
func (s *HTTPServer) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
