package wire

import (
	"database/sql"
	"net"
	"os"

	"log/slog"

	appCoordination "github.com/tasklight/backend/internal/application/coordination"
	domainCoordination "github.com/tasklight/backend/internal/domain/coordination"
	domainInstance "github.com/tasklight/backend/internal/domain/instance"
	"github.com/tasklight/backend/internal/infrastructure/config"
	infraInstance "github.com/tasklight/backend/internal/infrastructure/instance"
	applog "github.com/tasklight/backend/internal/infrastructure/log"
	"github.com/tasklight/backend/internal/infrastructure/watcher"
	"github.com/tasklight/backend/internal/infrastructure/websocket"
	"github.com/tasklight/backend/internal/interfaces/focus"
	httpserver "github.com/tasklight/backend/internal/interfaces/http"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer    *httpserver.HTTPServer
	wsHub         *websocket.Hub
	coordinator   *appCoordination.TabCoordinator
	focusListener *focus.Listener
	lockWatcher   *watcher.LockWatcher
	lockStore     *infraInstance.LockFileStore
	bus           domainCoordination.MessageBus
	cfg           *config.ServerConfig
	db            *sql.DB
	logger        *slog.Logger

	// unsubscribeBridge 解除总线到 WebSocket Hub 的转发订阅
	unsubscribeBridge func()
}

// NewApp 创建应用实例
func NewApp(
	httpServer *httpserver.HTTPServer,
	wsHub *websocket.Hub,
	coordinator *appCoordination.TabCoordinator,
	focusListener *focus.Listener,
	lockWatcher *watcher.LockWatcher,
	lockStore *infraInstance.LockFileStore,
	bus domainCoordination.MessageBus,
	cfg *config.ServerConfig,
	db *sql.DB,
) *App {
	logger := applog.NewModuleLogger("app", "main")

	return &App{
		HTTPServer:    httpServer,
		wsHub:         wsHub,
		coordinator:   coordinator,
		focusListener: focusListener,
		lockWatcher:   lockWatcher,
		lockStore:     lockStore,
		bus:           bus,
		cfg:           cfg,
		db:            db,
		logger:        logger,
	}
}

// Start 启动所有服务
// listener 为单例锁检查持有的端口监听，HTTP 服务直接复用
func (a *App) Start(listener net.Listener) error {
	a.logger.Info("Starting Tasklight backend application")

	// 写入实例锁与端口配置，供 instances CLI 和前端发现进程
	if err := a.lockStore.Write(infraInstance.NewLockRecord(config.Version)); err != nil {
		a.logger.Error("Failed to write instance lock file",
			"error", err,
		)
	}
	if err := a.lockStore.WritePortConfig(domainInstance.PortConfig{
		HTTPPort:  a.cfg.HTTPPort,
		FocusPort: a.cfg.FocusPort,
		PID:       os.Getpid(),
	}); err != nil {
		a.logger.Error("Failed to write port config",
			"error", err,
		)
	}

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 总线消息转发给已连接的标签页，跳过消息来源标签页
	a.unsubscribeBridge = a.bus.Subscribe(domainCoordination.HandlerFunc(
		func(msg domainCoordination.Message) error {
			return a.wsHub.Relay(msg)
		},
	))

	// 守护进程不参与活跃位竞争：活跃实例永远是某个标签页。
	// 协调器保持订阅但不激活，focus 请求经总线桥接由活跃标签页处理

	// 启动焦点请求监听器
	if err := a.focusListener.Start(); err != nil {
		a.logger.Error("Failed to start focus listener",
			"error", err,
		)
	}

	// 启动锁文件监护
	if a.lockWatcher != nil {
		if err := a.lockWatcher.Start(); err != nil {
			a.logger.Error("Failed to start lock watcher",
				"error", err,
			)
		}
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Serve(listener); err != nil {
			a.logger.Error("HTTP server exited with error",
				"error", err,
			)
		}
	}()

	a.logger.Info("Tasklight backend application started successfully")

	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping Tasklight backend application")

	// 停止焦点请求监听器
	a.focusListener.Stop()

	// 停止锁文件监护（先于清理锁文件，避免误触发重建）
	if a.lockWatcher != nil {
		a.lockWatcher.Stop()
	}

	// 协调器退出：解除频道订阅
	a.coordinator.Stop()

	// 先停 HTTP 服务器再停 Hub，避免停止间隙的升级请求卡在注册上
	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}

	// 解除总线转发并停止 Hub
	if a.unsubscribeBridge != nil {
		a.unsubscribeBridge()
	}
	a.wsHub.Stop()

	// 清理实例锁与端口配置
	if err := a.lockStore.Cleanup(); err != nil {
		a.logger.Error("Failed to clean up instance files",
			"error", err,
		)
	}

	a.bus.Close()

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			return err
		}
	}

	a.logger.Info("Tasklight backend application stopped successfully")

	return nil
}
