// Package instance 实现进程级实例管理
// 供运维 CLI 检查、终止和清理机器上运行的后端进程
package instance

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	domain "github.com/tasklight/backend/internal/domain/instance"
	"github.com/tasklight/backend/internal/infrastructure/log"
)

// FocusSender 焦点请求发送能力
type FocusSender interface {
	// Send 发送单次焦点请求
	Send() error
}

// LockStore 锁文件存取能力
type LockStore interface {
	Read() (*domain.LockRecord, error)
	Cleanup() error
}

// Manager 进程实例管理器
// 无内部状态，每次 CLI 调用独立执行
type Manager struct {
	store  LockStore
	probe  domain.ProcessProbe
	dialer FocusSender

	// out 报告输出目标，默认 os.Stdout
	out io.Writer
	// wait 宽限期等待（测试可替换）
	wait func(d time.Duration)

	logger *slog.Logger
}

// NewManager 创建进程实例管理器
func NewManager(store LockStore, probe domain.ProcessProbe, dialer FocusSender) *Manager {
	return &Manager{
		store:  store,
		probe:  probe,
		dialer: dialer,
		out:    os.Stdout,
		wait:   time.Sleep,
		logger: log.NewModuleLogger("instance", "manager"),
	}
}

// SetOutput 设置报告输出目标
func (m *Manager) SetOutput(w io.Writer) {
	m.out = w
}

// GetCurrentInstance 读取锁记录并附加存活探测结果
// 锁文件不存在或损坏时返回 nil
func (m *Manager) GetCurrentInstance() *domain.Status {
	record, err := m.store.Read()
	if err != nil {
		m.logger.Warn("failed to read lock file", "error", err)
		return nil
	}
	if record == nil {
		return nil
	}

	return &domain.Status{
		LockRecord: *record,
		IsRunning:  m.probe.IsAlive(record.PID),
		LockAge:    time.Since(time.UnixMilli(record.Timestamp)),
	}
}

// KillAllInstances 终止当前记录的实例
// 返回是否实际终止了进程：
//   - 无记录或进程已死：不发信号，过期记录顺带清理，返回 false
//   - 进程存活：先优雅终止，宽限期后仍存活则强制终止，返回 true
func (m *Manager) KillAllInstances() bool {
	status := m.GetCurrentInstance()
	if status == nil {
		fmt.Fprintln(m.out, "No instances to kill")
		return false
	}

	if !status.IsRunning {
		fmt.Fprintf(m.out, "Instance (PID %d) is not running, cleaning up stale files\n", status.PID)
		if err := m.CleanupStaleFiles(); err != nil {
			m.logger.Warn("cleanup failed", "error", err)
		}
		return false
	}

	if !m.probe.SupportsGracefulSignal() {
		// 没有优雅信号可用的平台直接强制终止，无宽限期
		fmt.Fprintf(m.out, "Forcefully terminating instance (PID %d)\n", status.PID)
		if err := m.probe.TerminateForcefully(status.PID); err != nil {
			fmt.Fprintf(m.out, "Failed to terminate PID %d: %v\n", status.PID, err)
			return false
		}
	} else {
		fmt.Fprintf(m.out, "Gracefully terminating instance (PID %d)\n", status.PID)
		if err := m.probe.TerminateGracefully(status.PID); err != nil {
			fmt.Fprintf(m.out, "Failed to signal PID %d: %v\n", status.PID, err)
			return false
		}

		// 宽限期后仍存活则升级为强制终止
		m.wait(domain.KillGracePeriod)
		if m.probe.IsAlive(status.PID) {
			m.logger.Info("grace period expired, escalating to forceful termination",
				"pid", status.PID,
			)
			fmt.Fprintf(m.out, "PID %d still alive after %s, killing\n", status.PID, domain.KillGracePeriod)
			if err := m.probe.TerminateForcefully(status.PID); err != nil {
				fmt.Fprintf(m.out, "Failed to kill PID %d: %v\n", status.PID, err)
			}
		}
	}

	if err := m.CleanupStaleFiles(); err != nil {
		m.logger.Warn("cleanup after kill failed", "error", err)
	}

	fmt.Fprintln(m.out, "Instance terminated")
	return true
}

// CleanupStaleFiles 删除锁文件和端口配置工件
// 幂等，文件不存在时同样报告成功
func (m *Manager) CleanupStaleFiles() error {
	if err := m.store.Cleanup(); err != nil {
		return fmt.Errorf("failed to clean up instance files: %w", err)
	}
	fmt.Fprintln(m.out, "Instance files cleaned up")
	return nil
}

// ShowStatus 打印人类可读的实例状态报告
func (m *Manager) ShowStatus() {
	status := m.GetCurrentInstance()
	if status == nil {
		fmt.Fprintln(m.out, "No instances running")
		return
	}

	if !status.IsRunning {
		fmt.Fprintf(m.out, "Stale lock found: PID %d (started %s, version %s) is no longer running\n",
			status.PID, status.StartTime, status.Version)
		fmt.Fprintln(m.out, "Run 'instances cleanup' to remove stale files")
		return
	}

	fmt.Fprintf(m.out, "Instance running: PID %d\n", status.PID)
	fmt.Fprintf(m.out, "  Started: %s\n", status.StartTime)
	fmt.Fprintf(m.out, "  Version: %s\n", status.Version)
	fmt.Fprintf(m.out, "  Lock age: %s\n", status.LockAge.Round(time.Second))
}

// FocusInstance 请求运行中实例置于前台
// 无运行中实例时立即失败，不尝试连接；连接错误报告但不重试
func (m *Manager) FocusInstance() bool {
	status := m.GetCurrentInstance()
	if status == nil || !status.IsRunning {
		fmt.Fprintln(m.out, "No running instance to focus")
		return false
	}

	if err := m.dialer.Send(); err != nil {
		fmt.Fprintf(m.out, "Failed to send focus request: %v\n", err)
		return false
	}

	fmt.Fprintln(m.out, "Focus request sent")
	return true
}
