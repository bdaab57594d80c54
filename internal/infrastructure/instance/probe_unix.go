//go:build !windows

package instance

import (
	"fmt"
	"os"
	"syscall"

	domain "github.com/tasklight/backend/internal/domain/instance"
)

// unixProbe POSIX 平台的进程探测实现
// 使用信号 0 探测存活，SIGTERM/SIGKILL 终止
type unixProbe struct{}

// NewProcessProbe 创建当前平台的进程探测器
func NewProcessProbe() domain.ProcessProbe {
	return &unixProbe{}
}

// IsAlive 探测进程是否存活
func (p *unixProbe) IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// POSIX 下 FindProcess 永远成功，真正的探测靠信号 0
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM 表示进程存在但无权限操作
	return err == syscall.EPERM
}

// TerminateGracefully 发送 SIGTERM
func (p *unixProbe) TerminateGracefully(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to %d: %w", pid, err)
	}
	return nil
}

// TerminateForcefully 发送 SIGKILL
func (p *unixProbe) TerminateForcefully(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to send SIGKILL to %d: %w", pid, err)
	}
	return nil
}

// SupportsGracefulSignal POSIX 支持优雅终止信号
func (p *unixProbe) SupportsGracefulSignal() bool {
	return true
}
