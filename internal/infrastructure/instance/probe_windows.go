//go:build windows

package instance

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	domain "github.com/tasklight/backend/internal/domain/instance"
)

// windowsProbe Windows 平台的进程探测实现
// 没有 POSIX 信号可用，存活探测走 tasklist，终止走 taskkill
type windowsProbe struct{}

// NewProcessProbe 创建当前平台的进程探测器
func NewProcessProbe() domain.ProcessProbe {
	return &windowsProbe{}
}

// IsAlive 通过 tasklist 查询进程是否存在
func (p *windowsProbe) IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	cmd := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH", "/FO", "CSV")
	output, err := cmd.Output()
	if err != nil {
		return false
	}

	// 命中时输出包含 PID 列，未命中时输出提示信息
	return strings.Contains(string(output), strconv.Itoa(pid))
}

// TerminateGracefully Windows 下没有对应的优雅信号，等价于强制终止
func (p *windowsProbe) TerminateGracefully(pid int) error {
	return p.TerminateForcefully(pid)
}

// TerminateForcefully 通过 taskkill /F 强制终止
func (p *windowsProbe) TerminateForcefully(pid int) error {
	cmd := exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/F")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill failed for pid %d: %w (%s)", pid, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// SupportsGracefulSignal Windows 不支持优雅终止信号
func (p *windowsProbe) SupportsGracefulSignal() bool {
	return false
}
