package instance

// ProcessProbe 进程探测与终止能力接口
// 屏蔽平台差异：POSIX 下使用信号，Windows 下使用进程列表查询
type ProcessProbe interface {
	// IsAlive 探测进程是否存活
	IsAlive(pid int) bool

	// TerminateGracefully 发送优雅终止信号
	TerminateGracefully(pid int) error

	// TerminateForcefully 强制终止进程
	TerminateForcefully(pid int) error

	// SupportsGracefulSignal 平台是否支持优雅终止信号
	// 不支持时调用方应直接强制终止，不做宽限等待
	SupportsGracefulSignal() bool
}
