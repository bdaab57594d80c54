// Package instance 定义进程级实例管理的领域模型
// 用于检测和操作机器上正在运行的后端进程
package instance

import "time"

// 磁盘工件文件名（位于数据目录下）
const (
	// LockFileName 进程锁文件名
	LockFileName = "instance.lock"
	// PortConfigFileName 端口配置文件名
	PortConfigFileName = "port-config.json"
)

// KillGracePeriod 优雅终止的宽限期
// 超过宽限期仍存活的进程会被强制终止
const KillGracePeriod = 5 * time.Second

// LockRecord 进程锁记录
// 由运行中的后端进程在启动时写入，崩溃时不会被清理
// Timestamp 记录的是创建时间而非心跳，存活性由 PID 探测决定
type LockRecord struct {
	// PID 进程标识
	PID int `json:"pid"`
	// StartTime 进程启动时间（ISO-8601）
	StartTime string `json:"startTime"`
	// Version 应用版本
	Version string `json:"version"`
	// Timestamp 记录创建时间（epoch 毫秒）
	Timestamp int64 `json:"timestamp"`
}

// Status 实例状态
// 锁记录附加存活探测结果
type Status struct {
	LockRecord
	// IsRunning PID 对应的进程是否存活
	IsRunning bool `json:"isRunning"`
	// LockAge 锁记录年龄
	LockAge time.Duration `json:"lockAge"`
}

// PortConfig 端口配置工件
// 记录运行中实例实际监听的端口，清理时一并删除
type PortConfig struct {
	// HTTPPort HTTP 服务端口
	HTTPPort string `json:"http_port"`
	// FocusPort 焦点协调端口
	FocusPort string `json:"focus_port"`
	// PID 写入方进程标识
	PID int `json:"pid"`
}
