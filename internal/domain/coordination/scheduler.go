package coordination

import "time"

// Scheduler 协作式调度器接口
// 心跳循环通过它调度，便于在测试中替换为手动触发的虚拟时钟
type Scheduler interface {
	// ScheduleRepeating 以固定间隔重复执行回调
	// 返回的 cancel 函数幂等，调用后停止后续执行
	ScheduleRepeating(interval time.Duration, fn func()) (cancel func())
}
