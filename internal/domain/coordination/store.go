package coordination

// 共享存储的键名
// 两个键都存储为普通字符串，与浏览器端 localStorage 布局保持一致
const (
	// KeyActiveInstanceID 活跃实例标识键
	KeyActiveInstanceID = "tasklight.activeInstanceId"
	// KeyLastHeartbeat 最后心跳时间键（epoch 毫秒的十进制字符串）
	KeyLastHeartbeat = "tasklight.lastHeartbeat"
)

// SharedStateStore 共享键值存储接口
// 同一会话内的所有标签页可见，无跨键事务保证
type SharedStateStore interface {
	// Get 读取活跃实例记录
	// 记录不存在或内容损坏时返回 (nil, nil)，不视为错误
	Get() (*ActiveInstanceRecord, error)

	// Put 写入活跃实例记录（覆盖旧值）
	Put(record ActiveInstanceRecord) error

	// Delete 删除活跃实例记录
	// 记录不存在时不报错
	Delete() error
}
