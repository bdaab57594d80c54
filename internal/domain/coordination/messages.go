// Package coordination 定义实例协调的领域模型
// 用于多个标签页/窗口之间的活跃实例选举
package coordination

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType 协调消息类型标识
type MessageType string

// 协调消息类型
const (
	// MessageInstanceActivated 实例激活广播
	MessageInstanceActivated MessageType = "instance-activated"
	// MessagePing 存活探测请求
	MessagePing MessageType = "ping"
	// MessagePong 存活探测响应（仅活跃实例回复）
	MessagePong MessageType = "pong"
	// MessageRequestFocus 请求活跃实例置于前台
	MessageRequestFocus MessageType = "request-focus"
)

// ChannelName 广播频道名称（同一用户会话内的所有标签页共享）
const ChannelName = "tasklight-coordination"

// 时间常量
const (
	// HeartbeatInterval 心跳刷新间隔
	HeartbeatInterval = 5 * time.Second
	// StaleThreshold 心跳过期阈值（2 倍心跳间隔，容忍一次心跳丢失）
	StaleThreshold = 10 * time.Second
)

// Message 协调消息
// 在广播频道上交换，不做持久化
type Message struct {
	// Type 消息类型
	Type MessageType `json:"type"`
	// InstanceID 发送方实例标识
	InstanceID string `json:"instanceId"`
	// Timestamp 发送时间（epoch 毫秒）
	Timestamp int64 `json:"timestamp"`
}

// NewMessage 创建协调消息
func NewMessage(msgType MessageType, instanceID string) Message {
	return Message{
		Type:       msgType,
		InstanceID: instanceID,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// ActiveInstanceRecord 活跃实例记录
// 存储在所有标签页共享的键值存储中，只有当前活跃实例会写入
type ActiveInstanceRecord struct {
	// ActiveInstanceID 活跃实例标识
	ActiveInstanceID string `json:"activeInstanceId"`
	// LastHeartbeat 最后心跳时间（epoch 毫秒）
	LastHeartbeat int64 `json:"lastHeartbeat"`
}

// Age 计算记录的心跳年龄
func (r *ActiveInstanceRecord) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.LastHeartbeat))
}

// IsStale 判断心跳是否已过期（拥有者可能已崩溃）
func (r *ActiveInstanceRecord) IsStale(now time.Time) bool {
	return r.Age(now) >= StaleThreshold
}

// NewInstanceID 生成实例标识
// 由创建时间和随机盐组成，重新加载后永不复用
func NewInstanceID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// FocusAction 焦点请求的动作名
const FocusAction = "focus"

// FocusRequest 焦点请求
// 通过固定协调端口以单次 TCP 连接发送，无响应
type FocusRequest struct {
	// Action 动作名，固定为 "focus"
	Action string `json:"action"`
	// Timestamp 发送时间（epoch 毫秒）
	Timestamp int64 `json:"timestamp"`
}
