package coordination

import (
	"strconv"
	"sync"

	domain "github.com/tasklight/backend/internal/domain/coordination"
)

// memoryStore SharedStateStore 的内存实现
// 用于同进程内的多个窗口上下文共享状态，以及测试
type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore 创建内存共享存储
func NewMemoryStore() domain.SharedStateStore {
	return &memoryStore{
		values: make(map[string]string),
	}
}

// Get 读取活跃实例记录
func (s *memoryStore) Get() (*domain.ActiveInstanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instanceID := s.values[domain.KeyActiveInstanceID]
	heartbeatStr := s.values[domain.KeyLastHeartbeat]
	if instanceID == "" || heartbeatStr == "" {
		return nil, nil
	}

	heartbeat, err := strconv.ParseInt(heartbeatStr, 10, 64)
	if err != nil {
		// 损坏的心跳值等同于记录不存在
		return nil, nil
	}

	return &domain.ActiveInstanceRecord{
		ActiveInstanceID: instanceID,
		LastHeartbeat:    heartbeat,
	}, nil
}

// Put 写入活跃实例记录
func (s *memoryStore) Put(record domain.ActiveInstanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[domain.KeyActiveInstanceID] = record.ActiveInstanceID
	s.values[domain.KeyLastHeartbeat] = strconv.FormatInt(record.LastHeartbeat, 10)
	return nil
}

// Delete 删除活跃实例记录
func (s *memoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, domain.KeyActiveInstanceID)
	delete(s.values, domain.KeyLastHeartbeat)
	return nil
}
