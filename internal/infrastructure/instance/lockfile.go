// Package instance 提供进程锁文件和进程探测的平台实现
package instance

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	domain "github.com/tasklight/backend/internal/domain/instance"
	"github.com/tasklight/backend/internal/infrastructure/config"
	"github.com/tasklight/backend/internal/infrastructure/log"
)

// LockFileStore 进程锁文件存储
type LockFileStore struct {
	dir    string
	logger *slog.Logger
}

// NewLockFileStore 创建锁文件存储（使用数据目录）
func NewLockFileStore() *LockFileStore {
	return NewLockFileStoreAt(config.GetDataDir())
}

// NewLockFileStoreAt 创建指定目录的锁文件存储
func NewLockFileStoreAt(dir string) *LockFileStore {
	return &LockFileStore{
		dir:    dir,
		logger: log.NewModuleLogger("instance", "lockfile"),
	}
}

// LockFilePath 锁文件路径
func (s *LockFileStore) LockFilePath() string {
	return filepath.Join(s.dir, domain.LockFileName)
}

// PortConfigPath 端口配置文件路径
func (s *LockFileStore) PortConfigPath() string {
	return filepath.Join(s.dir, domain.PortConfigFileName)
}

// Read 读取锁记录
// 文件不存在或内容损坏时返回 (nil, nil)
func (s *LockFileStore) Read() (*domain.LockRecord, error) {
	data, err := os.ReadFile(s.LockFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	var record domain.LockRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// 损坏的锁文件等同于不存在
		s.logger.Warn("lock file is corrupt, treating as absent",
			"path", s.LockFilePath(),
			"error", err,
		)
		return nil, nil
	}

	return &record, nil
}

// Write 写入当前进程的锁记录
func (s *LockFileStore) Write(record domain.LockRecord) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock record: %w", err)
	}

	if err := os.WriteFile(s.LockFilePath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}

	return nil
}

// WritePortConfig 写入端口配置工件
func (s *LockFileStore) WritePortConfig(cfg domain.PortConfig) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal port config: %w", err)
	}

	if err := os.WriteFile(s.PortConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write port config: %w", err)
	}

	return nil
}

// Cleanup 删除锁文件和端口配置工件
// 幂等，文件不存在时不报错
func (s *LockFileStore) Cleanup() error {
	for _, path := range []string{s.LockFilePath(), s.PortConfigPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// NewLockRecord 为当前进程创建锁记录
func NewLockRecord(version string) domain.LockRecord {
	now := time.Now()
	return domain.LockRecord{
		PID:       os.Getpid(),
		StartTime: now.UTC().Format(time.RFC3339),
		Version:   version,
		Timestamp: now.UnixMilli(),
	}
}
