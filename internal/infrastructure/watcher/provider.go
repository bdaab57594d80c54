package watcher

import (
	"github.com/tasklight/backend/internal/infrastructure/config"
	infraInstance "github.com/tasklight/backend/internal/infrastructure/instance"
)

// ProvideLockWatcher 提供锁文件监护器（wire 用）
func ProvideLockWatcher(store *infraInstance.LockFileStore) (*LockWatcher, error) {
	return NewLockWatcher(store, config.Version)
}
