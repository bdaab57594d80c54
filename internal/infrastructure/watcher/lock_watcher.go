// Package watcher 提供锁文件监护
// 运行中的后端进程监听数据目录，锁文件被外部清理或覆盖时重新声明
package watcher

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	infraInstance "github.com/tasklight/backend/internal/infrastructure/instance"
	"github.com/tasklight/backend/internal/infrastructure/log"
)

// reassertDelay 重新写入锁文件前的防抖延迟
// 避免与正在执行的 cleanup 命令互相覆盖
const reassertDelay = 500 * time.Millisecond

// LockWatcher 锁文件监护器
type LockWatcher struct {
	store   *infraInstance.LockFileStore
	version string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// 防抖相关
	reassertTimer *time.Timer
	timerMu       sync.Mutex

	// 控制
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLockWatcher 创建锁文件监护器
// version 是重新声明时写入锁记录的版本号
func NewLockWatcher(store *infraInstance.LockFileStore, version string) (*LockWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &LockWatcher{
		store:   store,
		version: version,
		watcher: watcher,
		logger:  log.NewModuleLogger("watcher", "lock_watcher"),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start 启动监护
// 监听锁文件所在目录，目录级监听才能捕获删除后重建
func (w *LockWatcher) Start() error {
	dir := filepath.Dir(w.store.LockFilePath())

	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	w.logger.Info("lock watcher started", "dir", dir)

	w.wg.Add(1)
	go w.watchLoop()

	return nil
}

// Stop 停止监护，幂等
func (w *LockWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.wg.Wait()

		w.timerMu.Lock()
		if w.reassertTimer != nil {
			w.reassertTimer.Stop()
		}
		w.timerMu.Unlock()

		w.logger.Info("lock watcher stopped")
	})
}

// watchLoop 事件循环
func (w *LockWatcher) watchLoop() {
	defer w.wg.Done()

	lockPath := w.store.LockFilePath()

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != lockPath {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Warn("lock file removed externally, scheduling reassert",
					"path", lockPath,
				)
				w.scheduleReassert()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("lock watcher error", "error", err)
		}
	}
}

// scheduleReassert 防抖调度重新写入
func (w *LockWatcher) scheduleReassert() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.reassertTimer != nil {
		w.reassertTimer.Stop()
	}
	w.reassertTimer = time.AfterFunc(reassertDelay, w.reassert)
}

// reassert 重新写入当前进程的锁记录
func (w *LockWatcher) reassert() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	record, err := w.store.Read()
	if err == nil && record != nil {
		// 已有记录（可能是新实例写入的），不覆盖
		return
	}

	if err := w.store.Write(infraInstance.NewLockRecord(w.version)); err != nil {
		w.logger.Error("failed to reassert lock file", "error", err)
		return
	}

	w.logger.Info("lock file reasserted", "path", w.store.LockFilePath())
}
