package watcher

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraInstance "github.com/tasklight/backend/internal/infrastructure/instance"
)

func TestLockWatcher_ReassertAfterExternalRemove(t *testing.T) {
	dir := t.TempDir()
	store := infraInstance.NewLockFileStoreAt(dir)
	require.NoError(t, store.Write(infraInstance.NewLockRecord("1.0.0")))

	w, err := NewLockWatcher(store, "1.0.0")
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// 外部删除锁文件
	require.NoError(t, os.Remove(store.LockFilePath()))

	// 防抖延迟后应重新写入
	assert.Eventually(t, func() bool {
		record, err := store.Read()
		return err == nil && record != nil && record.PID == os.Getpid()
	}, 3*time.Second, 50*time.Millisecond, "锁文件应被重新声明")
}

func TestLockWatcher_DoesNotOverwriteNewRecord(t *testing.T) {
	dir := t.TempDir()
	store := infraInstance.NewLockFileStoreAt(dir)
	require.NoError(t, store.Write(infraInstance.NewLockRecord("1.0.0")))

	w, err := NewLockWatcher(store, "1.0.0")
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// 删除后立刻有别的实例写入新记录
	require.NoError(t, os.Remove(store.LockFilePath()))
	other := infraInstance.NewLockRecord("2.0.0")
	other.PID = 99999
	require.NoError(t, store.Write(other))

	// 防抖窗口过后，别人的记录不应被覆盖
	time.Sleep(reassertDelay + 500*time.Millisecond)

	record, err := store.Read()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 99999, record.PID, "已存在的新记录不应被覆盖")
}

func TestLockWatcher_StopIsClean(t *testing.T) {
	store := infraInstance.NewLockFileStoreAt(t.TempDir())

	w, err := NewLockWatcher(store, "1.0.0")
	require.NoError(t, err)
	require.NoError(t, w.Start())

	// Stop 后不 panic、不阻塞
	w.Stop()
}
