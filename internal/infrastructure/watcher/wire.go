package watcher

import "github.com/google/wire"

// ProviderSet 锁文件监护 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideLockWatcher,
)
