package instance

import (
	"github.com/google/wire"

	"github.com/tasklight/backend/internal/infrastructure/config"
)

// ProvideFocusDialer 提供焦点请求拨号器（wire 用）
func ProvideFocusDialer(cfg *config.ServerConfig) *FocusDialer {
	return NewFocusDialer(cfg.FocusPort)
}

// ProviderSet 进程实例基础设施 ProviderSet
var ProviderSet = wire.NewSet(
	NewLockFileStore,
	NewProcessProbe,
	ProvideFocusDialer,
)
