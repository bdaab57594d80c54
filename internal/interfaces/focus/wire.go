package focus

import (
	"github.com/google/wire"

	"github.com/tasklight/backend/internal/domain/coordination"
	"github.com/tasklight/backend/internal/infrastructure/config"
)

// ProvideListener 提供焦点请求监听器（wire 用）
func ProvideListener(cfg *config.ServerConfig, bus coordination.MessageBus) *Listener {
	return NewListener(cfg.FocusPort, bus)
}

// ProviderSet 焦点通道 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideListener,
)
