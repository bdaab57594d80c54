package coordination

import "github.com/google/wire"

// ProviderSet 协调基础设施 ProviderSet
var ProviderSet = wire.NewSet(
	NewMessageBus,
	NewTimerScheduler,
)
