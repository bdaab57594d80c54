package instance

import "github.com/google/wire"

// ProviderSet 进程实例应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewManager,
)
