package coordination

import "github.com/google/wire"

// ProviderSet 协调应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewTabCoordinator,
)
