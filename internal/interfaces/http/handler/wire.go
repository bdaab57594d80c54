package handler

import "github.com/google/wire"

// ProviderSet HTTP 处理器 ProviderSet
var ProviderSet = wire.NewSet(
	NewCoordinationHandler,
	NewInstanceHandler,
	NewWSHandler,
)
