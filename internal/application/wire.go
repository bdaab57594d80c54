package application

import (
	"github.com/google/wire"

	"github.com/tasklight/backend/internal/application/coordination"
	"github.com/tasklight/backend/internal/application/instance"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	coordination.ProviderSet,
	instance.ProviderSet,
)
