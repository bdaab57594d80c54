package infrastructure

import (
	"github.com/google/wire"

	"github.com/tasklight/backend/internal/infrastructure/config"
	"github.com/tasklight/backend/internal/infrastructure/coordination"
	"github.com/tasklight/backend/internal/infrastructure/instance"
	"github.com/tasklight/backend/internal/infrastructure/storage"
	"github.com/tasklight/backend/internal/infrastructure/watcher"
	"github.com/tasklight/backend/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	coordination.ProviderSet,
	instance.ProviderSet,
	storage.ProviderSet,
	watcher.ProviderSet,
	websocket.ProviderSet,
)
