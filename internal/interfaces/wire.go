package interfaces

import (
	"github.com/google/wire"

	"github.com/tasklight/backend/internal/interfaces/focus"
	"github.com/tasklight/backend/internal/interfaces/http"
)

// ProviderSet Interfaces 层总 ProviderSet
var ProviderSet = wire.NewSet(
	http.ProviderSet,
	focus.ProviderSet,
)
