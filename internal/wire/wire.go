//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/tasklight/backend/internal/application"
	appInstance "github.com/tasklight/backend/internal/application/instance"
	"github.com/tasklight/backend/internal/infrastructure"
	infraInstance "github.com/tasklight/backend/internal/infrastructure/instance"
	"github.com/tasklight/backend/internal/interfaces"
)

// InitializeApp 初始化所有服务
func InitializeApp() (*App, error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		// 接口绑定：application 依赖抽象 -> infrastructure 实现
		wire.Bind(
			new(appInstance.LockStore),
			new(*infraInstance.LockFileStore),
		),
		wire.Bind(
			new(appInstance.FocusSender),
			new(*infraInstance.FocusDialer),
		),
		NewApp, // 组合所有服务的应用结构
	)
	return nil, nil
}
