package handler

import (
	"github.com/gin-gonic/gin"

	appInstance "github.com/tasklight/backend/internal/application/instance"
	"github.com/tasklight/backend/internal/interfaces/http/response"
)

// InstanceHandler 进程实例 API 处理器
type InstanceHandler struct {
	manager *appInstance.Manager
}

// NewInstanceHandler 创建进程实例处理器
func NewInstanceHandler(manager *appInstance.Manager) *InstanceHandler {
	return &InstanceHandler{manager: manager}
}

// GetStatus 读取进程锁状态
// 锁文件不存在或损坏时返回 data=null
func (h *InstanceHandler) GetStatus(c *gin.Context) {
	status := h.manager.GetCurrentInstance()
	if status == nil {
		response.Success(c, nil)
		return
	}
	response.Success(c, status)
}
