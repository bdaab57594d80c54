// Package handler 提供 HTTP API 处理器
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tasklight/backend/internal/domain/coordination"
	"github.com/tasklight/backend/internal/interfaces/http/response"
)

// CoordinationHandler 协调状态 API 处理器
// 为没有本地共享存储的标签页运行时代理 ActiveInstanceRecord 的读写
type CoordinationHandler struct {
	store coordination.SharedStateStore
}

// NewCoordinationHandler 创建协调状态处理器
func NewCoordinationHandler(store coordination.SharedStateStore) *CoordinationHandler {
	return &CoordinationHandler{store: store}
}

// RecordRequest 记录写入请求
type RecordRequest struct {
	ActiveInstanceID string `json:"activeInstanceId" binding:"required"`
	LastHeartbeat    int64  `json:"lastHeartbeat" binding:"required"`
}

// GetRecord 读取活跃实例记录
// 记录不存在时返回 data=null
func (h *CoordinationHandler) GetRecord(c *gin.Context) {
	record, err := h.store.Get()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 500, err.Error())
		return
	}
	response.Success(c, record)
}

// PutRecord 写入活跃实例记录
func (h *CoordinationHandler) PutRecord(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 400, err.Error())
		return
	}

	err := h.store.Put(coordination.ActiveInstanceRecord{
		ActiveInstanceID: req.ActiveInstanceID,
		LastHeartbeat:    req.LastHeartbeat,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 500, err.Error())
		return
	}
	response.Success(c, nil)
}

// DeleteRecord 删除活跃实例记录
func (h *CoordinationHandler) DeleteRecord(c *gin.Context) {
	if err := h.store.Delete(); err != nil {
		response.Error(c, http.StatusInternalServerError, 500, err.Error())
		return
	}
	response.Success(c, nil)
}

// StatusResponse 协调状态响应
type StatusResponse struct {
	Record *coordination.ActiveInstanceRecord `json:"record"`
	// HeartbeatAgeMs 心跳年龄（毫秒），无记录时为 0
	HeartbeatAgeMs int64 `json:"heartbeat_age_ms"`
	// Stale 心跳是否已过期
	Stale bool `json:"stale"`
}

// GetStatus 读取协调状态（记录 + 心跳年龄），用于待机页面和诊断
func (h *CoordinationHandler) GetStatus(c *gin.Context) {
	record, err := h.store.Get()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 500, err.Error())
		return
	}

	resp := StatusResponse{Record: record}
	if record != nil {
		now := time.Now()
		resp.HeartbeatAgeMs = record.Age(now).Milliseconds()
		resp.Stale = record.IsStale(now)
	}
	response.Success(c, resp)
}
