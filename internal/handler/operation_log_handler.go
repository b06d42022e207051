package handler

import (
	"time"

	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// OperationLogHandler 操作日志处理器 (管理端)
type OperationLogHandler struct {
	svc *service.OperationLogService
}

func NewOperationLogHandler(svc *service.OperationLogService) *OperationLogHandler {
	return &OperationLogHandler{svc: svc}
}

// List 操作日志列表
// GET /api/v1/operation-logs
func (h *OperationLogHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.OperationLogListParams{
		OperatorID: QueryInt64(c, "operator_id"),
		Path:       c.Query("path"),
		Page:       page,
		PageSize:   pageSize,
	}
	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取操作日志失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Cleanup 清理历史操作日志
// POST /api/v1/operation-logs/cleanup
func (h *OperationLogHandler) Cleanup(c *gin.Context) {
	var req struct {
		Days int `json:"days" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	cutoff := time.Now().AddDate(0, 0, -req.Days)
	deleted, err := h.svc.Cleanup(c.Request.Context(), cutoff)
	if err != nil {
		InternalError(c, "清理操作日志失败: "+err.Error())
		return
	}
	Success(c, gin.H{"deleted": deleted})
}
