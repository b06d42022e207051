package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// FeedbackHandler 反馈处理器
type FeedbackHandler struct {
	svc *service.FeedbackService
}

func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// Create 提交反馈
// POST /api/v1/feedbacks
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req service.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	fb, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, fb)
}

// Reply 管理员回复反馈
// POST /api/v1/feedbacks/:id/reply
func (h *FeedbackHandler) Reply(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reply string `json:"reply" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	fb, err := h.svc.Reply(c.Request.Context(), GetActor(c), id, req.Reply)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, fb)
}

// Close 关闭反馈
// POST /api/v1/feedbacks/:id/close
func (h *FeedbackHandler) Close(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Close(c.Request.Context(), GetActor(c), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "closed"})
}

// Get 查询反馈
// GET /api/v1/feedbacks/:id
func (h *FeedbackHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	fb, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, fb)
}

// List 反馈列表
// GET /api/v1/feedbacks
func (h *FeedbackHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.FeedbackListParams{
		UserID:   QueryInt64(c, "user_id"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	actor := GetActor(c)
	if actor.Role != entity.RoleAdmin {
		params.UserID = &actor.ID
	}
	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取反馈列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}
