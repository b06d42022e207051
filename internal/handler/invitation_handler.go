package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// InvitationHandler 邀请码处理器
type InvitationHandler struct {
	svc *service.InvitationService
}

func NewInvitationHandler(svc *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

// Create 生成邀请码
// POST /api/v1/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	var req service.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	inv, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, inv)
}

// Verify 校验邀请码, 注册前调用, 无需登录
// GET /api/v1/invitations/verify?code=xxx
func (h *InvitationHandler) Verify(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		BadRequest(c, "参数错误: code不能为空")
		return
	}
	inv, err := h.svc.Verify(c.Request.Context(), code)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, inv)
}

// Disable 停用邀请码
// POST /api/v1/invitations/:id/disable
func (h *InvitationHandler) Disable(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Disable(c.Request.Context(), GetActor(c), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "disabled"})
}

// ListByServiceProvider 按服务商查询邀请码
// GET /api/v1/service-providers/:id/invitations
func (h *InvitationHandler) ListByServiceProvider(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListByServiceProvider(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
