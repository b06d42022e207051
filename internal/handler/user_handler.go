package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List 用户列表 (管理端)
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.UserListParams{
		Role:              c.Query("role"),
		Keyword:           c.Query("keyword"),
		ServiceProviderID: QueryInt64(c, "service_provider_id"),
		BankID:            QueryInt64(c, "bank_id"),
		Page:              page,
		PageSize:          pageSize,
	}
	users, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取用户列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: users, Pagination: NewPagination(page, pageSize, total)})
}

// Get 查询用户
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}

// UpdateProfile 更新本人资料
// PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}

// ChangePassword 修改密码
// POST /api/v1/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), GetUserID(c), req.OldPassword, req.NewPassword); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "password changed"})
}

// SubmitVerification 提交实名认证材料
// POST /api/v1/users/me/verification
func (h *UserHandler) SubmitVerification(c *gin.Context) {
	var req struct {
		Data entity.JSONB `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.svc.SubmitVerification(c.Request.Context(), GetUserID(c), req.Data)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}

// ReviewVerification 管理员审核实名认证
// POST /api/v1/users/:id/verification/review
func (h *UserHandler) ReviewVerification(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Approved bool `json:"approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.svc.ReviewVerification(c.Request.Context(), GetActor(c), id, req.Approved)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}

// SetProviderPermissions 设置服务商人员细分权限
// PUT /api/v1/users/:id/provider-permissions
func (h *UserHandler) SetProviderPermissions(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Permissions []string `json:"permissions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.svc.SetProviderPermissions(c.Request.Context(), GetActor(c), id, req.Permissions)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}

// SwitchRole 管理员切换用户角色
// PUT /api/v1/users/:id/role
func (h *UserHandler) SwitchRole(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role              string `json:"role" binding:"required"`
		BankID            *int64 `json:"bank_id"`
		ServiceProviderID *int64 `json:"service_provider_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.svc.SwitchRole(c.Request.Context(), GetActor(c), id, req.Role, req.BankID, req.ServiceProviderID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}
