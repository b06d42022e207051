package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// WithdrawalHandler 提现处理器
type WithdrawalHandler struct {
	svc *service.WithdrawalService
}

func NewWithdrawalHandler(svc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

// Create 发起提现
// POST /api/v1/withdrawals
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req service.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	withdrawal, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, withdrawal)
}

// Review 管理员审核提现
// POST /api/v1/withdrawals/:id/review
func (h *WithdrawalHandler) Review(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Approved bool   `json:"approved"`
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	withdrawal, err := h.svc.Review(c.Request.Context(), GetActor(c), id, req.Approved, req.Note)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, withdrawal)
}

// Complete 标记打款完成
// POST /api/v1/withdrawals/:id/complete
func (h *WithdrawalHandler) Complete(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	withdrawal, err := h.svc.Complete(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, withdrawal)
}

// Get 查询提现单
// GET /api/v1/withdrawals/:id
func (h *WithdrawalHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	withdrawal, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, withdrawal)
}

// List 提现单列表
// GET /api/v1/withdrawals
func (h *WithdrawalHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.WithdrawalListParams{
		UserID:   QueryInt64(c, "user_id"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	actor := GetActor(c)
	if actor.Role != entity.RoleAdmin {
		params.UserID = &actor.ID
	}
	withdrawals, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取提现列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: withdrawals, Pagination: NewPagination(page, pageSize, total)})
}
