package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// PaymentHandler 支付处理器
type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Create 发起支付
// POST /api/v1/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	result, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, result)
}

// Callback 支付网关异步回调, 无需登录
// POST /api/v1/payments/callback
func (h *PaymentHandler) Callback(c *gin.Context) {
	var params map[string]string
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(400, gin.H{"code": "FAIL", "message": "invalid payload"})
		return
	}
	if err := h.svc.HandleCallback(c.Request.Context(), params); err != nil {
		// 网关按非200重试
		c.JSON(500, gin.H{"code": "FAIL", "message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": "SUCCESS", "message": "成功"})
}

// Get 查询支付单
// GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	payment, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, payment)
}

// List 支付单列表
// GET /api/v1/payments
func (h *PaymentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.PaymentListParams{
		UserID:    QueryInt64(c, "user_id"),
		OrderType: c.Query("order_type"),
		OrderID:   QueryInt64(c, "order_id"),
		Status:    c.Query("status"),
		Page:      page,
		PageSize:  pageSize,
	}
	actor := GetActor(c)
	if actor.Role == entity.RoleUser {
		params.UserID = &actor.ID
	}
	payments, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取支付列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: payments, Pagination: NewPagination(page, pageSize, total)})
}
