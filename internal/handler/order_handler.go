package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器, 覆盖对接单和委托单两段流程
type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// ============================================================
// 对接订单
// ============================================================

// CreateConnection 创建对接订单
// POST /api/v1/connection-orders
func (h *OrderHandler) CreateConnection(c *gin.Context) {
	var req service.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.CreateConnection(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, order)
}

// AssignAccountManager 管理员分配管户人
// POST /api/v1/connection-orders/:id/assign
func (h *OrderHandler) AssignAccountManager(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AccountManagerID int64 `json:"account_manager_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.AssignAccountManager(c.Request.Context(), GetActor(c), id, req.AccountManagerID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// UploadReport 上传尽调报告
// POST /api/v1/connection-orders/:id/report
func (h *OrderHandler) UploadReport(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ReportURL     string `json:"report_url" binding:"required"`
		InterviewerID *int64 `json:"interviewer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.UploadReport(c.Request.Context(), GetActor(c), id, req.ReportURL, req.InterviewerID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// SetPriceAndAssignBanks 定价并派单给银行
// POST /api/v1/connection-orders/:id/pricing
func (h *OrderHandler) SetPriceAndAssignBanks(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Price   float64 `json:"price" binding:"required"`
		BankIDs []int64 `json:"bank_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.SetPriceAndAssignBanks(c.Request.Context(), GetActor(c), id, req.Price, req.BankIDs)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// BankConfirmPurchase 银行确认认购
// POST /api/v1/connection-orders/:id/purchase
func (h *OrderHandler) BankConfirmPurchase(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.BankConfirmPurchase(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// ConfirmMeeting 确认线下见面
// POST /api/v1/connection-orders/:id/meeting
func (h *OrderHandler) ConfirmMeeting(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.ConfirmMeeting(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// SelectBank 用户选定银行, 订单落定并生成分佣
// POST /api/v1/connection-orders/:id/select-bank
func (h *OrderHandler) SelectBank(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		BankID int64 `json:"bank_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.SelectBank(c.Request.Context(), GetActor(c), id, req.BankID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// CancelConnection 取消对接订单
// POST /api/v1/connection-orders/:id/cancel
func (h *OrderHandler) CancelConnection(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.CancelConnection(c.Request.Context(), GetActor(c), id, req.Reason)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// FailConnection 标记对接失败
// POST /api/v1/connection-orders/:id/fail
func (h *OrderHandler) FailConnection(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.FailConnection(c.Request.Context(), GetActor(c), id, req.Reason)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// GetConnection 查询对接订单
// GET /api/v1/connection-orders/:id
func (h *OrderHandler) GetConnection(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.GetConnection(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// ListConnections 对接订单列表
// GET /api/v1/connection-orders
func (h *OrderHandler) ListConnections(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.ConnectionListParams{
		Status:           c.Query("status"),
		UserID:           QueryInt64(c, "user_id"),
		DeveloperID:      QueryInt64(c, "developer_id"),
		AccountManagerID: QueryInt64(c, "account_manager_id"),
		InterviewerID:    QueryInt64(c, "interviewer_id"),
		AssignedBankID:   QueryInt64(c, "assigned_bank_id"),
		Keyword:          c.Query("keyword"),
		Page:             page,
		PageSize:         pageSize,
	}
	// 普通用户只能看自己的订单
	actor := GetActor(c)
	if actor.Role == entity.RoleUser {
		params.UserID = &actor.ID
	}
	orders, total, err := h.svc.ListConnections(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取订单列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: orders, Pagination: NewPagination(page, pageSize, total)})
}

// ListConnectionLogs 对接订单状态流转日志
// GET /api/v1/connection-orders/:id/logs
func (h *OrderHandler) ListConnectionLogs(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	logs, err := h.svc.ListConnectionLogs(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": logs})
}

// ============================================================
// 委托订单
// ============================================================

// CreateEntrustment 基于已落定对接订单创建委托订单
// POST /api/v1/entrustment-orders
func (h *OrderHandler) CreateEntrustment(c *gin.Context) {
	var req struct {
		ConnectionOrderID int64 `json:"connection_order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.CreateEntrustment(c.Request.Context(), GetActor(c), req.ConnectionOrderID)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, order)
}

// UploadAgreement 上传委托协议
// POST /api/v1/entrustment-orders/:id/agreement
func (h *OrderHandler) UploadAgreement(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AgreementURL string `json:"agreement_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.UploadAgreement(c.Request.Context(), GetActor(c), id, req.AgreementURL)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// ReviewEntrustment 管理员审核委托订单
// POST /api/v1/entrustment-orders/:id/review
func (h *OrderHandler) ReviewEntrustment(c *gin.Context) {
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
	order, err := h.svc.ReviewEntrustment(c.Request.Context(), GetActor(c), id, req.Approved, req.Note)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// HandlerAccept 业务受理人接单
// POST /api/v1/entrustment-orders/:id/accept
func (h *OrderHandler) HandlerAccept(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.HandlerAccept(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// CompleteEntrustment 办结委托订单, 结算受理人分佣
// POST /api/v1/entrustment-orders/:id/complete
func (h *OrderHandler) CompleteEntrustment(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)
	order, err := h.svc.CompleteEntrustment(c.Request.Context(), GetActor(c), id, req.Note)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// FailEntrustment 标记委托失败
// POST /api/v1/entrustment-orders/:id/fail
func (h *OrderHandler) FailEntrustment(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.FailEntrustment(c.Request.Context(), GetActor(c), id, req.Reason)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// CancelEntrustment 取消委托订单
// POST /api/v1/entrustment-orders/:id/cancel
func (h *OrderHandler) CancelEntrustment(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.CancelEntrustment(c.Request.Context(), GetActor(c), id, req.Reason)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// GetEntrustment 查询委托订单
// GET /api/v1/entrustment-orders/:id
func (h *OrderHandler) GetEntrustment(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.GetEntrustment(c.Request.Context(), GetActor(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// ListEntrustments 委托订单列表
// GET /api/v1/entrustment-orders
func (h *OrderHandler) ListEntrustments(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.EntrustmentListParams{
		Status:            c.Query("status"),
		UserID:            QueryInt64(c, "user_id"),
		HandlerID:         QueryInt64(c, "handler_id"),
		ConnectionOrderID: QueryInt64(c, "connection_order_id"),
		Keyword:           c.Query("keyword"),
		Page:              page,
		PageSize:          pageSize,
	}
	actor := GetActor(c)
	if actor.Role == entity.RoleUser {
		params.UserID = &actor.ID
	}
	orders, total, err := h.svc.ListEntrustments(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取订单列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: orders, Pagination: NewPagination(page, pageSize, total)})
}

// ListEntrustmentLogs 委托订单状态流转日志
// GET /api/v1/entrustment-orders/:id/logs
func (h *OrderHandler) ListEntrustmentLogs(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	logs, err := h.svc.ListEntrustmentLogs(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": logs})
}
