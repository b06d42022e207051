package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// CommissionHandler 分佣处理器
type CommissionHandler struct {
	svc *service.CommissionService
}

func NewCommissionHandler(svc *service.CommissionService) *CommissionHandler {
	return &CommissionHandler{svc: svc}
}

// CreateRule 创建分佣规则
// POST /api/v1/commission-rules
func (h *CommissionHandler) CreateRule(c *gin.Context) {
	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	rule, err := h.svc.CreateRule(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, rule)
}

// UpdateRule 更新分佣规则
// PUT /api/v1/commission-rules/:id
func (h *CommissionHandler) UpdateRule(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	rule, err := h.svc.UpdateRule(c.Request.Context(), id, &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rule)
}

// GetRule 查询分佣规则
// GET /api/v1/commission-rules/:id
func (h *CommissionHandler) GetRule(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	rule, err := h.svc.GetRule(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rule)
}

// DeleteRule 删除分佣规则
// DELETE /api/v1/commission-rules/:id
func (h *CommissionHandler) DeleteRule(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteRule(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// ListRules 分佣规则列表
// GET /api/v1/commission-rules
func (h *CommissionHandler) ListRules(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.RuleListParams{
		Page:     page,
		PageSize: pageSize,
	}
	if v, exists := c.GetQuery("province"); exists {
		params.Province = &v
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		params.IsActive = &active
	}
	rules, total, err := h.svc.ListRules(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取分佣规则列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: rules, Pagination: NewPagination(page, pageSize, total)})
}

// MarkPaid 标记分佣记录已发放
// POST /api/v1/commission-records/:id/pay
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	record, err := h.svc.MarkPaid(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, record)
}

// ListRecords 分佣记录列表
// GET /api/v1/commission-records
func (h *CommissionHandler) ListRecords(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := recordListParams(c, page, pageSize)
	records, total, err := h.svc.ListRecords(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取分佣记录失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: records, Pagination: NewPagination(page, pageSize, total)})
}

// ListRecordsByOrder 按订单查询分佣记录
// GET /api/v1/commission-records/by-order
func (h *CommissionHandler) ListRecordsByOrder(c *gin.Context) {
	orderType := c.Query("order_type")
	orderID := QueryInt64(c, "order_id")
	if orderType == "" || orderID == nil {
		BadRequest(c, "参数错误: order_type和order_id不能为空")
		return
	}
	records, err := h.svc.ListRecordsByOrder(c.Request.Context(), orderType, *orderID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": records})
}

// Summary 当前用户分佣汇总
// GET /api/v1/commission-records/summary
func (h *CommissionHandler) Summary(c *gin.Context) {
	recipientID := GetUserID(c)
	// 管理员可查任意收款人
	if GetActor(c).Role == entity.RoleAdmin {
		if v := QueryInt64(c, "recipient_id"); v != nil {
			recipientID = *v
		}
	}
	summary, err := h.svc.SummaryByRecipient(c.Request.Context(), recipientID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, summary)
}

// ExportRecords 分佣记录导出Excel
// GET /api/v1/commission-records/export
func (h *CommissionHandler) ExportRecords(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := recordListParams(c, page, pageSize)
	buf, err := h.svc.ExportRecords(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "导出分佣记录失败: "+err.Error())
		return
	}
	fileName := fmt.Sprintf("commission_records_%s.xlsx", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func recordListParams(c *gin.Context, page, pageSize int) repository.RecordListParams {
	params := repository.RecordListParams{
		RecipientID:    QueryInt64(c, "recipient_id"),
		OrderType:      c.Query("order_type"),
		OrderID:        QueryInt64(c, "order_id"),
		CommissionType: c.Query("commission_type"),
		Status:         c.Query("status"),
		Page:           page,
		PageSize:       pageSize,
	}
	// 非管理员只能看自己名下的分佣
	actor := GetActor(c)
	if actor.Role != entity.RoleAdmin {
		params.RecipientID = &actor.ID
	}
	return params
}
