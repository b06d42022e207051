package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// BankHandler 银行处理器
type BankHandler struct {
	svc *service.BankService
}

func NewBankHandler(svc *service.BankService) *BankHandler {
	return &BankHandler{svc: svc}
}

// Create 创建银行
// POST /api/v1/banks
func (h *BankHandler) Create(c *gin.Context) {
	var req service.CreateBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	bank, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, bank)
}

// Update 更新银行
// PUT /api/v1/banks/:id
func (h *BankHandler) Update(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	bank, err := h.svc.Update(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, bank)
}

// Get 查询银行
// GET /api/v1/banks/:id
func (h *BankHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	bank, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, bank)
}

// Delete 删除银行
// DELETE /api/v1/banks/:id
func (h *BankHandler) Delete(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// List 银行列表
// GET /api/v1/banks
func (h *BankHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.BankListParams{
		Province: c.Query("province"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		params.IsActive = &active
	}
	banks, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取银行列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: banks, Pagination: NewPagination(page, pageSize, total)})
}

// CreateBranch 创建支行
// POST /api/v1/banks/:id/branches
func (h *BankHandler) CreateBranch(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var branch entity.BankBranch
	if err := c.ShouldBindJSON(&branch); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.svc.CreateBranch(c.Request.Context(), GetActor(c), id, &branch)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, created)
}

// ListBranches 支行列表
// GET /api/v1/banks/:id/branches
func (h *BankHandler) ListBranches(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	branches, err := h.svc.ListBranches(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": branches})
}
