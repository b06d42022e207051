package handler

import (
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// ServiceProviderHandler 服务商树处理器
type ServiceProviderHandler struct {
	svc *service.ServiceProviderService
}

func NewServiceProviderHandler(svc *service.ServiceProviderService) *ServiceProviderHandler {
	return &ServiceProviderHandler{svc: svc}
}

// Create 创建节点
// POST /api/v1/service-providers
func (h *ServiceProviderHandler) Create(c *gin.Context) {
	var req service.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	node, err := h.svc.CreateNode(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, node)
}

// Get 查询节点
// GET /api/v1/service-providers/:id
func (h *ServiceProviderHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	node, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, node)
}

// Update 更新节点, 父节点不可变更
// PUT /api/v1/service-providers/:id
func (h *ServiceProviderHandler) Update(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	node, err := h.svc.UpdateNode(c.Request.Context(), id, &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, node)
}

// Delete 删除节点
// DELETE /api/v1/service-providers/:id
func (h *ServiceProviderHandler) Delete(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteNode(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// List 节点列表
// GET /api/v1/service-providers
func (h *ServiceProviderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.ServiceProviderListParams{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		ParentID: QueryInt64(c, "parent_id"),
		RootID:   QueryInt64(c, "root_id"),
		Page:     page,
		PageSize: pageSize,
	}
	nodes, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取服务商列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: nodes, Pagination: NewPagination(page, pageSize, total)})
}

// Descendants 子树查询, 不含自身
// GET /api/v1/service-providers/:id/descendants
func (h *ServiceProviderHandler) Descendants(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	nodes, err := h.svc.GetDescendants(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": nodes})
}

// Ancestors 祖先链查询, 自下而上
// GET /api/v1/service-providers/:id/ancestors
func (h *ServiceProviderHandler) Ancestors(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	nodes, err := h.svc.GetAncestors(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": nodes})
}

// FullPath 根到节点的完整路径
// GET /api/v1/service-providers/:id/path
func (h *ServiceProviderHandler) FullPath(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	nodes, err := h.svc.GetFullPath(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": nodes})
}

// Stats 子树按类型统计
// GET /api/v1/service-providers/:id/stats
func (h *ServiceProviderHandler) Stats(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	stats, err := h.svc.CountDescendantsByType(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, stats)
}
