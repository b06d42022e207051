package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
)

// 父节点类型 -> 允许的子节点类型
var allowedChildType = map[string]string{
	entity.ProviderTypeFranchise: entity.ProviderTypeChannel,
	entity.ProviderTypeChannel:   entity.ProviderTypeServiceProvider,
}

// ServiceProviderService 服务商树服务
type ServiceProviderService struct {
	repo  *repository.ServiceProviderRepository
	cache *CacheService
}

func NewServiceProviderService(repo *repository.ServiceProviderRepository, cache *CacheService) *ServiceProviderService {
	return &ServiceProviderService{repo: repo, cache: cache}
}

// CreateNodeRequest 创建节点请求
type CreateNodeRequest struct {
	Name          string `json:"name" binding:"required"`
	Abbreviation  string `json:"abbreviation"`
	Type          string `json:"type" binding:"required"`
	Region        string `json:"region"`
	ParentID      *int64 `json:"parent_id"`
	ContactPerson string `json:"contact_person"`
	ContactPhone  string `json:"contact_phone"`
}

// UpdateNodeRequest 更新节点请求, 不允许变更父节点
type UpdateNodeRequest struct {
	Name          *string `json:"name"`
	Abbreviation  *string `json:"abbreviation"`
	Region        *string `json:"region"`
	ContactPerson *string `json:"contact_person"`
	ContactPhone  *string `json:"contact_phone"`
	Status        *string `json:"status"`
	ParentID      *int64  `json:"parent_id"`
}

// CreateNode 创建服务商节点, level/path/root_id 由父节点推导
func (s *ServiceProviderService) CreateNode(ctx context.Context, req *CreateNodeRequest) (*entity.ServiceProvider, error) {
	switch req.Type {
	case entity.ProviderTypeFranchise, entity.ProviderTypeChannel, entity.ProviderTypeServiceProvider:
	default:
		return nil, fmt.Errorf("%w: unknown provider type %q", ErrValidation, req.Type)
	}

	node := &entity.ServiceProvider{
		Name:          req.Name,
		Abbreviation:  req.Abbreviation,
		Type:          req.Type,
		Region:        req.Region,
		ContactPerson: req.ContactPerson,
		ContactPhone:  req.ContactPhone,
		Status:        entity.ProviderStatusActive,
	}

	if req.ParentID == nil {
		if req.Type != entity.ProviderTypeFranchise {
			return nil, fmt.Errorf("%w: %s requires a parent node", ErrValidation, req.Type)
		}
	} else {
		parent, err := s.repo.FindByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		want, ok := allowedChildType[parent.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %s node can not have children", ErrValidation, parent.Type)
		}
		if req.Type != want {
			return nil, fmt.Errorf("%w: child of %s must be %s, got %s", ErrValidation, parent.Type, want, req.Type)
		}

		node.ParentID = &parent.ID
		node.Level = parent.Level + 1
		node.Path = appendPath(parent.Path, parent.ID)
		if parent.RootID != nil {
			node.RootID = parent.RootID
		} else {
			rootID := parent.ID
			node.RootID = &rootID
		}
	}

	if err := s.repo.Create(ctx, node); err != nil {
		return nil, fmt.Errorf("创建服务商节点失败: %w", err)
	}

	if node.ParentID != nil {
		s.cache.InvalidateDescendantsOf(ctx, *node.ParentID)
	}
	return node, nil
}

// UpdateNode 更新可变属性, 尝试改父节点直接报错
func (s *ServiceProviderService) UpdateNode(ctx context.Context, id int64, req *UpdateNodeRequest) (*entity.ServiceProvider, error) {
	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if node.ParentID == nil || *req.ParentID != *node.ParentID {
			return nil, fmt.Errorf("%w: re-parenting not supported", ErrValidation)
		}
	}

	if req.Name != nil {
		node.Name = *req.Name
	}
	if req.Abbreviation != nil {
		node.Abbreviation = *req.Abbreviation
	}
	if req.Region != nil {
		node.Region = *req.Region
	}
	if req.ContactPerson != nil {
		node.ContactPerson = *req.ContactPerson
	}
	if req.ContactPhone != nil {
		node.ContactPhone = *req.ContactPhone
	}
	if req.Status != nil {
		if *req.Status != entity.ProviderStatusActive && *req.Status != entity.ProviderStatusSuspended {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		node.Status = *req.Status
	}

	if err := s.repo.Update(ctx, node); err != nil {
		return nil, fmt.Errorf("更新服务商节点失败: %w", err)
	}

	if node.ParentID != nil {
		s.cache.InvalidateDescendantsOf(ctx, *node.ParentID)
	}
	return node, nil
}

// DeleteNode 软删除节点并清除其全部缓存。
// 不级联处理子节点, 历史引用保留。
func (s *ServiceProviderService) DeleteNode(ctx context.Context, id int64) error {
	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("删除服务商节点失败: %w", err)
	}
	s.cache.InvalidateNode(ctx, id)
	if node.ParentID != nil {
		s.cache.InvalidateDescendantsOf(ctx, *node.ParentID)
	}
	return nil
}

func (s *ServiceProviderService) Get(ctx context.Context, id int64) (*entity.ServiceProvider, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ServiceProviderService) List(ctx context.Context, params repository.ServiceProviderListParams) ([]entity.ServiceProvider, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}

// GetDescendants 后代闭包, 不含自身, 按 (level, id) 升序。读穿缓存。
func (s *ServiceProviderService) GetDescendants(ctx context.Context, id int64) ([]entity.ServiceProvider, error) {
	var cached []entity.ServiceProvider
	if s.cache.Get(ctx, id, CacheKindDescendants, &cached) {
		return cached, nil
	}

	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	descendants, err := s.repo.ListDescendants(ctx, appendPath(node.Path, node.ID))
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, id, CacheKindDescendants, descendants)
	return descendants, nil
}

// GetAncestors 祖先闭包, 不含自身, 按 level 降序（直接父节点在前）。读穿缓存。
func (s *ServiceProviderService) GetAncestors(ctx context.Context, id int64) ([]entity.ServiceProvider, error) {
	var cached []entity.ServiceProvider
	if s.cache.Get(ctx, id, CacheKindAncestors, &cached) {
		return cached, nil
	}

	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ancestors, err := s.loadByIDsSorted(ctx, parsePath(node.Path), false)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, id, CacheKindAncestors, ancestors)
	return ancestors, nil
}

// GetFullPath 根到自身的完整链路, 按 level 升序。读穿缓存。
func (s *ServiceProviderService) GetFullPath(ctx context.Context, id int64) ([]entity.ServiceProvider, error) {
	var cached []entity.ServiceProvider
	if s.cache.Get(ctx, id, CacheKindPath, &cached) {
		return cached, nil
	}

	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := append(parsePath(node.Path), node.ID)
	chain, err := s.loadByIDsSorted(ctx, ids, true)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, id, CacheKindPath, chain)
	return chain, nil
}

// CountDescendantsByType 后代按类型分组计数。读穿缓存。
func (s *ServiceProviderService) CountDescendantsByType(ctx context.Context, id int64) (map[string]int64, error) {
	var cached map[string]int64
	if s.cache.Get(ctx, id, CacheKindStats, &cached) {
		return cached, nil
	}

	descendants, err := s.GetDescendants(ctx, id)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64)
	for _, d := range descendants {
		stats[d.Type]++
	}

	s.cache.Set(ctx, id, CacheKindStats, stats)
	return stats, nil
}

// loadByIDsSorted 批量加载并按 level 排序, asc=false 时降序
func (s *ServiceProviderService) loadByIDsSorted(ctx context.Context, ids []int64, asc bool) ([]entity.ServiceProvider, error) {
	if len(ids) == 0 {
		return []entity.ServiceProvider{}, nil
	}
	nodes, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(nodes, func(i, j int) bool {
		if asc {
			return nodes[i].Level < nodes[j].Level
		}
		return nodes[i].Level > nodes[j].Level
	})
	return nodes, nil
}

// appendPath 拼接物化路径, 根节点 path 为空串
func appendPath(parentPath string, parentID int64) string {
	if parentPath == "" {
		return strconv.FormatInt(parentID, 10)
	}
	return parentPath + "/" + strconv.FormatInt(parentID, 10)
}

// parsePath 解析物化路径为祖先 id 列表, 根到父的顺序
func parsePath(path string) []int64 {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
