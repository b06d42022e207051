package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type ServiceProviderRepository struct {
	db *gorm.DB
}

func NewServiceProviderRepository(db *gorm.DB) *ServiceProviderRepository {
	return &ServiceProviderRepository{db: db}
}

func (r *ServiceProviderRepository) DB() *gorm.DB {
	return r.db
}

func (r *ServiceProviderRepository) Create(ctx context.Context, sp *entity.ServiceProvider) error {
	return r.db.WithContext(ctx).Create(sp).Error
}

func (r *ServiceProviderRepository) FindByID(ctx context.Context, id int64) (*entity.ServiceProvider, error) {
	var sp entity.ServiceProvider
	err := r.db.WithContext(ctx).First(&sp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sp, nil
}

// FindByIDs 批量查询, 结果不保证顺序
func (r *ServiceProviderRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.ServiceProvider, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sps []entity.ServiceProvider
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&sps).Error
	return sps, err
}

func (r *ServiceProviderRepository) Update(ctx context.Context, sp *entity.ServiceProvider) error {
	return r.db.WithContext(ctx).Save(sp).Error
}

func (r *ServiceProviderRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.ServiceProvider{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *ServiceProviderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&entity.ServiceProvider{}, "id = ?", id).Error
}

// ListChildren 直接子节点
func (r *ServiceProviderRepository) ListChildren(ctx context.Context, parentID int64) ([]entity.ServiceProvider, error) {
	var sps []entity.ServiceProvider
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("id ASC").
		Find(&sps).Error
	return sps, err
}

func (r *ServiceProviderRepository) CountChildren(ctx context.Context, parentID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ServiceProvider{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error
	return count, err
}

// ListDescendants 物化路径前缀匹配查全部后代, 不含自身。
// selfPath 是目标节点自身的完整路径（path + id）, 直接子节点的 path 恰好等于它。
func (r *ServiceProviderRepository) ListDescendants(ctx context.Context, selfPath string) ([]entity.ServiceProvider, error) {
	var sps []entity.ServiceProvider
	err := r.db.WithContext(ctx).
		Where("path = ? OR path LIKE ?", selfPath, selfPath+"/%").
		Order("level ASC, id ASC").
		Find(&sps).Error
	return sps, err
}

func (r *ServiceProviderRepository) ListRoots(ctx context.Context) ([]entity.ServiceProvider, error) {
	var sps []entity.ServiceProvider
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("id ASC").
		Find(&sps).Error
	return sps, err
}

type ServiceProviderListParams struct {
	Type     string
	Status   string
	Keyword  string
	ParentID *int64
	RootID   *int64
	Page     int
	PageSize int
}

func (r *ServiceProviderRepository) List(ctx context.Context, params ServiceProviderListParams) ([]entity.ServiceProvider, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ServiceProvider{})

	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR contact_person LIKE ?", kw, kw)
	}
	if params.ParentID != nil {
		query = query.Where("parent_id = ?", *params.ParentID)
	}
	if params.RootID != nil {
		query = query.Where("root_id = ?", *params.RootID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sps []entity.ServiceProvider
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&sps).Error
	return sps, total, err
}
