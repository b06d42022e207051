package repository

import (
	"context"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type OperationLogRepository struct {
	db *gorm.DB
}

func NewOperationLogRepository(db *gorm.DB) *OperationLogRepository {
	return &OperationLogRepository{db: db}
}

func (r *OperationLogRepository) Create(ctx context.Context, log *entity.OperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

type OperationLogListParams struct {
	OperatorID *int64
	Path       string
	Page       int
	PageSize   int
}

func (r *OperationLogRepository) List(ctx context.Context, params OperationLogListParams) ([]entity.OperationLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.OperationLog{})

	if params.OperatorID != nil {
		query = query.Where("operator_id = ?", *params.OperatorID)
	}
	if params.Path != "" {
		query = query.Where("path LIKE ?", "%"+params.Path+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []entity.OperationLog
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&logs).Error
	return logs, total, err
}

// DeleteBefore 清理指定时间之前的日志
func (r *OperationLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&entity.OperationLog{})
	return result.RowsAffected, result.Error
}
