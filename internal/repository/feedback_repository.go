package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *entity.Feedback) error {
	return r.db.WithContext(ctx).Create(fb).Error
}

func (r *FeedbackRepository) FindByID(ctx context.Context, id int64) (*entity.Feedback, error) {
	var fb entity.Feedback
	err := r.db.WithContext(ctx).Preload("User").First(&fb, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fb, nil
}

func (r *FeedbackRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Feedback{}).
		Where("id = ?", id).
		Updates(fields).Error
}

type FeedbackListParams struct {
	UserID   *int64
	Status   string
	Page     int
	PageSize int
}

func (r *FeedbackRepository) List(ctx context.Context, params FeedbackListParams) ([]entity.Feedback, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Feedback{})

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []entity.Feedback
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&list).Error
	return list, total, err
}
