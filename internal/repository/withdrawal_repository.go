package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *entity.Withdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WithdrawalRepository) FindByID(ctx context.Context, id int64) (*entity.Withdrawal, error) {
	var w entity.Withdrawal
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// UpdateIfStatus 带状态前置条件的更新
func (r *WithdrawalRepository) UpdateIfStatus(ctx context.Context, id int64, fromStatus string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Withdrawal{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// SumPendingByUser 用户处理中的提现总额, 用于可提余额校验
func (r *WithdrawalRepository) SumPendingByUser(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&entity.Withdrawal{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status IN ?", userID, []string{entity.WithdrawalPending, entity.WithdrawalApproved}).
		Scan(&total).Error
	return total, err
}

type WithdrawalListParams struct {
	UserID   *int64
	Status   string
	Page     int
	PageSize int
}

func (r *WithdrawalRepository) List(ctx context.Context, params WithdrawalListParams) ([]entity.Withdrawal, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Withdrawal{})

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

	var list []entity.Withdrawal
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&list).Error
	return list, total, err
}
