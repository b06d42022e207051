package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByPaymentNo(ctx context.Context, paymentNo string) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.db.WithContext(ctx).First(&payment, "payment_no = ?", paymentNo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// UpdateIfStatus 带状态前置条件的更新, 回调重入时返回 0 行
func (r *PaymentRepository) UpdateIfStatus(ctx context.Context, id int64, fromStatus string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Payment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	return result.RowsAffected, result.Error
}

type PaymentListParams struct {
	UserID    *int64
	OrderType string
	OrderID   *int64
	Status    string
	Page      int
	PageSize  int
}

func (r *PaymentRepository) List(ctx context.Context, params PaymentListParams) ([]entity.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Payment{})

	if params.UserID != nil {
		query = query.Where("payer_id = ?", *params.UserID)
	}
	if params.OrderType != "" {
		query = query.Where("order_type = ?", params.OrderType)
	}
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []entity.Payment
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&payments).Error
	return payments, total, err
}
