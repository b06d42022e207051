package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}

// WithTx 返回绑定到事务的仓库副本
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// ========== ConnectionOrder ==========

func (r *OrderRepository) CreateConnection(ctx context.Context, order *entity.ConnectionOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) FindConnectionByID(ctx context.Context, id int64) (*entity.ConnectionOrder, error) {
	var order entity.ConnectionOrder
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("SelectedBank").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindConnectionByOrderNo(ctx context.Context, orderNo string) (*entity.ConnectionOrder, error) {
	var order entity.ConnectionOrder
	err := r.db.WithContext(ctx).First(&order, "order_no = ?", orderNo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

type ConnectionListParams struct {
	Status           string
	UserID           *int64
	DeveloperID      *int64
	AccountManagerID *int64
	InterviewerID    *int64
	AssignedBankID   *int64
	Keyword          string
	Page             int
	PageSize         int
}

func (r *OrderRepository) ListConnections(ctx context.Context, params ConnectionListParams) ([]entity.ConnectionOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ConnectionOrder{})

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.DeveloperID != nil {
		query = query.Where("developer_id = ?", *params.DeveloperID)
	}
	if params.AccountManagerID != nil {
		query = query.Where("account_manager_id = ?", *params.AccountManagerID)
	}
	if params.InterviewerID != nil {
		query = query.Where("interviewer_id = ?", *params.InterviewerID)
	}
	if params.AssignedBankID != nil {
		// jsonb 数组包含判断
		query = query.Where("assigned_banks @> ?", fmt.Sprintf("[%d]", *params.AssignedBankID))
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("order_no LIKE ?", kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []entity.ConnectionOrder
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&orders).Error
	return orders, total, err
}

// UpdateConnectionIfStatus 带状态前置条件的更新, 返回受影响行数用于并发冲突判断
func (r *OrderRepository) UpdateConnectionIfStatus(ctx context.Context, id int64, fromStatus string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.ConnectionOrder{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *OrderRepository) UpdateConnectionFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.ConnectionOrder{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ========== EntrustmentOrder ==========

func (r *OrderRepository) CreateEntrustment(ctx context.Context, order *entity.EntrustmentOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) FindEntrustmentByID(ctx context.Context, id int64) (*entity.EntrustmentOrder, error) {
	var order entity.EntrustmentOrder
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("ConnectionOrder").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

type EntrustmentListParams struct {
	Status            string
	UserID            *int64
	HandlerID         *int64
	ConnectionOrderID *int64
	Keyword           string
	Page              int
	PageSize          int
}

func (r *OrderRepository) ListEntrustments(ctx context.Context, params EntrustmentListParams) ([]entity.EntrustmentOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.EntrustmentOrder{})

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.HandlerID != nil {
		query = query.Where("handler_id = ?", *params.HandlerID)
	}
	if params.ConnectionOrderID != nil {
		query = query.Where("connection_order_id = ?", *params.ConnectionOrderID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("order_no LIKE ?", kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []entity.EntrustmentOrder
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&orders).Error
	return orders, total, err
}

// UpdateEntrustmentIfStatus 带状态前置条件的更新
func (r *OrderRepository) UpdateEntrustmentIfStatus(ctx context.Context, id int64, fromStatus string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.EntrustmentOrder{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// CountEntrustmentsByConnectionOrder 某对接单下的委托单数量
func (r *OrderRepository) CountEntrustmentsByConnectionOrder(ctx context.Context, connectionOrderID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.EntrustmentOrder{}).
		Where("connection_order_id = ?", connectionOrderID).
		Count(&count).Error
	return count, err
}

// ========== OrderLog ==========

func (r *OrderRepository) CreateLog(ctx context.Context, log *entity.OrderLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *OrderRepository) ListLogs(ctx context.Context, orderType string, orderID int64) ([]entity.OrderLog, error) {
	var logs []entity.OrderLog
	err := r.db.WithContext(ctx).
		Where("order_type = ? AND order_id = ?", orderType, orderID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
