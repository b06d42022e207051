package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) DB() *gorm.DB {
	return r.db
}

func (r *CommissionRepository) WithTx(tx *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: tx}
}

// ========== CommissionRule ==========

func (r *CommissionRepository) CreateRule(ctx context.Context, rule *entity.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *CommissionRepository) FindRuleByID(ctx context.Context, id int64) (*entity.CommissionRule, error) {
	var rule entity.CommissionRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindActiveRuleByProvince 指定省份的最新生效规则, 没有时返回 ErrNotFound
func (r *CommissionRepository) FindActiveRuleByProvince(ctx context.Context, province string) (*entity.CommissionRule, error) {
	var rule entity.CommissionRule
	err := r.db.WithContext(ctx).
		Where("province = ? AND is_active = ?", province, true).
		Order("created_at DESC").
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *CommissionRepository) UpdateRuleFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.CommissionRule{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *CommissionRepository) DeleteRule(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&entity.CommissionRule{}, "id = ?", id).Error
}

type RuleListParams struct {
	Province *string
	IsActive *bool
	Page     int
	PageSize int
}

func (r *CommissionRepository) ListRules(ctx context.Context, params RuleListParams) ([]entity.CommissionRule, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.CommissionRule{})

	if params.Province != nil {
		query = query.Where("province = ?", *params.Province)
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rules []entity.CommissionRule
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&rules).Error
	return rules, total, err
}

// ========== CommissionRecord ==========

func (r *CommissionRepository) CreateRecords(ctx context.Context, records []entity.CommissionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *CommissionRepository) FindRecordByID(ctx context.Context, id int64) (*entity.CommissionRecord, error) {
	var record entity.CommissionRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *CommissionRepository) UpdateRecordFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.CommissionRecord{}).
		Where("id = ?", id).
		Updates(fields).Error
}

type RecordListParams struct {
	RecipientID    *int64
	OrderType      string
	OrderID        *int64
	CommissionType string
	Status         string
	Page           int
	PageSize       int
}

func (r *CommissionRepository) ListRecords(ctx context.Context, params RecordListParams) ([]entity.CommissionRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.CommissionRecord{})

	if params.RecipientID != nil {
		query = query.Where("recipient_id = ?", *params.RecipientID)
	}
	if params.OrderType != "" {
		query = query.Where("order_type = ?", params.OrderType)
	}
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}
	if params.CommissionType != "" {
		query = query.Where("commission_type = ?", params.CommissionType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []entity.CommissionRecord
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&records).Error
	return records, total, err
}

// ListRecordsByOrder 某订单的全部分润记录
func (r *CommissionRepository) ListRecordsByOrder(ctx context.Context, orderType string, orderID int64) ([]entity.CommissionRecord, error) {
	var records []entity.CommissionRecord
	err := r.db.WithContext(ctx).
		Where("order_type = ? AND order_id = ?", orderType, orderID).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// SumRecordsByRecipient 受益人分润汇总, 按状态分组
func (r *CommissionRepository) SumRecordsByRecipient(ctx context.Context, recipientID int64) (map[string]float64, error) {
	type row struct {
		Status string
		Total  float64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.CommissionRecord{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("recipient_id = ?", recipientID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]float64, len(rows))
	for _, r := range rows {
		sums[r.Status] = r.Total
	}
	return sums, nil
}
