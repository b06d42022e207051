package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type BankRepository struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) Create(ctx context.Context, bank *entity.Bank) error {
	return r.db.WithContext(ctx).Create(bank).Error
}

func (r *BankRepository) FindByID(ctx context.Context, id int64) (*entity.Bank, error) {
	var bank entity.Bank
	err := r.db.WithContext(ctx).Preload("Branches").First(&bank, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bank, nil
}

func (r *BankRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.Bank, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var banks []entity.Bank
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&banks).Error
	return banks, err
}

func (r *BankRepository) Update(ctx context.Context, bank *entity.Bank) error {
	return r.db.WithContext(ctx).Save(bank).Error
}

func (r *BankRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Bank{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *BankRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&entity.Bank{}, "id = ?", id).Error
}

type BankListParams struct {
	Province string
	Keyword  string
	IsActive *bool
	Page     int
	PageSize int
}

func (r *BankRepository) List(ctx context.Context, params BankListParams) ([]entity.Bank, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Bank{})

	if params.Province != "" {
		query = query.Where("province = ?", params.Province)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", kw, kw)
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var banks []entity.Bank
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&banks).Error
	return banks, total, err
}

// ========== BankBranch ==========

func (r *BankRepository) CreateBranch(ctx context.Context, branch *entity.BankBranch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *BankRepository) ListBranches(ctx context.Context, bankID int64) ([]entity.BankBranch, error) {
	var branches []entity.BankBranch
	err := r.db.WithContext(ctx).
		Where("bank_id = ?", bankID).
		Order("id ASC").
		Find(&branches).Error
	return branches, err
}

func (r *BankRepository) DeleteBranch(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&entity.BankBranch{}, "id = ?", id).Error
}
