package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *entity.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvitationRepository) FindByID(ctx context.Context, id int64) (*entity.Invitation, error) {
	var inv entity.Invitation
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepository) FindByCode(ctx context.Context, code string) (*entity.Invitation, error) {
	var inv entity.Invitation
	err := r.db.WithContext(ctx).
		Preload("ServiceProvider").
		First(&inv, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// IncrementUsedCount 原子自增使用次数
func (r *InvitationRepository) IncrementUsedCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&entity.Invitation{}).
		Where("id = ?", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}

func (r *InvitationRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Invitation{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *InvitationRepository) ListByServiceProvider(ctx context.Context, serviceProviderID int64) ([]entity.Invitation, error) {
	var invs []entity.Invitation
	err := r.db.WithContext(ctx).
		Where("service_provider_id = ?", serviceProviderID).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}
