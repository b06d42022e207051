package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/google/uuid"
)

// InvitationService 服务商邀请码服务
type InvitationService struct {
	repo   *repository.InvitationRepository
	spRepo *repository.ServiceProviderRepository
}

func NewInvitationService(repo *repository.InvitationRepository, spRepo *repository.ServiceProviderRepository) *InvitationService {
	return &InvitationService{repo: repo, spRepo: spRepo}
}

// CreateInvitationRequest 创建邀请码请求
type CreateInvitationRequest struct {
	ServiceProviderID int64      `json:"service_provider_id" binding:"required"`
	MaxUses           int        `json:"max_uses"`
	ExpiresAt         *time.Time `json:"expires_at"`
}

// Create 生成邀请码, 仅管理员或本服务商成员可生成
func (s *InvitationService) Create(ctx context.Context, actor Actor, req *CreateInvitationRequest) (*entity.Invitation, error) {
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleProvider {
		return nil, fmt.Errorf("%w: role %s can not create invitations", ErrForbidden, actor.Role)
	}
	if _, err := s.spRepo.FindByID(ctx, req.ServiceProviderID); err != nil {
		return nil, err
	}

	inv := &entity.Invitation{
		Code:              strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		ServiceProviderID: req.ServiceProviderID,
		CreatedByID:       actor.ID,
		Status:            entity.InvitationActive,
		MaxUses:           req.MaxUses,
		ExpiresAt:         req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("创建邀请码失败: %w", err)
	}
	return inv, nil
}

// Verify 校验邀请码是否可用, 返回其绑定的服务商节点
func (s *InvitationService) Verify(ctx context.Context, code string) (*entity.Invitation, error) {
	inv, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !inv.Usable(time.Now()) {
		return nil, fmt.Errorf("%w: invitation code not usable", ErrValidation)
	}
	return inv, nil
}

// Disable 停用邀请码
func (s *InvitationService) Disable(ctx context.Context, actor Actor, id int64) error {
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleProvider {
		return fmt.Errorf("%w: role %s can not disable invitations", ErrForbidden, actor.Role)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"status": entity.InvitationDisabled,
	})
}

func (s *InvitationService) ListByServiceProvider(ctx context.Context, serviceProviderID int64) ([]entity.Invitation, error) {
	return s.repo.ListByServiceProvider(ctx, serviceProviderID)
}
