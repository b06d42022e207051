package service

import (
	"context"
	"fmt"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService 用户服务
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, params repository.UserListParams) ([]entity.User, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, req *UpdateProfileRequest) (*entity.User, error) {
	fields := map[string]interface{}{}
	if req.Nickname != nil {
		fields["nickname"] = *req.Nickname
	}
	if req.Avatar != nil {
		fields["avatar"] = *req.Avatar
	}
	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("更新用户资料失败: %w", err)
		}
	}
	return s.repo.FindByID(ctx, id)
}

// ChangePassword 修改密码, 校验旧密码
func (s *UserService) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password too short", ErrValidation)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: incorrect old password", ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdateFields(ctx, id, map[string]interface{}{"password_hash": string(hash)})
}

// SubmitVerification 提交实名认证信息, 管理员审核后生效
func (s *UserService) SubmitVerification(ctx context.Context, id int64, data entity.JSONB) (*entity.User, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: verification data required", ErrValidation)
	}
	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"verification_data":   data,
		"verification_status": "SUBMITTED",
	}); err != nil {
		return nil, fmt.Errorf("提交认证失败: %w", err)
	}
	return s.repo.FindByID(ctx, id)
}

// ReviewVerification 管理员审核实名认证
func (s *UserService) ReviewVerification(ctx context.Context, actor Actor, userID int64, approved bool) (*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can review verification", ErrForbidden)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.VerificationStatus != "SUBMITTED" {
		return nil, fmt.Errorf("%w: verification not submitted", ErrValidation)
	}

	fields := map[string]interface{}{}
	if approved {
		fields["is_verified"] = true
		fields["verification_status"] = "APPROVED"
	} else {
		fields["verification_status"] = "REJECTED"
	}
	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, fmt.Errorf("审核认证失败: %w", err)
	}
	return s.repo.FindByID(ctx, userID)
}

// SetProviderPermissions 设置服务商人员细分权限
func (s *UserService) SetProviderPermissions(ctx context.Context, actor Actor, userID int64, perms []string) (*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can set provider permissions", ErrForbidden)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != entity.RoleProvider {
		return nil, fmt.Errorf("%w: user %d is not a provider member", ErrValidation, userID)
	}

	valid := map[string]bool{
		entity.PermDeveloper:      true,
		entity.PermAccountManager: true,
		entity.PermInterviewer:    true,
		entity.PermHandler:        true,
	}
	for _, p := range perms {
		if !valid[p] {
			return nil, fmt.Errorf("%w: unknown permission %q", ErrValidation, p)
		}
	}

	if err := s.repo.UpdateFields(ctx, userID, map[string]interface{}{
		"provider_permissions": entity.StringList(perms),
	}); err != nil {
		return nil, fmt.Errorf("设置权限失败: %w", err)
	}
	return s.repo.FindByID(ctx, userID)
}

// SwitchRole 管理员切换用户角色, 绑定银行或服务商节点
func (s *UserService) SwitchRole(ctx context.Context, actor Actor, userID int64, role string, bankID, serviceProviderID *int64) (*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can switch role", ErrForbidden)
	}
	switch role {
	case entity.RoleUser, entity.RoleAdmin, entity.RoleProvider, entity.RoleBank:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if role == entity.RoleBank && bankID == nil {
		return nil, fmt.Errorf("%w: bank role requires bank id", ErrValidation)
	}
	if role == entity.RoleProvider && serviceProviderID == nil {
		return nil, fmt.Errorf("%w: provider role requires service provider id", ErrValidation)
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"role":                role,
		"bank_id":             bankID,
		"service_provider_id": serviceProviderID,
	}
	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, fmt.Errorf("切换角色失败: %w", err)
	}
	return s.repo.FindByID(ctx, userID)
}
