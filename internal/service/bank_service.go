package service

import (
	"context"
	"fmt"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
)

// BankService 合作银行管理
type BankService struct {
	repo *repository.BankRepository
}

func NewBankService(repo *repository.BankRepository) *BankService {
	return &BankService{repo: repo}
}

// CreateBankRequest 创建银行请求
type CreateBankRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Province string `json:"province"`
	City     string `json:"city"`
	Contact  string `json:"contact"`
	Phone    string `json:"phone"`
}

// UpdateBankRequest 更新银行请求
type UpdateBankRequest struct {
	Name     *string `json:"name"`
	Province *string `json:"province"`
	City     *string `json:"city"`
	Contact  *string `json:"contact"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

func (s *BankService) Create(ctx context.Context, actor Actor, req *CreateBankRequest) (*entity.Bank, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can manage banks", ErrForbidden)
	}
	bank := &entity.Bank{
		Name:     req.Name,
		Code:     req.Code,
		Province: req.Province,
		City:     req.City,
		Contact:  req.Contact,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, bank); err != nil {
		return nil, fmt.Errorf("创建银行失败: %w", err)
	}
	return bank, nil
}

func (s *BankService) Update(ctx context.Context, actor Actor, id int64, req *UpdateBankRequest) (*entity.Bank, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can manage banks", ErrForbidden)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Province != nil {
		fields["province"] = *req.Province
	}
	if req.City != nil {
		fields["city"] = *req.City
	}
	if req.Contact != nil {
		fields["contact"] = *req.Contact
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("更新银行失败: %w", err)
		}
	}
	return s.repo.FindByID(ctx, id)
}

func (s *BankService) Get(ctx context.Context, id int64) (*entity.Bank, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *BankService) Delete(ctx context.Context, actor Actor, id int64) error {
	if actor.Role != entity.RoleAdmin {
		return fmt.Errorf("%w: only admin can manage banks", ErrForbidden)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *BankService) List(ctx context.Context, params repository.BankListParams) ([]entity.Bank, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}

// CreateBranch 新增网点
func (s *BankService) CreateBranch(ctx context.Context, actor Actor, bankID int64, branch *entity.BankBranch) (*entity.BankBranch, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can manage banks", ErrForbidden)
	}
	if _, err := s.repo.FindByID(ctx, bankID); err != nil {
		return nil, err
	}
	branch.BankID = bankID
	branch.IsActive = true
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("创建网点失败: %w", err)
	}
	return branch, nil
}

func (s *BankService) ListBranches(ctx context.Context, bankID int64) ([]entity.BankBranch, error) {
	return s.repo.ListBranches(ctx, bankID)
}
