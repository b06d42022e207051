package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
)

// WithdrawalService 提现服务
type WithdrawalService struct {
	repo           *repository.WithdrawalRepository
	commissionRepo *repository.CommissionRepository
}

func NewWithdrawalService(repo *repository.WithdrawalRepository, commissionRepo *repository.CommissionRepository) *WithdrawalService {
	return &WithdrawalService{repo: repo, commissionRepo: commissionRepo}
}

// CreateWithdrawalRequest 提现申请
type CreateWithdrawalRequest struct {
	Amount      float64      `json:"amount" binding:"required"`
	AccountType string       `json:"account_type" binding:"required"`
	AccountInfo entity.JSONB `json:"account_info" binding:"required"`
}

// Create 发起提现, 金额不得超过已发放分佣减去处理中提现
func (s *WithdrawalService) Create(ctx context.Context, actor Actor, req *CreateWithdrawalRequest) (*entity.Withdrawal, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	switch req.AccountType {
	case entity.AccountTypeBankCard, entity.AccountTypeAlipay, entity.AccountTypeWechat:
	default:
		return nil, fmt.Errorf("%w: unknown account type %q", ErrValidation, req.AccountType)
	}

	sums, err := s.commissionRepo.SumRecordsByRecipient(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.SumPendingByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	available := sums[entity.CommissionPaid] - pending
	if req.Amount > available {
		return nil, fmt.Errorf("%w: amount %.2f exceeds available balance %.2f", ErrValidation, req.Amount, available)
	}

	w := &entity.Withdrawal{
		WithdrawalNo: GenerateOrderNo(OrderNoPrefixWithdrawal),
		UserID:       actor.ID,
		Amount:       req.Amount,
		AccountType:  req.AccountType,
		AccountInfo:  req.AccountInfo,
		Status:       entity.WithdrawalPending,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("创建提现申请失败: %w", err)
	}
	return w, nil
}

// Review 管理员审核提现, PENDING -> APPROVED / REJECTED
func (s *WithdrawalService) Review(ctx context.Context, actor Actor, id int64, approved bool, note string) (*entity.Withdrawal, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can review withdrawals", ErrForbidden)
	}
	if !approved && note == "" {
		return nil, fmt.Errorf("%w: reject reason required", ErrValidation)
	}

	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != entity.WithdrawalPending {
		return nil, fmt.Errorf("%w: withdrawal %d is %s", ErrInvalidTransition, id, w.Status)
	}

	now := time.Now()
	fields := map[string]interface{}{"reviewed_at": now}
	if approved {
		fields["status"] = entity.WithdrawalApproved
		fields["review_note"] = note
	} else {
		fields["status"] = entity.WithdrawalRejected
		fields["reject_reason"] = note
	}

	affected, err := s.repo.UpdateIfStatus(ctx, id, entity.WithdrawalPending, fields)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: withdrawal %d", ErrConflict, id)
	}
	return s.repo.FindByID(ctx, id)
}

// Complete 打款完成, APPROVED -> COMPLETED
func (s *WithdrawalService) Complete(ctx context.Context, actor Actor, id int64) (*entity.Withdrawal, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can complete withdrawals", ErrForbidden)
	}

	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != entity.WithdrawalApproved {
		return nil, fmt.Errorf("%w: withdrawal %d is %s", ErrInvalidTransition, id, w.Status)
	}

	affected, err := s.repo.UpdateIfStatus(ctx, id, entity.WithdrawalApproved, map[string]interface{}{
		"status":       entity.WithdrawalCompleted,
		"completed_at": time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: withdrawal %d", ErrConflict, id)
	}
	return s.repo.FindByID(ctx, id)
}

func (s *WithdrawalService) Get(ctx context.Context, actor Actor, id int64) (*entity.Withdrawal, error) {
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != entity.RoleAdmin && w.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the applicant", ErrForbidden)
	}
	return w, nil
}

func (s *WithdrawalService) List(ctx context.Context, params repository.WithdrawalListParams) ([]entity.Withdrawal, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}
