package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	User            *UserRepository
	ServiceProvider *ServiceProviderRepository
	Order           *OrderRepository
	Commission      *CommissionRepository
	Payment         *PaymentRepository
	Withdrawal      *WithdrawalRepository
	Bank            *BankRepository
	Invitation      *InvitationRepository
	File            *FileRepository
	Feedback        *FeedbackRepository
	OperationLog    *OperationLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		ServiceProvider: NewServiceProviderRepository(db),
		Order:           NewOrderRepository(db),
		Commission:      NewCommissionRepository(db),
		Payment:         NewPaymentRepository(db),
		Withdrawal:      NewWithdrawalRepository(db),
		Bank:            NewBankRepository(db),
		Invitation:      NewInvitationRepository(db),
		File:            NewFileRepository(db),
		Feedback:        NewFeedbackRepository(db),
		OperationLog:    NewOperationLogRepository(db),
	}
}
