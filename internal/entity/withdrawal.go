package entity

import (
	"time"
)

// 提现状态
const (
	WithdrawalPending   = "PENDING"
	WithdrawalApproved  = "APPROVED"
	WithdrawalRejected  = "REJECTED"
	WithdrawalCompleted = "COMPLETED"
)

// 提现账户类型
const (
	AccountTypeBankCard = "BANK_CARD"
	AccountTypeAlipay   = "ALIPAY"
	AccountTypeWechat   = "WECHAT"
)

// Withdrawal 提现申请
type Withdrawal struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	WithdrawalNo string     `json:"withdrawal_no" gorm:"size:32;not null;uniqueIndex"`
	UserID       int64      `json:"user_id" gorm:"not null;index"`
	Amount       float64    `json:"amount" gorm:"type:decimal(15,2);not null"`
	AccountType  string     `json:"account_type" gorm:"size:20;not null"`
	AccountInfo  JSONB      `json:"account_info" gorm:"type:jsonb;not null"`
	Status       string     `json:"status" gorm:"size:20;not null;index"`
	ReviewNote   string     `json:"review_note" gorm:"type:text"`
	RejectReason string     `json:"reject_reason" gorm:"type:text"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
