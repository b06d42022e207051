package entity

import (
	"time"
)

// 分佣类型（九类参与角色）
const (
	CommissionPlatform       = "PLATFORM"
	CommissionAgent          = "AGENT"
	CommissionFranchise      = "FRANCHISE"
	CommissionChannel        = "CHANNEL"
	CommissionService        = "SERVICE"
	CommissionDeveloper      = "DEVELOPER"
	CommissionAccountManager = "ACCOUNT_MANAGER"
	CommissionInterviewer    = "INTERVIEWER"
	CommissionHandler        = "HANDLER"
)

// 分佣状态
const (
	CommissionPending = "PENDING"
	CommissionPaid    = "PAID"
)

// CommissionRule 分佣规则（province为空表示全国默认规则）
type CommissionRule struct {
	ID                 int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Province           string    `json:"province" gorm:"size:50;index"`
	PlatformRate       float64   `json:"platform_rate" gorm:"type:decimal(7,6);not null"`
	AgentRate          float64   `json:"agent_rate" gorm:"type:decimal(7,6);not null"`
	FranchiseRate      float64   `json:"franchise_rate" gorm:"type:decimal(7,6);not null"`
	ChannelServiceRate float64   `json:"channel_service_rate" gorm:"type:decimal(7,6);not null"`
	DeveloperRate      float64   `json:"developer_rate" gorm:"type:decimal(7,6);not null"`
	AccountManagerRate float64   `json:"account_manager_rate" gorm:"type:decimal(7,6);not null"`
	InterviewerRate    float64   `json:"interviewer_rate" gorm:"type:decimal(7,6);not null"`
	HandlerRate        float64   `json:"handler_rate" gorm:"type:decimal(7,6);not null"`
	IsActive           bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (CommissionRule) TableName() string {
	return "commission_rules"
}

// CommissionRecord 分佣记录
//
// amount 在创建时按 orderAmount × rate 固化，之后不重算；
// recipientId=0（平台留存）的计算项不会落库。
type CommissionRecord struct {
	ID             int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderType      string     `json:"order_type" gorm:"size:20;not null;index:idx_commission_order"`
	OrderID        int64      `json:"order_id" gorm:"not null;index:idx_commission_order"`
	OrderNo        string     `json:"order_no" gorm:"size:32;not null"`
	OrderAmount    float64    `json:"order_amount" gorm:"type:decimal(15,2);not null"`
	CommissionType string     `json:"commission_type" gorm:"size:20;not null"`
	RecipientID    int64      `json:"recipient_id" gorm:"not null;index"`
	RecipientRole  string     `json:"recipient_role" gorm:"size:50;not null"`
	Amount         float64    `json:"amount" gorm:"type:decimal(15,2);not null"`
	Rate           float64    `json:"rate" gorm:"type:decimal(7,6);not null"`
	Status         string     `json:"status" gorm:"size:20;not null;index"`
	PaidAt         *time.Time `json:"paid_at"`
	CreatedAt      time.Time  `json:"created_at"`

	Recipient *User `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
}

func (CommissionRecord) TableName() string {
	return "commission_records"
}
