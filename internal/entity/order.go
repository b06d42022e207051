package entity

import (
	"time"
)

// 订单类型
const (
	OrderTypeConnection  = "CONNECTION"
	OrderTypeEntrustment = "ENTRUSTMENT"
)

// 对接订单状态
const (
	ConnPendingAssign   = "PENDING_ASSIGN"   // 待分配管户人
	ConnInReview        = "IN_REVIEW"        // 报告撰写中
	ConnWaitingPurchase = "WAITING_PURCHASE" // 待银行购买
	ConnInOffline       = "IN_OFFLINE"       // 线下对接中
	ConnConfirmed       = "CONFIRMED"        // 已确认
	ConnCancelled       = "CANCELLED"        // 已取消
	ConnFailed          = "FAILED"           // 失败
)

// 委托订单状态
const (
	EntrustPendingReview = "PENDING_REVIEW" // 待审核
	EntrustApproved      = "APPROVED"       // 审核通过
	EntrustRejected      = "REJECTED"       // 审核拒绝
	EntrustProcessing    = "PROCESSING"     // 办理中
	EntrustCompleted     = "COMPLETED"      // 已完成
	EntrustCancelled     = "CANCELLED"      // 已取消
	EntrustFailed        = "FAILED"         // 失败
)

// 用户/需求类型
const (
	UserTypeIndividual = "INDIVIDUAL"
	UserTypeEnterprise = "ENTERPRISE"

	NeedTypeLoan                = "LOAN"
	NeedTypeDeposit             = "DEPOSIT"
	NeedTypeFinancialManagement = "FINANCIAL_MANAGEMENT"
)

// ConnectionOrder 对接订单（第一阶段）
type ConnectionOrder struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNo          string     `json:"order_no" gorm:"column:order_no;size:32;not null;uniqueIndex"`
	UserID           int64      `json:"user_id" gorm:"not null;index"`
	DeveloperID      *int64     `json:"developer_id"`
	AccountManagerID *int64     `json:"account_manager_id"`
	InterviewerID    *int64     `json:"interviewer_id"`
	Status           string     `json:"status" gorm:"size:20;not null;index"`
	UserType         string     `json:"user_type" gorm:"size:20;not null"`
	NeedType         string     `json:"need_type" gorm:"size:30;not null"`
	Location         string     `json:"location" gorm:"size:500"`
	Amount           float64    `json:"amount" gorm:"type:decimal(15,2);not null"`
	RepaymentAbility string     `json:"repayment_ability" gorm:"type:text"`
	ReportURL        string     `json:"report_url" gorm:"size:500"`
	Price            float64    `json:"price" gorm:"type:decimal(15,2)"`
	AssignedBanks    Int64List  `json:"assigned_banks" gorm:"type:jsonb"`
	PurchasedByBanks Int64List  `json:"purchased_by_banks" gorm:"type:jsonb"`
	SelectedBankID   *int64     `json:"selected_bank_id"`
	ConfirmedAt      *time.Time `json:"confirmed_at"`
	CancelReason     string     `json:"cancel_reason" gorm:"type:text"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// 关联
	User           *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Developer      *User `json:"developer,omitempty" gorm:"foreignKey:DeveloperID"`
	AccountManager *User `json:"account_manager,omitempty" gorm:"foreignKey:AccountManagerID"`
	Interviewer    *User `json:"interviewer,omitempty" gorm:"foreignKey:InterviewerID"`
	SelectedBank   *Bank `json:"selected_bank,omitempty" gorm:"foreignKey:SelectedBankID"`
}

func (ConnectionOrder) TableName() string {
	return "connection_orders"
}

// EntrustmentOrder 委托订单（第二阶段，挂在已确认的对接订单下）
type EntrustmentOrder struct {
	ID                int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNo           string    `json:"order_no" gorm:"column:order_no;size:32;not null;uniqueIndex"`
	ConnectionOrderID int64     `json:"connection_order_id" gorm:"not null;index"`
	UserID            int64     `json:"user_id" gorm:"not null;index"`
	AccountManagerID  *int64    `json:"account_manager_id"`
	HandlerID         *int64    `json:"handler_id"`
	Status            string    `json:"status" gorm:"size:20;not null;index"`
	AgreementURL      string    `json:"agreement_url" gorm:"size:500"`
	ApprovalNote      string    `json:"approval_note" gorm:"type:text"`
	RejectReason      string    `json:"reject_reason" gorm:"type:text"`
	CompletionNote    string    `json:"completion_note" gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// 关联
	ConnectionOrder *ConnectionOrder `json:"connection_order,omitempty" gorm:"foreignKey:ConnectionOrderID"`
	User            *User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Handler         *User            `json:"handler,omitempty" gorm:"foreignKey:HandlerID"`
}

func (EntrustmentOrder) TableName() string {
	return "entrustment_orders"
}

// OrderLog 订单操作日志（只追加，核心不修改不删除）
type OrderLog struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderType    string    `json:"order_type" gorm:"size:20;not null;index:idx_order_logs_order"`
	OrderID      int64     `json:"order_id" gorm:"not null;index:idx_order_logs_order"`
	Action       string    `json:"action" gorm:"size:50;not null"`
	OperatorID   *int64    `json:"operator_id"`
	OperatorRole string    `json:"operator_role" gorm:"size:50;not null"`
	BeforeStatus string    `json:"before_status" gorm:"size:50"`
	AfterStatus  string    `json:"after_status" gorm:"size:50"`
	Data         JSONB     `json:"data" gorm:"type:jsonb"`
	CreatedAt    time.Time `json:"created_at"`

	Operator *User `json:"operator,omitempty" gorm:"foreignKey:OperatorID"`
}

func (OrderLog) TableName() string {
	return "order_logs"
}
