package entity

import (
	"time"
)

// 支付状态
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
	PaymentFailed   = "FAILED"
)

// 支付方式
const (
	PaymentTypeJSAPI  = "JSAPI"
	PaymentTypeNative = "NATIVE"
)

// Payment 支付记录
//
// status 只在外部网关回调验签通过后才会置为 PAID。
type Payment struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	PaymentNo     string     `json:"payment_no" gorm:"size:32;not null;uniqueIndex"`
	OrderType     string     `json:"order_type" gorm:"size:20;not null"`
	OrderID       int64      `json:"order_id" gorm:"not null;index"`
	OrderNo       string     `json:"order_no" gorm:"size:32;not null"`
	PayerID       *int64     `json:"payer_id"`
	Amount        float64    `json:"amount" gorm:"type:decimal(15,2);not null"`
	PaymentType   string     `json:"payment_type" gorm:"size:20;not null"`
	TransactionID string     `json:"transaction_id" gorm:"size:64"`
	Status        string     `json:"status" gorm:"size:20;not null;index"`
	PaidAt        *time.Time `json:"paid_at"`
	CallbackData  JSONB      `json:"callback_data" gorm:"type:jsonb"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Payer *User `json:"payer,omitempty" gorm:"foreignKey:PayerID"`
}

func (Payment) TableName() string {
	return "payments"
}
