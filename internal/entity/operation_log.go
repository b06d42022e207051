package entity

import (
	"time"
)

// OperationLog 后台操作审计日志
type OperationLog struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OperatorID *int64    `json:"operator_id" gorm:"index"`
	Role       string    `json:"role" gorm:"size:20"`
	Method     string    `json:"method" gorm:"size:10;not null"`
	Path       string    `json:"path" gorm:"size:255;not null"`
	Query      string    `json:"query" gorm:"size:512"`
	StatusCode int       `json:"status_code" gorm:"not null"`
	ClientIP   string    `json:"client_ip" gorm:"size:64"`
	LatencyMS  int64     `json:"latency_ms" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (OperationLog) TableName() string {
	return "operation_logs"
}
