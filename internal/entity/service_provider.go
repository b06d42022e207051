package entity

import (
	"time"

	"gorm.io/gorm"
)

// 服务商类型（FRANCHISE加盟商→CHANNEL渠道商→SERVICE_PROVIDER服务商）
const (
	ProviderTypeFranchise       = "FRANCHISE"
	ProviderTypeChannel         = "CHANNEL"
	ProviderTypeServiceProvider = "SERVICE_PROVIDER"
)

// 服务商状态
const (
	ProviderStatusActive    = "ACTIVE"
	ProviderStatusSuspended = "SUSPENDED"
)

// ServiceProvider 服务商节点（自引用三级树）
//
// level/path/root_id 在创建时由父节点推导，之后不再重算；
// path 为根到父节点的物化路径（如 "1/3/7"），根节点为空串。
type ServiceProvider struct {
	ID            int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name          string         `json:"name" gorm:"size:100;not null"`
	Abbreviation  string         `json:"abbreviation" gorm:"size:50"`
	Type          string         `json:"type" gorm:"size:20;not null;index:idx_type_parent"`
	Region        string         `json:"region" gorm:"size:100"`
	ParentID      *int64         `json:"parent_id" gorm:"column:parent_id;index:idx_parent_id;index:idx_type_parent"`
	Level         int            `json:"level" gorm:"not null;default:0"`
	Path          string         `json:"path" gorm:"size:255;index:idx_path"`
	RootID        *int64         `json:"root_id" gorm:"column:root_id;index:idx_root_id"`
	ContactPerson string         `json:"contact_person" gorm:"size:50"`
	ContactPhone  string         `json:"contact_phone" gorm:"size:20"`
	Status        string         `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ServiceProvider) TableName() string {
	return "service_providers"
}
