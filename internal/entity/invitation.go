package entity

import (
	"time"
)

// 邀请码状态
const (
	InvitationActive   = "ACTIVE"
	InvitationDisabled = "DISABLED"
)

// Invitation 服务商邀请码, 用于注册时绑定所属服务商节点
type Invitation struct {
	ID                int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Code              string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	ServiceProviderID int64     `json:"service_provider_id" gorm:"not null;index"`
	CreatedByID       int64     `json:"created_by_id" gorm:"not null"`
	Status            string    `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	UsedCount         int       `json:"used_count" gorm:"not null;default:0"`
	MaxUses           int       `json:"max_uses" gorm:"not null;default:0"` // 0 表示不限次数
	ExpiresAt         *time.Time `json:"expires_at"`
	CreatedAt         time.Time `json:"created_at"`

	ServiceProvider *ServiceProvider `json:"service_provider,omitempty" gorm:"foreignKey:ServiceProviderID"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// Usable 判断邀请码当前是否可用
func (i *Invitation) Usable(now time.Time) bool {
	if i.Status != InvitationActive {
		return false
	}
	if i.MaxUses > 0 && i.UsedCount >= i.MaxUses {
		return false
	}
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return false
	}
	return true
}
