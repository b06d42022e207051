package entity

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色
const (
	RoleUser     = "USER"     // 终端用户
	RoleAdmin    = "ADMIN"    // 平台管理员
	RoleProvider = "PROVIDER" // 服务商人员
	RoleBank     = "BANK"     // 银行经理
)

// 服务商人员权限（PROVIDER角色的细分）
const (
	PermDeveloper      = "DEVELOPER"       // 开发人
	PermAccountManager = "ACCOUNT_MANAGER" // 管户人
	PermInterviewer    = "INTERVIEWER"     // 访谈人
	PermHandler        = "HANDLER"         // 业务受理人
)

// User 用户实体
type User struct {
	ID                  int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Phone               string         `json:"phone" gorm:"size:20;not null;uniqueIndex"`
	PasswordHash        string         `json:"-" gorm:"size:255;not null"`
	Nickname            string         `json:"nickname" gorm:"size:50"`
	Avatar              string         `json:"avatar" gorm:"size:500"`
	Role                string         `json:"role" gorm:"size:20;not null;default:USER"`
	ProviderPermissions StringList     `json:"provider_permissions" gorm:"type:jsonb"`
	IsVerified          bool           `json:"is_verified" gorm:"not null;default:false"`
	VerificationStatus  string         `json:"verification_status" gorm:"size:50"`
	VerificationData    JSONB          `json:"verification_data" gorm:"type:jsonb"`
	BankID              *int64         `json:"bank_id"`
	ServiceProviderID   *int64         `json:"service_provider_id"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// HasProviderPermission 判断服务商人员是否具备某项细分权限
func (u *User) HasProviderPermission(perm string) bool {
	for _, p := range u.ProviderPermissions {
		if p == perm {
			return true
		}
	}
	return false
}
