package entity

import (
	"time"

	"gorm.io/gorm"
)

// Bank 合作银行
type Bank struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string         `json:"name" gorm:"size:128;not null"`
	Code      string         `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Province  string         `json:"province" gorm:"size:64;index"`
	City      string         `json:"city" gorm:"size:64"`
	Contact   string         `json:"contact" gorm:"size:64"`
	Phone     string         `json:"phone" gorm:"size:32"`
	IsActive  bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Branches []BankBranch `json:"branches,omitempty" gorm:"foreignKey:BankID"`
}

func (Bank) TableName() string {
	return "banks"
}

// BankBranch 银行网点
type BankBranch struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BankID    int64     `json:"bank_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Address   string    `json:"address" gorm:"size:255"`
	Contact   string    `json:"contact" gorm:"size:64"`
	Phone     string    `json:"phone" gorm:"size:32"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BankBranch) TableName() string {
	return "bank_branches"
}
