package entity

import (
	"time"
)

// 反馈状态
const (
	FeedbackOpen     = "OPEN"
	FeedbackReplied  = "REPLIED"
	FeedbackClosed   = "CLOSED"
)

// Feedback 用户反馈
type Feedback struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64      `json:"user_id" gorm:"not null;index"`
	Title     string     `json:"title" gorm:"size:128;not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	Contact   string     `json:"contact" gorm:"size:64"`
	Status    string     `json:"status" gorm:"size:20;not null;default:OPEN;index"`
	Reply     string     `json:"reply" gorm:"type:text"`
	RepliedAt *time.Time `json:"replied_at"`
	CreatedAt time.Time  `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
