package entity

import (
	"time"
)

// FileRecord 上传文件记录, 对象实际存储在 MinIO
type FileRecord struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UploaderID int64     `json:"uploader_id" gorm:"not null;index"`
	Bucket     string    `json:"bucket" gorm:"size:64;not null"`
	ObjectKey  string    `json:"object_key" gorm:"size:255;not null;uniqueIndex"`
	FileName   string    `json:"file_name" gorm:"size:255;not null"`
	Size       int64     `json:"size" gorm:"not null"`
	MimeType   string    `json:"mime_type" gorm:"size:128"`
	Category   string    `json:"category" gorm:"size:32;index"` // agreement / license / avatar / misc
	CreatedAt  time.Time `json:"created_at"`
}

func (FileRecord) TableName() string {
	return "file_records"
}
