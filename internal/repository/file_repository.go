package repository

import (
	"context"
	"errors"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"gorm.io/gorm"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, record *entity.FileRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *FileRepository) FindByID(ctx context.Context, id int64) (*entity.FileRecord, error) {
	var record entity.FileRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *FileRepository) FindByObjectKey(ctx context.Context, objectKey string) (*entity.FileRecord, error) {
	var record entity.FileRecord
	err := r.db.WithContext(ctx).First(&record, "object_key = ?", objectKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *FileRepository) ListByUploader(ctx context.Context, uploaderID int64, category string) ([]entity.FileRecord, error) {
	query := r.db.WithContext(ctx).Where("uploader_id = ?", uploaderID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var records []entity.FileRecord
	err := query.Order("created_at DESC").Find(&records).Error
	return records, err
}

func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&entity.FileRecord{}, "id = ?", id).Error
}
