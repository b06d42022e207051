package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// FileService 文件服务, 对象存储在 MinIO, 元数据落库
type FileService struct {
	repo   *repository.FileRepository
	client *minio.Client
	bucket string
}

func NewFileService(repo *repository.FileRepository, client *minio.Client, bucket string) *FileService {
	return &FileService{repo: repo, client: client, bucket: bucket}
}

// Upload 上传文件并登记记录
func (s *FileService) Upload(ctx context.Context, actor Actor, category, fileName, contentType string, size int64, reader io.Reader) (*entity.FileRecord, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: object storage not configured", ErrValidation)
	}
	if fileName == "" || size <= 0 {
		return nil, fmt.Errorf("%w: file name and size required", ErrValidation)
	}

	objectKey := fmt.Sprintf("%s/%s/%s%s",
		category,
		time.Now().Format("200601"),
		uuid.New().String(),
		path.Ext(fileName))

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("上传文件失败: %w", err)
	}

	record := &entity.FileRecord{
		UploaderID: actor.ID,
		Bucket:     s.bucket,
		ObjectKey:  objectKey,
		FileName:   fileName,
		Size:       size,
		MimeType:   contentType,
		Category:   category,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("登记文件记录失败: %w", err)
	}
	return record, nil
}

// PresignedURL 生成临时下载链接
func (s *FileService) PresignedURL(ctx context.Context, actor Actor, id int64, expiry time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("%w: object storage not configured", ErrValidation)
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if actor.Role == entity.RoleUser && record.UploaderID != actor.ID {
		return "", fmt.Errorf("%w: not the uploader", ErrForbidden)
	}
	if expiry <= 0 {
		expiry = time.Hour
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", record.FileName))
	u, err := s.client.PresignedGetObject(ctx, record.Bucket, record.ObjectKey, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("生成下载链接失败: %w", err)
	}
	return u.String(), nil
}

func (s *FileService) ListByUploader(ctx context.Context, uploaderID int64, category string) ([]entity.FileRecord, error) {
	return s.repo.ListByUploader(ctx, uploaderID, category)
}

// Delete 删除对象与记录
func (s *FileService) Delete(ctx context.Context, actor Actor, id int64) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != entity.RoleAdmin && record.UploaderID != actor.ID {
		return fmt.Errorf("%w: not the uploader", ErrForbidden)
	}
	if s.client != nil {
		if err := s.client.RemoveObject(ctx, record.Bucket, record.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("删除对象失败: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}
