package service

import (
	"context"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"go.uber.org/zap"
)

// OperationLogService 后台操作日志
type OperationLogService struct {
	repo   *repository.OperationLogRepository
	logger *zap.Logger
}

func NewOperationLogService(repo *repository.OperationLogRepository, logger *zap.Logger) *OperationLogService {
	return &OperationLogService{repo: repo, logger: logger}
}

// Record 记录一次后台操作, 写失败只告警
func (s *OperationLogService) Record(ctx context.Context, log *entity.OperationLog) {
	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Warn("operation log write failed",
			zap.String("path", log.Path),
			zap.Error(err))
	}
}

func (s *OperationLogService) List(ctx context.Context, params repository.OperationLogListParams) ([]entity.OperationLog, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}

// Cleanup 清理过期日志
func (s *OperationLogService) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.DeleteBefore(ctx, cutoff)
}
