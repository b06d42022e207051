package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
)

// FeedbackService 用户反馈服务
type FeedbackService struct {
	repo *repository.FeedbackRepository
}

func NewFeedbackService(repo *repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

// CreateFeedbackRequest 提交反馈请求
type CreateFeedbackRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Contact string `json:"contact"`
}

func (s *FeedbackService) Create(ctx context.Context, actor Actor, req *CreateFeedbackRequest) (*entity.Feedback, error) {
	fb := &entity.Feedback{
		UserID:  actor.ID,
		Title:   req.Title,
		Content: req.Content,
		Contact: req.Contact,
		Status:  entity.FeedbackOpen,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("提交反馈失败: %w", err)
	}
	return fb, nil
}

// Reply 管理员回复反馈
func (s *FeedbackService) Reply(ctx context.Context, actor Actor, id int64, reply string) (*entity.Feedback, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can reply", ErrForbidden)
	}
	if reply == "" {
		return nil, fmt.Errorf("%w: reply required", ErrValidation)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"reply":      reply,
		"status":     entity.FeedbackReplied,
		"replied_at": time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("回复反馈失败: %w", err)
	}
	return s.repo.FindByID(ctx, id)
}

// Close 关闭反馈
func (s *FeedbackService) Close(ctx context.Context, actor Actor, id int64) error {
	fb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != entity.RoleAdmin && fb.UserID != actor.ID {
		return fmt.Errorf("%w: not the author", ErrForbidden)
	}
	return s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"status": entity.FeedbackClosed,
	})
}

func (s *FeedbackService) Get(ctx context.Context, actor Actor, id int64) (*entity.Feedback, error) {
	fb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != entity.RoleAdmin && fb.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the author", ErrForbidden)
	}
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context, params repository.FeedbackListParams) ([]entity.Feedback, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}
