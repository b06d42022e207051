package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/xuri/excelize/v2"
)

// CommissionService 分佣服务
type CommissionService struct {
	repo *repository.CommissionRepository
}

func NewCommissionService(repo *repository.CommissionRepository) *CommissionService {
	return &CommissionService{repo: repo}
}

// CreateRuleRequest 创建分佣规则请求
type CreateRuleRequest struct {
	Province           string  `json:"province"`
	PlatformRate       float64 `json:"platform_rate"`
	AgentRate          float64 `json:"agent_rate"`
	FranchiseRate      float64 `json:"franchise_rate"`
	ChannelServiceRate float64 `json:"channel_service_rate"`
	DeveloperRate      float64 `json:"developer_rate"`
	AccountManagerRate float64 `json:"account_manager_rate"`
	InterviewerRate    float64 `json:"interviewer_rate"`
	HandlerRate        float64 `json:"handler_rate"`
}

// UpdateRuleRequest 更新分佣规则请求
type UpdateRuleRequest struct {
	PlatformRate       *float64 `json:"platform_rate"`
	AgentRate          *float64 `json:"agent_rate"`
	FranchiseRate      *float64 `json:"franchise_rate"`
	ChannelServiceRate *float64 `json:"channel_service_rate"`
	DeveloperRate      *float64 `json:"developer_rate"`
	AccountManagerRate *float64 `json:"account_manager_rate"`
	InterviewerRate    *float64 `json:"interviewer_rate"`
	HandlerRate        *float64 `json:"handler_rate"`
	IsActive           *bool    `json:"is_active"`
}

func validRate(rates ...float64) bool {
	for _, r := range rates {
		if r < 0 || r > 1 {
			return false
		}
	}
	return true
}

// CreateRule 创建分佣规则, province 为空表示全国默认规则
func (s *CommissionService) CreateRule(ctx context.Context, req *CreateRuleRequest) (*entity.CommissionRule, error) {
	if !validRate(req.PlatformRate, req.AgentRate, req.FranchiseRate, req.ChannelServiceRate,
		req.DeveloperRate, req.AccountManagerRate, req.InterviewerRate, req.HandlerRate) {
		return nil, fmt.Errorf("%w: rates must be within [0,1]", ErrValidation)
	}

	rule := &entity.CommissionRule{
		Province:           req.Province,
		PlatformRate:       req.PlatformRate,
		AgentRate:          req.AgentRate,
		FranchiseRate:      req.FranchiseRate,
		ChannelServiceRate: req.ChannelServiceRate,
		DeveloperRate:      req.DeveloperRate,
		AccountManagerRate: req.AccountManagerRate,
		InterviewerRate:    req.InterviewerRate,
		HandlerRate:        req.HandlerRate,
		IsActive:           true,
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("创建分佣规则失败: %w", err)
	}
	return rule, nil
}

// UpdateRule 部分更新分佣规则
func (s *CommissionService) UpdateRule(ctx context.Context, id int64, req *UpdateRuleRequest) (*entity.CommissionRule, error) {
	if _, err := s.repo.FindRuleByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	set := func(name string, v *float64) error {
		if v == nil {
			return nil
		}
		if !validRate(*v) {
			return fmt.Errorf("%w: %s must be within [0,1]", ErrValidation, name)
		}
		fields[name] = *v
		return nil
	}
	rateFields := []struct {
		name string
		v    *float64
	}{
		{"platform_rate", req.PlatformRate},
		{"agent_rate", req.AgentRate},
		{"franchise_rate", req.FranchiseRate},
		{"channel_service_rate", req.ChannelServiceRate},
		{"developer_rate", req.DeveloperRate},
		{"account_manager_rate", req.AccountManagerRate},
		{"interviewer_rate", req.InterviewerRate},
		{"handler_rate", req.HandlerRate},
	}
	for _, f := range rateFields {
		if err := set(f.name, f.v); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateRuleFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("更新分佣规则失败: %w", err)
		}
	}
	return s.repo.FindRuleByID(ctx, id)
}

func (s *CommissionService) GetRule(ctx context.Context, id int64) (*entity.CommissionRule, error) {
	return s.repo.FindRuleByID(ctx, id)
}

func (s *CommissionService) DeleteRule(ctx context.Context, id int64) error {
	if _, err := s.repo.FindRuleByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteRule(ctx, id)
}

func (s *CommissionService) ListRules(ctx context.Context, params repository.RuleListParams) ([]entity.CommissionRule, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.ListRules(ctx, params)
}

// MarkPaid 分佣记录发放, PENDING -> PAID 单向流转
func (s *CommissionService) MarkPaid(ctx context.Context, recordID int64) (*entity.CommissionRecord, error) {
	record, err := s.repo.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != entity.CommissionPending {
		return nil, fmt.Errorf("%w: commission record %d is %s", ErrInvalidTransition, recordID, record.Status)
	}

	now := time.Now()
	if err := s.repo.UpdateRecordFields(ctx, recordID, map[string]interface{}{
		"status":  entity.CommissionPaid,
		"paid_at": now,
	}); err != nil {
		return nil, fmt.Errorf("发放分佣失败: %w", err)
	}
	return s.repo.FindRecordByID(ctx, recordID)
}

func (s *CommissionService) ListRecords(ctx context.Context, params repository.RecordListParams) ([]entity.CommissionRecord, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.ListRecords(ctx, params)
}

func (s *CommissionService) ListRecordsByOrder(ctx context.Context, orderType string, orderID int64) ([]entity.CommissionRecord, error) {
	return s.repo.ListRecordsByOrder(ctx, orderType, orderID)
}

// Summary 受益人分佣汇总
type Summary struct {
	Pending float64 `json:"pending"`
	Paid    float64 `json:"paid"`
	Total   float64 `json:"total"`
}

func (s *CommissionService) SummaryByRecipient(ctx context.Context, recipientID int64) (*Summary, error) {
	sums, err := s.repo.SumRecordsByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{
		Pending: sums[entity.CommissionPending],
		Paid:    sums[entity.CommissionPaid],
	}
	summary.Total = summary.Pending + summary.Paid
	return summary, nil
}

// ExportRecords 导出分佣记录为 Excel
func (s *CommissionService) ExportRecords(ctx context.Context, params repository.RecordListParams) (*bytes.Buffer, error) {
	params.Page = 1
	params.PageSize = 10000
	records, _, err := s.repo.ListRecords(ctx, params)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "分佣记录"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"记录ID", "订单类型", "订单号", "订单金额", "分佣类型", "受益人ID", "受益角色", "费率", "金额", "状态", "发放时间", "创建时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, r := range records {
		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			r.ID, r.OrderType, r.OrderNo, r.OrderAmount, r.CommissionType,
			r.RecipientID, r.RecipientRole, r.Rate, r.Amount, r.Status,
			paidAt, r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("导出分佣记录失败: %w", err)
	}
	return buf, nil
}
