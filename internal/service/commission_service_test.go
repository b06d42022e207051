package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/dk264874293/cloud-back-service/internal/testutil"
)

func newCommissionTestEnv(t *testing.T) (*service.CommissionService, *repository.CommissionRepository) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repo := repository.NewCommissionRepository(db)
	return service.NewCommissionService(repo), repo
}

func TestRuleCRUD(t *testing.T) {
	svc, _ := newCommissionTestEnv(t)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, &service.CreateRuleRequest{
		Province:           "浙江省",
		PlatformRate:       0.25,
		AgentRate:          0.06,
		FranchiseRate:      0.05,
		ChannelServiceRate: 0.04,
		DeveloperRate:      0.04,
		AccountManagerRate: 0.05,
		InterviewerRate:    0.015,
		HandlerRate:        0.015,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if !rule.IsActive {
		t.Error("new rule should be active")
	}

	// 费率越界
	if _, err := svc.CreateRule(ctx, &service.CreateRuleRequest{PlatformRate: 1.2}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("rate > 1 err = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateRule(ctx, &service.CreateRuleRequest{AgentRate: -0.1}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("negative rate err = %v, want ErrValidation", err)
	}

	newRate := 0.30
	inactive := false
	updated, err := svc.UpdateRule(ctx, rule.ID, &service.UpdateRuleRequest{
		PlatformRate: &newRate,
		IsActive:     &inactive,
	})
	if err != nil {
		t.Fatalf("update rule: %v", err)
	}
	if updated.PlatformRate != 0.30 || updated.IsActive {
		t.Errorf("updated rule = rate %v active %v", updated.PlatformRate, updated.IsActive)
	}
	// 未传的字段保持不变
	if updated.AgentRate != 0.06 {
		t.Errorf("agent rate changed to %v", updated.AgentRate)
	}

	bad := 2.0
	if _, err := svc.UpdateRule(ctx, rule.ID, &service.UpdateRuleRequest{HandlerRate: &bad}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("bad update rate err = %v, want ErrValidation", err)
	}

	if err := svc.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("delete rule: %v", err)
	}
	if _, err := svc.GetRule(ctx, rule.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("get deleted rule err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteRule(ctx, 99999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("delete missing rule err = %v, want ErrNotFound", err)
	}
}

func TestListRulesProvinceFilter(t *testing.T) {
	svc, _ := newCommissionTestEnv(t)
	ctx := context.Background()

	for _, province := range []string{"", "浙江省", "江苏省"} {
		if _, err := svc.CreateRule(ctx, &service.CreateRuleRequest{Province: province, PlatformRate: 0.2}); err != nil {
			t.Fatalf("create rule %q: %v", province, err)
		}
	}

	// 空串省份是全国默认规则, 按过滤条件可单独检索
	empty := ""
	rules, total, err := svc.ListRules(ctx, repository.RuleListParams{Province: &empty})
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if total != 1 || len(rules) != 1 || rules[0].Province != "" {
		t.Errorf("default-rule filter: total=%d rules=%+v", total, rules)
	}

	_, total, err = svc.ListRules(ctx, repository.RuleListParams{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func seedRecord(t *testing.T, repo *repository.CommissionRepository, recipientID int64, amount float64, status string) *entity.CommissionRecord {
	t.Helper()
	rec := entity.CommissionRecord{
		OrderType:      entity.OrderTypeConnection,
		OrderID:        1,
		OrderNo:        "CN20260901000001",
		OrderAmount:    5000,
		CommissionType: entity.CommissionDeveloper,
		RecipientID:    recipientID,
		RecipientRole:  entity.CommissionDeveloper,
		Amount:         amount,
		Rate:           amount / 5000,
		Status:         status,
	}
	if err := repo.CreateRecords(context.Background(), []entity.CommissionRecord{rec}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	records, _, err := repo.ListRecords(context.Background(), repository.RecordListParams{RecipientID: &recipientID, Page: 1, PageSize: 100})
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	for i := range records {
		if records[i].Amount == amount && records[i].Status == status {
			return &records[i]
		}
	}
	t.Fatalf("seeded record not found")
	return nil
}

func TestMarkPaid(t *testing.T) {
	svc, repo := newCommissionTestEnv(t)
	ctx := context.Background()

	rec := seedRecord(t, repo, 400, 258.0, entity.CommissionPending)

	paid, err := svc.MarkPaid(ctx, rec.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != entity.CommissionPaid {
		t.Errorf("status = %s, want PAID", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Error("paid_at not set")
	}

	// 重复发放拒绝
	if _, err := svc.MarkPaid(ctx, rec.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("double pay err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.MarkPaid(ctx, 99999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing record err = %v, want ErrNotFound", err)
	}
}

func TestSummaryByRecipient(t *testing.T) {
	svc, repo := newCommissionTestEnv(t)
	ctx := context.Background()

	seedRecord(t, repo, 500, 100, entity.CommissionPending)
	seedRecord(t, repo, 500, 150, entity.CommissionPending)
	rec := seedRecord(t, repo, 500, 200, entity.CommissionPending)
	seedRecord(t, repo, 501, 999, entity.CommissionPending)

	if _, err := svc.MarkPaid(ctx, rec.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	summary, err := svc.SummaryByRecipient(ctx, 500)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total != 450 {
		t.Errorf("total = %v, want 450", summary.Total)
	}
	if summary.Paid == 0 || summary.Pending == 0 {
		t.Errorf("summary = %+v, want both paid and pending non-zero", summary)
	}
	if summary.Pending+summary.Paid != summary.Total {
		t.Errorf("pending %v + paid %v != total %v", summary.Pending, summary.Paid, summary.Total)
	}

	empty, err := svc.SummaryByRecipient(ctx, 777)
	if err != nil {
		t.Fatalf("empty summary: %v", err)
	}
	if empty.Total != 0 {
		t.Errorf("empty total = %v, want 0", empty.Total)
	}
}

func TestExportRecords(t *testing.T) {
	svc, repo := newCommissionTestEnv(t)
	ctx := context.Background()

	recipientID := int64(600)
	seedRecord(t, repo, recipientID, 258.0, entity.CommissionPending)

	buf, err := svc.ExportRecords(ctx, repository.RecordListParams{RecipientID: &recipientID})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty export buffer")
	}
	// xlsx 是 zip 容器, 以 PK 开头
	head := buf.Bytes()[:2]
	if head[0] != 'P' || head[1] != 'K' {
		t.Errorf("export is not an xlsx archive, head = %q", head)
	}
}
