package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/dk264874293/cloud-back-service/internal/testutil"
	"go.uber.org/zap"
)

type orderTestEnv struct {
	orders         *service.OrderService
	commissionRepo *repository.CommissionRepository
}

func newOrderTestEnv(t *testing.T) *orderTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	return &orderTestEnv{
		orders:         service.NewOrderService(orderRepo, commissionRepo, zap.NewNop()),
		commissionRepo: commissionRepo,
	}
}

var (
	customer = service.Actor{ID: 100, Role: entity.RoleUser}
	admin    = service.Actor{ID: 1, Role: entity.RoleAdmin}
	manager  = service.Actor{ID: 200, Role: entity.RoleProvider}
	bank     = bankActor(50, 1)
)

func bankActor(userID, bankID int64) service.Actor {
	return service.Actor{ID: userID, Role: entity.RoleBank, BankID: &bankID}
}

func createTestConnection(t *testing.T, env *orderTestEnv, developerID *int64) *entity.ConnectionOrder {
	t.Helper()
	order, err := env.orders.CreateConnection(context.Background(), customer, &service.CreateConnectionRequest{
		UserType:         entity.UserTypeIndividual,
		NeedType:         entity.NeedTypeLoan,
		Location:         "浙江省",
		Amount:           1000000,
		RepaymentAbility: "月收入 5 万",
		DeveloperID:      developerID,
	})
	if err != nil {
		t.Fatalf("create connection: %v", err)
	}
	return order
}

// 走完对接单全流程直到用户选定银行
func confirmTestConnection(t *testing.T, env *orderTestEnv, order *entity.ConnectionOrder) *entity.ConnectionOrder {
	t.Helper()
	ctx := context.Background()
	interviewerID := int64(300)
	if _, err := env.orders.AssignAccountManager(ctx, admin, order.ID, 200); err != nil {
		t.Fatalf("assign account manager: %v", err)
	}
	if _, err := env.orders.UploadReport(ctx, manager, order.ID, "https://files.example.com/report.pdf", &interviewerID); err != nil {
		t.Fatalf("upload report: %v", err)
	}
	if _, err := env.orders.SetPriceAndAssignBanks(ctx, admin, order.ID, 5000, []int64{1, 2}); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if _, err := env.orders.BankConfirmPurchase(ctx, bank, order.ID); err != nil {
		t.Fatalf("bank purchase: %v", err)
	}
	if _, err := env.orders.ConfirmMeeting(ctx, admin, order.ID); err != nil {
		t.Fatalf("confirm meeting: %v", err)
	}
	confirmed, err := env.orders.SelectBank(ctx, customer, order.ID, 1)
	if err != nil {
		t.Fatalf("select bank: %v", err)
	}
	return confirmed
}

func TestConnectionOrderLifecycle(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()

	developerID := int64(400)
	order := createTestConnection(t, env, &developerID)
	if order.Status != entity.ConnPendingAssign {
		t.Fatalf("initial status = %s, want PENDING_ASSIGN", order.Status)
	}
	if order.OrderNo == "" {
		t.Fatal("order_no not generated")
	}

	confirmed := confirmTestConnection(t, env, order)
	if confirmed.Status != entity.ConnConfirmed {
		t.Fatalf("final status = %s, want CONFIRMED", confirmed.Status)
	}
	if confirmed.SelectedBankID == nil || *confirmed.SelectedBankID != 1 {
		t.Errorf("selected_bank_id = %v, want 1", confirmed.SelectedBankID)
	}
	if confirmed.ConfirmedAt == nil {
		t.Error("confirmed_at not set")
	}

	// 分佣记录按定价金额落地, 平台留存项不入库
	records, err := env.commissionRepo.ListRecordsByOrder(ctx, entity.OrderTypeConnection, order.ID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("commission records = %d, want 3 (developer, account manager, interviewer)", len(records))
	}
	byType := map[string]entity.CommissionRecord{}
	for _, r := range records {
		byType[r.CommissionType] = r
		if r.Status != entity.CommissionPending {
			t.Errorf("record %s status = %s, want PENDING", r.CommissionType, r.Status)
		}
		if r.OrderAmount != 5000 {
			t.Errorf("record %s order_amount = %v, want 5000", r.CommissionType, r.OrderAmount)
		}
	}
	if rec := byType[entity.CommissionDeveloper]; rec.RecipientID != developerID {
		t.Errorf("developer recipient = %d, want %d", rec.RecipientID, developerID)
	}
	if rec := byType[entity.CommissionAccountManager]; rec.RecipientID != 200 {
		t.Errorf("account manager recipient = %d, want 200", rec.RecipientID)
	}
	if rec := byType[entity.CommissionInterviewer]; rec.Amount != 5000*0.02 {
		t.Errorf("interviewer amount = %v, want 100", rec.Amount)
	}

	logs, err := env.orders.ListConnectionLogs(ctx, order.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 7 {
		t.Errorf("order logs = %d, want 7", len(logs))
	}
}

func TestConnectionOrderGuards(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()

	order := createTestConnection(t, env, nil)

	// 角色门禁
	if _, err := env.orders.AssignAccountManager(ctx, manager, order.ID, 200); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("provider assign err = %v, want ErrForbidden", err)
	}
	if _, err := env.orders.CreateConnection(ctx, bank, &service.CreateConnectionRequest{UserType: "INDIVIDUAL", NeedType: "LOAN", Amount: 1}); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("bank create err = %v, want ErrForbidden", err)
	}

	// 状态门禁: 未分配管户人不能传报告, 未到待购买不能定价
	if _, err := env.orders.UploadReport(ctx, manager, order.ID, "u", nil); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("early report err = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.orders.SetPriceAndAssignBanks(ctx, admin, order.ID, 5000, []int64{1}); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("early pricing err = %v, want ErrInvalidTransition", err)
	}

	if _, err := env.orders.AssignAccountManager(ctx, admin, order.ID, 200); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := env.orders.UploadReport(ctx, manager, order.ID, "https://files.example.com/r.pdf", nil); err != nil {
		t.Fatalf("report: %v", err)
	}

	// 未定价不能确认见面
	if _, err := env.orders.ConfirmMeeting(ctx, admin, order.ID); !errors.Is(err, service.ErrValidation) {
		t.Errorf("meeting before pricing err = %v, want ErrValidation", err)
	}
	if _, err := env.orders.SetPriceAndAssignBanks(ctx, admin, order.ID, 5000, []int64{1, 2}); err != nil {
		t.Fatalf("pricing: %v", err)
	}
	// 定价只能一次
	if _, err := env.orders.SetPriceAndAssignBanks(ctx, admin, order.ID, 6000, []int64{3}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("double pricing err = %v, want ErrValidation", err)
	}

	// 未派发的银行不能购买
	if _, err := env.orders.BankConfirmPurchase(ctx, bankActor(51, 9), order.ID); !errors.Is(err, service.ErrValidation) {
		t.Errorf("unassigned bank err = %v, want ErrValidation", err)
	}
	// 银行身份只认令牌, 未绑定银行的账号直接拒绝
	if _, err := env.orders.BankConfirmPurchase(ctx, service.Actor{ID: 52, Role: entity.RoleBank}, order.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("unbound bank account err = %v, want ErrForbidden", err)
	}
	if _, err := env.orders.BankConfirmPurchase(ctx, bank, order.ID); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// 重复确认幂等
	repeat, err := env.orders.BankConfirmPurchase(ctx, bank, order.ID)
	if err != nil {
		t.Fatalf("repeat purchase: %v", err)
	}
	if len(repeat.PurchasedByBanks) != 1 {
		t.Errorf("purchased_by_banks = %v, want [1]", repeat.PurchasedByBanks)
	}

	if _, err := env.orders.ConfirmMeeting(ctx, admin, order.ID); err != nil {
		t.Fatalf("meeting: %v", err)
	}

	// 线下对接中不可取消
	if _, err := env.orders.CancelConnection(ctx, customer, order.ID, "不想办了"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("cancel in offline err = %v, want ErrInvalidTransition", err)
	}
	// 未购买的银行不可被选定
	if _, err := env.orders.SelectBank(ctx, customer, order.ID, 2); !errors.Is(err, service.ErrValidation) {
		t.Errorf("select non-purchased bank err = %v, want ErrValidation", err)
	}
	// 非订单本人不可选定
	if _, err := env.orders.SelectBank(ctx, service.Actor{ID: 999, Role: entity.RoleUser}, order.ID, 1); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("stranger select err = %v, want ErrForbidden", err)
	}

	confirmed, err := env.orders.SelectBank(ctx, customer, order.ID, 1)
	if err != nil {
		t.Fatalf("select bank: %v", err)
	}
	if !confirmed.PurchasedByBanks.Contains(1) {
		t.Errorf("purchased_by_banks missing bank 1: %v", confirmed.PurchasedByBanks)
	}
	// 终态后一切流转拒绝
	if _, err := env.orders.FailConnection(ctx, admin, order.ID, "x"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("fail after confirmed err = %v, want ErrInvalidTransition", err)
	}
}

func TestBankVisibility(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()

	order := createTestConnection(t, env, nil)
	if _, err := env.orders.AssignAccountManager(ctx, admin, order.ID, 200); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := env.orders.UploadReport(ctx, manager, order.ID, "https://files.example.com/r.pdf", nil); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := env.orders.SetPriceAndAssignBanks(ctx, admin, order.ID, 5000, []int64{1, 2}); err != nil {
		t.Fatalf("pricing: %v", err)
	}

	// 派发到的银行可见, 按令牌里的银行归属判定而非用户 id
	if _, err := env.orders.GetConnection(ctx, bankActor(50, 1), order.ID); err != nil {
		t.Errorf("assigned bank get err = %v", err)
	}
	if _, err := env.orders.GetConnection(ctx, bankActor(51, 9), order.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("unassigned bank get err = %v, want ErrForbidden", err)
	}
	if _, err := env.orders.GetConnection(ctx, service.Actor{ID: 52, Role: entity.RoleBank}, order.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("unbound bank account get err = %v, want ErrForbidden", err)
	}
}

func TestCancelConnection(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()

	order := createTestConnection(t, env, nil)

	if _, err := env.orders.CancelConnection(ctx, customer, order.ID, ""); !errors.Is(err, service.ErrValidation) {
		t.Errorf("empty reason err = %v, want ErrValidation", err)
	}
	if _, err := env.orders.CancelConnection(ctx, service.Actor{ID: 999, Role: entity.RoleUser}, order.ID, "r"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("stranger cancel err = %v, want ErrForbidden", err)
	}

	cancelled, err := env.orders.CancelConnection(ctx, customer, order.ID, "资金已自筹")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != entity.ConnCancelled || cancelled.CancelReason != "资金已自筹" {
		t.Errorf("cancelled = %s reason=%q", cancelled.Status, cancelled.CancelReason)
	}
}

func TestEntrustmentOrderLifecycle(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()

	parent := confirmTestConnection(t, env, createTestConnection(t, env, nil))

	// 父订单未确认时不可创建
	other := createTestConnection(t, env, nil)
	if _, err := env.orders.CreateEntrustment(ctx, customer, other.ID); !errors.Is(err, service.ErrValidation) {
		t.Errorf("entrustment on pending parent err = %v, want ErrValidation", err)
	}

	order, err := env.orders.CreateEntrustment(ctx, customer, parent.ID)
	if err != nil {
		t.Fatalf("create entrustment: %v", err)
	}
	if order.Status != entity.EntrustPendingReview {
		t.Fatalf("initial status = %s, want PENDING_REVIEW", order.Status)
	}
	if order.AccountManagerID == nil || *order.AccountManagerID != 200 {
		t.Errorf("account_manager_id = %v, want inherited 200", order.AccountManagerID)
	}

	if _, err := env.orders.UploadAgreement(ctx, customer, order.ID, "https://files.example.com/agreement.pdf"); err != nil {
		t.Fatalf("upload agreement: %v", err)
	}

	// 审核拒绝必须带原因
	if _, err := env.orders.ReviewEntrustment(ctx, admin, order.ID, false, ""); !errors.Is(err, service.ErrValidation) {
		t.Errorf("reject without reason err = %v, want ErrValidation", err)
	}
	if _, err := env.orders.HandlerAccept(ctx, manager, order.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("accept before approval err = %v, want ErrInvalidTransition", err)
	}

	approved, err := env.orders.ReviewEntrustment(ctx, admin, order.ID, true, "材料齐全")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if approved.Status != entity.EntrustApproved {
		t.Fatalf("status = %s, want APPROVED", approved.Status)
	}

	// 审核通过后用户不可再取消
	if _, err := env.orders.CancelEntrustment(ctx, customer, order.ID, "r"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("cancel after approval err = %v, want ErrInvalidTransition", err)
	}

	processing, err := env.orders.HandlerAccept(ctx, manager, order.ID)
	if err != nil {
		t.Fatalf("handler accept: %v", err)
	}
	if processing.HandlerID == nil || *processing.HandlerID != manager.ID {
		t.Errorf("handler_id = %v, want %d", processing.HandlerID, manager.ID)
	}

	// 只有承接的办理人能完成
	if _, err := env.orders.CompleteEntrustment(ctx, service.Actor{ID: 888, Role: entity.RoleProvider}, order.ID, ""); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("other handler complete err = %v, want ErrForbidden", err)
	}

	completed, err := env.orders.CompleteEntrustment(ctx, manager, order.ID, "已放款")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != entity.EntrustCompleted {
		t.Fatalf("status = %s, want COMPLETED", completed.Status)
	}

	// 完成时按父订单定价落地办理人分佣
	records, err := env.commissionRepo.ListRecordsByOrder(ctx, entity.OrderTypeEntrustment, order.ID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("entrustment records = %d, want 1", len(records))
	}
	if records[0].CommissionType != entity.CommissionHandler || records[0].RecipientID != manager.ID {
		t.Errorf("handler record wrong: %+v", records[0])
	}
	if records[0].Amount != 5000*0.02 {
		t.Errorf("handler amount = %v, want 100", records[0].Amount)
	}
}

func TestEntrustmentRejectAndCancel(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()

	parent := confirmTestConnection(t, env, createTestConnection(t, env, nil))

	rejectedOrder, err := env.orders.CreateEntrustment(ctx, customer, parent.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rejected, err := env.orders.ReviewEntrustment(ctx, admin, rejectedOrder.ID, false, "材料不全")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != entity.EntrustRejected || rejected.RejectReason != "材料不全" {
		t.Errorf("rejected = %s reason=%q", rejected.Status, rejected.RejectReason)
	}

	cancelledOrder, err := env.orders.CreateEntrustment(ctx, customer, parent.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled, err := env.orders.CancelEntrustment(ctx, customer, cancelledOrder.ID, "不需要了")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != entity.EntrustCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
}

func TestProvinceRuleResolution(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()

	// 省份规则命中时按省份费率计算
	rule := &entity.CommissionRule{
		Province:           "浙江省",
		PlatformRate:       0.20,
		AgentRate:          0.05,
		FranchiseRate:      0.05,
		ChannelServiceRate: 0.04,
		DeveloperRate:      0.03,
		AccountManagerRate: 0.10,
		InterviewerRate:    0.01,
		HandlerRate:        0.01,
		IsActive:           true,
	}
	if err := env.commissionRepo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	order := confirmTestConnection(t, env, createTestConnection(t, env, nil))

	records, err := env.commissionRepo.ListRecordsByOrder(ctx, entity.OrderTypeConnection, order.ID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	for _, r := range records {
		if r.CommissionType == entity.CommissionAccountManager {
			if r.Amount != 5000*0.10 {
				t.Errorf("account manager amount = %v, want 500 under province rule", r.Amount)
			}
			return
		}
	}
	t.Fatal("account manager record not found")
}
