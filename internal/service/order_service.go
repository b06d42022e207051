package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor 已认证的操作者。BankID 只在银行身份令牌里出现, 银行侧操作以它为准
type Actor struct {
	ID     int64
	Role   string
	BankID *int64
}

// OrderService 订单服务, 承载对接单与委托单两套状态机
type OrderService struct {
	orderRepo      *repository.OrderRepository
	commissionRepo *repository.CommissionRepository
	logger         *zap.Logger
}

func NewOrderService(orderRepo *repository.OrderRepository, commissionRepo *repository.CommissionRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		commissionRepo: commissionRepo,
		logger:         logger,
	}
}

// appendLog 追加订单日志。实体变更已提交时日志写失败不回滚, 只告警等待对账。
func (s *OrderService) appendLog(ctx context.Context, orderType string, orderID int64, action string, actor Actor, before, after string, data entity.JSONB) {
	log := &entity.OrderLog{
		OrderType:    orderType,
		OrderID:      orderID,
		Action:       action,
		OperatorID:   &actor.ID,
		OperatorRole: actor.Role,
		BeforeStatus: before,
		AfterStatus:  after,
		Data:         data,
	}
	if err := s.orderRepo.CreateLog(ctx, log); err != nil {
		s.logger.Error("order log write failed, needs reconciliation",
			zap.String("order_type", orderType),
			zap.Int64("order_id", orderID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// ========== 对接订单 ==========

// CreateConnectionRequest 创建对接订单请求
type CreateConnectionRequest struct {
	UserType         string  `json:"user_type" binding:"required"`
	NeedType         string  `json:"need_type" binding:"required"`
	Location         string  `json:"location"`
	Amount           float64 `json:"amount" binding:"required"`
	RepaymentAbility string  `json:"repayment_ability"`
	DeveloperID      *int64  `json:"developer_id"`
}

// CreateConnection 用户创建对接订单, 初始状态待分配管户人
func (s *OrderService) CreateConnection(ctx context.Context, actor Actor, req *CreateConnectionRequest) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleUser && actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: role %s can not create connection orders", ErrForbidden, actor.Role)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	order := &entity.ConnectionOrder{
		OrderNo:          GenerateOrderNo(OrderNoPrefixConnection),
		UserID:           actor.ID,
		DeveloperID:      req.DeveloperID,
		Status:           entity.ConnPendingAssign,
		UserType:         req.UserType,
		NeedType:         req.NeedType,
		Location:         req.Location,
		Amount:           req.Amount,
		RepaymentAbility: req.RepaymentAbility,
		AssignedBanks:    entity.Int64List{},
		PurchasedByBanks: entity.Int64List{},
	}
	if err := s.orderRepo.CreateConnection(ctx, order); err != nil {
		return nil, fmt.Errorf("创建对接订单失败: %w", err)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, order.ID, "create", actor, "", entity.ConnPendingAssign, entity.JSONB{
		"order_no": order.OrderNo,
		"amount":   order.Amount,
	})
	return order, nil
}

// AssignAccountManager 管理员分配管户人, 待分配 -> 报告撰写中
func (s *OrderService) AssignAccountManager(ctx context.Context, actor Actor, orderID, accountManagerID int64) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can assign account manager", ErrForbidden)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionConnection(order.Status, entity.ConnInReview) {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	affected, err := s.orderRepo.UpdateConnectionIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"status":             entity.ConnInReview,
		"account_manager_id": accountManagerID,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "assign_account_manager", actor, order.Status, entity.ConnInReview, entity.JSONB{
		"account_manager_id": accountManagerID,
	})
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// UploadReport 管户人上传尽调报告, 报告撰写中 -> 待银行购买
func (s *OrderService) UploadReport(ctx context.Context, actor Actor, orderID int64, reportURL string, interviewerID *int64) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleProvider && actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only provider or admin can upload report", ErrForbidden)
	}
	if reportURL == "" {
		return nil, fmt.Errorf("%w: report url required", ErrValidation)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionConnection(order.Status, entity.ConnWaitingPurchase) {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	fields := map[string]interface{}{
		"status":     entity.ConnWaitingPurchase,
		"report_url": reportURL,
	}
	if interviewerID != nil {
		fields["interviewer_id"] = *interviewerID
	}
	affected, err := s.orderRepo.UpdateConnectionIfStatus(ctx, orderID, order.Status, fields)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "upload_report", actor, order.Status, entity.ConnWaitingPurchase, entity.JSONB{
		"report_url": reportURL,
	})
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// SetPriceAndAssignBanks 管理员定价并派发给银行, 仅在待银行购买状态允许且只能一次
func (s *OrderService) SetPriceAndAssignBanks(ctx context.Context, actor Actor, orderID int64, price float64, bankIDs []int64) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can set price", ErrForbidden)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if len(bankIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one bank required", ErrValidation)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.ConnWaitingPurchase {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}
	if order.Price > 0 || len(order.AssignedBanks) > 0 {
		return nil, fmt.Errorf("%w: price and banks already set", ErrValidation)
	}

	affected, err := s.orderRepo.UpdateConnectionIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"price":          price,
		"assigned_banks": entity.Int64List(bankIDs),
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "set_price_assign_banks", actor, order.Status, order.Status, entity.JSONB{
		"price": price,
		"banks": bankIDs,
	})
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// BankConfirmPurchase 银行确认购买, 银行身份取自令牌而非请求体。
// 幂等: 同一银行重复确认是空操作。
func (s *OrderService) BankConfirmPurchase(ctx context.Context, actor Actor, orderID int64) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleBank {
		return nil, fmt.Errorf("%w: only bank can confirm purchase", ErrForbidden)
	}
	if actor.BankID == nil {
		return nil, fmt.Errorf("%w: no bank bound to this account", ErrForbidden)
	}
	bankID := *actor.BankID

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !IsConnectionBankPurchasable(order.Status) {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}
	if !order.AssignedBanks.Contains(bankID) {
		return nil, fmt.Errorf("%w: bank %d not assigned to this order", ErrValidation, bankID)
	}
	if order.PurchasedByBanks.Contains(bankID) {
		return order, nil
	}

	purchased := append(order.PurchasedByBanks, bankID)
	affected, err := s.orderRepo.UpdateConnectionIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"purchased_by_banks": purchased,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "bank_confirm_purchase", actor, order.Status, order.Status, entity.JSONB{
		"bank_id": bankID,
	})
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// ConfirmMeeting 线下见面确认, 待银行购买 -> 线下对接中, 前提是已定价派发
func (s *OrderService) ConfirmMeeting(ctx context.Context, actor Actor, orderID int64) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleProvider {
		return nil, fmt.Errorf("%w: only admin or provider can confirm meeting", ErrForbidden)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionConnection(order.Status, entity.ConnInOffline) {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}
	if order.Price <= 0 || len(order.AssignedBanks) == 0 {
		return nil, fmt.Errorf("%w: price and banks must be set before meeting", ErrValidation)
	}

	affected, err := s.orderRepo.UpdateConnectionIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"status": entity.ConnInOffline,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "confirm_meeting", actor, order.Status, entity.ConnInOffline, nil)
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// SelectBank 用户选定银行, 线下对接中 -> 已确认, 同一事务内落地分佣记录
func (s *OrderService) SelectBank(ctx context.Context, actor Actor, orderID, bankID int64) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleUser {
		return nil, fmt.Errorf("%w: only the customer can select bank", ErrForbidden)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	if !CanTransitionConnection(order.Status, entity.ConnConfirmed) {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}
	if !order.PurchasedByBanks.Contains(bankID) {
		return nil, fmt.Errorf("%w: bank %d has not purchased this order", ErrValidation, bankID)
	}

	rule := s.resolveRule(ctx, order.Location)
	items := CalculateCommission(order.Price, rule, CommissionParticipants{
		DeveloperID:      order.DeveloperID,
		AccountManagerID: order.AccountManagerID,
		InterviewerID:    order.InterviewerID,
	})
	records := buildCommissionRecords(entity.OrderTypeConnection, order.ID, order.OrderNo, order.Price, items)

	now := time.Now()
	err = s.orderRepo.DB().Transaction(func(tx *gorm.DB) error {
		affected, txErr := s.orderRepo.WithTx(tx).UpdateConnectionIfStatus(ctx, orderID, order.Status, map[string]interface{}{
			"status":           entity.ConnConfirmed,
			"selected_bank_id": bankID,
			"confirmed_at":     now,
		})
		if txErr != nil {
			return txErr
		}
		if affected == 0 {
			return fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
		}
		return s.commissionRepo.WithTx(tx).CreateRecords(ctx, records)
	})
	if err != nil {
		return nil, err
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "select_bank", actor, order.Status, entity.ConnConfirmed, entity.JSONB{
		"bank_id":            bankID,
		"commission_records": len(records),
	})
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// CancelConnection 取消对接订单, 仅待分配/撰写中/待购买三个状态允许
func (s *OrderService) CancelConnection(ctx context.Context, actor Actor, orderID int64, reason string) (*entity.ConnectionOrder, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancel reason required", ErrValidation)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleUser && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	if actor.Role != entity.RoleUser && actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: role %s can not cancel", ErrForbidden, actor.Role)
	}
	if !IsConnectionCancelable(order.Status) {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	affected, err := s.orderRepo.UpdateConnectionIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"status":        entity.ConnCancelled,
		"cancel_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "cancel", actor, order.Status, entity.ConnCancelled, entity.JSONB{
		"reason": reason,
	})
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// FailConnection 线下对接失败收尾, 线下对接中 -> 失败
func (s *OrderService) FailConnection(ctx context.Context, actor Actor, orderID int64, reason string) (*entity.ConnectionOrder, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can mark failed", ErrForbidden)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionConnection(order.Status, entity.ConnFailed) {
		return nil, fmt.Errorf("%w: connection order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	affected, err := s.orderRepo.UpdateConnectionIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"status":        entity.ConnFailed,
		"cancel_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: connection order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeConnection, orderID, "fail", actor, order.Status, entity.ConnFailed, entity.JSONB{
		"reason": reason,
	})
	return s.orderRepo.FindConnectionByID(ctx, orderID)
}

// GetConnection 查询对接订单, 用户只能看自己的, 银行只能看派发给自己的
func (s *OrderService) GetConnection(ctx context.Context, actor Actor, orderID int64) (*entity.ConnectionOrder, error) {
	order, err := s.orderRepo.FindConnectionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case entity.RoleUser:
		if order.UserID != actor.ID {
			return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
		}
	case entity.RoleBank:
		// 可见性按令牌里的所属银行判定
		if actor.BankID == nil || !order.AssignedBanks.Contains(*actor.BankID) {
			return nil, fmt.Errorf("%w: order not assigned to this bank", ErrForbidden)
		}
	}
	return order, nil
}

func (s *OrderService) ListConnections(ctx context.Context, params repository.ConnectionListParams) ([]entity.ConnectionOrder, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.orderRepo.ListConnections(ctx, params)
}

func (s *OrderService) ListConnectionLogs(ctx context.Context, orderID int64) ([]entity.OrderLog, error) {
	return s.orderRepo.ListLogs(ctx, entity.OrderTypeConnection, orderID)
}

// ========== 委托订单 ==========

// CreateEntrustment 在已确认的对接订单下创建委托订单
func (s *OrderService) CreateEntrustment(ctx context.Context, actor Actor, connectionOrderID int64) (*entity.EntrustmentOrder, error) {
	if actor.Role != entity.RoleUser {
		return nil, fmt.Errorf("%w: only the customer can create entrustment orders", ErrForbidden)
	}

	parent, err := s.orderRepo.FindConnectionByID(ctx, connectionOrderID)
	if err != nil {
		return nil, err
	}
	if parent.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	if parent.Status != entity.ConnConfirmed {
		return nil, fmt.Errorf("%w: parent connection order is %s, expect %s", ErrValidation, parent.Status, entity.ConnConfirmed)
	}

	order := &entity.EntrustmentOrder{
		OrderNo:           GenerateOrderNo(OrderNoPrefixEntrustment),
		ConnectionOrderID: parent.ID,
		UserID:            actor.ID,
		AccountManagerID:  parent.AccountManagerID,
		Status:            entity.EntrustPendingReview,
	}
	if err := s.orderRepo.CreateEntrustment(ctx, order); err != nil {
		return nil, fmt.Errorf("创建委托订单失败: %w", err)
	}

	s.appendLog(ctx, entity.OrderTypeEntrustment, order.ID, "create", actor, "", entity.EntrustPendingReview, entity.JSONB{
		"order_no":            order.OrderNo,
		"connection_order_id": parent.ID,
	})
	return order, nil
}

// UploadAgreement 上传委托协议, 仅待审核状态允许
func (s *OrderService) UploadAgreement(ctx context.Context, actor Actor, orderID int64, agreementURL string) (*entity.EntrustmentOrder, error) {
	if agreementURL == "" {
		return nil, fmt.Errorf("%w: agreement url required", ErrValidation)
	}

	order, err := s.orderRepo.FindEntrustmentByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleUser && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	if order.Status != entity.EntrustPendingReview {
		return nil, fmt.Errorf("%w: entrustment order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	affected, err := s.orderRepo.UpdateEntrustmentIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"agreement_url": agreementURL,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: entrustment order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeEntrustment, orderID, "upload_agreement", actor, order.Status, order.Status, entity.JSONB{
		"agreement_url": agreementURL,
	})
	return s.orderRepo.FindEntrustmentByID(ctx, orderID)
}

// ReviewEntrustment 管理员审核, 通过 -> APPROVED 并清空拒绝原因, 拒绝 -> REJECTED 并记录原因
func (s *OrderService) ReviewEntrustment(ctx context.Context, actor Actor, orderID int64, approved bool, note string) (*entity.EntrustmentOrder, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can review", ErrForbidden)
	}

	order, err := s.orderRepo.FindEntrustmentByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	target := entity.EntrustApproved
	if !approved {
		target = entity.EntrustRejected
		if note == "" {
			return nil, fmt.Errorf("%w: reject reason required", ErrValidation)
		}
	}
	if !CanTransitionEntrustment(order.Status, target) {
		return nil, fmt.Errorf("%w: entrustment order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	fields := map[string]interface{}{"status": target}
	if approved {
		fields["approval_note"] = note
		fields["reject_reason"] = ""
	} else {
		fields["reject_reason"] = note
	}
	affected, err := s.orderRepo.UpdateEntrustmentIfStatus(ctx, orderID, order.Status, fields)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: entrustment order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeEntrustment, orderID, "review", actor, order.Status, target, entity.JSONB{
		"approved": approved,
		"note":     note,
	})
	return s.orderRepo.FindEntrustmentByID(ctx, orderID)
}

// HandlerAccept 办理人接单, APPROVED -> PROCESSING
func (s *OrderService) HandlerAccept(ctx context.Context, actor Actor, orderID int64) (*entity.EntrustmentOrder, error) {
	if actor.Role != entity.RoleProvider {
		return nil, fmt.Errorf("%w: only provider can accept entrustment", ErrForbidden)
	}

	order, err := s.orderRepo.FindEntrustmentByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionEntrustment(order.Status, entity.EntrustProcessing) {
		return nil, fmt.Errorf("%w: entrustment order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	affected, err := s.orderRepo.UpdateEntrustmentIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"status":     entity.EntrustProcessing,
		"handler_id": actor.ID,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: entrustment order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeEntrustment, orderID, "handler_accept", actor, order.Status, entity.EntrustProcessing, nil)
	return s.orderRepo.FindEntrustmentByID(ctx, orderID)
}

// CompleteEntrustment 办理完成, PROCESSING -> COMPLETED, 同一事务内落地办理人分佣
func (s *OrderService) CompleteEntrustment(ctx context.Context, actor Actor, orderID int64, note string) (*entity.EntrustmentOrder, error) {
	if actor.Role != entity.RoleProvider && actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only handler or admin can complete", ErrForbidden)
	}

	order, err := s.orderRepo.FindEntrustmentByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleProvider && (order.HandlerID == nil || *order.HandlerID != actor.ID) {
		return nil, fmt.Errorf("%w: not the assigned handler", ErrForbidden)
	}
	if !CanTransitionEntrustment(order.Status, entity.EntrustCompleted) {
		return nil, fmt.Errorf("%w: entrustment order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	parent := order.ConnectionOrder
	if parent == nil {
		parent, err = s.orderRepo.FindConnectionByID(ctx, order.ConnectionOrderID)
		if err != nil {
			return nil, err
		}
	}

	rule := s.resolveRule(ctx, parent.Location)
	items := CalculateCommission(parent.Price, rule, CommissionParticipants{
		HandlerID: order.HandlerID,
	})
	records := buildCommissionRecords(entity.OrderTypeEntrustment, order.ID, order.OrderNo, parent.Price, items)

	err = s.orderRepo.DB().Transaction(func(tx *gorm.DB) error {
		affected, txErr := s.orderRepo.WithTx(tx).UpdateEntrustmentIfStatus(ctx, orderID, order.Status, map[string]interface{}{
			"status":          entity.EntrustCompleted,
			"completion_note": note,
		})
		if txErr != nil {
			return txErr
		}
		if affected == 0 {
			return fmt.Errorf("%w: entrustment order %d", ErrConflict, orderID)
		}
		return s.commissionRepo.WithTx(tx).CreateRecords(ctx, records)
	})
	if err != nil {
		return nil, err
	}

	s.appendLog(ctx, entity.OrderTypeEntrustment, orderID, "complete", actor, order.Status, entity.EntrustCompleted, entity.JSONB{
		"note":               note,
		"commission_records": len(records),
	})
	return s.orderRepo.FindEntrustmentByID(ctx, orderID)
}

// FailEntrustment 办理失败, PROCESSING -> FAILED
func (s *OrderService) FailEntrustment(ctx context.Context, actor Actor, orderID int64, reason string) (*entity.EntrustmentOrder, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can mark failed", ErrForbidden)
	}

	order, err := s.orderRepo.FindEntrustmentByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionEntrustment(order.Status, entity.EntrustFailed) {
		return nil, fmt.Errorf("%w: entrustment order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	affected, err := s.orderRepo.UpdateEntrustmentIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"status":          entity.EntrustFailed,
		"completion_note": reason,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: entrustment order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeEntrustment, orderID, "fail", actor, order.Status, entity.EntrustFailed, entity.JSONB{
		"reason": reason,
	})
	return s.orderRepo.FindEntrustmentByID(ctx, orderID)
}

// CancelEntrustment 取消委托订单, 仅待审核状态允许
func (s *OrderService) CancelEntrustment(ctx context.Context, actor Actor, orderID int64, reason string) (*entity.EntrustmentOrder, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancel reason required", ErrValidation)
	}

	order, err := s.orderRepo.FindEntrustmentByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleUser && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	if !IsEntrustmentCancelable(order.Status) {
		return nil, fmt.Errorf("%w: entrustment order %d is %s", ErrInvalidTransition, orderID, order.Status)
	}

	affected, err := s.orderRepo.UpdateEntrustmentIfStatus(ctx, orderID, order.Status, map[string]interface{}{
		"status":        entity.EntrustCancelled,
		"reject_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: entrustment order %d", ErrConflict, orderID)
	}

	s.appendLog(ctx, entity.OrderTypeEntrustment, orderID, "cancel", actor, order.Status, entity.EntrustCancelled, entity.JSONB{
		"reason": reason,
	})
	return s.orderRepo.FindEntrustmentByID(ctx, orderID)
}

func (s *OrderService) GetEntrustment(ctx context.Context, actor Actor, orderID int64) (*entity.EntrustmentOrder, error) {
	order, err := s.orderRepo.FindEntrustmentByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleUser && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) ListEntrustments(ctx context.Context, params repository.EntrustmentListParams) ([]entity.EntrustmentOrder, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.orderRepo.ListEntrustments(ctx, params)
}

func (s *OrderService) ListEntrustmentLogs(ctx context.Context, orderID int64) ([]entity.OrderLog, error) {
	return s.orderRepo.ListLogs(ctx, entity.OrderTypeEntrustment, orderID)
}

// resolveRule 三级费率解析: 省份规则 -> 全国默认规则 -> 内置兜底。
// 查库失败同样落到兜底, 不阻断订单流转。
func (s *OrderService) resolveRule(ctx context.Context, province string) *entity.CommissionRule {
	if province != "" {
		rule, err := s.commissionRepo.FindActiveRuleByProvince(ctx, province)
		if err == nil {
			return rule
		}
		if err != repository.ErrNotFound {
			s.logger.Warn("commission rule lookup failed", zap.String("province", province), zap.Error(err))
		}
	}
	rule, err := s.commissionRepo.FindActiveRuleByProvince(ctx, "")
	if err == nil {
		return rule
	}
	if err != repository.ErrNotFound {
		s.logger.Warn("default commission rule lookup failed", zap.Error(err))
	}
	return nil
}

// buildCommissionRecords 把计算结果转为待落库记录, recipientId=0 的平台留存项被丢弃
func buildCommissionRecords(orderType string, orderID int64, orderNo string, orderAmount float64, items []CommissionLineItem) []entity.CommissionRecord {
	records := make([]entity.CommissionRecord, 0, len(items))
	for _, item := range items {
		if item.RecipientID == 0 {
			continue
		}
		records = append(records, entity.CommissionRecord{
			OrderType:      orderType,
			OrderID:        orderID,
			OrderNo:        orderNo,
			OrderAmount:    orderAmount,
			CommissionType: item.CommissionType,
			RecipientID:    item.RecipientID,
			RecipientRole:  item.RecipientRole,
			Amount:         item.Amount,
			Rate:           item.Rate,
			Status:         entity.CommissionPending,
		})
	}
	return records
}
