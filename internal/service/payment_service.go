package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"go.uber.org/zap"
)

// PaymentService 支付服务
type PaymentService struct {
	repo      *repository.PaymentRepository
	orderRepo *repository.OrderRepository
	wechat    *WechatPayClient
	logger    *zap.Logger
}

func NewPaymentService(repo *repository.PaymentRepository, orderRepo *repository.OrderRepository, wechat *WechatPayClient, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:      repo,
		orderRepo: orderRepo,
		wechat:    wechat,
		logger:    logger,
	}
}

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	OrderType   string `json:"order_type" binding:"required"`
	OrderID     int64  `json:"order_id" binding:"required"`
	PaymentType string `json:"payment_type" binding:"required"`
	OpenID      string `json:"openid"`
}

// CreatePaymentResult 发起支付结果, 透传网关预支付凭据
type CreatePaymentResult struct {
	Payment *entity.Payment       `json:"payment"`
	Gateway *UnifiedOrderResponse `json:"gateway"`
}

// Create 对订单发起支付, 金额取订单定价
func (s *PaymentService) Create(ctx context.Context, actor Actor, req *CreatePaymentRequest) (*CreatePaymentResult, error) {
	if req.PaymentType != entity.PaymentTypeJSAPI && req.PaymentType != entity.PaymentTypeNative {
		return nil, fmt.Errorf("%w: unknown payment type %q", ErrValidation, req.PaymentType)
	}
	if req.OrderType != entity.OrderTypeConnection {
		return nil, fmt.Errorf("%w: unsupported order type %q", ErrValidation, req.OrderType)
	}

	order, err := s.orderRepo.FindConnectionByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	if order.Price <= 0 {
		return nil, fmt.Errorf("%w: order not priced yet", ErrValidation)
	}

	payment := &entity.Payment{
		PaymentNo:   GenerateOrderNo(OrderNoPrefixPayment),
		OrderType:   req.OrderType,
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		PayerID:     &actor.ID,
		Amount:      order.Price,
		PaymentType: req.PaymentType,
		Status:      entity.PaymentPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("创建支付单失败: %w", err)
	}

	var gateway *UnifiedOrderResponse
	if s.wechat != nil {
		gateway, err = s.wechat.CreatePrepayOrder(&UnifiedOrderRequest{
			PaymentNo:   payment.PaymentNo,
			Amount:      payment.Amount,
			Description: "对接订单 " + order.OrderNo,
			PaymentType: req.PaymentType,
			OpenID:      req.OpenID,
		})
		if err != nil {
			return nil, err
		}
	}

	return &CreatePaymentResult{Payment: payment, Gateway: gateway}, nil
}

// HandleCallback 处理网关异步回调。验签失败直接拒绝; 重复回调幂等。
func (s *PaymentService) HandleCallback(ctx context.Context, params map[string]string) error {
	if s.wechat != nil && !s.wechat.VerifyCallbackSign(params) {
		return fmt.Errorf("%w: invalid callback signature", ErrValidation)
	}

	paymentNo := params["out_trade_no"]
	if paymentNo == "" {
		return fmt.Errorf("%w: missing out_trade_no", ErrValidation)
	}

	payment, err := s.repo.FindByPaymentNo(ctx, paymentNo)
	if err != nil {
		return err
	}

	callbackData := entity.JSONB{}
	for k, v := range params {
		callbackData[k] = v
	}

	success := params["trade_state"] == "SUCCESS" || params["result_code"] == "SUCCESS"
	target := entity.PaymentPaid
	if !success {
		target = entity.PaymentFailed
	}

	fields := map[string]interface{}{
		"status":         target,
		"transaction_id": params["transaction_id"],
		"callback_data":  callbackData,
	}
	if success {
		fields["paid_at"] = time.Now()
	}

	affected, err := s.repo.UpdateIfStatus(ctx, payment.ID, entity.PaymentPending, fields)
	if err != nil {
		return err
	}
	if affected == 0 {
		// 回调重入, 状态已落定
		s.logger.Info("duplicate payment callback ignored",
			zap.String("payment_no", paymentNo),
			zap.String("current_status", payment.Status))
		return nil
	}

	s.logger.Info("payment callback processed",
		zap.String("payment_no", paymentNo),
		zap.String("status", target),
		zap.Float64("amount", payment.Amount))
	return nil
}

func (s *PaymentService) Get(ctx context.Context, actor Actor, id int64) (*entity.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleUser && (payment.PayerID == nil || *payment.PayerID != actor.ID) {
		return nil, fmt.Errorf("%w: not the payer", ErrForbidden)
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, params repository.PaymentListParams) ([]entity.Payment, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}

// ParseCallbackAmount 回调金额字段按分计, 转回元
func ParseCallbackAmount(raw string) (float64, error) {
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad amount %q", ErrValidation, raw)
	}
	return float64(cents) / 100, nil
}
