package service

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WechatPayClient 微信支付网关客户端
type WechatPayClient struct {
	httpClient *resty.Client
	appID      string
	mchID      string
	apiKey     string
	notifyURL  string
	logger     *zap.Logger
}

// NewWechatPayClient 创建微信支付客户端
func NewWechatPayClient(baseURL, appID, mchID, apiKey, notifyURL string, logger *zap.Logger) *WechatPayClient {
	if baseURL == "" {
		baseURL = "https://api.mch.weixin.qq.com"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &WechatPayClient{
		httpClient: client,
		appID:      appID,
		mchID:      mchID,
		apiKey:     apiKey,
		notifyURL:  notifyURL,
		logger:     logger,
	}
}

// UnifiedOrderRequest 统一下单请求
type UnifiedOrderRequest struct {
	PaymentNo   string  `json:"out_trade_no"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	PaymentType string  `json:"payment_type"`
	OpenID      string  `json:"openid,omitempty"`
}

// UnifiedOrderResponse 统一下单响应
type UnifiedOrderResponse struct {
	PrepayID string `json:"prepay_id"`
	CodeURL  string `json:"code_url"`
	Sign     string `json:"sign"`
}

// CreatePrepayOrder 向网关发起预支付下单
func (c *WechatPayClient) CreatePrepayOrder(req *UnifiedOrderRequest) (*UnifiedOrderResponse, error) {
	body := map[string]interface{}{
		"appid":        c.appID,
		"mchid":        c.mchID,
		"out_trade_no": req.PaymentNo,
		"description":  req.Description,
		"notify_url":   c.notifyURL,
		"amount": map[string]interface{}{
			// 网关按分计价
			"total":    int64(req.Amount * 100),
			"currency": "CNY",
		},
	}
	if req.PaymentType == "JSAPI" && req.OpenID != "" {
		body["payer"] = map[string]string{"openid": req.OpenID}
	}

	var result UnifiedOrderResponse
	resp, err := c.httpClient.R().
		SetBody(body).
		SetResult(&result).
		Post("/v3/pay/transactions/" + strings.ToLower(req.PaymentType))
	if err != nil {
		c.logger.Error("wechat unified order failed",
			zap.String("payment_no", req.PaymentNo),
			zap.Error(err))
		return nil, fmt.Errorf("call wechat gateway: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wechat gateway error: status %d", resp.StatusCode())
	}
	return &result, nil
}

// VerifyCallbackSign 校验回调签名。
// 把回调参数按 key 排序拼接后加 key=apiKey 做 MD5, 与 sign 字段比对。
func (c *WechatPayClient) VerifyCallbackSign(params map[string]string) bool {
	sign, ok := params["sign"]
	if !ok || sign == "" {
		return false
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" || params[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(params[k])
		sb.WriteString("&")
	}
	sb.WriteString("key=")
	sb.WriteString(c.apiKey)

	expected := fmt.Sprintf("%X", md5.Sum([]byte(sb.String())))
	return strings.EqualFold(expected, sign)
}
