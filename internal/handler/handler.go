package handler

import (
	"errors"
	"strconv"

	"github.com/dk264874293/cloud-back-service/internal/config"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Auth            *AuthHandler
	User            *UserHandler
	ServiceProvider *ServiceProviderHandler
	Order           *OrderHandler
	Commission      *CommissionHandler
	Payment         *PaymentHandler
	Withdrawal      *WithdrawalHandler
	Bank            *BankHandler
	Invitation      *InvitationHandler
	File            *FileHandler
	Feedback        *FeedbackHandler
	OperationLog    *OperationLogHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:            NewAuthHandler(svc.Auth),
		User:            NewUserHandler(svc.User),
		ServiceProvider: NewServiceProviderHandler(svc.ServiceProvider),
		Order:           NewOrderHandler(svc.Order),
		Commission:      NewCommissionHandler(svc.Commission),
		Payment:         NewPaymentHandler(svc.Payment),
		Withdrawal:      NewWithdrawalHandler(svc.Withdrawal),
		Bank:            NewBankHandler(svc.Bank),
		Invitation:      NewInvitationHandler(svc.Invitation),
		File:            NewFileHandler(svc.File),
		Feedback:        NewFeedbackHandler(svc.Feedback),
		OperationLog:    NewOperationLogHandler(svc.OperationLog),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPagination 按总数计算分页信息
func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) > 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Fail 按业务错误类型映射错误响应
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) int64 {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(int64); ok {
		return id
	}
	return 0
}

// GetActor 从上下文构造操作人
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{
		ID:   GetUserID(c),
		Role: c.GetString("role"),
	}
	if bankID, ok := c.Get("bank_id"); ok {
		if id, ok := bankID.(int64); ok {
			actor.BankID = &id
		}
	}
	return actor
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// ParamID 解析路径参数中的数值ID
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "参数错误: 非法的"+name)
		return 0, false
	}
	return id, true
}

// QueryInt64 解析查询参数中的数值, 缺省返回nil
func QueryInt64(c *gin.Context, name string) *int64 {
	if v := c.Query(name); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}
