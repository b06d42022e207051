package service

import (
	"github.com/dk264874293/cloud-back-service/internal/config"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Auth            *AuthService
	User            *UserService
	ServiceProvider *ServiceProviderService
	Cache           *CacheService
	Order           *OrderService
	Commission      *CommissionService
	Payment         *PaymentService
	Withdrawal      *WithdrawalService
	Bank            *BankService
	Invitation      *InvitationService
	File            *FileService
	Feedback        *FeedbackService
	OperationLog    *OperationLogService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio init failed, file service degraded", zap.Error(err))
			minioClient = nil
		}
	}

	// 初始化微信支付客户端
	var wechatClient *WechatPayClient
	if cfg.Wechat.MchID != "" && cfg.Wechat.APIKey != "" {
		wechatClient = NewWechatPayClient(cfg.Wechat.BaseURL, cfg.Wechat.AppID, cfg.Wechat.MchID, cfg.Wechat.APIKey, cfg.Wechat.NotifyURL, logger)
	}

	cache := NewCacheService(rdb, cfg.Cache.TreeKeyPrefix, cfg.Cache.TreeTTL, logger)

	return &Services{
		Auth:            NewAuthService(repos.User, repos.Invitation, rdb, cfg),
		User:            NewUserService(repos.User),
		ServiceProvider: NewServiceProviderService(repos.ServiceProvider, cache),
		Cache:           cache,
		Order:           NewOrderService(repos.Order, repos.Commission, logger),
		Commission:      NewCommissionService(repos.Commission),
		Payment:         NewPaymentService(repos.Payment, repos.Order, wechatClient, logger),
		Withdrawal:      NewWithdrawalService(repos.Withdrawal, repos.Commission),
		Bank:            NewBankService(repos.Bank),
		Invitation:      NewInvitationService(repos.Invitation, repos.ServiceProvider),
		File:            NewFileService(repos.File, minioClient, cfg.MinIO.Bucket),
		Feedback:        NewFeedbackService(repos.Feedback),
		OperationLog:    NewOperationLogService(repos.OperationLog, logger),
	}
}
