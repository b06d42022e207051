package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dk264874293/cloud-back-service/internal/config"
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/handler"
	"github.com/dk264874293/cloud-back-service/internal/middleware"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting cloud-back-service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.ServiceProvider{},
		&entity.ConnectionOrder{},
		&entity.EntrustmentOrder{},
		&entity.OrderLog{},
		&entity.CommissionRule{},
		&entity.CommissionRecord{},
		&entity.Payment{},
		&entity.Withdrawal{},
		&entity.Bank{},
		&entity.BankBranch{},
		&entity.Invitation{},
		&entity.FileRecord{},
		&entity.Feedback{},
		&entity.OperationLog{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg, zapLogger)
	handlers := handler.NewHandlers(services, cfg)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, services, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, svc *service.Services, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 邀请码校验 (注册前调用, 无需登录)
		v1.GET("/invitations/verify", h.Invitation.Verify)

		// 支付网关回调 (无需登录)
		v1.POST("/payments/callback", h.Payment.Callback)

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		authorized.Use(middleware.OperationAudit(svc.OperationLog))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户中心
			authorized.PUT("/users/me", h.User.UpdateProfile)
			authorized.POST("/users/me/password", h.User.ChangePassword)
			authorized.POST("/users/me/verification", h.User.SubmitVerification)

			// 用户管理 (管理端)
			users := authorized.Group("/users")
			users.Use(middleware.RequireRole(entity.RoleAdmin))
			{
				users.GET("", h.User.List)
				users.GET("/:id", h.User.Get)
				users.POST("/:id/verification/review", h.User.ReviewVerification)
				users.PUT("/:id/provider-permissions", h.User.SetProviderPermissions)
				users.PUT("/:id/role", h.User.SwitchRole)
			}

			// 服务商树
			providers := authorized.Group("/service-providers")
			{
				providers.GET("", h.ServiceProvider.List)
				providers.GET("/:id", h.ServiceProvider.Get)
				providers.GET("/:id/descendants", h.ServiceProvider.Descendants)
				providers.GET("/:id/ancestors", h.ServiceProvider.Ancestors)
				providers.GET("/:id/path", h.ServiceProvider.FullPath)
				providers.GET("/:id/stats", h.ServiceProvider.Stats)
				providers.GET("/:id/invitations", h.Invitation.ListByServiceProvider)

				adminOnly := providers.Group("")
				adminOnly.Use(middleware.RequireRole(entity.RoleAdmin))
				{
					adminOnly.POST("", h.ServiceProvider.Create)
					adminOnly.PUT("/:id", h.ServiceProvider.Update)
					adminOnly.DELETE("/:id", h.ServiceProvider.Delete)
				}
			}

			// 对接订单
			connections := authorized.Group("/connection-orders")
			{
				connections.GET("", h.Order.ListConnections)
				connections.POST("", h.Order.CreateConnection)
				connections.GET("/:id", h.Order.GetConnection)
				connections.GET("/:id/logs", h.Order.ListConnectionLogs)
				connections.POST("/:id/assign", middleware.RequireRole(entity.RoleAdmin), h.Order.AssignAccountManager)
				connections.POST("/:id/report", middleware.RequireRole(entity.RoleProvider, entity.RoleAdmin), h.Order.UploadReport)
				connections.POST("/:id/pricing", middleware.RequireRole(entity.RoleAdmin), h.Order.SetPriceAndAssignBanks)
				connections.POST("/:id/purchase", middleware.RequireRole(entity.RoleBank), h.Order.BankConfirmPurchase)
				connections.POST("/:id/meeting", middleware.RequireRole(entity.RoleAdmin, entity.RoleProvider), h.Order.ConfirmMeeting)
				connections.POST("/:id/select-bank", h.Order.SelectBank)
				connections.POST("/:id/cancel", h.Order.CancelConnection)
				connections.POST("/:id/fail", middleware.RequireRole(entity.RoleAdmin), h.Order.FailConnection)
			}

			// 委托订单
			entrustments := authorized.Group("/entrustment-orders")
			{
				entrustments.GET("", h.Order.ListEntrustments)
				entrustments.POST("", h.Order.CreateEntrustment)
				entrustments.GET("/:id", h.Order.GetEntrustment)
				entrustments.GET("/:id/logs", h.Order.ListEntrustmentLogs)
				entrustments.POST("/:id/agreement", h.Order.UploadAgreement)
				entrustments.POST("/:id/review", middleware.RequireRole(entity.RoleAdmin), h.Order.ReviewEntrustment)
				entrustments.POST("/:id/accept", middleware.RequireRole(entity.RoleProvider), h.Order.HandlerAccept)
				entrustments.POST("/:id/complete", h.Order.CompleteEntrustment)
				entrustments.POST("/:id/fail", middleware.RequireRole(entity.RoleAdmin), h.Order.FailEntrustment)
				entrustments.POST("/:id/cancel", h.Order.CancelEntrustment)
			}

			// 分佣规则 (管理端)
			rules := authorized.Group("/commission-rules")
			rules.Use(middleware.RequireRole(entity.RoleAdmin))
			{
				rules.GET("", h.Commission.ListRules)
				rules.POST("", h.Commission.CreateRule)
				rules.GET("/:id", h.Commission.GetRule)
				rules.PUT("/:id", h.Commission.UpdateRule)
				rules.DELETE("/:id", h.Commission.DeleteRule)
			}

			// 分佣记录
			records := authorized.Group("/commission-records")
			{
				records.GET("", h.Commission.ListRecords)
				records.GET("/summary", h.Commission.Summary)
				records.GET("/by-order", middleware.RequireRole(entity.RoleAdmin), h.Commission.ListRecordsByOrder)
				records.GET("/export", middleware.RequireRole(entity.RoleAdmin), h.Commission.ExportRecords)
				records.POST("/:id/pay", middleware.RequireRole(entity.RoleAdmin), h.Commission.MarkPaid)
			}

			// 支付
			payments := authorized.Group("/payments")
			{
				payments.GET("", h.Payment.List)
				payments.POST("", h.Payment.Create)
				payments.GET("/:id", h.Payment.Get)
			}

			// 提现
			withdrawals := authorized.Group("/withdrawals")
			{
				withdrawals.GET("", h.Withdrawal.List)
				withdrawals.POST("", h.Withdrawal.Create)
				withdrawals.GET("/:id", h.Withdrawal.Get)
				withdrawals.POST("/:id/review", middleware.RequireRole(entity.RoleAdmin), h.Withdrawal.Review)
				withdrawals.POST("/:id/complete", middleware.RequireRole(entity.RoleAdmin), h.Withdrawal.Complete)
			}

			// 银行
			banks := authorized.Group("/banks")
			{
				banks.GET("", h.Bank.List)
				banks.GET("/:id", h.Bank.Get)
				banks.GET("/:id/branches", h.Bank.ListBranches)
				banks.POST("", middleware.RequireRole(entity.RoleAdmin), h.Bank.Create)
				banks.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.Bank.Update)
				banks.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Bank.Delete)
				banks.POST("/:id/branches", middleware.RequireRole(entity.RoleAdmin), h.Bank.CreateBranch)
			}

			// 邀请码
			invitations := authorized.Group("/invitations")
			{
				invitations.POST("", middleware.RequireRole(entity.RoleAdmin, entity.RoleProvider), h.Invitation.Create)
				invitations.POST("/:id/disable", middleware.RequireRole(entity.RoleAdmin, entity.RoleProvider), h.Invitation.Disable)
			}

			// 文件
			files := authorized.Group("/files")
			{
				files.GET("", h.File.List)
				files.POST("", h.File.Upload)
				files.GET("/:id/url", h.File.Download)
				files.DELETE("/:id", h.File.Delete)
			}

			// 反馈
			feedbacks := authorized.Group("/feedbacks")
			{
				feedbacks.GET("", h.Feedback.List)
				feedbacks.POST("", h.Feedback.Create)
				feedbacks.GET("/:id", h.Feedback.Get)
				feedbacks.POST("/:id/reply", middleware.RequireRole(entity.RoleAdmin), h.Feedback.Reply)
				feedbacks.POST("/:id/close", h.Feedback.Close)
			}

			// 操作日志 (管理端)
			oplogs := authorized.Group("/operation-logs")
			oplogs.Use(middleware.RequireRole(entity.RoleAdmin))
			{
				oplogs.GET("", h.OperationLog.List)
				oplogs.POST("/cleanup", h.OperationLog.Cleanup)
			}
		}
	}
}
