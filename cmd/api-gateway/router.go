// Package main 是应用程序入口
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/docs"
	"github.com/dumeirei/fitness-crm-backend/internal/common/cache"
	"github.com/dumeirei/fitness-crm-backend/internal/common/config"
	"github.com/dumeirei/fitness-crm-backend/internal/common/jwt"
	commonMiddleware "github.com/dumeirei/fitness-crm-backend/internal/common/middleware"
	"github.com/dumeirei/fitness-crm-backend/internal/common/metrics"
	authHandler "github.com/dumeirei/fitness-crm-backend/internal/handler/auth"
	paymentHandler "github.com/dumeirei/fitness-crm-backend/internal/handler/payment"
	refundHandler "github.com/dumeirei/fitness-crm-backend/internal/handler/refund"
	"github.com/dumeirei/fitness-crm-backend/internal/middleware"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	authService "github.com/dumeirei/fitness-crm-backend/internal/service/auth"
	financeService "github.com/dumeirei/fitness-crm-backend/internal/service/finance"
	"github.com/dumeirei/fitness-crm-backend/internal/service/ledger"
	paymentService "github.com/dumeirei/fitness-crm-backend/internal/service/payment"
	refundService "github.com/dumeirei/fitness-crm-backend/internal/service/refund"
)

// services 业务服务集合
type services struct {
	jwt     *jwt.Manager
	auth    *authService.AuthService
	payment *paymentService.PaymentService
	refund  *refundService.RefundService
	stats   *financeService.StatisticsService
}

// newServices 装配仓储、台账组件与服务
func newServices(cfg *config.Config, logger *zap.Logger, db *gorm.DB, store *cache.Store, m *metrics.Metrics) *services {
	ledgerCfg := cfg.Business.Ledger

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	derivedRepo := repository.NewDerivedRepository(db)

	// 台账组件
	tx := ledger.NewTransactor(db, ledgerCfg.NumberRetryAttempts, ledgerCfg.NumberRetryDelay(), m, logger)
	numbers := ledger.NewNumberGenerator(repository.NewSequenceRepository(db))
	history := ledger.NewHistoryRecorder(repository.NewHistoryRepository(db))
	synthesizer := ledger.NewSynthesizer(derivedRepo, numbers, ledgerCfg.LockerNoPrefix)

	// 未启用 Redis 时必须传入空接口值
	var statsCache financeService.StatsCache
	if store != nil {
		statsCache = store
	}

	svcs := &services{
		jwt:  jwtManager,
		auth: authService.NewAuthService(staffRepo, jwtManager, logger.Named("auth")),
		payment: paymentService.NewPaymentService(
			paymentService.Repositories{
				Payments: paymentRepo,
				Refunds:  refundRepo,
				Members:  repository.NewMemberRepository(db),
				Staff:    staffRepo,
				Catalog:  repository.NewCatalogRepository(db),
				Derived:  derivedRepo,
			},
			tx, numbers, synthesizer, history, ledgerCfg, m, logger.Named("payment"),
		),
		refund: refundService.NewRefundService(
			refundService.Repositories{Payments: paymentRepo, Refunds: refundRepo, Staff: staffRepo},
			tx, numbers, history,
			refundService.NewEligibilityEvaluator(paymentRepo, refundRepo),
			ledgerCfg, m, logger.Named("refund"),
		),
		stats: financeService.NewStatisticsService(
			repository.NewStatsRepository(db), statsCache, ledgerCfg, m, logger.Named("stats"),
		),
	}
	svcs.payment.SetStatsInvalidator(svcs.stats)
	svcs.refund.SetStatsInvalidator(svcs.stats)
	return svcs
}

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	store *cache.Store,
	m *metrics.Metrics,
	svcs *services,
) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// 全局中间件
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RequestSizeLimiter(cfg.Server.MaxBodyBytes))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.AccessLog(logger))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", metricsPath},
		}))
	}
	if m != nil {
		r.Use(m.Middleware(metricsPath))
		r.GET(metricsPath, m.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, store))

	// Swagger 文档
	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authH := authHandler.NewHandler(svcs.auth)
	paymentH := paymentHandler.NewHandler(svcs.payment, svcs.stats)
	refundH := refundHandler.NewHandler(svcs.refund)

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		authH.RegisterRoutes(v1)

		// 员工接口
		staff := v1.Group("")
		staff.Use(middleware.StaffAuth(svcs.jwt))
		if cfg.RateLimit.Enabled && store != nil {
			staff.Use(middleware.RateLimit(middleware.RateLimitConfig{
				Counter: store,
				Limit:   cfg.RateLimit.Limit,
				Window:  cfg.RateLimit.WindowDuration(),
				Logger:  logger,
			}))
		}
		{
			authH.RegisterProtectedRoutes(staff)
			paymentH.RegisterRoutes(staff)
			refundH.RegisterRoutes(staff)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "接口不存在",
		})
	})
}
