package api

import (
	"context"
	"os"
	"strings"

	requestHandlers "backend/api/handlers/requests"
	"backend/internal/auth"
	"backend/internal/config"
	"backend/internal/infra"
	"backend/internal/infra/queue"
	"backend/internal/logger"
	"backend/internal/metrics"
	middlewarepkg "backend/internal/middleware"
	"backend/internal/request"
	"backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter 设置并返回 Gin 路由和 Worker 服务器
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *worker.Server) {
	router := gin.New()

	// 统一归一化 Redis 配置，优先使用 cfg.Redis，再回退到环境变量
	redisCfg := normalizeRedisConfig(cfg.Redis)
	cfg.Redis = redisCfg

	// 初始化 Redis 客户端（令牌黑名单），不可用时降级
	var redisClient redis.UniversalClient
	if client, err := infra.InitRedis(&redisCfg); err != nil {
		logger.Warn("Redis 不可用，令牌黑名单与异步通知将被禁用", zap.Error(err))
	} else {
		redisClient = client
	}

	// 初始化任务队列客户端（决策事件投递）
	var queueClient queue.Client
	if redisClient != nil {
		queueClient = queue.NewClient(redisCfg, cfg.Notify)
	}

	// 初始化认证服务
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	jwtSecretKey := strings.TrimSpace(os.Getenv("JWT_SECRET_KEY"))
	if jwtSecretKey == "" {
		// 生产模式必须显式配置密钥，防止使用弱默认值
		if strings.EqualFold(cfg.Server.Mode, "release") || strings.EqualFold(appEnv, "prod") || strings.EqualFold(appEnv, "production") {
			logger.Fatal("JWT_SECRET_KEY 未配置，生产环境禁止使用默认密钥")
		}
		jwtSecretKey = "default_jwt_secret_key_change_in_production"
		logger.Warn("JWT_SECRET_KEY 未配置，已回退为开发默认值，请在生产环境设置强随机密钥")
	}
	issuer := cfg.Auth.Issuer
	if issuer == "" {
		issuer = "timetable-request-api"
	}
	jwtService := auth.NewJWTService(jwtSecretKey, issuer, redisClient)

	// 初始化审批引擎
	svcOpts := []request.Option{request.WithLogger(logger.Get())}
	if queueClient != nil {
		svcOpts = append(svcOpts, request.WithQueue(queueClient))
	}
	requestService := request.NewService(db, svcOpts...)
	requestHandler := requestHandlers.NewHandler(requestService)

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middlewarepkg.RequestIDMiddleware())
	router.Use(RequestLogger())
	router.Use(CORS())

	// Prometheus 指标收集中间件
	router.Use(metrics.PrometheusMiddleware())

	// 限流
	rateLimiter := middlewarepkg.NewRateLimiter(middlewarepkg.DefaultRateLimiterConfig())
	router.Use(rateLimiter.Middleware())

	// 公开端点（不需要认证）
	router.GET("/health", HealthCheck(db))
	router.GET("/ready", ReadinessCheck(db))

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 业务路由
	RegisterRoutes(router, jwtService, requestHandler)

	// 启动时回填待审批数量指标
	syncPendingGauge(db)

	// 初始化 Worker 服务器（决策事件通知）
	var workerServer *worker.Server
	if redisClient != nil {
		workerServer = worker.NewServer(redisCfg, cfg.Notify, logger.Get())
	}

	return router, workerServer
}

// syncPendingGauge 从数据库回填待审批数量
func syncPendingGauge(db *gorm.DB) {
	var pending int64
	if err := db.WithContext(context.Background()).
		Model(&request.Request{}).
		Where("primary_status = ?", request.StatusPending).
		Count(&pending).Error; err != nil {
		logger.Warn("回填待审批数量指标失败", zap.Error(err))
		return
	}
	metrics.RequestsPendingGauge.Set(float64(pending))
}
