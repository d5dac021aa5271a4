package worker

import (
	"context"
	"fmt"
	"time"

	"backend/internal/config"
	"backend/internal/worker/handlers"
	"backend/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Server 异步任务服务器
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewServer 创建异步任务服务器
func NewServer(redisCfg config.RedisConfig, notifyCfg config.NotifyConfig, logger *zap.Logger) *Server {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"notify":  3, // 决策通知优先
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("任务执行失败",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
		},
	)

	mux := asynq.NewServeMux()

	// 注册决策通知处理器
	notifyHandler := handlers.NewNotifyHandler(
		notifyCfg.WebhookURL,
		time.Duration(notifyCfg.TimeoutSeconds)*time.Second,
		logger,
	)
	mux.HandleFunc(tasks.TypeNotifyDecision, notifyHandler.HandleNotifyDecision)

	return &Server{
		server: srv,
		mux:    mux,
		logger: logger,
	}
}

// Run 启动任务服务器（阻塞）
func (s *Server) Run() error {
	s.logger.Info("Worker 服务器启动中...")
	return s.server.Run(s.mux)
}

// Start 非阻塞启动
func (s *Server) Start() error {
	s.logger.Info("Worker 服务器启动中 (后台)...")
	return s.server.Start(s.mux)
}

// Shutdown 停止任务服务器
func (s *Server) Shutdown() {
	s.logger.Info("Worker 服务器停止中...")
	s.server.Shutdown()
}
