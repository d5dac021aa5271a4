package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/config"
	"backend/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// Client 任务队列客户端接口
type Client interface {
	EnqueueNotifyDecision(payload tasks.NotifyDecisionPayload) error
	Close() error
}

type asynqClient struct {
	client   *asynq.Client
	maxRetry int
}

// NewClient 创建任务队列客户端
func NewClient(redisCfg config.RedisConfig, notifyCfg config.NotifyConfig) Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	maxRetry := notifyCfg.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 3
	}

	return &asynqClient{client: client, maxRetry: maxRetry}
}

func (c *asynqClient) EnqueueNotifyDecision(payload tasks.NotifyDecisionPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(tasks.TypeNotifyDecision, data)

	// 决策事件投递是尽力而为的：失败由队列重试，绝不回滚引擎状态
	_, err = c.client.Enqueue(task,
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(time.Minute),
		asynq.Queue("notify"),
	)
	if err != nil {
		return fmt.Errorf("enqueue task failed: %w", err)
	}

	return nil
}

func (c *asynqClient) Close() error {
	return c.client.Close()
}
