package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/metrics"
	"backend/internal/worker/tasks"
	"backend/pkg/httputil"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NotifyHandler 决策事件投递处理器
// 把审批结果推送到配置的 Webhook（外部通知系统的接入点）
type NotifyHandler struct {
	webhookURL string
	client     *httputil.Client
	logger     *zap.Logger
}

// NewNotifyHandler 创建决策事件处理器
func NewNotifyHandler(webhookURL string, timeout time.Duration, logger *zap.Logger) *NotifyHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotifyHandler{
		webhookURL: webhookURL,
		client:     httputil.NewClient(httputil.WithTimeout(timeout)),
		logger:     logger,
	}
}

// HandleNotifyDecision 处理决策通知任务
func (h *NotifyHandler) HandleNotifyDecision(ctx context.Context, t *asynq.Task) error {
	var payload tasks.NotifyDecisionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("解析任务载荷失败: %w", err)
	}

	if h.webhookURL == "" {
		// 未配置回调地址时只记录事件，不视为失败
		h.logger.Info("决策事件未投递（未配置 webhook）",
			zap.String("request_id", payload.RequestID),
			zap.String("status", payload.Status),
		)
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	resp, err := h.client.Post(ctx, h.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		metrics.NotifyDeliveriesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("投递决策事件失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.NotifyDeliveriesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("回调返回非成功状态: %d", resp.StatusCode)
	}

	metrics.NotifyDeliveriesTotal.WithLabelValues("delivered").Inc()
	h.logger.Info("决策事件已投递",
		zap.String("request_id", payload.RequestID),
		zap.String("status", payload.Status),
		zap.String("decided_by", payload.DecidedBy),
	)
	return nil
}
