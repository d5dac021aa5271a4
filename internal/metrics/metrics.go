package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetable_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timetable_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// 审批工作流指标
var (
	// RequestsPendingGauge 待审批申请单数量
	RequestsPendingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timetable_requests_pending",
			Help: "处于 pending 状态的申请单数量",
		},
	)

	// RequestDecisionsTotal 审批决策总数
	RequestDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetable_request_decisions_total",
			Help: "审批决策总数（按申请类型与终态）",
		},
		[]string{"type_name", "status"},
	)

	// CommentAppendsTotal 评论追加总数
	CommentAppendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timetable_request_comments_total",
			Help: "申请单评论追加总数",
		},
	)

	// NotifyDeliveriesTotal 决策事件投递总数
	NotifyDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetable_notify_deliveries_total",
			Help: "决策事件 Webhook 投递总数",
		},
		[]string{"result"},
	)
)
