package tasks

import "time"

// Task Types
const (
	TypeNotifyDecision = "request:notify_decision"
)

// NotifyDecisionPayload 审批决策事件载荷
// 投递给外部通知系统的边界数据，引擎状态不依赖投递结果
type NotifyDecisionPayload struct {
	RequestID    string    `json:"request_id"`
	TypeName     string    `json:"type_name"`
	Status       string    `json:"status"` // approved / rejected / cancelled
	DecidedBy    string    `json:"decided_by"`
	RejectReason string    `json:"reject_reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
