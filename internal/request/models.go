package request

import (
	"time"

	"gorm.io/datatypes"
)

// 申请单生命周期状态
// 进入 approved / rejected / cancelled 后状态冻结，只有评论线仍然开放
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// 申请类型，决定 content_detail 的结构
const (
	TypeRoomChange  = "room_change"  // 换教室 / 教室类型变更
	TypeDateMove    = "date_move"    // 调课（换日期或节次）
	TypeLeave       = "leave"        // 请假
	TypeBatchChange = "batch_change" // 批量课表变更
)

// 结构性操作令牌，由上游按组织策略计算后随申请单下发
// 前端按钮文案即令牌本身（越南语），引擎只做存在性判断，不自行计算
const (
	TokenConfirm = "Xác nhận" // 确认
	TokenReject  = "Từ chối"  // 拒绝
	TokenCancel  = "Hủy"      // 取消
)

// Request 课表变更申请单
type Request struct {
	ID              string         `json:"id" gorm:"primaryKey;type:uuid"`
	TypeName        string         `json:"type_name" gorm:"size:50;not null;index"`
	Description     string         `json:"description" gorm:"type:text"`
	Creator         string         `json:"creator" gorm:"size:100;not null;index"`
	PrimaryApprover string         `json:"primary_approver" gorm:"size:100;not null;index"`
	SubApprover     string         `json:"sub_approver" gorm:"size:100;index"`
	PrimaryStatus   string         `json:"primary_status" gorm:"size:20;not null;default:pending;index"`
	RejectReason    string         `json:"reject_reason" gorm:"size:500"`
	ContentDetail   datatypes.JSON `json:"content_detail,omitempty" gorm:"type:jsonb"`
	ActionButton    []string       `json:"action_button" gorm:"serializer:json;type:jsonb"`
	CreatedDate     time.Time      `json:"created_date" gorm:"not null;autoCreateTime;index"`
	UpdatedDate     time.Time      `json:"updated_date" gorm:"not null;autoUpdateTime"`

	// 评论线，仅追加，插入顺序即展示顺序
	RequestComment []RequestComment `json:"request_comment,omitempty" gorm:"foreignKey:RequestID"`
}

// TableName 指定表名
func (Request) TableName() string {
	return "change_requests"
}

// IsTerminal 是否已进入终态
func (r *Request) IsTerminal() bool {
	switch r.PrimaryStatus {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// HasToken 上游下发的操作令牌中是否包含指定令牌
func (r *Request) HasToken(token string) bool {
	for _, t := range r.ActionButton {
		if t == token {
			return true
		}
	}
	return false
}

// RequestComment 申请单评论
// 只追加，创建后不提供任何修改或删除操作
type RequestComment struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	RequestID   string    `json:"request_id" gorm:"type:uuid;not null;index"`
	Sender      string    `json:"sender" gorm:"size:100;not null"`
	Content     string    `json:"content" gorm:"size:250;not null"`
	CreatedDate time.Time `json:"created_date" gorm:"not null;autoCreateTime"`
}

// TableName 指定表名
func (RequestComment) TableName() string {
	return "change_request_comments"
}

// CommentView 评论读取视图
// is_mine 在读取时按读者身份计算，不落库
type CommentView struct {
	RequestComment
	IsMine bool `json:"is_mine"`
}
