package requests

import (
	"encoding/json"

	"backend/internal/common"
	"backend/internal/request"
)

// CreateRequestRequest 创建申请单请求
type CreateRequestRequest struct {
	TypeName        string          `json:"type_name" binding:"required"`
	Description     string          `json:"description"`
	PrimaryApprover string          `json:"primary_approver" binding:"required"`
	SubApprover     string          `json:"sub_approver"`
	ContentDetail   json.RawMessage `json:"content_detail"`
	ActionButton    []string        `json:"action_button"`
}

// RejectRequestRequest 拒绝申请单请求，原因可为空
type RejectRequestRequest struct {
	Reason string `json:"reason"`
}

// AddCommentRequest 追加评论请求
type AddCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ListRequestsQuery 申请单列表查询参数
type ListRequestsQuery struct {
	common.PaginationRequest
	TypeName  string `form:"type_name"`
	Status    string `form:"status"`
	SortOrder string `form:"sort_order"`
}

// RequestView 申请单响应视图
// action_available 按请求者身份解析，仅用于客户端渲染，
// 服务端在每次状态迁移时仍会重新裁决
type RequestView struct {
	request.Request
	ActionAvailable []string `json:"action_available"`
}

// NewRequestView 构造带可用动作的申请单视图
func NewRequestView(req *request.Request, viewer string) RequestView {
	actions := request.Resolve(req, viewer)
	available := make([]string, 0, len(actions))
	for _, a := range actions {
		available = append(available, string(a))
	}
	return RequestView{
		Request:         *req,
		ActionAvailable: available,
	}
}
