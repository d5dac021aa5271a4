package requests

import (
	"errors"

	"backend/internal/auth"
	"backend/internal/common"
	"backend/internal/request"

	"github.com/gin-gonic/gin"
)

// Handler 申请单接口处理器
type Handler struct {
	service *request.Service
}

// NewHandler 创建申请单处理器
func NewHandler(service *request.Service) *Handler {
	return &Handler{service: service}
}

// currentUser 获取已认证身份，缺失时写 401 并返回 false
func currentUser(c *gin.Context) (string, bool) {
	user, ok := auth.GetUserContext(c)
	if !ok || user.UserID == "" {
		common.ResponseUnauthorized(c, "")
		return "", false
	}
	return user.UserID, true
}

// respondEngineError 引擎错误到业务状态码的映射
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, request.ErrNotFound):
		common.ResponseError(c, common.CodeRequestNotFound, "")
	case errors.Is(err, request.ErrPermissionDenied):
		common.ResponseError(c, common.CodeRequestForbidden, "")
	case errors.Is(err, request.ErrStateConflict):
		common.ResponseError(c, common.CodeRequestStateConflict, "")
	case request.IsValidationError(err):
		common.ResponseError(c, common.CodeRequestInvalidDetail, err.Error())
	default:
		common.ResponseServerError(c, "")
	}
}

// List 申请单列表
// GET /api/requests
func (h *Handler) List(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}

	var query ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBadRequest(c, "查询参数错误: "+err.Error())
		return
	}

	filter := request.ListFilter{
		TypeName:  query.TypeName,
		Status:    query.Status,
		SortOrder: query.SortOrder,
	}
	items, total, err := h.service.List(c.Request.Context(), filter, query.PaginationRequest)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	views := make([]RequestView, 0, len(items))
	for i := range items {
		views = append(views, NewRequestView(&items[i], viewer))
	}
	common.ResponseList(c, views, total, &query.PaginationRequest)
}

// Get 申请单详情
// GET /api/requests/:id
func (h *Handler) Get(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}

	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	common.ResponseSuccess(c, NewRequestView(req, viewer))
}

// Create 创建申请单
// POST /api/requests
func (h *Handler) Create(c *gin.Context) {
	creator, ok := currentUser(c)
	if !ok {
		return
	}

	var body CreateRequestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.ResponseBadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	req, err := h.service.Create(c.Request.Context(), creator, &request.CreateInput{
		TypeName:        body.TypeName,
		Description:     body.Description,
		PrimaryApprover: body.PrimaryApprover,
		SubApprover:     body.SubApprover,
		ContentDetail:   body.ContentDetail,
		ActionButton:    body.ActionButton,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}
	common.ResponseCreated(c, NewRequestView(req, creator))
}

// Approve 批准申请单
// POST /api/requests/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	req, err := h.service.Approve(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	common.ResponseSuccess(c, NewRequestView(req, actor))
}

// Reject 拒绝申请单
// POST /api/requests/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	// 请求体可为空，原因是可选的
	var body RejectRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			common.ResponseBadRequest(c, "请求参数错误: "+err.Error())
			return
		}
	}

	req, err := h.service.Reject(c.Request.Context(), c.Param("id"), actor, body.Reason)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	common.ResponseSuccess(c, NewRequestView(req, actor))
}

// Cancel 取消申请单
// POST /api/requests/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	req, err := h.service.Cancel(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	common.ResponseSuccess(c, NewRequestView(req, actor))
}

// Summary 申请单计数摘要
// GET /api/requests/summary
func (h *Handler) Summary(c *gin.Context) {
	identity, ok := currentUser(c)
	if !ok {
		return
	}

	sum, err := h.service.GetSummary(c.Request.Context(), identity)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	common.ResponseSuccess(c, sum)
}
