package requests

import (
	"errors"

	"backend/internal/common"
	"backend/internal/request"

	"github.com/gin-gonic/gin"
)

// AddComment 追加评论
// POST /api/requests/:id/comments
func (h *Handler) AddComment(c *gin.Context) {
	sender, ok := currentUser(c)
	if !ok {
		return
	}

	var body AddCommentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.ResponseError(c, common.CodeCommentInvalid, "评论内容不能为空")
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("id"), sender, body.Content)
	if err != nil {
		switch {
		case errors.Is(err, request.ErrNotFound):
			common.ResponseError(c, common.CodeRequestNotFound, "")
		case request.IsValidationError(err):
			common.ResponseError(c, common.CodeCommentInvalid, err.Error())
		default:
			common.ResponseServerError(c, "")
		}
		return
	}
	common.ResponseCreated(c, comment)
}

// ListComments 读取评论线
// GET /api/requests/:id/comments
func (h *Handler) ListComments(c *gin.Context) {
	reader, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.service.ListComments(c.Request.Context(), c.Param("id"), reader)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	common.ResponseSuccess(c, views)
}
