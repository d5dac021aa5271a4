package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"backend/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 评论长度上限（按字符计，不是字节）
const maxCommentRunes = 250

// AddComment 在申请单上追加一条评论
// 终态申请单的评论线仍然开放，状态冻结只约束申请单本身
func (s *Service) AddComment(ctx context.Context, requestID, sender, content string) (*RequestComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("评论内容不能为空")
	}
	if utf8.RuneCountInString(content) > maxCommentRunes {
		return nil, NewValidationError("评论内容不能超过 %d 个字符", maxCommentRunes)
	}

	// 先确认申请单存在，避免悬挂评论
	var count int64
	if err := s.db.WithContext(ctx).Model(&Request{}).Where("id = ?", requestID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("查询申请单失败: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	comment := &RequestComment{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Sender:    sender,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("追加评论失败: %w", err)
	}

	metrics.CommentAppendsTotal.Inc()
	s.logger.Info("申请单评论已追加",
		zap.String("request_id", requestID),
		zap.String("comment_id", comment.ID),
	)

	return comment, nil
}

// ListComments 按插入顺序返回申请单的评论线
// is_mine 按读者身份在读取时计算
func (s *Service) ListComments(ctx context.Context, requestID, reader string) ([]CommentView, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Request{}).Where("id = ?", requestID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("查询申请单失败: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	var comments []RequestComment
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_date ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []CommentView{}, nil
		}
		return nil, fmt.Errorf("查询评论失败: %w", err)
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{
			RequestComment: c,
			IsMine:         c.Sender == reader,
		})
	}
	return views, nil
}
