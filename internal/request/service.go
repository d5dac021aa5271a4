package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/common"
	"backend/internal/infra/queue"
	"backend/internal/logger"
	"backend/internal/metrics"
	"backend/internal/worker/tasks"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service 申请单审批引擎
type Service struct {
	db     *gorm.DB
	queue  queue.Client
	logger *zap.Logger

	// 预留的创建者自批通道（单审批人组织），当前按产品策略关闭，
	// 没有任何路由开启它
	allowCreatorDecision bool
}

// Option 服务自定义配置
type Option func(*Service)

// WithQueue 注入任务队列（决策事件投递）
func WithQueue(q queue.Client) Option {
	return func(s *Service) { s.queue = q }
}

// WithLogger 注入自定义日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCreatorDecision 开启创建者自批通道（保留能力，未被任何入口使用）
func WithCreatorDecision(allow bool) Option {
	return func(s *Service) { s.allowCreatorDecision = allow }
}

// NewService 创建审批引擎
func NewService(db *gorm.DB, opts ...Option) *Service {
	svc := &Service{db: db}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	if svc.logger == nil {
		svc.logger = logger.Get()
	}
	return svc
}

// CreateInput 创建申请单输入
// 审批人分配与操作令牌由上游按组织策略算好后传入，引擎不自行计算
type CreateInput struct {
	TypeName        string          `json:"type_name" binding:"required"`
	Description     string          `json:"description"`
	PrimaryApprover string          `json:"primary_approver" binding:"required"`
	SubApprover     string          `json:"sub_approver"`
	ContentDetail   json.RawMessage `json:"content_detail"`
	ActionButton    []string        `json:"action_button"`
}

// Create 创建申请单，初始状态恒为 pending
func (s *Service) Create(ctx context.Context, creator string, in *CreateInput) (*Request, error) {
	if strings.TrimSpace(creator) == "" {
		return nil, NewValidationError("缺少创建者身份")
	}
	if strings.TrimSpace(in.PrimaryApprover) == "" {
		return nil, NewValidationError("缺少主审批人")
	}

	// 载荷按类型穷举校验
	if _, err := DecodeContentDetail(in.TypeName, in.ContentDetail); err != nil {
		return nil, err
	}

	buttons := in.ActionButton
	if len(buttons) == 0 {
		buttons = []string{TokenConfirm, TokenReject, TokenCancel}
	}

	req := &Request{
		ID:              uuid.New().String(),
		TypeName:        in.TypeName,
		Description:     strings.TrimSpace(in.Description),
		Creator:         creator,
		PrimaryApprover: in.PrimaryApprover,
		SubApprover:     in.SubApprover,
		PrimaryStatus:   StatusPending,
		ContentDetail:   datatypes.JSON(in.ContentDetail),
		ActionButton:    buttons,
	}

	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, fmt.Errorf("创建申请单失败: %w", err)
	}

	metrics.RequestsPendingGauge.Inc()
	s.logger.Info("申请单已创建",
		zap.String("request_id", req.ID),
		zap.String("type_name", req.TypeName),
		zap.String("creator", creator),
	)

	return req, nil
}

// Get 获取申请单详情（含按插入顺序排列的评论线）
func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := s.db.WithContext(ctx).
		Preload("RequestComment", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_date ASC, id ASC")
		}).
		First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询申请单失败: %w", err)
	}
	return &req, nil
}

// ListFilter 列表过滤条件
type ListFilter struct {
	TypeName  string `form:"type_name"`
	Status    string `form:"status"`
	SortOrder string `form:"sort_order"` // asc / desc，按创建时间，默认 desc
}

// List 申请单列表投影
// 只读、无副作用；同序元素按 id 升序兜底，保证分页结果稳定可复现
func (s *Service) List(ctx context.Context, filter ListFilter, page common.PaginationRequest) ([]Request, int64, error) {
	query := s.db.WithContext(ctx).Model(&Request{})

	if filter.TypeName != "" {
		query = query.Where("type_name = ?", filter.TypeName)
	}
	if filter.Status != "" {
		query = query.Where("primary_status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计申请单失败: %w", err)
	}

	order := "created_date DESC, id ASC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "created_date ASC, id ASC"
	}

	var items []Request
	err := query.Order(order).
		Offset(page.GetOffset()).
		Limit(page.GetPageSize()).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询申请单列表失败: %w", err)
	}

	return items, total, nil
}

// StatusCount 按状态的计数
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Summary 某身份视角的申请单计数（待我审批 / 我发起的）
type Summary struct {
	AsApprover []StatusCount `json:"as_approver"`
	AsCreator  []StatusCount `json:"as_creator"`
}

// GetSummary 统计某身份相关的申请单数量
func (s *Service) GetSummary(ctx context.Context, identity string) (*Summary, error) {
	summary := &Summary{}

	// 待我审批：我是主审批人，或我是副审批人且不与创建者同人
	err := s.db.WithContext(ctx).Model(&Request{}).
		Select("primary_status AS status, COUNT(*) AS count").
		Where("primary_approver = ? OR (sub_approver = ? AND sub_approver <> creator)", identity, identity).
		Group("primary_status").
		Scan(&summary.AsApprover).Error
	if err != nil {
		return nil, fmt.Errorf("统计待审批申请单失败: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&Request{}).
		Select("primary_status AS status, COUNT(*) AS count").
		Where("creator = ?", identity).
		Group("primary_status").
		Scan(&summary.AsCreator).Error
	if err != nil {
		return nil, fmt.Errorf("统计我发起的申请单失败: %w", err)
	}

	return summary, nil
}

// Approve 批准申请单
func (s *Service) Approve(ctx context.Context, id, actor string) (*Request, error) {
	return s.decide(ctx, id, actor, ActionApprove, "")
}

// Reject 拒绝申请单，原因可为空
func (s *Service) Reject(ctx context.Context, id, actor, reason string) (*Request, error) {
	return s.decide(ctx, id, actor, ActionReject, reason)
}

// Cancel 取消申请单（仅创建者）
func (s *Service) Cancel(ctx context.Context, id, actor string) (*Request, error) {
	return s.decide(ctx, id, actor, ActionCancel, "")
}

// decide 执行一次状态迁移
//
// 权限按角色在服务端重新裁决，不信任客户端的能力判断；
// 状态前置检查与变更走同一条带状态条件的 UPDATE（compare-and-set），
// 并发竞争只会有一个赢家，输家收到 ErrStateConflict；
// 拒绝原因与状态在同一条 UPDATE 里写入，不存在半生效
func (s *Service) decide(ctx context.Context, id, actor string, action Action, reason string) (*Request, error) {
	var req Request
	if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询申请单失败: %w", err)
	}

	if err := s.checkActor(&req, actor, action); err != nil {
		return nil, err
	}

	target, err := targetStatus(action)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"primary_status": target,
		"updated_date":   now,
	}
	if action == ActionReject {
		updates["reject_reason"] = strings.TrimSpace(reason)
	}

	res := s.db.WithContext(ctx).Model(&Request{}).
		Where("id = ? AND primary_status = ?", id, StatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("更新申请单状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// 已终态，或输掉了并发竞争
		return nil, ErrStateConflict
	}

	metrics.RequestsPendingGauge.Dec()
	metrics.RequestDecisionsTotal.WithLabelValues(req.TypeName, target).Inc()

	s.logger.Info("申请单状态已变更",
		zap.String("request_id", id),
		zap.String("action", string(action)),
		zap.String("status", target),
		zap.String("actor", actor),
	)

	s.enqueueDecisionEvent(&req, target, actor, strings.TrimSpace(reason), now)

	// 返回完整的最新实体，调用方无需再发一次查询
	return s.Get(ctx, id)
}

// checkActor 按角色裁决操作权限
// 创建者分支优先：创建者在任何角色下都不能批准/拒绝自己的申请，
// 副审批人与创建者同人时副审批通道同样关闭（结构性利益冲突控制）
func (s *Service) checkActor(req *Request, actor string, action Action) error {
	if actor == "" {
		return ErrPermissionDenied
	}

	switch action {
	case ActionCancel:
		if actor != req.Creator {
			return ErrPermissionDenied
		}
		return nil

	case ActionApprove, ActionReject:
		if actor == req.Creator {
			if s.allowCreatorDecision {
				return nil
			}
			return ErrPermissionDenied
		}
		if actor == req.PrimaryApprover {
			return nil
		}
		if req.SubApprover != "" && actor == req.SubApprover && req.SubApprover != req.Creator {
			return nil
		}
		return ErrPermissionDenied
	}

	return ErrPermissionDenied
}

func targetStatus(action Action) (string, error) {
	switch action {
	case ActionApprove:
		return StatusApproved, nil
	case ActionReject:
		return StatusRejected, nil
	case ActionCancel:
		return StatusCancelled, nil
	}
	return "", NewValidationError("不支持的操作: %s", action)
}

// enqueueDecisionEvent 投递决策事件到通知队列（尽力而为）
func (s *Service) enqueueDecisionEvent(req *Request, status, actor, reason string, occurredAt time.Time) {
	if s.queue == nil {
		return
	}

	payload := tasks.NotifyDecisionPayload{
		RequestID:  req.ID,
		TypeName:   req.TypeName,
		Status:     status,
		DecidedBy:  actor,
		OccurredAt: occurredAt,
	}
	if status == StatusRejected {
		payload.RejectReason = reason
	}

	if err := s.queue.EnqueueNotifyDecision(payload); err != nil {
		// 投递失败不影响已提交的状态变更
		s.logger.Warn("决策事件入队失败",
			zap.String("request_id", req.ID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}
