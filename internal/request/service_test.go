package request

import (
	"context"
	"strings"
	"testing"
	"time"

	"backend/internal/common"
	"backend/internal/worker/tasks"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Request{}, &RequestComment{}))
	return db
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	return NewService(setupTestDB(t), opts...)
}

// captureQueue 记录入队的决策事件
type captureQueue struct {
	payloads []tasks.NotifyDecisionPayload
}

func (q *captureQueue) EnqueueNotifyDecision(p tasks.NotifyDecisionPayload) error {
	q.payloads = append(q.payloads, p)
	return nil
}

func (q *captureQueue) Close() error { return nil }

func roomChangeInput() *CreateInput {
	return &CreateInput{
		TypeName:        TypeRoomChange,
		Description:     "实验课换到实验室",
		PrimaryApprover: "manager_x",
		SubApprover:     "manager_y",
		ContentDetail:   []byte(`{"class_code": "10A1", "date": "2026-09-01", "time_slot_id": 3, "new_room_type": "lab"}`),
	}
}

func TestServiceCreate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("创建后初始状态为待审批", func(t *testing.T) {
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)
		assert.Equal(t, StatusPending, req.PrimaryStatus)
		assert.Equal(t, "teacher_a", req.Creator)
		assert.NotEmpty(t, req.ID)
		assert.Equal(t, []string{TokenConfirm, TokenReject, TokenCancel}, req.ActionButton)
	})

	t.Run("载荷不合法直接拒绝", func(t *testing.T) {
		in := roomChangeInput()
		in.ContentDetail = []byte(`{"date": "2026-09-01"}`)
		_, err := svc.Create(ctx, "teacher_a", in)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("缺少创建者身份", func(t *testing.T) {
		_, err := svc.Create(ctx, "", roomChangeInput())
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestServiceDecide(t *testing.T) {
	ctx := context.Background()

	t.Run("主审批人批准", func(t *testing.T) {
		q := &captureQueue{}
		svc := newTestService(t, WithQueue(q))
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		got, err := svc.Approve(ctx, req.ID, "manager_x")
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, got.PrimaryStatus)

		require.Len(t, q.payloads, 1)
		assert.Equal(t, req.ID, q.payloads[0].RequestID)
		assert.Equal(t, StatusApproved, q.payloads[0].Status)
		assert.Equal(t, "manager_x", q.payloads[0].DecidedBy)
	})

	t.Run("副审批人拒绝并写入原因", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		got, err := svc.Reject(ctx, req.ID, "manager_y", "时间冲突")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.PrimaryStatus)
		assert.Equal(t, "时间冲突", got.RejectReason)
	})

	t.Run("拒绝原因允许为空", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		got, err := svc.Reject(ctx, req.ID, "manager_x", "")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.PrimaryStatus)
		assert.Empty(t, got.RejectReason)
	})

	t.Run("创建者取消", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		got, err := svc.Cancel(ctx, req.ID, "teacher_a")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.PrimaryStatus)
	})

	t.Run("非创建者不能取消", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, req.ID, "manager_x")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("创建者不能批准自己的申请", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		_, err = svc.Approve(ctx, req.ID, "teacher_a")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("创建者同时是副审批人也不能批准", func(t *testing.T) {
		svc := newTestService(t)
		in := roomChangeInput()
		in.SubApprover = "teacher_a"
		req, err := svc.Create(ctx, "teacher_a", in)
		require.NoError(t, err)

		_, err = svc.Approve(ctx, req.ID, "teacher_a")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		_, err = svc.Reject(ctx, req.ID, "teacher_a", "理由")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("无关身份没有任何决策权", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		_, err = svc.Approve(ctx, req.ID, "stranger")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("批准后再拒绝得到状态冲突且原因不被写入", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)

		_, err = svc.Approve(ctx, req.ID, "manager_x")
		require.NoError(t, err)

		_, err = svc.Reject(ctx, req.ID, "manager_y", "来晚了的拒绝")
		assert.ErrorIs(t, err, ErrStateConflict)

		got, err := svc.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, got.PrimaryStatus)
		assert.Empty(t, got.RejectReason)
	})

	t.Run("终态申请单拒绝一切迁移", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, req.ID, "teacher_a")
		require.NoError(t, err)

		_, err = svc.Approve(ctx, req.ID, "manager_x")
		assert.ErrorIs(t, err, ErrStateConflict)
		_, err = svc.Cancel(ctx, req.ID, "teacher_a")
		assert.ErrorIs(t, err, ErrStateConflict)
	})

	t.Run("申请单不存在", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.Approve(ctx, "no-such-id", "manager_x")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServiceList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		in := roomChangeInput()
		if i%2 == 1 {
			in.TypeName = TypeLeave
			in.ContentDetail = nil
		}
		req, err := svc.Create(ctx, "teacher_a", in)
		require.NoError(t, err)
		ids = append(ids, req.ID)
		time.Sleep(5 * time.Millisecond)
	}
	_, err := svc.Approve(ctx, ids[0], "manager_x")
	require.NoError(t, err)

	t.Run("默认按创建时间倒序", func(t *testing.T) {
		items, total, err := svc.List(ctx, ListFilter{}, common.PaginationRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, items, 5)
		for i := 1; i < len(items); i++ {
			assert.False(t, items[i].CreatedDate.After(items[i-1].CreatedDate))
		}
	})

	t.Run("升序排序", func(t *testing.T) {
		items, _, err := svc.List(ctx, ListFilter{SortOrder: "asc"}, common.PaginationRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, ids[0], items[0].ID)
	})

	t.Run("按类型过滤", func(t *testing.T) {
		items, total, err := svc.List(ctx, ListFilter{TypeName: TypeLeave}, common.PaginationRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, it := range items {
			assert.Equal(t, TypeLeave, it.TypeName)
		}
	})

	t.Run("按状态过滤", func(t *testing.T) {
		_, total, err := svc.List(ctx, ListFilter{Status: StatusApproved}, common.PaginationRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("分页稳定不重不漏", func(t *testing.T) {
		seen := map[string]bool{}
		for page := 1; page <= 3; page++ {
			items, _, err := svc.List(ctx, ListFilter{}, common.PaginationRequest{Page: page, PageSize: 2})
			require.NoError(t, err)
			for _, it := range items {
				assert.False(t, seen[it.ID], "分页结果出现重复: %s", it.ID)
				seen[it.ID] = true
			}
		}
		assert.Len(t, seen, 5)
	})
}

func TestServiceSummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req1, err := svc.Create(ctx, "teacher_a", roomChangeInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, "teacher_a", roomChangeInput())
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req1.ID, "manager_x")
	require.NoError(t, err)

	t.Run("审批人视角", func(t *testing.T) {
		sum, err := svc.GetSummary(ctx, "manager_x")
		require.NoError(t, err)
		counts := map[string]int64{}
		for _, sc := range sum.AsApprover {
			counts[sc.Status] = sc.Count
		}
		assert.EqualValues(t, 1, counts[StatusPending])
		assert.EqualValues(t, 1, counts[StatusApproved])
	})

	t.Run("创建者视角", func(t *testing.T) {
		sum, err := svc.GetSummary(ctx, "teacher_a")
		require.NoError(t, err)
		var total int64
		for _, sc := range sum.AsCreator {
			total += sc.Count
		}
		assert.EqualValues(t, 2, total)
	})
}

func TestServiceComments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, "teacher_a", roomChangeInput())
	require.NoError(t, err)

	t.Run("空评论被拒绝", func(t *testing.T) {
		_, err := svc.AddComment(ctx, req.ID, "teacher_a", "   ")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("超过 250 字符被拒绝", func(t *testing.T) {
		_, err := svc.AddComment(ctx, req.ID, "teacher_a", strings.Repeat("长", 251))
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("恰好 250 字符允许", func(t *testing.T) {
		_, err := svc.AddComment(ctx, req.ID, "teacher_a", strings.Repeat("长", 250))
		assert.NoError(t, err)
	})

	t.Run("申请单不存在", func(t *testing.T) {
		_, err := svc.AddComment(ctx, "no-such-id", "teacher_a", "你好")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = svc.ListComments(ctx, "no-such-id", "teacher_a")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("按插入顺序读取且标记是否本人", func(t *testing.T) {
		_, err := svc.AddComment(ctx, req.ID, "manager_x", "请补充教室信息")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = svc.AddComment(ctx, req.ID, "teacher_a", "已补充")
		require.NoError(t, err)

		views, err := svc.ListComments(ctx, req.ID, "teacher_a")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(views), 2)

		last := views[len(views)-1]
		assert.Equal(t, "已补充", last.Content)
		assert.True(t, last.IsMine)

		prev := views[len(views)-2]
		assert.Equal(t, "请补充教室信息", prev.Content)
		assert.False(t, prev.IsMine)
	})

	t.Run("终态申请单评论线仍开放", func(t *testing.T) {
		done, err := svc.Create(ctx, "teacher_b", roomChangeInput())
		require.NoError(t, err)
		_, err = svc.Approve(ctx, done.ID, "manager_x")
		require.NoError(t, err)

		_, err = svc.AddComment(ctx, done.ID, "teacher_b", "收到，谢谢")
		assert.NoError(t, err)
	})
}
