package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pendingRequest() *Request {
	return &Request{
		ID:              "req-1",
		TypeName:        TypeRoomChange,
		Creator:         "teacher_a",
		PrimaryApprover: "manager_x",
		SubApprover:     "manager_y",
		PrimaryStatus:   StatusPending,
		ActionButton:    []string{TokenConfirm, TokenReject, TokenCancel},
	}
}

func TestResolve(t *testing.T) {
	t.Run("主审批人获得批准和拒绝", func(t *testing.T) {
		actions := Resolve(pendingRequest(), "manager_x")
		assert.Equal(t, []Action{ActionApprove, ActionReject}, actions)
	})

	t.Run("副审批人与主审批人同权", func(t *testing.T) {
		actions := Resolve(pendingRequest(), "manager_y")
		assert.Equal(t, []Action{ActionApprove, ActionReject}, actions)
	})

	t.Run("创建者只能取消", func(t *testing.T) {
		actions := Resolve(pendingRequest(), "teacher_a")
		assert.Equal(t, []Action{ActionCancel}, actions)
	})

	t.Run("创建者同时是副审批人时仍然只能取消", func(t *testing.T) {
		req := pendingRequest()
		req.SubApprover = req.Creator
		actions := Resolve(req, req.Creator)
		assert.Equal(t, []Action{ActionCancel}, actions)
	})

	t.Run("无关身份没有任何动作", func(t *testing.T) {
		assert.Nil(t, Resolve(pendingRequest(), "stranger"))
	})

	t.Run("终态申请单没有任何动作", func(t *testing.T) {
		for _, status := range []string{StatusApproved, StatusRejected, StatusCancelled} {
			req := pendingRequest()
			req.PrimaryStatus = status
			assert.Nil(t, Resolve(req, "manager_x"))
			assert.Nil(t, Resolve(req, req.Creator))
		}
	})

	t.Run("令牌缺失则对应动作不可用", func(t *testing.T) {
		req := pendingRequest()
		req.ActionButton = []string{TokenConfirm}
		assert.Equal(t, []Action{ActionApprove}, Resolve(req, "manager_x"))
		assert.Nil(t, Resolve(req, req.Creator))
	})

	t.Run("解析不修改申请单", func(t *testing.T) {
		req := pendingRequest()
		before := *req
		Resolve(req, "manager_x")
		Resolve(req, req.Creator)
		Resolve(req, "stranger")
		assert.Equal(t, before.PrimaryStatus, req.PrimaryStatus)
		assert.Equal(t, before.ActionButton, req.ActionButton)
	})

	t.Run("空身份或空申请单返回空", func(t *testing.T) {
		assert.Nil(t, Resolve(nil, "manager_x"))
		assert.Nil(t, Resolve(pendingRequest(), ""))
	})
}
