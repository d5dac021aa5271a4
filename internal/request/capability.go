package request

// Action 引擎支持的状态迁移动作
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// Resolve 解析某身份当前在申请单上可执行的动作集合
//
// 纯函数，不修改申请单。客户端用它决定渲染哪些按钮，但结果仅供展示：
// 每次状态迁移提交时服务端都会按角色与状态重新裁决，令牌存在与否
// 从不单独构成授权。
//
// 规则（按优先级）：
//  1. 终态申请单没有任何可执行动作
//  2. 创建者只能取消（且需上游下发了取消令牌），永远不能批准/拒绝自己的申请
//  3. 主审批人按令牌获得批准/拒绝
//  4. 副审批人在不与创建者同人时，与主审批人同权
func Resolve(req *Request, actingIdentity string) []Action {
	if req == nil || actingIdentity == "" {
		return nil
	}
	if req.PrimaryStatus != StatusPending {
		return nil
	}

	var actions []Action

	switch {
	case actingIdentity == req.Creator:
		// 创建者分支优先：即使创建者同时是副审批人也只能取消
		if req.HasToken(TokenCancel) {
			actions = append(actions, ActionCancel)
		}

	case actingIdentity == req.PrimaryApprover:
		actions = appendDecisionActions(actions, req)

	case req.SubApprover != "" && actingIdentity == req.SubApprover && req.SubApprover != req.Creator:
		actions = appendDecisionActions(actions, req)
	}

	return actions
}

func appendDecisionActions(actions []Action, req *Request) []Action {
	if req.HasToken(TokenConfirm) {
		actions = append(actions, ActionApprove)
	}
	if req.HasToken(TokenReject) {
		actions = append(actions, ActionReject)
	}
	return actions
}
