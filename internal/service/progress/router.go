// Package progress 把固定的学习进度意图转换为合成用户消息。
// 四个动作各自映射到一条固定文案——后端的意图分类依赖这个封闭词表，
// 任何改写都会破坏分类，因此未知动作直接拒绝。
package progress

import (
	"context"
	"fmt"

	"github.com/cpslearn/dsa-mentor/internal/service/session"
)

// 进度动作
const (
	ActionUnderstand = "understand"
	ActionNext       = "next"
	ActionNeedHelp   = "need_help"
	ActionSatisfied  = "satisfied"
)

// actionMessages 动作到合成消息的固定映射
var actionMessages = map[string]string{
	ActionUnderstand: "I understand this topic",
	ActionNext:       "Next topic",
	ActionNeedHelp:   "I need more explanation",
	ActionSatisfied:  "I am satisfied with this topic and ready to add it to my profile",
}

// actionNotices 动作的即时反馈
var actionNotices = map[string]string{
	ActionUnderstand: "Great! Moving to next topic...",
	ActionNext:       "Continuing to next topic...",
	ActionNeedHelp:   "Getting more explanation...",
	ActionSatisfied:  "Adding topic to your profile...",
}

// Sender 合成消息的入口（由会话引擎实现）
type Sender interface {
	SendMessage(ctx context.Context, threadID, text string) (*session.Message, error)
}

// Router 进度动作路由
type Router struct {
	notifier session.Notifier
}

// NewRouter 创建进度路由
func NewRouter(notifier session.Notifier) *Router {
	return &Router{notifier: notifier}
}

// Message 返回动作对应的固定消息文案
func Message(action string) (string, bool) {
	msg, ok := actionMessages[action]
	return msg, ok
}

// Dispatch 执行一个进度动作：先给出即时反馈，
// 再把固定文案当作用户输入送入会话引擎。
func (r *Router) Dispatch(ctx context.Context, sender Sender, threadID, action string) (*session.Message, error) {
	msg, ok := actionMessages[action]
	if !ok {
		return nil, fmt.Errorf("progress: unknown action %q", action)
	}

	if r.notifier != nil {
		if action == ActionSatisfied {
			r.notifier.Success(actionNotices[action])
		} else {
			r.notifier.Info(actionNotices[action])
		}
	}

	return sender.SendMessage(ctx, threadID, msg)
}
