// Package guard 实现路由进入前的纯状态谓词：
// 认证在场与引导完成。两个谓词嵌套组合，认证先于引导判定。
package guard

import (
	"context"
	"time"
)

const (
	// waitCeiling 状态未定时的等待上限：宁可短暂等待也不闪跳转
	waitCeiling = time.Second
	// pollInterval 状态轮询间隔
	pollInterval = 50 * time.Millisecond

	// LoginPath 未认证跳转目标
	LoginPath = "/login"
	// OnboardingPath 未完成引导跳转目标
	OnboardingPath = "/onboarding"
)

// SessionState 会话状态源。known=false 表示状态尚未确定（初始加载中）。
type SessionState interface {
	CurrentUser(ctx context.Context) (userID string, known bool)
	Onboarded(ctx context.Context, userID string) (done bool, known bool)
}

// Decision 闸门判定结果
type Decision struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirect_to,omitempty"`
	From       string `json:"from,omitempty"` // 保留原始请求路径，登录后返回
}

// Guard 路由闸门
type Guard struct {
	state SessionState
	wait  time.Duration
	poll  time.Duration
}

// New 创建闸门
func New(state SessionState) *Guard {
	return &Guard{state: state, wait: waitCeiling, poll: pollInterval}
}

// NewWithTiming 创建自定义等待参数的闸门
func NewWithTiming(state SessionState, wait, poll time.Duration) *Guard {
	return &Guard{state: state, wait: wait, poll: poll}
}

// CheckAuth 认证闸门：状态未定时最多等待一个上限周期；
// 到期仍无用户则跳转登录页并保留原始路径。
func (g *Guard) CheckAuth(ctx context.Context, from string) Decision {
	userID, known := g.waitForUser(ctx)
	if known && userID != "" {
		return Decision{Allow: true}
	}
	return Decision{RedirectTo: LoginPath, From: from}
}

// CheckOnboarding 引导闸门：未完成引导跳转引导页
func (g *Guard) CheckOnboarding(ctx context.Context, userID string) Decision {
	done, known := g.waitForOnboarding(ctx, userID)
	if known && done {
		return Decision{Allow: true}
	}
	return Decision{RedirectTo: OnboardingPath}
}

// Check 组合判定：认证通过后才评估引导
func (g *Guard) Check(ctx context.Context, from string) Decision {
	userID, known := g.waitForUser(ctx)
	if !known || userID == "" {
		return Decision{RedirectTo: LoginPath, From: from}
	}
	return g.CheckOnboarding(ctx, userID)
}

// waitForUser 轮询等待认证状态确定，最多等待一个上限周期
func (g *Guard) waitForUser(ctx context.Context) (string, bool) {
	deadline := time.Now().Add(g.wait)
	for {
		userID, known := g.state.CurrentUser(ctx)
		if known {
			return userID, true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return "", false
		}
		time.Sleep(g.poll)
	}
}

// waitForOnboarding 轮询等待引导状态确定
func (g *Guard) waitForOnboarding(ctx context.Context, userID string) (bool, bool) {
	deadline := time.Now().Add(g.wait)
	for {
		done, known := g.state.Onboarded(ctx, userID)
		if known {
			return done, true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return false, false
		}
		time.Sleep(g.poll)
	}
}
