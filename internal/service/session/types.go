// Package session 实现聊天线程状态机：线程集合与活动线程、
// 历史双源合并、乐观消息追加与保底回复。
package session

import (
	"context"
	"time"

	"github.com/cpslearn/dsa-mentor/internal/model"
	"github.com/cpslearn/dsa-mentor/internal/service/enrich"
	"github.com/cpslearn/dsa-mentor/internal/service/tutor"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	// defaultTitle 新线程标题
	defaultTitle = "New Chat"
	// titleMaxRunes 自动标题截断长度
	titleMaxRunes = 20

	// welcomeMessageID 欢迎消息固定 ID
	welcomeMessageID = "welcome"
	// welcomeText 欢迎消息内容
	welcomeText = "Hello! I'm your AI assistant. I can help you with data structures, algorithms, and even show you useful videos. How can I assist you today?"

	// fallbackReply 应答服务失败时的保底回复
	fallbackReply = "There was an error contacting the AI service."
)

// Message 会话内展示消息
type Message struct {
	ID        string               `json:"id"`
	Role      string               `json:"role"`
	Content   string               `json:"content"`
	Timestamp time.Time            `json:"timestamp"`
	Links     []enrich.LinkPreview `json:"links,omitempty"`
	Analysis  *tutor.Analysis      `json:"analysis,omitempty"`
}

// Thread 一次独立对话，持有自己的有序消息列表
type Thread struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`

	historyLoaded bool
}

// Responder 应答生成服务
type Responder interface {
	Send(ctx context.Context, req *tutor.ChatRequest) (*tutor.ChatResponse, error)
}

// LinkResolver 链接预览解析
type LinkResolver interface {
	ResolveAll(ctx context.Context, urls []string) []enrich.LinkPreview
}

// HistoryCache 本地历史快照（页面重载不丢消息）
type HistoryCache interface {
	AppendHistory(ctx context.Context, userID string, record *model.ChatRecord) error
}

// ExchangeSink 每次成功交换的持久化出口（远端存储 + 统计）
type ExchangeSink interface {
	Record(ctx context.Context, record *model.ChatRecord) error
}

// Notifier 用户可见通知
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Error(msg string)
}

// Config 会话引擎配置
type Config struct {
	ContextSize int           // 发送给 AI 的上下文消息数
	MinReply    time.Duration // 回复最小延迟下限
	MaxReply    time.Duration // 回复最小延迟上限
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		ContextSize: 5,
		MinReply:    time.Second,
		MaxReply:    2 * time.Second,
	}
}

// Deps 会话引擎依赖
type Deps struct {
	Responder Responder
	Resolver  LinkResolver
	Cache     HistoryCache
	Sink      ExchangeSink
	Notifier  Notifier
	Config    Config
}

// nopNotifier 空通知器
type nopNotifier struct{}

func (nopNotifier) Info(string)    {}
func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
