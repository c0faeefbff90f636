package tutor

import (
	"encoding/json"
	"time"
)

// ContextMessage 发送给 AI 服务的上下文消息
type ContextMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest AI 服务请求
type ChatRequest struct {
	Message     string           `json:"message"`
	ChatHistory []ContextMessage `json:"chat_history"`
	UserID      string           `json:"user_id"`
}

// VideoData 推荐视频
type VideoData struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Channel     string `json:"channel,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Views       string `json:"views,omitempty"`
}

// Analysis AI 分析载荷。对核心逻辑而言是开放字段包：
// 除 LearningSessionActive/NextStep 用于决定是否展示进度操作外，其余字段原样透传。
type Analysis struct {
	Summary               string      `json:"summary,omitempty"`
	Tone                  string      `json:"tone,omitempty"`
	Sentiment             string      `json:"sentiment,omitempty"`
	Keywords              []string    `json:"keywords,omitempty"`
	Gaps                  []string    `json:"gaps,omitempty"`
	LearningPath          []string    `json:"learning_path,omitempty"`
	NextStep              string      `json:"next_step,omitempty"`
	NextStepExplanation   string      `json:"next_step_explanation,omitempty"`
	NextStepVideos        []VideoData `json:"next_step_videos,omitempty"`
	KnownTopics           []string    `json:"known_topics,omitempty"`
	Dynamic               bool        `json:"dynamic,omitempty"`
	Logged                bool        `json:"logged,omitempty"`
	SmallTalk             bool        `json:"small_talk,omitempty"`
	GraphBased            bool        `json:"graph_based,omitempty"`
	Error                 string      `json:"error,omitempty"`
	LearningSessionActive bool        `json:"learning_session_active,omitempty"`
	ProfileUpdated        bool        `json:"profile_updated,omitempty"`
	PathCompleted         bool        `json:"path_completed,omitempty"`
}

// HasNextStep 学习会话进行中且存在下一步主题
func (a *Analysis) HasNextStep() bool {
	return a != nil && a.LearningSessionActive && a.NextStep != ""
}

// ChatResponse AI 服务响应
type ChatResponse struct {
	Response    string          `json:"response"`
	Videos      []VideoData     `json:"videos"`
	RawAnalysis json.RawMessage `json:"analysis,omitempty"`

	// Analysis 解码后的分析载荷；载荷缺失或无法修复时为 nil
	Analysis *Analysis `json:"-"`
}
