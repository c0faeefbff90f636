package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/cpslearn/dsa-mentor/internal/model"
	"github.com/cpslearn/dsa-mentor/internal/service/enrich"
	"github.com/cpslearn/dsa-mentor/internal/service/tutor"
)

// ErrThreadNotFound 线程不存在
var ErrThreadNotFound = errors.New("session: thread not found")

// Engine 单个用户的会话引擎。
// 所有状态变更经 mu 串行化（原实现为单 UI 线程），网络调用在锁外进行；
// 进行中的发送不会被取消，结果按线程 ID 回写，与活动指针无关。
type Engine struct {
	mu       sync.Mutex
	userID   string
	threads  []*Thread
	activeID string
	typing   bool
	deps     Deps
}

// NewEngine 创建会话引擎，并带一个活动的初始线程
func NewEngine(userID string, deps Deps) *Engine {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Config.ContextSize <= 0 {
		deps.Config.ContextSize = DefaultConfig().ContextSize
	}

	e := &Engine{userID: userID, deps: deps}
	e.mu.Lock()
	e.createThreadLocked()
	e.mu.Unlock()
	return e
}

// UserID 引擎所属用户
func (e *Engine) UserID() string {
	return e.userID
}

// createThreadLocked 创建线程并设为活动；调用方需持有锁
func (e *Engine) createThreadLocked() *Thread {
	thread := &Thread{
		ID:    "chat-" + uuid.New().String(),
		Title: defaultTitle,
		Messages: []Message{{
			ID:        welcomeMessageID,
			Role:      RoleAssistant,
			Content:   welcomeText,
			Timestamp: time.Now(),
		}},
	}
	e.threads = append(e.threads, thread)
	e.activeID = thread.ID
	return thread
}

// findThreadLocked 按 ID 查找线程；调用方需持有锁
func (e *Engine) findThreadLocked(id string) *Thread {
	for _, t := range e.threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// CreateThread 新建线程（带欢迎消息）并设为活动线程。
// 新线程从空白开始，不参与历史合并；只有引擎初始线程会吸收历史。
func (e *Engine) CreateThread() Thread {
	e.mu.Lock()
	defer e.mu.Unlock()

	thread := e.createThreadLocked()
	thread.historyLoaded = true
	return copyThread(thread)
}

// HistoryPending 线程是否还等待首次历史合并
func (e *Engine) HistoryPending(threadID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findThreadLocked(threadID)
	return t != nil && !t.historyLoaded
}

// SelectThread 切换活动线程；除指针变更外无其他副作用
func (e *Engine) SelectThread(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findThreadLocked(id) == nil {
		return ErrThreadNotFound
	}
	e.activeID = id
	return nil
}

// ActiveThreadID 当前活动线程 ID
func (e *Engine) ActiveThreadID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// IsTyping 助手回复是否在途
func (e *Engine) IsTyping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typing
}

// Threads 所有线程的快照
func (e *Engine) Threads() []Thread {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Thread, len(e.threads))
	for i, t := range e.threads {
		out[i] = copyThread(t)
	}
	return out
}

// Thread 单个线程的快照
func (e *Engine) Thread(id string) (Thread, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findThreadLocked(id)
	if t == nil {
		return Thread{}, ErrThreadNotFound
	}
	return copyThread(t), nil
}

// copyThread 深拷贝线程，避免外部持有引擎内部切片
func copyThread(t *Thread) Thread {
	messages := make([]Message, len(t.Messages))
	copy(messages, t.Messages)
	return Thread{ID: t.ID, Title: t.Title, Messages: messages}
}

// LoadHistory 把远端历史与本地缓存历史合并进线程。
// 每线程每会话至多执行一次（loaded 标记守护），重复调用为空操作。
// 返回合并后的交换条数。
func (e *Engine) LoadHistory(threadID string, remote, local []*model.ChatRecord) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	thread := e.findThreadLocked(threadID)
	if thread == nil {
		return 0, ErrThreadNotFound
	}
	if thread.historyLoaded {
		return 0, nil
	}

	merged := MergeRecords(remote, local)
	thread.Messages = append(thread.Messages, expandRecords(merged)...)
	thread.historyLoaded = true

	if len(merged) > 0 {
		e.deps.Notifier.Info(fmt.Sprintf("Loaded %d previous conversations", len(merged)))
	}
	return len(merged), nil
}

// SendMessage 发送一条用户消息并取回助手回复。
// 空白文本是空操作而不是错误。用户消息乐观追加；应答服务失败时
// 追加固定道歉回复，线程绝不会停在无回复状态。
func (e *Engine) SendMessage(ctx context.Context, threadID, text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	urls := enrich.ExtractLinks(text)
	userMsg := Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}
	for _, u := range urls {
		userMsg.Links = append(userMsg.Links, enrich.Speculative(u))
	}

	e.mu.Lock()
	thread := e.findThreadLocked(threadID)
	if thread == nil {
		e.mu.Unlock()
		return nil, ErrThreadNotFound
	}
	contextMsgs := lastMessages(thread.Messages, e.deps.Config.ContextSize)
	thread.Messages = append(thread.Messages, userMsg)
	e.typing = true
	e.mu.Unlock()

	// 占位预览原位升级为解析结果；消息 ID 始终稳定，仅 links 字段变化
	if len(urls) > 0 && e.deps.Resolver != nil {
		previews := e.deps.Resolver.ResolveAll(ctx, urls)
		e.replaceLinks(threadID, userMsg.ID, previews)
	}

	// 最小回复延迟与网络调用并行计时，且总是完整流逝：
	// 用户不应该得到零等待的回复
	minDelay := time.After(e.replyDelay())

	req := &tutor.ChatRequest{
		Message:     text,
		ChatHistory: toContext(contextMsgs),
		UserID:      e.userID,
	}
	resp, sendErr := e.deps.Responder.Send(ctx, req)

	<-minDelay

	assistant := Message{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
	if sendErr != nil {
		assistant.Content = fallbackReply
		e.deps.Notifier.Error("There was an error contacting the AI service. Please try again.")
	} else {
		assistant.Content = resp.Response
		assistant.Links = enrich.VideoPreviews(resp.Videos)
		assistant.Analysis = resp.Analysis
	}

	e.mu.Lock()
	thread = e.findThreadLocked(threadID)
	if thread == nil {
		e.mu.Unlock()
		return nil, ErrThreadNotFound
	}
	thread.Messages = append(thread.Messages, assistant)
	e.typing = false
	if sendErr == nil && thread.Title == defaultTitle {
		thread.Title = truncateTitle(text)
	}
	e.mu.Unlock()

	if sendErr == nil {
		e.recordExchange(ctx, text, resp, assistant.Timestamp)
	}
	return &assistant, nil
}

// replaceLinks 原位替换消息的预览列表
func (e *Engine) replaceLinks(threadID, messageID string, previews []enrich.LinkPreview) {
	e.mu.Lock()
	defer e.mu.Unlock()

	thread := e.findThreadLocked(threadID)
	if thread == nil {
		return
	}
	for i := range thread.Messages {
		if thread.Messages[i].ID == messageID {
			thread.Messages[i].Links = previews
			return
		}
	}
}

// recordExchange 把成功交换写入本地缓存（重载不丢消息）与远端出口
func (e *Engine) recordExchange(ctx context.Context, text string, resp *tutor.ChatResponse, at time.Time) {
	record := &model.ChatRecord{
		ID:        uuid.New().String(),
		UserID:    e.userID,
		Message:   text,
		Response:  resp.Response,
		Timestamp: at,
		Analysis:  datatypes.JSON(resp.RawAnalysis),
	}

	if e.deps.Cache != nil {
		if err := e.deps.Cache.AppendHistory(ctx, e.userID, record); err != nil {
			log.Printf("Warning: failed to cache exchange for user %s: %v", e.userID, err)
		}
	}
	if e.deps.Sink != nil {
		if err := e.deps.Sink.Record(ctx, record); err != nil {
			log.Printf("Warning: failed to persist exchange for user %s: %v", e.userID, err)
		}
	}

	if resp.Analysis != nil {
		if resp.Analysis.ProfileUpdated {
			e.deps.Notifier.Success("Topic added to your profile!")
		}
		if resp.Analysis.PathCompleted {
			e.deps.Notifier.Success("Congratulations! Learning path completed!")
		}
	}
}

// replyDelay 随机化最小回复延迟
func (e *Engine) replyDelay() time.Duration {
	min, max := e.deps.Config.MinReply, e.deps.Config.MaxReply
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// truncateTitle 取用户文本前 20 个字符作为标题，为空退化为 "Chat"
func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) > titleMaxRunes {
		runes = runes[:titleMaxRunes]
	}
	title := string(runes)
	if strings.TrimSpace(title) == "" {
		return "Chat"
	}
	return title
}

// lastMessages 取末尾 N 条消息
func lastMessages(messages []Message, n int) []Message {
	if len(messages) <= n {
		out := make([]Message, len(messages))
		copy(out, messages)
		return out
	}
	out := make([]Message, n)
	copy(out, messages[len(messages)-n:])
	return out
}

// toContext 转换为 AI 服务上下文消息
func toContext(messages []Message) []tutor.ContextMessage {
	out := make([]tutor.ContextMessage, len(messages))
	for i, m := range messages {
		out[i] = tutor.ContextMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
	}
	return out
}
