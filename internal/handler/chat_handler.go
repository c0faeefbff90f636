package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cpslearn/dsa-mentor/internal/model"
	"github.com/cpslearn/dsa-mentor/internal/service"
	"github.com/cpslearn/dsa-mentor/internal/service/enrich"
	"github.com/cpslearn/dsa-mentor/internal/service/session"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// SendRequest 发送消息请求
type SendRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

// ProgressRequest 进度动作请求
type ProgressRequest struct {
	ThreadID string `json:"thread_id"`
	Action   string `json:"action" binding:"required"`
}

// engineFor 取当前用户的会话引擎
func (h *ChatHandler) engineFor(c *gin.Context) (*session.Engine, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		Unauthorized(c, "authentication required")
		return nil, false
	}
	return h.svc.Sessions.Engine(userID), true
}

// ensureHistory 首次接触线程时合并历史记录（仅生效一次）。
// 远端与缓存并发拉取，任一不可达都不阻塞聊天，缺的一侧按空处理。
func (h *ChatHandler) ensureHistory(c *gin.Context, engine *session.Engine, threadID string) error {
	if !engine.HistoryPending(threadID) {
		return nil
	}

	ctx := c.Request.Context()
	userID := engine.UserID()

	var remote, local []*model.ChatRecord
	done := make(chan struct{})
	go func() {
		defer close(done)
		local = h.svc.Profile.CachedHistory(ctx, userID)
	}()
	if records, err := h.svc.Profile.GetChatHistory(ctx, userID, h.svc.Config.Session.HistoryLimit); err == nil {
		remote = records
	}
	<-done

	_, err := engine.LoadHistory(threadID, remote, local)
	return err
}

// Send 发送一条消息并等待助手回复
func (h *ChatHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = engine.ActiveThreadID()
	}
	if err := h.ensureHistory(c, engine, threadID); err != nil {
		if errors.Is(err, session.ErrThreadNotFound) {
			NotFound(c, "thread not found")
			return
		}
		Error(c, err)
		return
	}

	reply, err := engine.SendMessage(c.Request.Context(), threadID, req.Message)
	if err != nil {
		if errors.Is(err, session.ErrThreadNotFound) {
			NotFound(c, "thread not found")
			return
		}
		Error(c, err)
		return
	}

	thread, err := engine.Thread(threadID)
	if err != nil {
		Error(c, err)
		return
	}

	// 空白消息是空操作，reply 为 nil
	payload := gin.H{
		"reply":  reply,
		"thread": thread,
	}
	// 学习会话进行中时附带下一步视频（仅分析视图展示，带上限）
	if reply != nil && reply.Analysis.HasNextStep() {
		previews, more := enrich.SplitNextStep(reply.Analysis.NextStepVideos)
		payload["next_step_videos"] = previews
		payload["next_step_more"] = more
	}
	Success(c, payload)
}

// Progress 执行一个进度动作（合成固定文案的用户消息）
func (h *ChatHandler) Progress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = engine.ActiveThreadID()
	}
	if err := h.ensureHistory(c, engine, threadID); err != nil {
		if errors.Is(err, session.ErrThreadNotFound) {
			NotFound(c, "thread not found")
			return
		}
		Error(c, err)
		return
	}

	reply, err := h.svc.Progress.Dispatch(c.Request.Context(), engine, threadID, req.Action)
	if err != nil {
		if errors.Is(err, session.ErrThreadNotFound) {
			NotFound(c, "thread not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	Success(c, gin.H{"reply": reply})
}

// CreateThread 新建线程并设为活动
func (h *ChatHandler) CreateThread(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	thread := engine.CreateThread()
	Created(c, thread)
}

// ListThreads 列出全部线程
func (h *ChatHandler) ListThreads(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	Success(c, gin.H{
		"threads":   engine.Threads(),
		"active_id": engine.ActiveThreadID(),
		"typing":    engine.IsTyping(),
	})
}

// GetThread 获取单个线程快照
func (h *ChatHandler) GetThread(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	thread, err := engine.Thread(c.Param("id"))
	if err != nil {
		NotFound(c, "thread not found")
		return
	}

	Success(c, thread)
}

// SelectThread 切换活动线程
func (h *ChatHandler) SelectThread(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	if err := engine.SelectThread(c.Param("id")); err != nil {
		NotFound(c, "thread not found")
		return
	}

	Success(c, gin.H{"active_id": engine.ActiveThreadID()})
}

// Gate 路由闸门判定：认证、引导完成与否决定放行或跳转
func (h *ChatHandler) Gate(c *gin.Context) {
	from := c.Query("from")
	decision := h.svc.Guard.Check(c.Request.Context(), from)
	Success(c, decision)
}
