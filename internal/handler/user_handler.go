package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cpslearn/dsa-mentor/internal/cache"
	"github.com/cpslearn/dsa-mentor/internal/service"
	"github.com/cpslearn/dsa-mentor/internal/service/profile"
)

// UserHandler 用户档案处理器
type UserHandler struct {
	svc *service.Services
}

// NewUserHandler 创建用户档案处理器
func NewUserHandler(svc *service.Services) *UserHandler {
	return &UserHandler{svc: svc}
}

// requireSelf 校验路径里的用户 ID 属于当前认证用户
func (h *UserHandler) requireSelf(c *gin.Context) (string, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		Unauthorized(c, "authentication required")
		return "", false
	}
	if id := c.Param("id"); id != "" && id != userID {
		Forbidden(c, "cannot access another user's data")
		return "", false
	}
	return userID, true
}

// GetProfile 获取学习档案
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	user, err := h.svc.Profile.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if profile.IsNotFound(err) {
			NotFound(c, "user not found")
			return
		}
		Error(c, err)
		return
	}

	Success(c, user)
}

// UpdateProfile 更新学习档案（部分更新）
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	var req profile.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	user, err := h.svc.Profile.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		if profile.IsNotFound(err) {
			NotFound(c, "user not found")
			return
		}
		Error(c, err)
		return
	}

	Success(c, user)
}

// GetChatHistory 获取聊天历史，limit 缺省取配置值
func (h *UserHandler) GetChatHistory(c *gin.Context) {
	userID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	limit := h.svc.Config.Session.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.svc.Profile.GetChatHistory(c.Request.Context(), userID, limit)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, records)
}

// Export 导出用户全部数据（下载附件）
func (h *UserHandler) Export(c *gin.Context) {
	userID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	data, err := h.svc.Profile.Export(c.Request.Context(), userID)
	if err != nil {
		if profile.IsNotFound(err) {
			NotFound(c, "user not found")
			return
		}
		Error(c, err)
		return
	}

	filename := fmt.Sprintf("user_data_%s_%s.json", userID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, data)
}

// GetOnboarding 读取引导完成标记
func (h *UserHandler) GetOnboarding(c *gin.Context) {
	userID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	// 键缺失视为未完成
	done, err := h.svc.Cache.GetOnboarded(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		Error(c, err)
		return
	}

	Success(c, gin.H{"onboarded": done})
}

// SetOnboarding 写入引导完成标记
func (h *UserHandler) SetOnboarding(c *gin.Context) {
	userID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	var req struct {
		Onboarded bool `json:"onboarded"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	if err := h.svc.Cache.SetOnboarded(c.Request.Context(), userID, req.Onboarded); err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{"onboarded": req.Onboarded})
}
