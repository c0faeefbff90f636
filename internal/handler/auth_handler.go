package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cpslearn/dsa-mentor/internal/service"
	"github.com/cpslearn/dsa-mentor/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.Services
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup 用户注册
func (h *AuthHandler) Signup(c *gin.Context) {
	var req auth.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	resp, err := h.svc.Auth.Signup(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			Conflict(c, "User with this email already exists")
			return
		}
		Error(c, err)
		return
	}

	Created(c, resp)
}

// Login 用户登录。认证被拒时仍返回 200，
// 结果由响应体里的 success 字段承载。
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	resp, err := h.svc.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, resp)
}

// Federated 联合身份登录（外部身份提供方签发的断言）
func (h *AuthHandler) Federated(c *gin.Context) {
	var assertion auth.IdentityAssertion
	if err := c.ShouldBindJSON(&assertion); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	resp, err := h.svc.Auth.Federated(c.Request.Context(), &assertion)
	if err != nil {
		if errors.Is(err, auth.ErrUnverifiedIdentity) {
			Forbidden(c, "Identity assertion is not verified")
			return
		}
		Error(c, err)
		return
	}

	Success(c, resp)
}

// Logout 用户登出：吊销令牌、清空当前会话并丢弃会话引擎
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		Unauthorized(c, "authentication required")
		return
	}

	if err := h.svc.Auth.Logout(c.Request.Context(), userID); err != nil {
		Error(c, err)
		return
	}
	h.svc.Sessions.Drop(userID)

	Success(c, nil)
}

// Me 获取当前认证用户
func (h *AuthHandler) Me(c *gin.Context) {
	v, ok := c.Get("user")
	if !ok {
		Unauthorized(c, "authentication required")
		return
	}
	Success(c, v)
}
