package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cpslearn/dsa-mentor/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth *AuthHandler
	User *UserHandler
	Chat *ChatHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth: NewAuthHandler(svc),
		User: NewUserHandler(svc),
		Chat: NewChatHandler(svc),
	}
}

// currentUserID 从请求上下文取认证用户 ID
func currentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
