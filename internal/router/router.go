package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cpslearn/dsa-mentor/internal/handler"
	"github.com/cpslearn/dsa-mentor/internal/middleware"
	"github.com/cpslearn/dsa-mentor/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware(svc.Config.Server.CORSOrigins))
	r.Use(middleware.AuthMiddleware(svc))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// Auth 认证
		api.POST("/user/signup", h.Auth.Signup)
		api.POST("/user/login", h.Auth.Login)
		api.POST("/auth/google", h.Auth.Federated)
		api.POST("/auth/logout", middleware.RequireAuth(), h.Auth.Logout)
		api.GET("/auth/me", middleware.RequireAuth(), h.Auth.Me)

		// Session 会话闸门
		api.GET("/session/gate", h.Chat.Gate)

		// User 用户档案
		user := api.Group("/user/:id", middleware.RequireAuth())
		{
			user.GET("/profile", h.User.GetProfile)
			user.PUT("/profile", h.User.UpdateProfile)
			user.GET("/chat-history", h.User.GetChatHistory)
			user.GET("/export", h.User.Export)
			user.GET("/onboarding", h.User.GetOnboarding)
			user.PUT("/onboarding", h.User.SetOnboarding)
		}

		// Chat 聊天
		api.POST("/chat", middleware.RequireAuth(), h.Chat.Send)
		api.POST("/chat/progress", middleware.RequireAuth(), h.Chat.Progress)

		// Thread 线程
		threads := api.Group("/threads", middleware.RequireAuth())
		{
			threads.POST("", h.Chat.CreateThread)
			threads.GET("", h.Chat.ListThreads)
			threads.GET("/:id", h.Chat.GetThread)
			threads.PUT("/:id/select", h.Chat.SelectThread)
		}
	}

	return r
}
