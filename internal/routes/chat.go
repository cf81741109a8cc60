package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/handlers"
	"github.com/jyotisetu/astroconnect-backend/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/conversations", handlers.GetConversations)
		chat.GET("/conversation/:userId", handlers.GetConversation) // ?page=&limit=
		chat.GET("/unread", handlers.GetUnreadCount)
		chat.POST("/:receiverId", middleware.ChatRateLimit(), handlers.SendMessage)
		chat.PUT("/read/:senderId", handlers.MarkRead)
	}
}
