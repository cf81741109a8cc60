package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/handlers"
	"github.com/jyotisetu/astroconnect-backend/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter) {
	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)
	r.GET("/me", middleware.AuthMiddleware(), handlers.Me)
}
