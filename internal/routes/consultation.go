package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/handlers"
	"github.com/jyotisetu/astroconnect-backend/internal/middleware"
)

func RegisterConsultationRoutes(r gin.IRouter) {
	consultation := r.Group("/consultation")
	consultation.Use(middleware.AuthMiddleware())
	{
		consultation.GET("/status/:astrologerId", handlers.CheckConsultationStatus)
		consultation.GET("/history", handlers.GetConsultationHistory)
	}
}
