package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/handlers"
	"github.com/jyotisetu/astroconnect-backend/internal/middleware"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
)

func RegisterAstrologerRoutes(r gin.IRouter) {
	astrologer := r.Group("/astrologer")
	astrologer.Use(middleware.AuthMiddleware())
	{
		astrologer.GET("/list", handlers.ListAstrologers)
		astrologer.PUT("/availability",
			middleware.RequireRole(models.RoleAstrologer),
			handlers.ToggleAvailability)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	{
		admin.GET("/list", handlers.ListAdmins)
	}
}
