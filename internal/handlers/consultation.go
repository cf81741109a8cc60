package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/services"
	"github.com/jyotisetu/astroconnect-backend/pkg/logger"
)

// CheckConsultationStatus answers the client-side guard before a new
// consultation:request. The response is authoritative: a client whose local
// state disagrees must adopt this answer.
func CheckConsultationStatus(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	astrologerId := c.Param("astrologerId")

	status, err := Consultations.StatusFor(c.Request.Context(), userId, astrologerId)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "astrologerId required"})
			return
		}
		logger.Error().Err(err).Str("user_id", userId).Msg("consultation status check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to check status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

// GetConsultationHistory lists the caller's past and open requests, newest
// first.
func GetConsultationHistory(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := Consultations.History(c.Request.Context(), userId, limit)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("consultation history fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"requests": history, "total": len(history)},
	})
}
