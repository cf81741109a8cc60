package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/internal/realtime"
	"github.com/jyotisetu/astroconnect-backend/pkg/logger"
)

const astrologerListCacheKey = "cache:astrologer:list"

// AstrologerEntry is one row of the public astrologer directory.
type AstrologerEntry struct {
	User           models.PublicUser `json:"user"`
	IsAvailable    bool              `json:"isAvailable"`
	IsOnline       bool              `json:"isOnline"`
	Experience     string            `json:"experience"`
	Specialization string            `json:"specialization"`
	Languages      string            `json:"languages"`
	PricePerMin    int               `json:"pricePerMin"`
	Rating         float64           `json:"rating"`
	Consultations  int               `json:"consultations"`
}

// ListAstrologers returns the directory with availability flags and a live
// online indicator from the Redis presence mirror. Profile rows are cached
// briefly; the online flag is always computed fresh.
func ListAstrologers(c *gin.Context) {
	var astrologers []models.User

	if err := database.CacheGet(astrologerListCacheKey, &astrologers); err != nil {
		if err := database.DB.
			Where("role = ?", models.RoleAstrologer).
			Order("rating desc").
			Find(&astrologers).Error; err != nil {
			logger.Error().Err(err).Msg("failed to fetch astrologers")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch astrologers"})
			return
		}
		if database.Redis != nil {
			_ = database.CacheSet(astrologerListCacheKey, astrologers, 30*time.Second)
		}
	}

	entries := make([]AstrologerEntry, 0, len(astrologers))
	for _, a := range astrologers {
		entries = append(entries, AstrologerEntry{
			User:           a.Public(),
			IsAvailable:    a.IsAvailable,
			IsOnline:       database.PresenceContains(a.ID),
			Experience:     a.Experience,
			Specialization: a.Specialization,
			Languages:      a.Languages,
			PricePerMin:    a.PricePerMin,
			Rating:         a.Rating,
			Consultations:  a.Consultations,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"astrologers": entries},
	})
}

// ListAdmins returns admin accounts for the user -> support chat entry point.
func ListAdmins(c *gin.Context) {
	var admins []models.User
	if err := database.DB.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch admins"})
		return
	}

	entries := make([]models.PublicUser, 0, len(admins))
	for _, a := range admins {
		entries = append(entries, a.Public())
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"admins": entries}})
}

// ToggleAvailability flips the calling astrologer's availability and
// broadcasts the change. State only changes after the DB write succeeds;
// clients update from the broadcast, never optimistically.
func ToggleAvailability(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var astrologer models.User
	if err := database.DB.First(&astrologer, "id = ?", userId).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Astrologer not found"})
		return
	}
	if astrologer.Role != models.RoleAstrologer {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Only astrologers can toggle availability"})
		return
	}

	newValue := !astrologer.IsAvailable
	if err := database.DB.Model(&astrologer).Update("is_available", newValue).Error; err != nil {
		logger.Error().Err(err).Str("astrologer_id", userId).Msg("availability toggle failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update availability"})
		return
	}

	if database.Redis != nil {
		_ = database.CacheInvalidate(astrologerListCacheKey)
	}

	if Realtime != nil {
		Realtime.BroadcastAvailability(realtime.AvailabilityPayload{
			AstrologerID: astrologer.ID,
			IsAvailable:  newValue,
			Name:         astrologer.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"isAvailable": newValue},
	})
}
