package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestCheckConsultationStatus(t *testing.T) {
	SetupTestDB(t)

	database.DB.Create(&models.User{ID: "user1", Email: "u1@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "astro1", Email: "a1@example.com", Role: models.RoleAstrologer, IsAvailable: true})

	check := func() services.ConsultationStatus {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest("GET", "/api/consultation/status/astro1", nil)
		c.Params = gin.Params{{Key: "astrologerId", Value: "astro1"}}
		c.Set("userId", "user1")

		CheckConsultationStatus(c)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data services.ConsultationStatus `json:"data"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		return response.Data
	}

	status := check()
	assert.True(t, status.CanRequest)

	req, err := Consultations.Create(context.Background(), "user1", "astro1", "")
	assert.NoError(t, err)

	status = check()
	assert.False(t, status.CanRequest)
	assert.True(t, status.HasPending)
	assert.Equal(t, req.ID, status.ActiveRequestID)

	Consultations.Accept(context.Background(), req.ID, "astro1")

	status = check()
	assert.False(t, status.CanRequest)
	assert.True(t, status.HasActive)
}

func TestGetConsultationHistory(t *testing.T) {
	SetupTestDB(t)

	database.DB.Create(&models.User{ID: "user1", Email: "u1@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "astro1", Email: "a1@example.com", Role: models.RoleAstrologer, IsAvailable: true})

	req, _ := Consultations.Create(context.Background(), "user1", "astro1", "")
	Consultations.Decline(context.Background(), req.ID, "astro1", "busy")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/consultation/history", nil)
	c.Set("userId", "astro1")

	GetConsultationHistory(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Requests []models.ConsultationRequest `json:"requests"`
			Total    int                          `json:"total"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Equal(t, 1, response.Data.Total)
	assert.Equal(t, models.ConsultationDeclined, response.Data.Requests[0].State)
	assert.Equal(t, "busy", response.Data.Requests[0].Reason)
}
