package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func postJSON(t *testing.T, handler gin.HandlerFunc, url string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", url, bytes.NewBuffer(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestRegister(t *testing.T) {
	SetupTestDB(t)

	w := postJSON(t, Register, "/api/auth/register", map[string]string{
		"name":     "New User",
		"email":    "New@Example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Data struct {
			Token string            `json:"token"`
			User  models.PublicUser `json:"user"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.NotEmpty(t, response.Data.Token)
	assert.Equal(t, "new@example.com", response.Data.User.Email)
	assert.Equal(t, models.RoleUser, response.Data.User.Role)

	// The issued token round-trips through the socket auth path.
	claims, err := utils.ValidateToken(response.Data.Token)
	assert.NoError(t, err)
	assert.Equal(t, response.Data.User.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestRegister_AstrologerRole(t *testing.T) {
	SetupTestDB(t)

	w := postJSON(t, Register, "/api/auth/register", map[string]string{
		"name":     "New Astrologer",
		"email":    "astro@example.com",
		"password": "password123",
		"role":     "astrologer",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	database.DB.First(&user, "email = ?", "astro@example.com")
	assert.Equal(t, models.RoleAstrologer, user.Role)
	// New astrologers start unavailable until they toggle themselves on.
	assert.False(t, user.IsAvailable)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	SetupTestDB(t)

	w := postJSON(t, Register, "/api/auth/register", map[string]string{
		"name":     "Sneaky",
		"email":    "sneaky@example.com",
		"password": "password123",
		"role":     "admin",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid role")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	SetupTestDB(t)

	body := map[string]string{
		"name":     "First",
		"email":    "dup@example.com",
		"password": "password123",
	}
	w := postJSON(t, Register, "/api/auth/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, Register, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_WeakPassword(t *testing.T) {
	SetupTestDB(t)

	w := postJSON(t, Register, "/api/auth/register", map[string]string{
		"name":     "Weak",
		"email":    "weak@example.com",
		"password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least 8 characters")
}

func TestLogin(t *testing.T) {
	SetupTestDB(t)

	postJSON(t, Register, "/api/auth/register", map[string]string{
		"name":     "Login User",
		"email":    "login@example.com",
		"password": "password123",
	})

	w := postJSON(t, Login, "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)

	w = postJSON(t, Login, "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, Login, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
