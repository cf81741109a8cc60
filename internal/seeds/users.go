package seeds

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func GetOrCreateAdminUser() (models.User, error) {
	log.Println("👤 Checking Admin User...")

	email := "admin@jyotisetu.com"

	var user models.User
	err := database.DB.Where("email = ?", email).First(&user).Error

	if err == nil {
		log.Printf("   ✅ Admin found: %s", user.Email)
		return user, nil
	}

	// Create if not exists
	hash, _ := bcrypt.GenerateFromPassword([]byte("JyotiSetuAdmin2026!"), bcrypt.DefaultCost)

	user = models.User{
		ID:        uuid.New().String(),
		Name:      "JyotiSetu Admin",
		Email:     email,
		Password:  string(hash),
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return models.User{}, err
	}

	log.Printf("   ✅ Admin Created: %s", user.Email)
	return user, nil
}
