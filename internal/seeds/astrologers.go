package seeds

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// SeedAstrologers creates the demo astrologer roster. Existing accounts
// (matched by email) are left untouched so re-running the seeder is safe.
func SeedAstrologers() {
	log.Println("🔮 Seeding Astrologers...")

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	astrologers := []models.User{
		{
			ID:             uuid.New().String(),
			Name:           "Pandit Ramesh Sharma",
			Email:          "ramesh@jyotisetu.com",
			Password:       string(hash),
			Role:           models.RoleAstrologer,
			IsAvailable:    true,
			Experience:     "15 years",
			Specialization: "Vedic Astrology",
			Languages:      "Hindi, English",
			PricePerMin:    25,
			Rating:         4.8,
			Consultations:  1240,
		},
		{
			ID:             uuid.New().String(),
			Name:           "Dr. Meena Iyer",
			Email:          "meena@jyotisetu.com",
			Password:       string(hash),
			Role:           models.RoleAstrologer,
			IsAvailable:    true,
			Experience:     "12 years",
			Specialization: "Numerology & Tarot",
			Languages:      "English, Tamil",
			PricePerMin:    30,
			Rating:         4.9,
			Consultations:  980,
		},
		{
			ID:             uuid.New().String(),
			Name:           "Acharya Vikram Joshi",
			Email:          "vikram@jyotisetu.com",
			Password:       string(hash),
			Role:           models.RoleAstrologer,
			IsAvailable:    false,
			Experience:     "20 years",
			Specialization: "KP Astrology & Vastu",
			Languages:      "Hindi, Marathi, English",
			PricePerMin:    40,
			Rating:         4.7,
			Consultations:  2150,
		},
		{
			ID:             uuid.New().String(),
			Name:           "Smt. Lakshmi Devi",
			Email:          "lakshmi@jyotisetu.com",
			Password:       string(hash),
			Role:           models.RoleAstrologer,
			IsAvailable:    true,
			Experience:     "8 years",
			Specialization: "Palmistry",
			Languages:      "Telugu, Hindi",
			PricePerMin:    20,
			Rating:         4.6,
			Consultations:  560,
		},
	}

	for _, a := range astrologers {
		var existing models.User
		if err := database.DB.Where("email = ?", a.Email).First(&existing).Error; err == nil {
			log.Printf("   ⏭️  Already exists: %s", a.Email)
			continue
		}

		a.CreatedAt = time.Now()
		a.UpdatedAt = time.Now()
		if err := database.DB.Create(&a).Error; err != nil {
			log.Printf("   ❌ Failed to create %s: %v", a.Name, err)
		} else {
			log.Printf("   🌟 Astrologer Added: %s (%s)", a.Name, a.Specialization)
		}
	}
}
