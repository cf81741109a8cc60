package main

import (
	"log"

	"github.com/jyotisetu/astroconnect-backend/internal/config"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/internal/seeds"
)

func main() {
	config.LoadConfig()
	database.Connect()

	log.Println("🔄 Running migrations (just in case)...")
	database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.ConsultationRequest{},
	)

	if _, err := seeds.GetOrCreateAdminUser(); err != nil {
		log.Fatalf("❌ Failed to ensure admin user: %v", err)
	}

	seeds.SeedAstrologers()

	log.Println("✅ Seeding Complete!")
}
