package main

import (
	"log"

	"teamvest/internal/config"
	"teamvest/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.SeedRewardTiers(database.GetDB()); err != nil {
		log.Fatalf("Failed to seed reward tiers: %v", err)
	}

	log.Println("Migration complete")
}
