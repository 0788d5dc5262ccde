package database

import (
	"fmt"
	"log"

	"teamvest/internal/models"
	"teamvest/internal/plans"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate runs migrations against a specific database handle.
func Migrate(db *gorm.DB) error {
	allModels := []interface{}{
		&models.User{},
		&models.Wallet{},
		&models.Deposit{},
		&models.Transaction{},
		&models.RewardTier{},
		&models.UserReward{},
		&models.OtpCode{},
	}

	for _, model := range allModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedRewardTiers inserts the default fast-track tiers if the table is
// empty. Existing tiers are never overwritten.
func SeedRewardTiers(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.RewardTier{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, tier := range plans.DefaultRewardTiers {
		row := models.RewardTier{
			Name:            tier.Name,
			VolumeThreshold: tier.VolumeThreshold,
			BonusAmount:     tier.BonusAmount,
			TimeframeDays:   tier.TimeframeDays,
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed reward tier %s: %w", tier.Name, err)
		}
	}

	log.Printf("Seeded %d reward tiers", len(plans.DefaultRewardTiers))
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
