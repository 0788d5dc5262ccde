package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"teamvest/internal/models"
)

// setupTestDB opens a named in-memory database so every connection from the
// pool sees the same data. Each test uses its own name to stay isolated.
func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Deposit{},
		&models.Transaction{},
		&models.RewardTier{},
		&models.UserReward{},
		&models.OtpCode{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, sponsorID *uint, joinedAt time.Time) *models.User {
	t.Helper()

	user := models.User{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  email,
		ReferralCode: email,
		SponsorID:    sponsorID,
		JoinedAt:     joinedAt,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	if err := db.Create(&models.Wallet{UserID: user.ID}).Error; err != nil {
		t.Fatalf("failed to create wallet for %s: %v", email, err)
	}
	return &user
}

func createCompletedDeposit(t *testing.T, db *gorm.DB, userID uint, amount decimal.Decimal, approvedAt time.Time, lockDays int) *models.Deposit {
	t.Helper()

	unlockAt := approvedAt.AddDate(0, 0, lockDays)
	deposit := models.Deposit{
		UserID:     userID,
		Amount:     amount,
		Status:     models.DepositStatusCompleted,
		ApprovedAt: &approvedAt,
		UnlockAt:   &unlockAt,
	}
	if err := db.Create(&deposit).Error; err != nil {
		t.Fatalf("failed to create deposit: %v", err)
	}
	return &deposit
}

func walletBalance(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()

	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("failed to load wallet for user %d: %v", userID, err)
	}
	return wallet.Balance
}

func countTransactions(t *testing.T, db *gorm.DB, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.Transaction{}).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	return count
}
