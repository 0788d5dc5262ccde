package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"teamvest/internal/models"
)

// ErrInvalidOtp is returned when no matching, unexpired, unused code exists.
var ErrInvalidOtp = errors.New("invalid or expired OTP")

const otpTTL = 10 * time.Minute

// OtpService issues and verifies short-lived one-time codes, backed by the
// database rather than process memory. Delivery (email/SMS) is the caller's
// concern.
type OtpService struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewOtpService creates a new OtpService
func NewOtpService(db *gorm.DB, clock clockwork.Clock) *OtpService {
	return &OtpService{db: db, clock: clock}
}

// Issue creates a fresh 6-digit code for the user and purpose, invalidating
// any previous unused code for the same pair.
func (s *OtpService) Issue(userID uint, purpose string) (*models.OtpCode, error) {
	code, err := randomDigits(6)
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	now := s.clock.Now()
	otp := models.OtpCode{
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(otpTTL),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OtpCode{}).
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
			Update("expires_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&otp).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue OTP: %w", err)
	}

	log.Printf("[OTP] Issued %s code for user %d (expires %s)", purpose, userID, otp.ExpiresAt.Format(time.RFC3339))
	return &otp, nil
}

// Verify consumes a code. A code verifies at most once.
func (s *OtpService) Verify(userID uint, purpose, code string) error {
	now := s.clock.Now()

	result := s.db.Model(&models.OtpCode{}).
		Where("user_id = ? AND purpose = ? AND code = ? AND used_at IS NULL AND expires_at > ?",
			userID, purpose, code, now).
		Update("used_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to verify OTP: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidOtp
	}
	return nil
}

func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
