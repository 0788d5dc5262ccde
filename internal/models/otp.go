package models

import (
	"time"
)

// OTP purposes
const (
	OtpPurposeDeposit    = "DEPOSIT"
	OtpPurposeWithdrawal = "WITHDRAWAL"
)

// OtpCode is a short-lived verification code. Stored in the database with
// an expiry rather than in process memory so codes survive restarts and
// multiple instances see the same state.
type OtpCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Code      string     `gorm:"size:10;not null" json:"-"`
	Purpose   string     `gorm:"size:20;not null;index" json:"purpose"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for OtpCode model
func (OtpCode) TableName() string {
	return "otp_codes"
}
