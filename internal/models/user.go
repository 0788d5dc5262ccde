package models

import (
	"time"
)

// User represents a platform member. SponsorID is set once at registration
// and never changes afterwards; a user can only reference a user created
// before them, so the sponsor graph is acyclic by construction.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	DisplayName  string    `gorm:"size:100;not null" json:"display_name"`
	ReferralCode string    `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	SponsorID    *uint     `gorm:"index" json:"sponsor_id,omitempty"`
	Sponsor      *User     `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	JoinedAt     time.Time `gorm:"autoCreateTime" json:"joined_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
