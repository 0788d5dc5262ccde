package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserReward statuses
const (
	RewardInProgress = "IN_PROGRESS"
	RewardAchieved   = "ACHIEVED"
	RewardExpired    = "EXPIRED"
)

// RewardTier is a fast-track milestone: reach VolumeThreshold of downline
// investment within TimeframeDays of joining and the bonus is credited once.
type RewardTier struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:50;uniqueIndex;not null" json:"name"`
	VolumeThreshold decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"volume_threshold"`
	BonusAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"bonus_amount"`
	TimeframeDays   int             `gorm:"not null" json:"timeframe_days"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for RewardTier model
func (RewardTier) TableName() string {
	return "reward_tiers"
}

// UserReward tracks one user's standing against one tier. Mutated only by
// the rank evaluator.
type UserReward struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	UserID     uint        `gorm:"not null;index:idx_user_tier,unique" json:"user_id"`
	User       *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TierID     uint        `gorm:"not null;index:idx_user_tier,unique" json:"tier_id"`
	Tier       *RewardTier `gorm:"foreignKey:TierID" json:"tier,omitempty"`
	Status     string      `gorm:"size:20;default:IN_PROGRESS;index" json:"status"`
	AchievedAt *time.Time  `json:"achieved_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName specifies the table name for UserReward model
func (UserReward) TableName() string {
	return "user_rewards"
}
