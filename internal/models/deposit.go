package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit statuses
const (
	DepositStatusPending   = "PENDING"
	DepositStatusCompleted = "COMPLETED"
	DepositStatusRejected  = "REJECTED"
)

// Deposit is a principal event: an approved credit whose amount accrues a
// fixed monthly profit until UnlockAt. Amount and ApprovedAt are immutable
// once the deposit is COMPLETED; the maturity clock is anchored to
// ApprovedAt.
type Deposit struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status     string          `gorm:"size:20;default:PENDING;index" json:"status"`
	TxNote     string          `gorm:"size:255" json:"tx_note"`
	ApprovedAt *time.Time      `gorm:"index" json:"approved_at,omitempty"`
	UnlockAt   *time.Time      `gorm:"index" json:"unlock_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Deposit model
func (Deposit) TableName() string {
	return "deposits"
}
