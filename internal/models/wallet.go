package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet balance column names, used by the ledger for atomic increments.
const (
	BalanceMain    = "balance"
	BalancePackage = "package_balance"
)

// Wallet holds a user's running balances. Balance is the withdrawable
// earnings balance; PackageBalance is the restricted balance credited by
// approved deposits and moved by internal transfers. Balances are only
// ever mutated by atomic increment/decrement paired with a Transaction
// row, never overwritten.
type Wallet struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	User           *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Balance        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	PackageBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"package_balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Wallet model
func (Wallet) TableName() string {
	return "wallets"
}
