package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction directions
const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

// Transaction statuses
const (
	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusFailed    = "FAILED"
)

// Income source tags
const (
	TxTypeDeposit          = "deposit"
	TxTypeTradingBonus     = "trading_bonus"
	TxTypeReferralIncome   = "referral_income"
	TxTypeDirectIncome     = "direct_income"
	TxTypeSalaryIncome     = "salary_income"
	TxTypeFastTrackReward  = "fast_track_reward"
	TxTypeP2PSent          = "p2p_transfer_sent"
	TxTypeP2PReceived      = "p2p_transfer_received"
	TxTypePlatformFee      = "platform_fee"
	TxTypeWithdrawal       = "withdrawal"
	TxTypeWithdrawalRefund = "withdrawal_refund"
)

// Transaction is an append-only ledger entry. Distribution payouts carry a
// structured correlation key (DepositID, CycleNumber, Level); the composite
// unique index over (type, deposit_id, cycle_number, level) is the
// store-level backstop that makes a given payout unrepeatable. Rows where
// any key column is NULL (deposits, transfers, withdrawals) are not
// constrained by it. Description is prose only and never consulted for
// correctness.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Reference    string          `gorm:"uniqueIndex;size:40;not null" json:"reference"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	User         *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Direction    string          `gorm:"size:10;not null" json:"direction"`
	Type         string          `gorm:"size:50;not null;index;uniqueIndex:idx_payout_once" json:"type"`
	Status       string          `gorm:"size:20;default:COMPLETED;index" json:"status"`
	Description  string          `gorm:"type:text" json:"description"`
	DepositID    *uint           `gorm:"index;uniqueIndex:idx_payout_once" json:"deposit_id,omitempty"`
	CycleNumber  *int            `gorm:"uniqueIndex:idx_payout_once" json:"cycle_number,omitempty"`
	Level        *int            `gorm:"uniqueIndex:idx_payout_once" json:"level,omitempty"`
	SourceUserID *uint           `gorm:"index" json:"source_user_id,omitempty"`
	SourceUser   *User           `gorm:"foreignKey:SourceUserID" json:"source_user,omitempty"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
