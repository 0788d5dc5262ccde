package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"teamvest/internal/models"
	"teamvest/internal/plans"
)

// ErrDepositNotPending is returned when approving or rejecting a deposit
// that already left the PENDING state.
var ErrDepositNotPending = errors.New("deposit is not pending")

// DepositService owns the deposit lifecycle: OTP-verified request, admin
// approval (which credits the package balance, starts the maturity clock,
// and pays one-time direct income up the sponsor chain), and rejection.
type DepositService struct {
	db       *gorm.DB
	ledger   *LedgerService
	chain    *ChainService
	otp      *OtpService
	clock    clockwork.Clock
	lockDays int
	maxDepth int
}

// NewDepositService creates a new DepositService. lockDays is how long an
// approved deposit accrues before it unlocks.
func NewDepositService(db *gorm.DB, ledger *LedgerService, chain *ChainService, otp *OtpService, clock clockwork.Clock, lockDays, maxDepth int) *DepositService {
	return &DepositService{
		db:       db,
		ledger:   ledger,
		chain:    chain,
		otp:      otp,
		clock:    clock,
		lockDays: lockDays,
		maxDepth: maxDepth,
	}
}

// RequestDeposit records a PENDING deposit after OTP verification. Funds
// settle off-band; nothing is credited until an admin approves.
func (s *DepositService) RequestDeposit(userID uint, amount decimal.Decimal, txNote, otpCode string) (*models.Deposit, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	if err := s.otp.Verify(userID, models.OtpPurposeDeposit, otpCode); err != nil {
		return nil, err
	}

	deposit := models.Deposit{
		UserID: userID,
		Amount: amount,
		Status: models.DepositStatusPending,
		TxNote: txNote,
	}
	if err := s.db.Create(&deposit).Error; err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	log.Printf("[Deposit] User %d requested deposit of %s (ID: %d)", userID, amount, deposit.ID)
	return &deposit, nil
}

// Approve moves a PENDING deposit to COMPLETED: the package balance is
// credited, the maturity clock starts, and one-time direct income is paid
// up the chain. All of it commits in one transaction; the correlation key
// (deposit, cycle 0, level) makes the direct payouts unrepeatable even if
// an approval is retried after a crash.
func (s *DepositService) Approve(depositID uint) (*models.Deposit, error) {
	now := s.clock.Now()
	unlockAt := now.AddDate(0, 0, s.lockDays)

	var deposit models.Deposit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deposit, depositID).Error; err != nil {
			return err
		}
		if deposit.Status != models.DepositStatusPending {
			return ErrDepositNotPending
		}

		result := tx.Model(&models.Deposit{}).
			Where("id = ? AND status = ?", depositID, models.DepositStatusPending).
			Updates(map[string]interface{}{
				"status":      models.DepositStatusCompleted,
				"approved_at": now,
				"unlock_at":   unlockAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDepositNotPending
		}

		directCycle := 0
		_, err := s.ledger.Credit(tx, LedgerEntry{
			UserID:        deposit.UserID,
			Amount:        deposit.Amount,
			Type:          models.TxTypeDeposit,
			Description:   "Deposit approved",
			BalanceColumn: models.BalancePackage,
			DepositID:     &deposit.ID,
			CycleNumber:   &directCycle,
		})
		if err != nil {
			return err
		}

		return s.payDirectIncome(tx, &deposit)
	})
	if err != nil {
		return nil, err
	}

	deposit.Status = models.DepositStatusCompleted
	deposit.ApprovedAt = &now
	deposit.UnlockAt = &unlockAt

	log.Printf("[Deposit] Approved deposit %d for user %d: %s, unlocks %s", deposit.ID, deposit.UserID, deposit.Amount, unlockAt.Format("2006-01-02"))
	return &deposit, nil
}

// Reject marks a PENDING deposit REJECTED. Nothing was credited, so there
// is nothing to reverse.
func (s *DepositService) Reject(depositID uint) error {
	result := s.db.Model(&models.Deposit{}).
		Where("id = ? AND status = ?", depositID, models.DepositStatusPending).
		Update("status", models.DepositStatusRejected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDepositNotPending
	}

	log.Printf("[Deposit] Rejected deposit %d", depositID)
	return nil
}

// payDirectIncome pays the one-time commission schedule against the deposit
// amount, inside the approval transaction. Cycle 0 tags direct income in
// the correlation key.
func (s *DepositService) payDirectIncome(tx *gorm.DB, deposit *models.Deposit) error {
	chain, err := s.chain.ResolveChain(deposit.UserID, s.maxDepth)
	if err != nil {
		return err
	}

	directCycle := 0
	for _, link := range chain {
		percent := plans.DirectPercent(link.Level)
		if percent.IsZero() {
			continue
		}

		payout := deposit.Amount.Mul(percent).Div(oneHundred).Round(2)
		if !payout.IsPositive() {
			continue
		}

		var count int64
		err := tx.Model(&models.Transaction{}).
			Where("type = ? AND deposit_id = ? AND cycle_number = ? AND level = ?",
				models.TxTypeDirectIncome, deposit.ID, directCycle, link.Level).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		level := link.Level
		_, err = s.ledger.Credit(tx, LedgerEntry{
			UserID:        link.UserID,
			Amount:        payout,
			Type:          models.TxTypeDirectIncome,
			Description:   fmt.Sprintf("Level %d direct income", link.Level),
			BalanceColumn: models.BalanceMain,
			DepositID:     &deposit.ID,
			CycleNumber:   &directCycle,
			Level:         &level,
			SourceUserID:  &deposit.UserID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// PendingDeposits lists deposits awaiting admin review.
func (s *DepositService) PendingDeposits() ([]models.Deposit, error) {
	var deposits []models.Deposit
	if err := s.db.Where("status = ?", models.DepositStatusPending).Preload("User").Order("created_at").Find(&deposits).Error; err != nil {
		return nil, err
	}
	return deposits, nil
}

// UserDeposits lists a user's deposits, newest first.
func (s *DepositService) UserDeposits(userID uint) ([]models.Deposit, error) {
	var deposits []models.Deposit
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&deposits).Error; err != nil {
		return nil, err
	}
	return deposits, nil
}
