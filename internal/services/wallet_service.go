package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"teamvest/internal/models"
)

// ErrWithdrawalNotPending is returned when settling a withdrawal that is
// not PENDING.
var ErrWithdrawalNotPending = errors.New("withdrawal is not pending")

// WalletService covers the user-facing wallet flows: balance lookup,
// transaction history, P2P package transfers, and OTP-gated withdrawal
// requests settled by an admin.
type WalletService struct {
	db         *gorm.DB
	ledger     *LedgerService
	otp        *OtpService
	feePercent decimal.Decimal
}

// NewWalletService creates a new WalletService. feePercent is the platform
// fee charged on withdrawals.
func NewWalletService(db *gorm.DB, ledger *LedgerService, otp *OtpService, feePercent decimal.Decimal) *WalletService {
	return &WalletService{db: db, ledger: ledger, otp: otp, feePercent: feePercent}
}

// GetWallet returns the user's wallet, creating a zero wallet if absent.
func (s *WalletService) GetWallet(userID uint) (*models.Wallet, error) {
	wallet := models.Wallet{UserID: userID}
	if err := s.db.Where("user_id = ?", userID).FirstOrCreate(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Transactions lists a user's ledger entries, newest first.
func (s *WalletService) Transactions(userID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var txs []models.Transaction
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Transfer moves package balance from one user to another. Debit and
// credit commit atomically; an insufficient sender balance aborts the whole
// transfer.
func (s *WalletService) Transfer(fromUserID, toUserID uint, amount decimal.Decimal) error {
	if fromUserID == toUserID {
		return fmt.Errorf("cannot transfer to yourself")
	}
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive")
	}

	var recipient models.User
	if err := s.db.First(&recipient, toUserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("recipient not found")
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, err := s.ledger.Debit(tx, LedgerEntry{
			UserID:        fromUserID,
			Amount:        amount,
			Type:          models.TxTypeP2PSent,
			Description:   fmt.Sprintf("Transfer to user %d", toUserID),
			BalanceColumn: models.BalancePackage,
			SourceUserID:  &toUserID,
		})
		if err != nil {
			return err
		}

		_, err = s.ledger.Credit(tx, LedgerEntry{
			UserID:        toUserID,
			Amount:        amount,
			Type:          models.TxTypeP2PReceived,
			Description:   fmt.Sprintf("Transfer from user %d", fromUserID),
			BalanceColumn: models.BalancePackage,
			SourceUserID:  &fromUserID,
		})
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("[Wallet] Transfer %s: user %d -> user %d", amount, fromUserID, toUserID)
	return nil
}

// RequestWithdrawal verifies the OTP, then debits the withdrawable balance
// for the amount and the platform fee. Both debits commit atomically; a
// balance that covers the amount but not the fee aborts the whole request.
// Funds are held until an admin settles the request.
func (s *WalletService) RequestWithdrawal(userID uint, amount decimal.Decimal, otpCode string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}

	if err := s.otp.Verify(userID, models.OtpPurposeWithdrawal, otpCode); err != nil {
		return nil, err
	}

	fee := amount.Mul(s.feePercent).Div(oneHundred).Round(2)

	var withdrawal *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		withdrawal, err = s.ledger.Debit(tx, LedgerEntry{
			UserID:        userID,
			Amount:        amount,
			Type:          models.TxTypeWithdrawal,
			Status:        models.TxStatusPending,
			Description:   "Withdrawal request",
			BalanceColumn: models.BalanceMain,
		})
		if err != nil {
			return err
		}

		if fee.IsPositive() {
			_, err = s.ledger.Debit(tx, LedgerEntry{
				UserID:        userID,
				Amount:        fee,
				Type:          models.TxTypePlatformFee,
				Reference:     withdrawal.Reference + "-fee",
				Description:   fmt.Sprintf("Platform fee for withdrawal %s", withdrawal.Reference),
				BalanceColumn: models.BalanceMain,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Wallet] User %d requested withdrawal of %s (fee %s)", userID, amount, fee)
	return withdrawal, nil
}

// SettleWithdrawal completes or fails a PENDING withdrawal. Rejection
// refunds the held amount and the platform fee in the same transaction as
// the status change.
func (s *WalletService) SettleWithdrawal(transactionID uint, approve bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var withdrawal models.Transaction
		if err := tx.First(&withdrawal, transactionID).Error; err != nil {
			return err
		}
		if withdrawal.Type != models.TxTypeWithdrawal || withdrawal.Status != models.TxStatusPending {
			return ErrWithdrawalNotPending
		}

		if approve {
			return tx.Model(&withdrawal).Update("status", models.TxStatusCompleted).Error
		}

		if err := tx.Model(&withdrawal).Update("status", models.TxStatusFailed).Error; err != nil {
			return err
		}

		refund := withdrawal.Amount
		var feeTx models.Transaction
		err := tx.Where("reference = ?", withdrawal.Reference+"-fee").First(&feeTx).Error
		switch {
		case err == nil:
			refund = refund.Add(feeTx.Amount)
		case err != gorm.ErrRecordNotFound:
			return err
		}

		_, err = s.ledger.Credit(tx, LedgerEntry{
			UserID:        withdrawal.UserID,
			Amount:        refund,
			Type:          models.TxTypeWithdrawalRefund,
			Description:   fmt.Sprintf("Refund for rejected withdrawal %s", withdrawal.Reference),
			BalanceColumn: models.BalanceMain,
		})
		return err
	})
}

// PendingWithdrawals lists withdrawal requests awaiting admin settlement.
func (s *WalletService) PendingWithdrawals() ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.Where("type = ? AND status = ?", models.TxTypeWithdrawal, models.TxStatusPending).
		Preload("User").Order("created_at").Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}
