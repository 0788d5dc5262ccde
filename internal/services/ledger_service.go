package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"teamvest/internal/models"
)

// ErrInsufficientBalance is returned by Debit when the wallet cannot cover
// the amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// LedgerEntry describes one wallet mutation. BalanceColumn selects which
// balance the amount moves (models.BalanceMain or models.BalancePackage).
// DepositID/CycleNumber/Level form the distribution correlation key and are
// nil for non-distribution entries. Reference overrides the generated
// transaction reference when the caller needs a derived one.
type LedgerEntry struct {
	UserID        uint
	Amount        decimal.Decimal
	Type          string
	Status        string
	Reference     string
	Description   string
	BalanceColumn string
	DepositID     *uint
	CycleNumber   *int
	Level         *int
	SourceUserID  *uint
}

// LedgerService applies wallet mutations. Every method takes the *gorm.DB
// handle of the transaction it must run inside: the balance increment and
// the audit row commit together or not at all.
type LedgerService struct{}

// NewLedgerService creates a new LedgerService
func NewLedgerService() *LedgerService {
	return &LedgerService{}
}

// Credit increments the selected balance and appends a CREDIT transaction
// row. Amount must be strictly positive; zero payouts are skipped by
// callers, never written as no-op rows.
func (s *LedgerService) Credit(tx *gorm.DB, entry LedgerEntry) (*models.Transaction, error) {
	column, err := balanceColumn(entry.BalanceColumn)
	if err != nil {
		return nil, err
	}
	if !entry.Amount.IsPositive() {
		return nil, fmt.Errorf("credit amount must be positive, got %s", entry.Amount)
	}

	wallet := models.Wallet{UserID: entry.UserID}
	if err := tx.Where("user_id = ?", entry.UserID).FirstOrCreate(&wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to load wallet for user %d: %w", entry.UserID, err)
	}

	if err := tx.Model(&models.Wallet{}).Where("user_id = ?", entry.UserID).
		Update(column, gorm.Expr(column+" + ?", entry.Amount)).Error; err != nil {
		return nil, fmt.Errorf("failed to credit wallet for user %d: %w", entry.UserID, err)
	}

	record, err := s.appendRecord(tx, entry, models.DirectionCredit)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Debit decrements the selected balance and appends a DEBIT transaction
// row. The decrement is conditional on sufficient funds in a single
// statement, so concurrent debits cannot overdraw via read-modify-write.
func (s *LedgerService) Debit(tx *gorm.DB, entry LedgerEntry) (*models.Transaction, error) {
	column, err := balanceColumn(entry.BalanceColumn)
	if err != nil {
		return nil, err
	}
	if !entry.Amount.IsPositive() {
		return nil, fmt.Errorf("debit amount must be positive, got %s", entry.Amount)
	}

	result := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND "+column+" >= ?", entry.UserID, entry.Amount).
		Update(column, gorm.Expr(column+" - ?", entry.Amount))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to debit wallet for user %d: %w", entry.UserID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInsufficientBalance
	}

	record, err := s.appendRecord(tx, entry, models.DirectionDebit)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *LedgerService) appendRecord(tx *gorm.DB, entry LedgerEntry, direction string) (*models.Transaction, error) {
	status := entry.Status
	if status == "" {
		status = models.TxStatusCompleted
	}
	reference := entry.Reference
	if reference == "" {
		reference = uuid.New().String()
	}

	record := models.Transaction{
		Reference:    reference,
		UserID:       entry.UserID,
		Amount:       entry.Amount,
		Direction:    direction,
		Type:         entry.Type,
		Status:       status,
		Description:  entry.Description,
		DepositID:    entry.DepositID,
		CycleNumber:  entry.CycleNumber,
		Level:        entry.Level,
		SourceUserID: entry.SourceUserID,
	}

	if err := tx.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record transaction for user %d: %w", entry.UserID, err)
	}
	return &record, nil
}

func balanceColumn(column string) (string, error) {
	switch column {
	case models.BalanceMain, models.BalancePackage:
		return column, nil
	case "":
		return models.BalanceMain, nil
	default:
		return "", fmt.Errorf("unknown balance column %q", column)
	}
}
