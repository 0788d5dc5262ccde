package services

import (
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"teamvest/internal/models"
)

func newWallet(db *gorm.DB, clock clockwork.Clock) *WalletService {
	return NewWalletService(db, NewLedgerService(), NewOtpService(db, clock), decimal.NewFromInt(5))
}

func packageBalance(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()

	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("failed to load wallet for user %d: %v", userID, err)
	}
	return wallet.PackageBalance
}

func TestTransferMovesPackageBalance(t *testing.T) {
	db := setupTestDB(t, "wallet_transfer")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newWallet(db, clock)
	ledger := NewLedgerService()

	sender := createUser(t, db, "tr-sender@test", nil, testStart)
	receiver := createUser(t, db, "tr-receiver@test", nil, testStart)

	if _, err := ledger.Credit(db, LedgerEntry{
		UserID:        sender.ID,
		Amount:        decimal.NewFromInt(300),
		Type:          models.TxTypeDeposit,
		BalanceColumn: models.BalancePackage,
	}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	if err := svc.Transfer(sender.ID, receiver.ID, decimal.NewFromInt(120)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	if balance := packageBalance(t, db, sender.ID); !balance.Equal(decimal.NewFromInt(180)) {
		t.Errorf("sender package balance: expected 180, got %s", balance)
	}
	if balance := packageBalance(t, db, receiver.ID); !balance.Equal(decimal.NewFromInt(120)) {
		t.Errorf("receiver package balance: expected 120, got %s", balance)
	}

	if n := countTransactions(t, db, "user_id = ? AND type = ?", sender.ID, models.TxTypeP2PSent); n != 1 {
		t.Errorf("expected 1 sent transaction, got %d", n)
	}
	if n := countTransactions(t, db, "user_id = ? AND type = ?", receiver.ID, models.TxTypeP2PReceived); n != 1 {
		t.Errorf("expected 1 received transaction, got %d", n)
	}
}

func TestTransferInsufficientRollsBack(t *testing.T) {
	db := setupTestDB(t, "wallet_transfer_insufficient")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newWallet(db, clock)

	sender := createUser(t, db, "tri-sender@test", nil, testStart)
	receiver := createUser(t, db, "tri-receiver@test", nil, testStart)

	err := svc.Transfer(sender.ID, receiver.ID, decimal.NewFromInt(10))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if balance := packageBalance(t, db, receiver.ID); !balance.IsZero() {
		t.Errorf("receiver credited despite failed transfer: %s", balance)
	}
	if n := countTransactions(t, db, "type IN ?", []string{models.TxTypeP2PSent, models.TxTypeP2PReceived}); n != 0 {
		t.Errorf("failed transfer wrote %d transactions", n)
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	db := setupTestDB(t, "wallet_withdrawal")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newWallet(db, clock)
	ledger := NewLedgerService()
	otp := NewOtpService(db, clock)

	user := createUser(t, db, "wd-user@test", nil, testStart)
	if _, err := ledger.Credit(db, LedgerEntry{
		UserID:        user.ID,
		Amount:        decimal.NewFromInt(200),
		Type:          models.TxTypeTradingBonus,
		BalanceColumn: models.BalanceMain,
	}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	issued, err := otp.Issue(user.ID, models.OtpPurposeWithdrawal)
	if err != nil {
		t.Fatalf("OTP issue failed: %v", err)
	}

	withdrawal, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(100), issued.Code)
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if withdrawal.Status != models.TxStatusPending {
		t.Errorf("expected PENDING, got %s", withdrawal.Status)
	}

	// Amount and 5% fee both held immediately
	if balance := walletBalance(t, db, user.ID); !balance.Equal(decimal.NewFromInt(95)) {
		t.Errorf("expected held balance 95, got %s", balance)
	}
	if n := countTransactions(t, db, "user_id = ? AND type = ?", user.ID, models.TxTypePlatformFee); n != 1 {
		t.Errorf("expected 1 fee transaction, got %d", n)
	}

	// Rejection refunds the held amount plus the fee
	if err := svc.SettleWithdrawal(withdrawal.ID, false); err != nil {
		t.Fatalf("SettleWithdrawal failed: %v", err)
	}
	if balance := walletBalance(t, db, user.ID); !balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected refunded balance 200, got %s", balance)
	}
	if n := countTransactions(t, db, "user_id = ? AND type = ?", user.ID, models.TxTypeWithdrawalRefund); n != 1 {
		t.Errorf("expected 1 refund transaction, got %d", n)
	}

	var reloaded models.Transaction
	if err := db.First(&reloaded, withdrawal.ID).Error; err != nil {
		t.Fatalf("failed to reload withdrawal: %v", err)
	}
	if reloaded.Status != models.TxStatusFailed {
		t.Errorf("expected FAILED, got %s", reloaded.Status)
	}

	// A settled withdrawal cannot be settled again
	if err := svc.SettleWithdrawal(withdrawal.ID, true); !errors.Is(err, ErrWithdrawalNotPending) {
		t.Fatalf("expected ErrWithdrawalNotPending, got %v", err)
	}
}

func TestWithdrawalApproval(t *testing.T) {
	db := setupTestDB(t, "wallet_withdrawal_approve")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newWallet(db, clock)
	ledger := NewLedgerService()
	otp := NewOtpService(db, clock)

	user := createUser(t, db, "wda-user@test", nil, testStart)
	if _, err := ledger.Credit(db, LedgerEntry{
		UserID:        user.ID,
		Amount:        decimal.NewFromInt(500),
		Type:          models.TxTypeTradingBonus,
		BalanceColumn: models.BalanceMain,
	}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	issued, err := otp.Issue(user.ID, models.OtpPurposeWithdrawal)
	if err != nil {
		t.Fatalf("OTP issue failed: %v", err)
	}

	withdrawal, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(200), issued.Code)
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	if err := svc.SettleWithdrawal(withdrawal.ID, true); err != nil {
		t.Fatalf("SettleWithdrawal failed: %v", err)
	}

	var reloaded models.Transaction
	if err := db.First(&reloaded, withdrawal.ID).Error; err != nil {
		t.Fatalf("failed to reload withdrawal: %v", err)
	}
	if reloaded.Status != models.TxStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", reloaded.Status)
	}
	// No refund on approval: 500 - 200 - 10 fee
	if balance := walletBalance(t, db, user.ID); !balance.Equal(decimal.NewFromInt(290)) {
		t.Errorf("expected balance 290, got %s", balance)
	}
	if n := countTransactions(t, db, "user_id = ? AND type = ?", user.ID, models.TxTypeWithdrawalRefund); n != 0 {
		t.Errorf("approval must not refund, got %d refund transactions", n)
	}
}

func TestWithdrawalFeeRequiresBalance(t *testing.T) {
	db := setupTestDB(t, "wallet_withdrawal_fee")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newWallet(db, clock)
	ledger := NewLedgerService()
	otp := NewOtpService(db, clock)

	user := createUser(t, db, "wdf-user@test", nil, testStart)
	if _, err := ledger.Credit(db, LedgerEntry{
		UserID:        user.ID,
		Amount:        decimal.NewFromInt(100),
		Type:          models.TxTypeTradingBonus,
		BalanceColumn: models.BalanceMain,
	}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	issued, err := otp.Issue(user.ID, models.OtpPurposeWithdrawal)
	if err != nil {
		t.Fatalf("OTP issue failed: %v", err)
	}

	// 100 covers the amount but not the 5 fee: the whole request rolls back
	_, err = svc.RequestWithdrawal(user.ID, decimal.NewFromInt(100), issued.Code)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if balance := walletBalance(t, db, user.ID); !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance changed by failed request: %s", balance)
	}
	if n := countTransactions(t, db, "user_id = ? AND type IN ?", user.ID,
		[]string{models.TxTypeWithdrawal, models.TxTypePlatformFee}); n != 0 {
		t.Errorf("failed request wrote %d transactions", n)
	}
}
