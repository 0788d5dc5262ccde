package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"teamvest/internal/models"
	"teamvest/internal/plans"
)

var testStart = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newDistribution(db *gorm.DB, clock clockwork.Clock) *DistributionService {
	return NewDistributionService(
		db,
		NewLedgerService(),
		NewChainService(db),
		clock,
		decimal.NewFromInt(10), // 10% per cycle
		30,
		plans.MaxPayoutDepth,
	)
}

// Scenario from the referral plan: A sponsors B sponsors C. C deposits
// $1,000 at 10% monthly; after 30 days B (level 1) earns $10.00 and A
// (level 2) earns $5.00 from the $100 cycle profit. C's withdrawable
// balance only gains the trading profit itself.
func TestDistributeScenario(t *testing.T) {
	db := setupTestDB(t, "distrib_scenario")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newDistribution(db, clock)

	userA := createUser(t, db, "a@test", nil, testStart)
	userB := createUser(t, db, "b@test", &userA.ID, testStart)
	userC := createUser(t, db, "c@test", &userB.ID, testStart)

	createCompletedDeposit(t, db, userC.ID, decimal.NewFromInt(1000), testStart, 180)

	clock.Advance(30 * 24 * time.Hour)

	summary, err := svc.RunDaily()
	if err != nil {
		t.Fatalf("RunDaily failed: %v", err)
	}

	if summary.CyclesProcessed != 1 {
		t.Errorf("expected 1 cycle processed, got %d", summary.CyclesProcessed)
	}
	if summary.ReferralPayouts != 2 {
		t.Errorf("expected 2 referral payouts, got %d", summary.ReferralPayouts)
	}

	balanceB := walletBalance(t, db, userB.ID)
	if !balanceB.Equal(decimal.NewFromFloat(10.00)) {
		t.Errorf("level 1 balance: expected 10.00, got %s", balanceB)
	}

	balanceA := walletBalance(t, db, userA.ID)
	if !balanceA.Equal(decimal.NewFromFloat(5.00)) {
		t.Errorf("level 2 balance: expected 5.00, got %s", balanceA)
	}

	// C receives the cycle's trading profit, nothing from the referral pass
	balanceC := walletBalance(t, db, userC.ID)
	if !balanceC.Equal(decimal.NewFromInt(100)) {
		t.Errorf("owner balance: expected 100, got %s", balanceC)
	}
	if n := countTransactions(t, db, "user_id = ? AND type = ?", userC.ID, models.TxTypeReferralIncome); n != 0 {
		t.Errorf("owner must not receive referral income, got %d rows", n)
	}
}

// Running the driver twice against identical state must produce zero new
// transactions and zero balance change.
func TestRunDailyIdempotent(t *testing.T) {
	db := setupTestDB(t, "distrib_idempotent")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newDistribution(db, clock)

	sponsor := createUser(t, db, "sponsor@test", nil, testStart)
	member := createUser(t, db, "member@test", &sponsor.ID, testStart)
	createCompletedDeposit(t, db, member.ID, decimal.NewFromInt(1000), testStart, 180)

	clock.Advance(31 * 24 * time.Hour)

	if _, err := svc.RunDaily(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	before := countTransactions(t, db, "1 = 1")
	sponsorBefore := walletBalance(t, db, sponsor.ID)
	memberBefore := walletBalance(t, db, member.ID)

	summary, err := svc.RunDaily()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if summary.ReferralPayouts != 0 || summary.ProfitPayouts != 0 {
		t.Errorf("second run paid again: %d referral, %d profit", summary.ReferralPayouts, summary.ProfitPayouts)
	}
	if after := countTransactions(t, db, "1 = 1"); after != before {
		t.Errorf("second run created transactions: %d -> %d", before, after)
	}
	if !walletBalance(t, db, sponsor.ID).Equal(sponsorBefore) {
		t.Error("sponsor balance changed on second run")
	}
	if !walletBalance(t, db, member.ID).Equal(memberBefore) {
		t.Error("member balance changed on second run")
	}
}

// A chain deeper than the payout cap must never pay past the cap.
func TestChainDepthCap(t *testing.T) {
	db := setupTestDB(t, "distrib_depthcap")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newDistribution(db, clock)

	var sponsorID *uint
	var bottom *models.User
	for i := 0; i < 16; i++ {
		user := createUser(t, db, fmt.Sprintf("u%d@test", i), sponsorID, testStart)
		sponsorID = &user.ID
		bottom = user
	}

	createCompletedDeposit(t, db, bottom.ID, decimal.NewFromInt(10000), testStart, 180)
	clock.Advance(30 * 24 * time.Hour)

	if _, err := svc.RunDaily(); err != nil {
		t.Fatalf("RunDaily failed: %v", err)
	}

	if n := countTransactions(t, db, "type = ? AND level > ?", models.TxTypeReferralIncome, plans.MaxPayoutDepth); n != 0 {
		t.Errorf("found %d payouts beyond level %d", n, plans.MaxPayoutDepth)
	}
	if n := countTransactions(t, db, "type = ?", models.TxTypeReferralIncome); n != int64(plans.MaxPayoutDepth) {
		t.Errorf("expected %d payouts, got %d", plans.MaxPayoutDepth, n)
	}
}

// Cycle gating: 29 days yields no cycles, 30 exactly one, 65 exactly two.
func TestCycleGating(t *testing.T) {
	db := setupTestDB(t, "distrib_gating")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newDistribution(db, clock)

	cases := []struct {
		days   int
		cycles int
	}{
		{29, 0},
		{30, 1},
		{65, 2},
	}

	for _, tc := range cases {
		approvedAt := testStart.Add(-time.Duration(tc.days) * 24 * time.Hour)
		if got := svc.CompletedCycles(approvedAt, testStart); got != tc.cycles {
			t.Errorf("%d days: expected %d cycles, got %d", tc.days, tc.cycles, got)
		}
	}

	// End to end: a 65-day-old deposit settles two cycles in one run.
	sponsor := createUser(t, db, "gate-sponsor@test", nil, testStart)
	member := createUser(t, db, "gate-member@test", &sponsor.ID, testStart)
	approvedAt := testStart.Add(-65 * 24 * time.Hour)
	deposit := createCompletedDeposit(t, db, member.ID, decimal.NewFromInt(1000), approvedAt, 180)

	summary, err := svc.RunDaily()
	if err != nil {
		t.Fatalf("RunDaily failed: %v", err)
	}
	if summary.CyclesProcessed != 2 {
		t.Errorf("expected 2 cycles processed, got %d", summary.CyclesProcessed)
	}
	for cycle := 1; cycle <= 2; cycle++ {
		if n := countTransactions(t, db, "type = ? AND deposit_id = ? AND cycle_number = ? AND level = ?",
			models.TxTypeReferralIncome, deposit.ID, cycle, 1); n != 1 {
			t.Errorf("cycle %d: expected 1 level-1 payout, got %d", cycle, n)
		}
	}
}

// A root user's deposit distributes nothing but still settles the cycle.
func TestRootUserZeroDistribution(t *testing.T) {
	db := setupTestDB(t, "distrib_root")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newDistribution(db, clock)

	root := createUser(t, db, "root@test", nil, testStart)
	createCompletedDeposit(t, db, root.ID, decimal.NewFromInt(500), testStart, 180)

	clock.Advance(30 * 24 * time.Hour)

	summary, err := svc.RunDaily()
	if err != nil {
		t.Fatalf("RunDaily failed: %v", err)
	}

	if summary.CyclesProcessed != 1 {
		t.Errorf("expected 1 cycle processed, got %d", summary.CyclesProcessed)
	}
	if summary.ReferralPayouts != 0 {
		t.Errorf("expected no referral payouts, got %d", summary.ReferralPayouts)
	}
	if n := countTransactions(t, db, "type = ?", models.TxTypeReferralIncome); n != 0 {
		t.Errorf("expected no referral transactions, got %d", n)
	}
	// Owner still collects the cycle profit
	if !walletBalance(t, db, root.ID).Equal(decimal.NewFromInt(50)) {
		t.Errorf("owner profit: expected 50, got %s", walletBalance(t, db, root.ID))
	}
}

// If one level's write fails, the whole cycle's distribution rolls back and
// no level keeps a credit; the next run settles the full cycle.
func TestDistributionAtomicity(t *testing.T) {
	db := setupTestDB(t, "distrib_atomic")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newDistribution(db, clock)

	var sponsorID *uint
	var bottom *models.User
	var ancestors []*models.User
	for i := 0; i < 6; i++ {
		user := createUser(t, db, fmt.Sprintf("atomic%d@test", i), sponsorID, testStart)
		sponsorID = &user.ID
		if bottom != nil {
			ancestors = append([]*models.User{bottom}, ancestors...)
		}
		bottom = user
	}

	createCompletedDeposit(t, db, bottom.ID, decimal.NewFromInt(1000), testStart, 180)
	clock.Advance(30 * 24 * time.Hour)

	// Force the level-3 insert to fail mid-chain.
	err := db.Exec(`CREATE TRIGGER force_level3_failure BEFORE INSERT ON transactions
		WHEN NEW.level = 3 AND NEW.type = 'referral_income'
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END`).Error
	if err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}

	summary, err := svc.RunDaily()
	if err != nil {
		t.Fatalf("RunDaily failed: %v", err)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 unit failure, got %d", len(summary.Failures))
	}

	if n := countTransactions(t, db, "type = ?", models.TxTypeReferralIncome); n != 0 {
		t.Errorf("rollback left %d referral transactions behind", n)
	}
	for _, ancestor := range ancestors {
		if balance := walletBalance(t, db, ancestor.ID); !balance.IsZero() {
			t.Errorf("user %d balance not rolled back: %s", ancestor.ID, balance)
		}
	}

	// Clear the fault; the retry settles every level exactly once.
	if err := db.Exec(`DROP TRIGGER force_level3_failure`).Error; err != nil {
		t.Fatalf("failed to drop trigger: %v", err)
	}

	summary, err = svc.RunDaily()
	if err != nil {
		t.Fatalf("retry run failed: %v", err)
	}
	if len(summary.Failures) != 0 {
		t.Fatalf("retry still failing: %+v", summary.Failures)
	}
	if n := countTransactions(t, db, "type = ?", models.TxTypeReferralIncome); n != 5 {
		t.Errorf("expected 5 referral transactions after retry, got %d", n)
	}
}

// Flat per-cycle accrual: the cycle profit is amount × monthly rate,
// independent of calendar specifics, rounded to two decimals.
func TestCycleProfit(t *testing.T) {
	db := setupTestDB(t, "distrib_profit")
	svc := newDistribution(db, clockwork.NewFakeClockAt(testStart))

	cases := []struct {
		amount string
		profit string
	}{
		{"1000", "100"},
		{"333.33", "33.33"},
		{"0.05", "0.01"},
	}

	for _, tc := range cases {
		amount, _ := decimal.NewFromString(tc.amount)
		expected, _ := decimal.NewFromString(tc.profit)
		if got := svc.CycleProfit(amount); !got.Equal(expected) {
			t.Errorf("CycleProfit(%s): expected %s, got %s", tc.amount, expected, got)
		}
	}
}

// A deposit past its unlock date stops accruing and is not discovered.
func TestUnlockedDepositExcluded(t *testing.T) {
	db := setupTestDB(t, "distrib_unlocked")
	clock := clockwork.NewFakeClockAt(testStart)
	svc := newDistribution(db, clock)

	sponsor := createUser(t, db, "unlock-sponsor@test", nil, testStart)
	member := createUser(t, db, "unlock-member@test", &sponsor.ID, testStart)
	// 60-day lock, now 90 days later: unlocked, out of scope
	approvedAt := testStart.Add(-90 * 24 * time.Hour)
	createCompletedDeposit(t, db, member.ID, decimal.NewFromInt(1000), approvedAt, 60)

	summary, err := svc.RunDaily()
	if err != nil {
		t.Fatalf("RunDaily failed: %v", err)
	}
	if summary.DepositsScanned != 0 {
		t.Errorf("expected 0 deposits scanned, got %d", summary.DepositsScanned)
	}
}
