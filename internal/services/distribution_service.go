package services

import (
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"teamvest/internal/models"
	"teamvest/internal/plans"
)

var oneHundred = decimal.NewFromInt(100)

// UnitFailure records a (deposit, cycle) unit whose transaction aborted.
// The unit rolled back cleanly and will be retried on the next run.
type UnitFailure struct {
	DepositID uint   `json:"deposit_id"`
	Cycle     int    `json:"cycle"`
	Error     string `json:"error"`
}

// RunSummary is the structured result of one distribution run.
type RunSummary struct {
	StartedAt       time.Time       `json:"started_at"`
	DepositsScanned int             `json:"deposits_scanned"`
	CyclesProcessed int             `json:"cycles_processed"`
	ProfitPayouts   int             `json:"profit_payouts"`
	ReferralPayouts int             `json:"referral_payouts"`
	ProfitPaid      decimal.Decimal `json:"profit_paid"`
	Distributed     decimal.Decimal `json:"distributed"`
	Failures        []UnitFailure   `json:"failures,omitempty"`
}

// DistributionService is the daily cycle driver: it discovers deposits with
// matured 30-day cycles, credits the owner's trading profit, and distributes
// referral income up the sponsor chain. Every (deposit, cycle) unit commits
// in its own database transaction; a failed unit rolls back whole and is
// retried on the next invocation.
type DistributionService struct {
	db          *gorm.DB
	ledger      *LedgerService
	chain       *ChainService
	clock       clockwork.Clock
	monthlyRate decimal.Decimal
	cycleDays   int
	maxDepth    int
}

// NewDistributionService creates a new DistributionService. monthlyRate is
// a percentage (10 means 10% per cycle).
func NewDistributionService(db *gorm.DB, ledger *LedgerService, chain *ChainService, clock clockwork.Clock, monthlyRate decimal.Decimal, cycleDays, maxDepth int) *DistributionService {
	return &DistributionService{
		db:          db,
		ledger:      ledger,
		chain:       chain,
		clock:       clock,
		monthlyRate: monthlyRate,
		cycleDays:   cycleDays,
		maxDepth:    maxDepth,
	}
}

// CycleProfit is one full cycle's profit for a deposit: amount × monthly
// rate, a constant per deposit. Flat per-cycle accrual is the business
// rule; it is not a daily-accrual approximation.
func (s *DistributionService) CycleProfit(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(s.monthlyRate).Div(oneHundred).Round(2)
}

// CompletedCycles returns how many full cycles have elapsed since the
// deposit was approved.
func (s *DistributionService) CompletedCycles(approvedAt, now time.Time) int {
	if !now.After(approvedAt) {
		return 0
	}
	cycleLen := time.Duration(s.cycleDays) * 24 * time.Hour
	return int(now.Sub(approvedAt) / cycleLen)
}

// RunDaily executes one distribution pass over all accruing deposits. Safe
// to re-invoke: a second run against identical state pays nothing.
func (s *DistributionService) RunDaily() (*RunSummary, error) {
	now := s.clock.Now()
	summary := &RunSummary{
		StartedAt:   now,
		ProfitPaid:  decimal.Zero,
		Distributed: decimal.Zero,
	}

	cycleLen := time.Duration(s.cycleDays) * 24 * time.Hour

	var deposits []models.Deposit
	err := s.db.Where("status = ? AND approved_at IS NOT NULL AND approved_at <= ? AND unlock_at > ?",
		models.DepositStatusCompleted, now.Add(-cycleLen), now).
		Order("id").
		Find(&deposits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to discover accruing deposits: %w", err)
	}

	summary.DepositsScanned = len(deposits)

	for i := range deposits {
		deposit := &deposits[i]
		completed := s.CompletedCycles(*deposit.ApprovedAt, now)

		chain, err := s.chain.ResolveChain(deposit.UserID, s.maxDepth)
		if err != nil {
			summary.Failures = append(summary.Failures, UnitFailure{DepositID: deposit.ID, Error: err.Error()})
			log.Printf("[Distribution] Failed to resolve chain for deposit %d: %v", deposit.ID, err)
			continue
		}

		for cycle := 1; cycle <= completed; cycle++ {
			if err := s.processCycle(deposit, cycle, chain, summary); err != nil {
				summary.Failures = append(summary.Failures, UnitFailure{DepositID: deposit.ID, Cycle: cycle, Error: err.Error()})
				log.Printf("[Distribution] Unit failed for deposit %d cycle %d: %v", deposit.ID, cycle, err)
			}
		}
	}

	log.Printf("[Distribution] Run complete: %d deposits, %d cycles, profit=%s distributed=%s, %d failures",
		summary.DepositsScanned, summary.CyclesProcessed, summary.ProfitPaid, summary.Distributed, len(summary.Failures))
	return summary, nil
}

// processCycle settles one (deposit, cycle) unit: the owner's trading
// profit in one transaction, then the referral distribution across all
// chain levels in another.
func (s *DistributionService) processCycle(deposit *models.Deposit, cycle int, chain []ChainLink, summary *RunSummary) error {
	profit := s.CycleProfit(deposit.Amount)

	paid, err := s.payOwnerProfit(deposit, cycle, profit)
	if err != nil {
		return err
	}
	if paid {
		summary.ProfitPayouts++
		summary.ProfitPaid = summary.ProfitPaid.Add(profit)
	}

	payouts, distributed, err := s.distributeCycle(deposit, cycle, profit, chain)
	if err != nil {
		return err
	}

	summary.CyclesProcessed++
	summary.ReferralPayouts += payouts
	summary.Distributed = summary.Distributed.Add(distributed)

	if len(chain) == 0 {
		log.Printf("[Distribution] Deposit %d cycle %d: no sponsor chain, zero distribution", deposit.ID, cycle)
	}
	return nil
}

// payOwnerProfit credits one cycle's trading profit to the deposit owner.
// Level 0 marks the owner's own payout in the correlation key.
func (s *DistributionService) payOwnerProfit(deposit *models.Deposit, cycle int, profit decimal.Decimal) (bool, error) {
	if !profit.IsPositive() {
		return false, nil
	}

	paid := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ownerLevel := 0
		exists, err := s.payoutExists(tx, models.TxTypeTradingBonus, deposit.ID, cycle, ownerLevel)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		_, err = s.ledger.Credit(tx, LedgerEntry{
			UserID:        deposit.UserID,
			Amount:        profit,
			Type:          models.TxTypeTradingBonus,
			Description:   fmt.Sprintf("Trading profit for cycle %d", cycle),
			BalanceColumn: models.BalanceMain,
			DepositID:     &deposit.ID,
			CycleNumber:   &cycle,
			Level:         &ownerLevel,
		})
		if err != nil {
			return err
		}
		paid = true
		return nil
	})
	return paid, err
}

// distributeCycle pays referral income for one cycle's profit across every
// chain level with a non-zero rate, inside a single transaction. The
// already-paid check runs inside that same transaction, so a concurrent or
// repeated run cannot double-credit; the unique index over the correlation
// key backstops the check.
func (s *DistributionService) distributeCycle(deposit *models.Deposit, cycle int, profit decimal.Decimal, chain []ChainLink) (int, decimal.Decimal, error) {
	payouts := 0
	distributed := decimal.Zero

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, link := range chain {
			percent := plans.ReferralPercent(link.Level)
			if percent.IsZero() {
				continue
			}

			payout := profit.Mul(percent).Div(oneHundred).Round(2)
			if !payout.IsPositive() {
				continue
			}

			exists, err := s.payoutExists(tx, models.TxTypeReferralIncome, deposit.ID, cycle, link.Level)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			level := link.Level
			_, err = s.ledger.Credit(tx, LedgerEntry{
				UserID:        link.UserID,
				Amount:        payout,
				Type:          models.TxTypeReferralIncome,
				Description:   fmt.Sprintf("Level %d referral income, cycle %d", link.Level, cycle),
				BalanceColumn: models.BalanceMain,
				DepositID:     &deposit.ID,
				CycleNumber:   &cycle,
				Level:         &level,
				SourceUserID:  &deposit.UserID,
			})
			if err != nil {
				return err
			}

			payouts++
			distributed = distributed.Add(payout)
		}
		return nil
	})
	if err != nil {
		return 0, decimal.Zero, err
	}
	return payouts, distributed, nil
}

// payoutExists is the idempotency guard: true when a payout row already
// carries the (type, deposit, cycle, level) correlation key.
func (s *DistributionService) payoutExists(tx *gorm.DB, txType string, depositID uint, cycle, level int) (bool, error) {
	var count int64
	err := tx.Model(&models.Transaction{}).
		Where("type = ? AND deposit_id = ? AND cycle_number = ? AND level = ?", txType, depositID, cycle, level).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check payout for deposit %d cycle %d level %d: %w", depositID, cycle, level, err)
	}
	return count > 0, nil
}
