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

// UserFailure records a user whose monthly evaluation aborted. Other users
// in the run are unaffected.
type UserFailure struct {
	UserID uint   `json:"user_id"`
	Error  string `json:"error"`
}

// SalaryRunSummary is the structured result of one monthly evaluation run.
type SalaryRunSummary struct {
	StartedAt      time.Time       `json:"started_at"`
	Period         int             `json:"period"`
	UsersEvaluated int             `json:"users_evaluated"`
	SalariesPaid   int             `json:"salaries_paid"`
	SalaryTotal    decimal.Decimal `json:"salary_total"`
	RewardsGranted int             `json:"rewards_granted"`
	RewardsExpired int             `json:"rewards_expired"`
	Failures       []UserFailure   `json:"failures,omitempty"`
}

// RankService runs the monthly evaluation: downline investment volume maps
// to a rank salary, then fast-track reward tiers are settled against the
// user's time-boxed milestones. O(users × downline) per run, which holds up
// at platform scale (thousands of users, not millions).
type RankService struct {
	db     *gorm.DB
	ledger *LedgerService
	chain  *ChainService
	clock  clockwork.Clock
}

// NewRankService creates a new RankService
func NewRankService(db *gorm.DB, ledger *LedgerService, chain *ChainService, clock clockwork.Clock) *RankService {
	return &RankService{db: db, ledger: ledger, chain: chain, clock: clock}
}

// DownlineVolume sums the COMPLETED deposit principal across a user's
// entire downline.
func (s *RankService) DownlineVolume(userID uint) (decimal.Decimal, error) {
	downline, err := s.chain.Downline(userID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(downline) == 0 {
		return decimal.Zero, nil
	}

	var volume decimal.Decimal
	row := s.db.Model(&models.Deposit{}).
		Where("user_id IN ? AND status = ?", downline, models.DepositStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&volume); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum downline volume for user %d: %w", userID, err)
	}
	return volume, nil
}

// CurrentRank returns the user's rank for their present downline volume, or
// nil when unranked.
func (s *RankService) CurrentRank(userID uint) (*plans.Rank, decimal.Decimal, error) {
	volume, err := s.DownlineVolume(userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return plans.RankForVolume(volume), volume, nil
}

// RunMonthly evaluates every user once for the current calendar month.
// Salaries are idempotent per (user, month); re-invoking within the same
// month pays nothing further.
func (s *RankService) RunMonthly() (*SalaryRunSummary, error) {
	now := s.clock.Now()
	summary := &SalaryRunSummary{
		StartedAt:   now,
		Period:      now.Year()*100 + int(now.Month()),
		SalaryTotal: decimal.Zero,
	}

	var tiers []models.RewardTier
	if err := s.db.Order("volume_threshold").Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to load reward tiers: %w", err)
	}

	var users []models.User
	err := s.db.FindInBatches(&users, 200, func(_ *gorm.DB, _ int) error {
		for i := range users {
			if err := s.evaluateUser(&users[i], tiers, now, summary); err != nil {
				summary.Failures = append(summary.Failures, UserFailure{UserID: users[i].ID, Error: err.Error()})
				log.Printf("[RankEvaluator] Evaluation failed for user %d: %v", users[i].ID, err)
			}
			summary.UsersEvaluated++
		}
		return nil
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	log.Printf("[RankEvaluator] Run complete: %d users, %d salaries (%s), %d rewards granted, %d expired",
		summary.UsersEvaluated, summary.SalariesPaid, summary.SalaryTotal, summary.RewardsGranted, summary.RewardsExpired)
	return summary, nil
}

func (s *RankService) evaluateUser(user *models.User, tiers []models.RewardTier, now time.Time, summary *SalaryRunSummary) error {
	volume, err := s.DownlineVolume(user.ID)
	if err != nil {
		return err
	}

	if rank := plans.RankForVolume(volume); rank != nil {
		paid, err := s.paySalary(user, rank, summary.Period)
		if err != nil {
			return err
		}
		if paid {
			summary.SalariesPaid++
			summary.SalaryTotal = summary.SalaryTotal.Add(rank.Salary)
		}
	}

	return s.settleRewards(user, tiers, volume, now, summary)
}

// paySalary credits one month's rank salary. The guard query and the credit
// run in the same transaction; period is the calendar month key (YYYYMM).
func (s *RankService) paySalary(user *models.User, rank *plans.Rank, period int) (bool, error) {
	paid := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Transaction{}).
			Where("type = ? AND user_id = ? AND cycle_number = ?", models.TxTypeSalaryIncome, user.ID, period).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		periodKey := period
		_, err = s.ledger.Credit(tx, LedgerEntry{
			UserID:        user.ID,
			Amount:        rank.Salary,
			Type:          models.TxTypeSalaryIncome,
			Description:   fmt.Sprintf("%s rank salary for period %d", rank.Name, period),
			BalanceColumn: models.BalanceMain,
			CycleNumber:   &periodKey,
		})
		if err != nil {
			return err
		}
		paid = true
		return nil
	})
	return paid, err
}

// settleRewards walks the fast-track tiers: a tier reached within its
// window from the join date is credited once and marked ACHIEVED; a tier
// whose window has lapsed is marked EXPIRED and stays that way.
func (s *RankService) settleRewards(user *models.User, tiers []models.RewardTier, volume decimal.Decimal, now time.Time, summary *SalaryRunSummary) error {
	for i := range tiers {
		tier := &tiers[i]

		var reward models.UserReward
		err := s.db.Where("user_id = ? AND tier_id = ?", user.ID, tier.ID).First(&reward).Error
		if err == gorm.ErrRecordNotFound {
			reward = models.UserReward{UserID: user.ID, TierID: tier.ID, Status: models.RewardInProgress}
			if err := s.db.Create(&reward).Error; err != nil {
				return fmt.Errorf("failed to create reward row for tier %d: %w", tier.ID, err)
			}
		} else if err != nil {
			return err
		}

		if reward.Status != models.RewardInProgress {
			continue
		}

		deadline := user.JoinedAt.AddDate(0, 0, tier.TimeframeDays)

		if volume.GreaterThanOrEqual(tier.VolumeThreshold) && !now.After(deadline) {
			granted, err := s.grantReward(&reward, tier, now)
			if err != nil {
				return err
			}
			if granted {
				summary.RewardsGranted++
			}
			continue
		}

		if now.After(deadline) {
			result := s.db.Model(&models.UserReward{}).
				Where("id = ? AND status = ?", reward.ID, models.RewardInProgress).
				Update("status", models.RewardExpired)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				summary.RewardsExpired++
			}
		}
	}
	return nil
}

// grantReward settles one achieved tier. The status flip is conditional on
// the row still being IN_PROGRESS and runs in the same transaction as the
// credit: when two overlapping runs both read IN_PROGRESS, the loser's
// update matches zero rows and its credit is skipped. The reward rows have
// no correlation key, so this conditional flip is the only payout guard.
func (s *RankService) grantReward(reward *models.UserReward, tier *models.RewardTier, now time.Time) (bool, error) {
	granted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.UserReward{}).
			Where("id = ? AND status = ?", reward.ID, models.RewardInProgress).
			Updates(map[string]interface{}{
				"status":      models.RewardAchieved,
				"achieved_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		_, err := s.ledger.Credit(tx, LedgerEntry{
			UserID:        reward.UserID,
			Amount:        tier.BonusAmount,
			Type:          models.TxTypeFastTrackReward,
			Description:   fmt.Sprintf("Fast-track reward: %s", tier.Name),
			BalanceColumn: models.BalanceMain,
		})
		if err != nil {
			return err
		}
		granted = true
		return nil
	})
	return granted, err
}
