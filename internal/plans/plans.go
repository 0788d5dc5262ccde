package plans

import (
	"github.com/shopspring/decimal"
)

// MaxPayoutDepth caps every upward payout chain. Both income schedules run
// to this depth; levels past it always pay zero.
const MaxPayoutDepth = 10

// ReferralIncomeScheduleV2 is the active per-level schedule applied to each
// matured cycle's profit. Index 0 = level 1 (direct sponsor). This is the
// single definition of these rates; nothing else may restate them. The
// legacy 20-level team-income schedule is retired and intentionally absent.
var ReferralIncomeScheduleV2 = []decimal.Decimal{
	decimal.NewFromInt(10),
	decimal.NewFromInt(5),
	decimal.NewFromInt(2),
	decimal.NewFromInt(1),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
}

// DirectIncomeScheduleV1 is the one-time commission schedule applied to the
// deposit amount itself when a deposit is approved. Kept as its own named
// table: the rates resemble the referral schedule but are versioned
// independently and must never be merged with it.
var DirectIncomeScheduleV1 = []decimal.Decimal{
	decimal.NewFromInt(10),
	decimal.NewFromInt(5),
	decimal.NewFromInt(3),
	decimal.NewFromInt(2),
	decimal.NewFromInt(1),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
	decimal.NewFromFloat(0.5),
}

// ReferralPercent returns the referral-income rate for a level, zero beyond
// the schedule.
func ReferralPercent(level int) decimal.Decimal {
	return percentAt(ReferralIncomeScheduleV2, level)
}

// DirectPercent returns the direct-income rate for a level, zero beyond the
// schedule.
func DirectPercent(level int) decimal.Decimal {
	return percentAt(DirectIncomeScheduleV1, level)
}

func percentAt(schedule []decimal.Decimal, level int) decimal.Decimal {
	if level < 1 || level > len(schedule) {
		return decimal.Zero
	}
	return schedule[level-1]
}

// Rank maps a downline investment volume band to a fixed monthly salary.
type Rank struct {
	Name      string
	Threshold decimal.Decimal
	Salary    decimal.Decimal
}

// SalaryRanksV1 is the active rank table, sorted by descending threshold.
// Thresholds are boundary-inclusive: volume exactly at a threshold earns
// that rank.
var SalaryRanksV1 = []Rank{
	{Name: "Crown", Threshold: decimal.NewFromInt(500000), Salary: decimal.NewFromInt(5000)},
	{Name: "Diamond", Threshold: decimal.NewFromInt(250000), Salary: decimal.NewFromInt(2000)},
	{Name: "Platinum", Threshold: decimal.NewFromInt(100000), Salary: decimal.NewFromInt(1000)},
	{Name: "Gold", Threshold: decimal.NewFromInt(50000), Salary: decimal.NewFromInt(500)},
	{Name: "Silver", Threshold: decimal.NewFromInt(25000), Salary: decimal.NewFromInt(250)},
	{Name: "Bronze", Threshold: decimal.NewFromInt(10000), Salary: decimal.NewFromInt(100)},
}

// RankForVolume returns the highest rank whose threshold the volume meets,
// or nil when the volume is below every band.
func RankForVolume(volume decimal.Decimal) *Rank {
	for i := range SalaryRanksV1 {
		if volume.GreaterThanOrEqual(SalaryRanksV1[i].Threshold) {
			return &SalaryRanksV1[i]
		}
	}
	return nil
}

// DefaultRewardTier seeds the fast-track milestone table on first boot.
type DefaultRewardTier struct {
	Name            string
	VolumeThreshold decimal.Decimal
	BonusAmount     decimal.Decimal
	TimeframeDays   int
}

// DefaultRewardTiers are the fast-track milestones seeded at migration time.
var DefaultRewardTiers = []DefaultRewardTier{
	{Name: "Fast Start", VolumeThreshold: decimal.NewFromInt(10000), BonusAmount: decimal.NewFromInt(50), TimeframeDays: 30},
	{Name: "Rising Star", VolumeThreshold: decimal.NewFromInt(25000), BonusAmount: decimal.NewFromInt(150), TimeframeDays: 60},
	{Name: "Team Builder", VolumeThreshold: decimal.NewFromInt(100000), BonusAmount: decimal.NewFromInt(500), TimeframeDays: 90},
}
