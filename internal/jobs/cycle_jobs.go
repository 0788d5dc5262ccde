package jobs

import (
	"fmt"
	"log"

	"github.com/go-co-op/gocron/v2"

	"teamvest/internal/services"
)

// CycleJobs wires the two distribution cadences onto a gocron scheduler:
// the daily deposit-profit/referral run and the monthly salary/reward run.
// The schedules are independent; a failure in one run never stops the
// scheduler.
type CycleJobs struct {
	distribution *services.DistributionService
	rank         *services.RankService
	scheduler    gocron.Scheduler
}

// NewCycleJobs creates a new CycleJobs
func NewCycleJobs(distribution *services.DistributionService, rank *services.RankService) *CycleJobs {
	return &CycleJobs{distribution: distribution, rank: rank}
}

// Start registers and starts both jobs: daily at 00:30, monthly on the 1st
// at 01:00.
func (j *CycleJobs) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	j.scheduler = scheduler

	_, err = scheduler.NewJob(
		gocron.CronJob("30 0 * * *", false),
		gocron.NewTask(j.runDaily),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule daily distribution: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob("0 1 1 * *", false),
		gocron.NewTask(j.runMonthly),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule monthly evaluation: %w", err)
	}

	scheduler.Start()
	log.Println("[Jobs] Cycle jobs started (daily 00:30, monthly 1st 01:00)")
	return nil
}

// Stop shuts the scheduler down, letting a running job finish.
func (j *CycleJobs) Stop() {
	if j.scheduler == nil {
		return
	}
	if err := j.scheduler.Shutdown(); err != nil {
		log.Printf("[Jobs] Scheduler shutdown error: %v", err)
	}
}

func (j *CycleJobs) runDaily() {
	summary, err := j.distribution.RunDaily()
	if err != nil {
		log.Printf("[Jobs] Daily distribution run failed: %v", err)
		return
	}
	log.Printf("[Jobs] Daily distribution: %d cycles processed, %s distributed", summary.CyclesProcessed, summary.Distributed)
}

func (j *CycleJobs) runMonthly() {
	summary, err := j.rank.RunMonthly()
	if err != nil {
		log.Printf("[Jobs] Monthly evaluation run failed: %v", err)
		return
	}
	log.Printf("[Jobs] Monthly evaluation: %d salaries paid, %d rewards granted", summary.SalariesPaid, summary.RewardsGranted)
}
