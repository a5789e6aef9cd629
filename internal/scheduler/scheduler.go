// Package scheduler runs the periodic interest job. The reference
// behavior applies interest on demand only; the cron schedule is an
// opt-in addition, disabled when INTEREST_CRON is empty.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/config"
	"github.com/minibank/minibank/internal/models"
)

// InterestApplier is the part of the service the scheduler drives.
type InterestApplier interface {
	ApplyInterest(ratePercent decimal.Decimal) ([]models.InterestCredit, error)
}

// Scheduler applies the configured interest rate on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// New builds the scheduler from configuration. It returns (nil, nil)
// when no schedule is configured.
func New(cfg *config.Config, svc InterestApplier, log *logrus.Logger) (*Scheduler, error) {
	if cfg.InterestCron == "" {
		return nil, nil
	}

	rate := decimal.NewFromFloat(cfg.InterestRatePercent)
	c := cron.New()
	_, err := c.AddFunc(cfg.InterestCron, func() {
		credits, err := svc.ApplyInterest(rate)
		if err != nil {
			log.Errorf("Scheduled interest run failed: %v", err)
			return
		}
		log.Infof("Scheduled interest at %s%% credited %d accounts", rate, len(credits))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid INTEREST_CRON %q: %w", cfg.InterestCron, err)
	}
	return &Scheduler{cron: c, log: log}, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Interest scheduler started")
}

// Stop halts the schedule; the running job, if any, completes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
