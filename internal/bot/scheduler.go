package bot

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"coinSage/internal/model"
)

// Scheduler owns in-process cron registrations for recurring predictions.
// Jobs live only for the process lifetime; a restart drops every schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu   sync.Mutex
	jobs []model.ScheduledJob
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(), logger: logger}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Register adds a recurring prediction job. Registrations are never
// deduplicated: the same identifier and channel may be scheduled many times
// and each registration fires independently.
func (s *Scheduler) Register(expr, identifier, channelID string, run func(identifier, channelID string)) error {
	_, err := s.cron.AddFunc(expr, func() {
		run(identifier, channelID)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, model.ScheduledJob{
		CronExpression: expr,
		Identifier:     identifier,
		ChannelID:      channelID,
	})
	s.mu.Unlock()

	s.logger.Info("schedule registered",
		zap.String("cron", expr),
		zap.String("coin", identifier),
		zap.String("channel", channelID),
	)
	return nil
}

// Jobs returns a copy of the current registrations.
func (s *Scheduler) Jobs() []model.ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]model.ScheduledJob, len(s.jobs))
	copy(jobs, s.jobs)
	return jobs
}
