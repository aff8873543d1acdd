package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/service"
)

// Scheduler drives the four periodic tasks: hourly, daily and weekly digest
// flushes plus the retry sweep. The tasks are independent; no ordering
// exists between them.
type Scheduler struct {
	cron   *cron.Cron
	digest *service.DigestService
	retry  *service.RetryService
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewScheduler constructs the scheduler.
func NewScheduler(digest *service.DigestService, retry *service.RetryService, cfg config.NotificationConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		digest: digest,
		retry:  retry,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the cron entries and begins scheduling.
func (s *Scheduler) Start() error {
	daily, err := dailySpec(s.cfg.DigestDailyTime)
	if err != nil {
		return fmt.Errorf("daily digest schedule: %w", err)
	}
	weekly, err := weeklySpec(s.cfg.DigestWeeklyDay, s.cfg.DigestWeeklyTime)
	if err != nil {
		return fmt.Errorf("weekly digest schedule: %w", err)
	}
	retryEvery := fmt.Sprintf("@every %s", s.cfg.RetryInterval())

	jobs := []struct {
		spec string
		name string
		run  func(context.Context)
	}{
		{"0 * * * *", "digest_hourly", s.flushJob(domain.DigestHourly)},
		{daily, "digest_daily", s.flushJob(domain.DigestDaily)},
		{weekly, "digest_weekly", s.flushJob(domain.DigestWeekly)},
		{retryEvery, "retry_sweep", s.retryJob()},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			job.run(ctx)
		}); err != nil {
			return fmt.Errorf("register %s (%q): %w", job.name, job.spec, err)
		}
		s.logger.Info("scheduled task registered",
			zap.String("task", job.name), zap.String("spec", job.spec))
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) flushJob(freq domain.DigestFrequency) func(context.Context) {
	return func(ctx context.Context) {
		if _, err := s.digest.Flush(ctx, freq); err != nil {
			s.logger.Error("digest flush failed",
				zap.String("frequency", string(freq)), zap.Error(err))
		}
	}
}

func (s *Scheduler) retryJob() func(context.Context) {
	return func(ctx context.Context) {
		if _, err := s.retry.Sweep(ctx); err != nil {
			s.logger.Error("retry sweep failed", zap.Error(err))
		}
	}
}

// dailySpec converts "HH:MM" into a five-field cron expression.
func dailySpec(timeOfDay string) (string, error) {
	hour, minute, err := parseClock(timeOfDay)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// weeklySpec converts a weekday (0=Sunday) and "HH:MM" into a cron expression.
func weeklySpec(day int, timeOfDay string) (string, error) {
	if day < 0 || day > 6 {
		return "", fmt.Errorf("weekday out of range: %d", day)
	}
	hour, minute, err := parseClock(timeOfDay)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * %d", minute, hour, day), nil
}

func parseClock(value string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	return hour, minute, nil
}
