package scheduler

import (
	"context"
	"errors"
	"fmt"

	"sjsage522/oddsworker/internal/odds"
	"sjsage522/oddsworker/logger"
	apperrors "sjsage522/oddsworker/pkg/errors"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs jobs on cron schedules with a seconds field.
// A run that is still going when its next tick fires makes that tick a no-op.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// New creates a new scheduler
func New() *Scheduler {
	log := logger.ForScheduler()
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		log: log,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@every 10m"         - Every ten minutes
//   - "0 0 9-16 * * SAT,SUN" - Hourly during weekend racing
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug().Str("job", job.Name()).Msg("Running job")

		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Job failed")
		} else {
			s.log.Debug().Str("job", job.Name()).Msg("Job completed")
		}
	})
	if err != nil {
		return apperrors.NewConfiguration(fmt.Sprintf("invalid schedule %q", schedule), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// DailyFetcher produces the report for one date
type DailyFetcher interface {
	FetchDaily(ctx context.Context, date string) odds.DailyOddsReport
}

// DailyJob refreshes the report of a fixed date on every run
type DailyJob struct {
	ctx     context.Context
	fetcher DailyFetcher
	date    string
	sink    func(odds.DailyOddsReport) error
}

// NewDailyJob creates a job for date. sink receives every report and may be nil.
func NewDailyJob(ctx context.Context, fetcher DailyFetcher, date string, sink func(odds.DailyOddsReport) error) *DailyJob {
	return &DailyJob{ctx: ctx, fetcher: fetcher, date: date, sink: sink}
}

// Name implements Job
func (j *DailyJob) Name() string {
	return "daily_odds:" + j.date
}

// Run fetches the date once. A report without any successful race is an error.
func (j *DailyJob) Run() error {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	report := j.fetcher.FetchDaily(j.ctx, j.date)

	var errs []error
	if j.sink != nil {
		if err := j.sink(report); err != nil {
			errs = append(errs, err)
		}
	}
	if report.Status != odds.StatusSuccess {
		errs = append(errs, errors.New(report.Message))
	}
	return errors.Join(errs...)
}

// cronLogger adapts the component logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
